package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// DocumentTTL expires documents that have not been written for this
	// long. Zero keeps them forever.
	DocumentTTL time.Duration

	// MaxTxRetries bounds optimistic-lock retries for nested writes
	MaxTxRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DocumentTTL:  0,
		MaxTxRetries: 10,
	}
}
