// Package config binds the server settings to command line flags and
// HCONGAME_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/davidwalker2235/hcongame/internal/api"
	"github.com/davidwalker2235/hcongame/internal/challenge"
	"github.com/davidwalker2235/hcongame/internal/factory"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/admin"
	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
	redisstorage "github.com/davidwalker2235/hcongame/internal/storage/redis"
)

// EnvPrefix prefixes every environment variable the server reads
const EnvPrefix = "HCONGAME"

// Config holds the server settings
type Config struct {
	Bind string
	Port int

	StorageType string
	RedisURL    string
	// RedisTTL expires untouched documents, zero keeps them
	RedisTTL time.Duration
	SeedPath string

	ChallengeURL     string
	ChallengeTimeout time.Duration
	RateLimit        float64
	RateBurst        int
	ValidateTokens   bool
	ValidateTTL      time.Duration

	AdminKeyHash string
	PublicURL    string

	SecureCookie         bool
	StaticDir            string
	StrictMissingProfile bool

	MaxLevel      int
	LevelIdleTTL  time.Duration
	SweepInterval time.Duration

	LogLevel string
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.StorageType {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required when --storage is redis")
		}
	default:
		return fmt.Errorf("invalid storage type %q (must be memory or redis)", c.StorageType)
	}
	if _, err := url.ParseRequestURI(c.ChallengeURL); err != nil {
		return fmt.Errorf("invalid challenge API URL %q: %w", c.ChallengeURL, err)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit: %g", c.RateLimit)
	}
	if c.MaxLevel < 1 {
		return fmt.Errorf("invalid max level: %d", c.MaxLevel)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("invalid sweep interval: %s", c.SweepInterval)
	}
	if c.AdminKeyHash != "" && !strings.HasPrefix(c.AdminKeyHash, "$2") {
		return errors.New("--admin-key-hash must be a bcrypt hash")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Factory builds the application factory configuration
func (c *Config) Factory(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		Logger:         logger,
		StorageType:    c.StorageType,
		SeedPath:       c.SeedPath,
		ValidateTokens: c.ValidateTokens,
	}

	if c.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.DocumentTTL = c.RedisTTL
		cfg.RedisConfig = &redisCfg
	}

	cfg.Challenge = challenge.DefaultConfig()
	cfg.Challenge.BaseURL = c.ChallengeURL
	cfg.Challenge.Timeout = c.ChallengeTimeout
	cfg.Challenge.RateLimit = c.RateLimit
	cfg.Challenge.Burst = c.RateBurst

	cfg.Validator = challenge.DefaultValidatorConfig()
	cfg.Validator.TTL = c.ValidateTTL

	cfg.Levels = levels.DefaultConfig()
	cfg.Levels.MaxLevel = c.MaxLevel
	cfg.Levels.IdleTTL = c.LevelIdleTTL

	cfg.Verification = verification.DefaultConfig()
	cfg.Verification.StrictMissingProfile = c.StrictMissingProfile
	cfg.Verification.MaxLevel = c.MaxLevel

	cfg.Admin = admin.DefaultConfig()
	cfg.Admin.KeyHash = c.AdminKeyHash
	if c.PublicURL != "" {
		cfg.Admin.PublicURL = c.PublicURL
	}

	return cfg
}

// Server builds the HTTP server configuration
func (c *Config) Server() api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Host = c.Bind
	cfg.Port = c.Port
	return cfg
}

// Handler builds the router configuration
func (c *Config) Handler() factory.HandlerConfig {
	return factory.HandlerConfig{
		StaticDir:    c.StaticDir,
		SecureCookie: c.SecureCookie,
	}
}

// NewCommand returns the server command. Flags take precedence over the
// environment; run is called with the validated configuration.
func NewCommand(cfg *Config, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the hcongame web front-end and API",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			var err error
			fs.VisitAll(func(f *pflag.Flag) {
				if err != nil || f.Changed || !v.IsSet(f.Name) {
					return
				}
				if setErr := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); setErr != nil {
					err = fmt.Errorf("invalid %s_%s: %w", EnvPrefix, envName(f.Name), setErr)
				}
			})
			if err != nil {
				return err
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfg)
		},
		SilenceUsage: true,
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "", "address to bind to (env: HCONGAME_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: HCONGAME_PORT)")

	fs.StringVar(&cfg.StorageType, "storage", factory.StorageTypeMemory, "storage backend, memory or redis (env: HCONGAME_STORAGE)")
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "Redis connection URL (env: HCONGAME_REDIS_URL)")
	fs.DurationVar(&cfg.RedisTTL, "redis-ttl", 0, "expire documents not written for this long, 0 keeps them (env: HCONGAME_REDIS_TTL)")
	fs.StringVar(&cfg.SeedPath, "seed", "", "JSON file loaded into the store at startup (env: HCONGAME_SEED)")

	fs.StringVar(&cfg.ChallengeURL, "challenge-url", challenge.DefaultConfig().BaseURL, "challenge API base URL (env: HCONGAME_CHALLENGE_URL)")
	fs.DurationVar(&cfg.ChallengeTimeout, "challenge-timeout", challenge.DefaultConfig().Timeout, "challenge API request timeout (env: HCONGAME_CHALLENGE_TIMEOUT)")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", 0, "challenge API requests per second, 0 disables limiting (env: HCONGAME_RATE_LIMIT)")
	fs.IntVar(&cfg.RateBurst, "rate-burst", challenge.DefaultConfig().Burst, "challenge API burst size (env: HCONGAME_RATE_BURST)")
	fs.BoolVar(&cfg.ValidateTokens, "validate-tokens", false, "check page tokens against the challenge API (env: HCONGAME_VALIDATE_TOKENS)")
	fs.DurationVar(&cfg.ValidateTTL, "validate-ttl", challenge.DefaultValidatorConfig().TTL, "how long a token check is cached (env: HCONGAME_VALIDATE_TTL)")

	fs.StringVar(&cfg.AdminKeyHash, "admin-key-hash", "", "bcrypt hash of the admin key, empty disables admin routes (env: HCONGAME_ADMIN_KEY_HASH)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "address players open, used in access links (env: HCONGAME_PUBLIC_URL)")

	fs.BoolVar(&cfg.SecureCookie, "secure-cookie", false, "mark the session cookie Secure (env: HCONGAME_SECURE_COOKIE)")
	fs.StringVar(&cfg.StaticDir, "static-dir", "", "directory with static assets (env: HCONGAME_STATIC_DIR)")
	fs.BoolVar(&cfg.StrictMissingProfile, "strict-missing-profile", false, "deny tokens without a stored profile (env: HCONGAME_STRICT_MISSING_PROFILE)")

	fs.IntVar(&cfg.MaxLevel, "max-level", model.MaxLevel, "highest playable level (env: HCONGAME_MAX_LEVEL)")
	fs.DurationVar(&cfg.LevelIdleTTL, "level-idle-ttl", levels.DefaultConfig().IdleTTL, "drop idle level state after this long (env: HCONGAME_LEVEL_IDLE_TTL)")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", time.Minute, "how often idle state and empty hubs are swept (env: HCONGAME_SWEEP_INTERVAL)")

	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: HCONGAME_LOG_LEVEL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func envName(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}
