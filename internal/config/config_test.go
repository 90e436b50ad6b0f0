package config

import (
	"io"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidwalker2235/hcongame/internal/factory"
)

// parse runs the command with args and returns the configuration it ran with
func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	var got *Config
	cmd := NewCommand(&Config{}, func(_ *cobra.Command, cfg *Config) error {
		got = cfg
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	return got, nil
}

func TestDefaults(t *testing.T) {
	cfg, err := parse(t)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, factory.StorageTypeMemory, cfg.StorageType)
	assert.Equal(t, "https://ernibots-api.enricd.com", cfg.ChallengeURL)
	assert.Equal(t, 10, cfg.MaxLevel)
	assert.False(t, cfg.ValidateTokens)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("HCONGAME_PORT", "9090")
	t.Setenv("HCONGAME_STORAGE", "redis")
	t.Setenv("HCONGAME_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("HCONGAME_VALIDATE_TOKENS", "true")
	t.Setenv("HCONGAME_LEVEL_IDLE_TTL", "30m")

	cfg, err := parse(t)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, factory.StorageTypeRedis, cfg.StorageType)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.True(t, cfg.ValidateTokens)
	assert.Equal(t, 30*time.Minute, cfg.LevelIdleTTL)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("HCONGAME_PORT", "9090")

	cfg, err := parse(t, "--port", "7070")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
}

func TestInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("HCONGAME_PORT", "lots")

	_, err := parse(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HCONGAME_PORT")
}

func TestValidate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("key"), bcrypt.MinCost)
	require.NoError(t, err)

	valid := func() Config {
		return Config{
			Port:          8080,
			StorageType:   factory.StorageTypeMemory,
			ChallengeURL:  "https://api.example.com",
			MaxLevel:      10,
			SweepInterval: time.Minute,
			LogLevel:      "info",
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "port zero", modify: func(c *Config) { c.Port = 0 }, wantErr: "invalid port"},
		{name: "port too high", modify: func(c *Config) { c.Port = 70000 }, wantErr: "invalid port"},
		{name: "unknown storage", modify: func(c *Config) { c.StorageType = "disk" }, wantErr: "invalid storage type"},
		{name: "redis without url", modify: func(c *Config) { c.StorageType = factory.StorageTypeRedis }, wantErr: "--redis-url"},
		{name: "bad challenge url", modify: func(c *Config) { c.ChallengeURL = "not a url" }, wantErr: "challenge API URL"},
		{name: "negative rate", modify: func(c *Config) { c.RateLimit = -1 }, wantErr: "rate limit"},
		{name: "no levels", modify: func(c *Config) { c.MaxLevel = 0 }, wantErr: "max level"},
		{name: "no sweep interval", modify: func(c *Config) { c.SweepInterval = 0 }, wantErr: "sweep interval"},
		{name: "plain admin key", modify: func(c *Config) { c.AdminKeyHash = "secret" }, wantErr: "bcrypt"},
		{name: "hashed admin key", modify: func(c *Config) { c.AdminKeyHash = string(hash) }},
		{name: "bad log level", modify: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFactoryConfig(t *testing.T) {
	cfg := Config{
		StorageType:          factory.StorageTypeRedis,
		RedisURL:             "redis://cache:6379",
		RedisTTL:             time.Hour,
		ChallengeURL:         "https://api.example.com",
		RateLimit:            2.5,
		RateBurst:            3,
		MaxLevel:             7,
		StrictMissingProfile: true,
		PublicURL:            "https://play.example.com",
	}

	fc := cfg.Factory(nil)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379", fc.RedisConfig.URL)
	assert.Equal(t, time.Hour, fc.RedisConfig.DocumentTTL)
	assert.Equal(t, "https://api.example.com", fc.Challenge.BaseURL)
	assert.Equal(t, 2.5, fc.Challenge.RateLimit)
	assert.Equal(t, 3, fc.Challenge.Burst)
	assert.Equal(t, 7, fc.Levels.MaxLevel)
	assert.True(t, fc.Verification.StrictMissingProfile)
	assert.Equal(t, 7, fc.Verification.MaxLevel)
	assert.Equal(t, "https://play.example.com", fc.Admin.PublicURL)
}

func TestFactoryConfigMemoryHasNoRedis(t *testing.T) {
	cfg := Config{StorageType: factory.StorageTypeMemory, ChallengeURL: "https://api.example.com"}
	assert.Nil(t, cfg.Factory(nil).RedisConfig)
	assert.Equal(t, "http://localhost:8080", cfg.Factory(nil).Admin.PublicURL)
}
