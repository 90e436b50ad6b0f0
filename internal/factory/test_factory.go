package factory

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/davidwalker2235/hcongame/internal/challenge"
	"github.com/davidwalker2235/hcongame/internal/challenge/challengetest"
	"github.com/davidwalker2235/hcongame/internal/dependencies/mocks"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/storage/memory"
)

// TestAdminKey is the admin key accepted by a TestApp
const TestAdminKey = "test-admin-key"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Fake challenge API the app talks to
	Challenge *challengetest.Server

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestOption adjusts the configuration of a TestApp
type TestOption func(*Config)

// WithTokenValidation enables the page token check against the fake API
func WithTokenValidation() TestOption {
	return func(cfg *Config) { cfg.ValidateTokens = true }
}

// WithStrictMissingProfile denies tokens that have no stored profile
func WithStrictMissingProfile() TestOption {
	return func(cfg *Config) { cfg.Verification.StrictMissingProfile = true }
}

// WithMaxLevel sets the number of playable levels
func WithMaxLevel(n int) TestOption {
	return func(cfg *Config) {
		cfg.Levels = levels.DefaultConfig()
		cfg.Levels.MaxLevel = n
	}
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and a fake challenge API. Call Close when done.
func NewTestApp(opts ...TestOption) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	fake := challengetest.NewServer(model.MaxLevel)

	hash, err := bcrypt.GenerateFromPassword([]byte(TestAdminKey), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	cfg := Config{}
	cfg.Admin.KeyHash = string(hash)
	cfg.Admin.PublicURL = "http://game.test"
	for _, opt := range opts {
		opt(&cfg)
	}

	clientCfg := challenge.DefaultConfig()
	clientCfg.BaseURL = fake.URL
	clientCfg.Timeout = 5 * time.Second

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := challenge.NewClient(clientCfg, logger)

	app := newWithDependencies(store, api, mockClock, mockRandom, cfg, logger)
	app.closer = store

	return &TestApp{
		App:        app,
		Challenge:  fake,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// AddPlayer makes token known to the fake API at level and stores a
// profile for it. An empty nickname leaves the profile unregistered.
func (t *TestApp) AddPlayer(ctx context.Context, token model.SessionToken, level int, nickname, email string) error {
	t.Challenge.AddPlayer(token, level, nickname)
	if err := t.Profiles.Create(ctx, token); err != nil {
		return err
	}
	if nickname != "" {
		if err := t.Profiles.Register(ctx, token, nickname, email); err != nil {
			return err
		}
	}
	if level > 1 {
		return t.Profiles.SetLevel(ctx, token, level)
	}
	return nil
}

// Close stops the fake API and releases the app
func (t *TestApp) Close() {
	_ = t.App.Close()
	t.Challenge.Close()
}
