package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/api"
	"github.com/davidwalker2235/hcongame/internal/challenge"
	"github.com/davidwalker2235/hcongame/internal/dependencies/clock"
	"github.com/davidwalker2235/hcongame/internal/dependencies/random"
	"github.com/davidwalker2235/hcongame/internal/services/admin"
	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/services/profile"
	"github.com/davidwalker2235/hcongame/internal/services/ranking"
	"github.com/davidwalker2235/hcongame/internal/services/storeproxy"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
	"github.com/davidwalker2235/hcongame/internal/storage"
	"github.com/davidwalker2235/hcongame/internal/storage/memory"
	redisstorage "github.com/davidwalker2235/hcongame/internal/storage/redis"
	"github.com/davidwalker2235/hcongame/internal/web"
	"github.com/davidwalker2235/hcongame/internal/web/middleware"
	"github.com/davidwalker2235/hcongame/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Store
	StorageType string

	// External dependencies
	Clock        clock.Clock
	Random       random.Random
	ChallengeAPI challenge.API
	Logger       *slog.Logger

	// Services
	Profiles     *profile.Repository
	Verification *verification.Service
	Levels       *levels.Registry
	Ranking      *ranking.Service
	StoreProxy   *storeproxy.Service
	// Admin is nil when no admin key hash is configured
	Admin *admin.Service
	// Validator is nil when token validation is disabled
	Validator  *challenge.Validator
	HubManager *sse.HubManager

	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SeedPath is a JSON file loaded into the store at startup (optional)
	SeedPath string

	// Challenge configures the challenge API client. A zero value uses
	// challenge.DefaultConfig().
	Challenge challenge.Config
	// ValidateTokens checks page tokens against the challenge API
	ValidateTokens bool
	Validator      challenge.ValidatorConfig

	Levels       levels.Config
	Verification verification.Config
	Admin        admin.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Store
	var closer io.Closer
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		memStore := memory.New()
		store, closer = memStore, memStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store, closer = redisStore, redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	if cfg.SeedPath != "" {
		if err := storage.SeedFile(context.Background(), store, cfg.SeedPath); err != nil {
			_ = closer.Close()
			return nil, err
		}
		logger.Info("store seeded", slog.String("path", cfg.SeedPath))
	}

	challengeCfg := cfg.Challenge
	if challengeCfg.BaseURL == "" {
		challengeCfg = challenge.DefaultConfig()
	}
	api := challenge.NewClient(challengeCfg, logger)

	app := newWithDependencies(store, api, clock.New(), random.New(), cfg, logger)
	app.StorageType = storageType
	app.closer = closer
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, api challenge.API, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	levelsCfg := cfg.Levels
	if levelsCfg.MaxLevel == 0 {
		levelsCfg = levels.DefaultConfig()
	}
	verificationCfg := cfg.Verification
	verificationCfg.MaxLevel = levelsCfg.MaxLevel
	adminCfg := cfg.Admin
	if adminCfg.PublicURL == "" {
		adminCfg.PublicURL = admin.DefaultConfig().PublicURL
	}

	// Create services
	profiles := profile.NewRepository(store)
	app := &App{
		Storage:      store,
		StorageType:  StorageTypeMemory,
		Clock:        clk,
		Random:       rnd,
		ChallengeAPI: api,
		Logger:       logger,
		Profiles:     profiles,
		Verification: verification.NewService(profiles, api, verificationCfg, logger),
		Levels:       levels.NewRegistry(api, profiles, levelsCfg, clk, logger),
		Ranking:      ranking.New(store, logger),
		StoreProxy:   storeproxy.New(store, logger),
		HubManager:   sse.NewHubManager(logger),
	}
	if adminCfg.KeyHash != "" {
		app.Admin = admin.New(profiles, rnd, adminCfg, logger)
	}
	if cfg.ValidateTokens {
		app.Validator = challenge.NewValidator(api, cfg.Validator, logger)
	}
	return app
}

// HandlerConfig holds the HTTP settings of Handler
type HandlerConfig struct {
	StaticDir    string
	SecureCookie bool
}

// Handler combines the API and web routers
func (a *App) Handler(cfg HandlerConfig) http.Handler {
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:       a.Logger,
		StoreProxy:   a.StoreProxy,
		Verification: a.Verification,
		Ranking:      a.Ranking,
		Admin:        a.Admin,
		StorageType:  a.StorageType,
	})

	var validator middleware.TokenValidator
	if a.Validator != nil {
		validator = a.Validator
	}
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:       a.Logger,
		Verification: a.Verification,
		Registry:     a.Levels,
		Profiles:     a.Profiles,
		Ranking:      a.Ranking,
		HubManager:   a.HubManager,
		Validator:    validator,
		SecureCookie: cfg.SecureCookie,
		StaticDir:    cfg.StaticDir,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)
	return mux
}

// Close releases the SSE hubs and the store
func (a *App) Close() error {
	a.HubManager.Close()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
