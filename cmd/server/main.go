package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/davidwalker2235/hcongame/internal/api"
	"github.com/davidwalker2235/hcongame/internal/config"
	"github.com/davidwalker2235/hcongame/internal/factory"
)

func main() {
	cmd := config.NewCommand(&config.Config{}, run)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	level, _ := cfg.Level()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	app, err := factory.New(cfg.Factory(logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}()

	handlerCfg := cfg.Handler()
	if handlerCfg.StaticDir == "" {
		handlerCfg.StaticDir = findStaticDir()
	}
	if app.Admin == nil {
		logger.Info("admin routes disabled, no admin key hash configured")
	}

	server := api.NewServer(app.Handler(handlerCfg), cfg.Server(), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})
	g.Go(func() error {
		app.Levels.Run(ctx, cfg.SweepInterval)
		return nil
	})
	g.Go(func() error {
		app.HubManager.Run(ctx, cfg.SweepInterval)
		return nil
	})

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", app.StorageType),
		slog.Bool("validate_tokens", cfg.ValidateTokens),
	)

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// findStaticDir looks for the static files directory
func findStaticDir() string {
	candidates := []string{
		"internal/web/static",
		"./internal/web/static",
		filepath.Join(os.Getenv("PWD"), "internal/web/static"),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	return "internal/web/static"
}
