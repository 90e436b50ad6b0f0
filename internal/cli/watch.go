package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/remote"
	"github.com/davidwalker2235/hcongame/internal/services/profile"
	"github.com/davidwalker2235/hcongame/internal/services/session"
	"github.com/davidwalker2235/hcongame/internal/storage"
)

func newWatchCmd() *cobra.Command {
	var interval, tokenInterval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow changes to your profile",
		Long: `Polls your profile through the session proxy and prints it whenever it
changes. When the token file is replaced, for example by another login, the
watch moves over to the new session.

Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchProfile(ctx, interval, tokenInterval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "How often the profile is re-read")
	cmd.Flags().DurationVar(&tokenInterval, "token-interval", session.DefaultPollInterval, "How often the token file is re-checked")

	return cmd
}

// profileWatch keeps one profile watch open and moves it to a new token
type profileWatch struct {
	mu          sync.Mutex
	profiles    *profile.Repository
	unsubscribe storage.Unsubscribe
	out         *Output
}

func (w *profileWatch) follow(ctx context.Context, token model.SessionToken) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	if token == "" {
		return model.ErrNoSession
	}

	unsubscribe, err := w.profiles.Watch(ctx, token, func(p *model.Profile, err error) {
		if err != nil {
			w.out.PrintError(err)
			return
		}
		w.out.Print(ProfileChange{Time: time.Now(), Token: string(token), Profile: p})
	})
	if err != nil {
		return err
	}
	w.unsubscribe = unsubscribe
	return nil
}

func (w *profileWatch) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
}

func watchProfile(ctx context.Context, interval, tokenInterval time.Duration) error {
	// The token file is the primary source here so a replaced file is noticed
	resolver := session.NewResolver(session.Config{
		Primary:   session.FileSource{Path: cfg.TokenFile},
		Fallbacks: []session.Source{session.ValueSource(cfg.Token)},
	})
	if _, err := resolver.Init(); err != nil {
		return err
	}

	logger := cfg.Logger()
	rc := remote.DefaultConfig()
	rc.BaseURL = cfg.ServerURL
	rc.PollInterval = interval
	store := remote.NewStoreClient(rc, resolver.Token, logger)

	out := NewOutput(cfg.Output)
	w := &profileWatch{profiles: profile.NewRepository(store), out: out}
	defer w.stop()

	if err := w.follow(ctx, resolver.Token()); err != nil {
		return err
	}
	if cfg.Output != "json" {
		fmt.Printf("Watching profile every %s\n", interval)
	}

	resolver.Poll(ctx, tokenInterval, func(token model.SessionToken) {
		logger.Info("session token changed")
		if err := w.follow(ctx, token); err != nil {
			out.PrintError(err)
		}
	})
	return nil
}
