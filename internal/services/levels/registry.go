package levels

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/davidwalker2235/hcongame/internal/challenge"
	"github.com/davidwalker2235/hcongame/internal/dependencies/clock"
	"github.com/davidwalker2235/hcongame/internal/model"
)

type entry struct {
	controller *Controller
	lastUsed   time.Time
}

// Registry owns one controller per session token. Controllers unused for
// longer than Config.IdleTTL are dropped by Sweep.
type Registry struct {
	mu      sync.Mutex
	entries map[model.SessionToken]*entry

	api    challenge.API
	levels LevelWriter
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(api challenge.API, levels LevelWriter, cfg Config, clk clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[model.SessionToken]*entry),
		api:     api,
		levels:  levels,
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
	}
}

// Get returns the controller of token, creating it on first use
func (r *Registry) Get(token model.SessionToken) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	e, ok := r.entries[token]
	if !ok {
		e = &entry{controller: NewController(token, r.api, r.levels, r.cfg, r.logger)}
		r.entries[token] = e
	}
	e.lastUsed = now
	return e.controller
}

// Lookup returns the controller of token if one exists
func (r *Registry) Lookup(token model.SessionToken) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[token]
	if !ok {
		return nil, false
	}
	return e.controller, true
}

// Remove drops the controller of token
func (r *Registry) Remove(token model.SessionToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, token)
}

// Len returns the number of live controllers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops idle controllers and returns how many were removed
func (r *Registry) Sweep() int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, e := range r.entries {
		if clock.Since(r.clock, e.lastUsed) > r.cfg.IdleTTL {
			delete(r.entries, token)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("swept idle level controllers", "removed", removed)
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
