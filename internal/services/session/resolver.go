// Package session resolves the player's session token from wherever it was
// handed over and keeps it persisted for later requests.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// DefaultPollInterval is how often Poll re-checks the primary source
const DefaultPollInterval = time.Second

// Source yields a token if one is available
type Source interface {
	Lookup() (string, bool)
}

// Sink persists a resolved token
type Sink interface {
	Save(token string) error
	Clear() error
}

// Stripper is implemented by sources that can hide the token once it has
// been persisted, such as a URL query parameter
type Stripper interface {
	Strip()
}

// Config lists where a Resolver looks for a token and where it stores it.
// The primary source is checked first; a token found there is persisted to
// every sink. Fallbacks are checked in order when the primary has nothing.
type Config struct {
	Primary   Source
	Fallbacks []Source
	Sinks     []Sink
}

// Result is the outcome of Init
type Result struct {
	Token       model.SessionToken
	FromPrimary bool
	Found       bool
}

// Resolver owns one session token and its initialization state
type Resolver struct {
	mu          sync.Mutex
	cfg         Config
	token       model.SessionToken
	initialized bool
}

// NewResolver creates a resolver over the given sources and sinks
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Init resolves the token. It is safe to call again; each call re-reads the
// sources.
func (r *Resolver) Init() (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token, ok := lookup(r.cfg.Primary); ok {
		var err error
		if token == r.stored() {
			r.token = model.SessionToken(token)
			r.strip()
		} else {
			err = r.adopt(token)
		}
		r.initialized = true
		return Result{Token: r.token, FromPrimary: true, Found: true}, err
	}

	for _, src := range r.cfg.Fallbacks {
		if token, ok := lookup(src); ok {
			r.token = model.SessionToken(token)
			r.initialized = true
			return Result{Token: r.token, Found: true}, nil
		}
	}

	r.token = ""
	r.initialized = true
	return Result{}, nil
}

// adopt persists a token found in the primary source and strips it there.
// Callers hold r.mu.
func (r *Resolver) adopt(token string) error {
	r.token = model.SessionToken(token)

	var errs []error
	for _, sink := range r.cfg.Sinks {
		if err := sink.Save(token); err != nil {
			errs = append(errs, err)
		}
	}
	r.strip()
	return errors.Join(errs...)
}

func (r *Resolver) strip() {
	if s, ok := r.cfg.Primary.(Stripper); ok {
		s.Strip()
	}
}

// stored is the token the sinks already hold: the resolved one, or what
// the first answering fallback reads back. Callers hold r.mu.
func (r *Resolver) stored() string {
	if r.token != "" {
		return string(r.token)
	}
	for _, src := range r.cfg.Fallbacks {
		if token, ok := lookup(src); ok {
			return token
		}
	}
	return ""
}

// Token returns the resolved token, empty when there is none
func (r *Resolver) Token() model.SessionToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

// Initialized reports whether Init has completed
func (r *Resolver) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Clear forgets the token and removes it from every sink
func (r *Resolver) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.token = ""
	var errs []error
	for _, sink := range r.cfg.Sinks {
		if err := sink.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Poll re-checks the primary source every interval until ctx is done and
// calls onChange whenever a token different from the current one shows up
// there. It blocks; run it in its own goroutine.
func (r *Resolver) Poll(ctx context.Context, interval time.Duration, onChange func(model.SessionToken)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if token, changed := r.recheck(); changed {
				onChange(token)
			}
		}
	}
}

func (r *Resolver) recheck() (model.SessionToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := lookup(r.cfg.Primary)
	if !ok || model.SessionToken(token) == r.token {
		return "", false
	}
	// Sink failures are not fatal here; the token is still usable in memory
	_ = r.adopt(token)
	return r.token, true
}

func lookup(src Source) (string, bool) {
	if src == nil {
		return "", false
	}
	token, ok := src.Lookup()
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
