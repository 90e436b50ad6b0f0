package challenge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// ValidatorConfig configures token validation caching
type ValidatorConfig struct {
	TTL  time.Duration
	Size int
}

// DefaultValidatorConfig caches each verdict for one minute
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		TTL:  time.Minute,
		Size: 4096,
	}
}

// Validator checks session tokens against the challenge API's bootstrap
// endpoint and remembers the answer for a short time so page loads do not
// each hit the API.
type Validator struct {
	api    API
	cache  *expirable.LRU[model.SessionToken, bool]
	logger *slog.Logger
}

// NewValidator creates a caching token validator
func NewValidator(api API, cfg ValidatorConfig, logger *slog.Logger) *Validator {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultValidatorConfig().TTL
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultValidatorConfig().Size
	}
	return &Validator{
		api:    api,
		cache:  expirable.NewLRU[model.SessionToken, bool](cfg.Size, nil, cfg.TTL),
		logger: logger,
	}
}

// Valid reports whether the API accepts the token. Any failure, including a
// transport error, counts as invalid and is cached like a rejection.
func (v *Validator) Valid(ctx context.Context, token model.SessionToken) bool {
	if token == "" {
		return false
	}
	if valid, ok := v.cache.Get(token); ok {
		return valid
	}

	_, err := v.api.Bootstrap(ctx, token)
	valid := err == nil
	if err != nil && !errors.Is(err, model.ErrUnauthorized) {
		v.logger.Warn("token validation failed", "error", err)
	}

	v.cache.Add(token, valid)
	return valid
}

// Forget drops the cached verdict for a token
func (v *Validator) Forget(token model.SessionToken) {
	v.cache.Remove(token)
}
