package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/davidwalker2235/hcongame/internal/challenge"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/profile"
)

const lookupTimeout = 10 * time.Second

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps form fields to validation messages
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, ", ")
}

func (e FieldErrors) Unwrap() error {
	return model.ErrValidation
}

// Service runs verification for server requests. Concurrent lookups of the
// same token share one store read.
type Service struct {
	profiles *profile.Repository
	api      challenge.API
	cfg      Config
	logger   *slog.Logger
	group    singleflight.Group
}

// NewService creates a verification service
func NewService(profiles *profile.Repository, api challenge.API, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		profiles: profiles,
		api:      api,
		cfg:      cfg,
		logger:   logger,
	}
}

// Get loads a profile, sharing the read with concurrent callers. The shared
// read does not inherit any one caller's cancellation.
func (s *Service) Get(ctx context.Context, token model.SessionToken) (*model.Profile, error) {
	ch := s.group.DoChan(string(token), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return s.profiles.Get(lookupCtx, token)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	p, _ := res.Val.(*model.Profile)
	if p == nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// NewMachine creates a machine backed by this service
func (s *Service) NewMachine(nav Navigator) *Machine {
	return NewMachine(s, nav, s.cfg)
}

// Verify runs a single check for token on view current
func (s *Service) Verify(ctx context.Context, token model.SessionToken, current View) (Snapshot, error) {
	m := s.NewMachine(nil)
	m.SetToken(token)
	snap, err := m.Check(ctx, current)
	if err != nil {
		s.logger.Warn("verification lookup failed", "error", err)
	}
	return snap, err
}

// ValidateRegistration checks a registration form without touching the
// store and returns the trimmed values
func ValidateRegistration(nickname, email string) (string, string, error) {
	nickname = strings.TrimSpace(nickname)
	email = strings.TrimSpace(email)

	errs := FieldErrors{}
	if nickname == "" {
		errs["nickname"] = "Nickname is required"
	}
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Invalid email format"
	}
	if len(errs) > 0 {
		return nickname, email, errs
	}
	return nickname, email, nil
}

// Register validates and stores nickname and email for token
func (s *Service) Register(ctx context.Context, token model.SessionToken, nickname, email string) (*model.Profile, error) {
	if token == "" {
		return nil, model.ErrNoSession
	}
	nickname, email, err := ValidateRegistration(nickname, email)
	if err != nil {
		return nil, err
	}

	taken, err := s.profiles.NicknameTaken(ctx, token, nickname)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, FieldErrors{"nickname": "Nickname is already taken"}
	}

	if err := s.profiles.Register(ctx, token, nickname, email); err != nil {
		return nil, err
	}
	s.group.Forget(string(token))

	s.logger.Info("player registered", "nickname", nickname)
	return s.profiles.Get(ctx, token)
}

// SyncResult reports a verify-and-sync run
type SyncResult struct {
	UserData     *model.Profile `json:"userData"`
	IsVerified   bool           `json:"isVerified"`
	LevelUpdated bool           `json:"levelUpdated"`
	Error        string         `json:"error,omitempty"`
}

// Sync verifies token and raises the stored level to the one the
// challenge API reports. The stored level is never lowered.
func (s *Service) Sync(ctx context.Context, token model.SessionToken) SyncResult {
	p, err := s.Get(ctx, token)
	if err != nil {
		s.logger.Warn("sync lookup failed", "error", err)
		return SyncResult{Error: err.Error()}
	}
	if p == nil {
		return SyncResult{Error: "User not found"}
	}
	if !p.IsVerified() {
		return SyncResult{UserData: p}
	}

	result := SyncResult{UserData: p, IsVerified: true}

	current, err := s.api.Bootstrap(ctx, token)
	if err != nil {
		s.logger.Warn("sync challenge lookup failed", "error", err)
		result.Error = "Failed to fetch challenge"
		return result
	}

	level := model.ClampLevel(current.Level, s.cfg.MaxLevel)
	if level <= p.CurrentLevel {
		return result
	}
	if err := s.profiles.SetLevel(ctx, token, level); err != nil {
		result.Error = fmt.Sprintf("Error updating level: %v", err)
		return result
	}
	s.group.Forget(string(token))

	p.CurrentLevel = level
	result.LevelUpdated = true
	return result
}

// IsValidation reports whether err is a registration validation failure
func IsValidation(err error) bool {
	return errors.Is(err, model.ErrValidation)
}
