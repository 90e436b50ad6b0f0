// Package admin provides the organizer tooling: creating and deleting
// player profiles and printing access links.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidwalker2235/hcongame/internal/dependencies/random"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/profile"
	"github.com/davidwalker2235/hcongame/internal/services/session"
)

// Errors
var (
	ErrDisabled   = fmt.Errorf("%w: admin access is not configured", model.ErrForbidden)
	ErrInvalidKey = fmt.Errorf("%w: invalid admin key", model.ErrUnauthorized)
)

// Config holds configuration for the admin service
type Config struct {
	// KeyHash is the bcrypt hash of the admin key. Empty disables admin
	// access entirely.
	KeyHash string
	// PublicURL is the address players open, used in access links
	PublicURL string
	QRSize    int
}

// DefaultConfig returns default admin configuration
func DefaultConfig() Config {
	return Config{
		PublicURL: "http://localhost:8080",
		QRSize:    320,
	}
}

// Service manages player profiles on behalf of organizers
type Service struct {
	profiles *profile.Repository
	random   random.Random
	cfg      Config
	logger   *slog.Logger
}

// New creates an admin service
func New(profiles *profile.Repository, rnd random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.QRSize <= 0 {
		cfg.QRSize = DefaultConfig().QRSize
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = DefaultConfig().PublicURL
	}
	return &Service{
		profiles: profiles,
		random:   rnd,
		cfg:      cfg,
		logger:   logger,
	}
}

// Enabled reports whether an admin key is configured
func (s *Service) Enabled() bool {
	return s.cfg.KeyHash != ""
}

// Authenticate checks key against the configured hash
func (s *Service) Authenticate(key string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if key == "" {
		return ErrInvalidKey
	}
	err := bcrypt.CompareHashAndPassword([]byte(s.cfg.KeyHash), []byte(key))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidKey
	}
	if err != nil {
		return fmt.Errorf("check admin key: %w", err)
	}
	return nil
}

// CreatedUser describes a newly created profile
type CreatedUser struct {
	Token      model.SessionToken `json:"token"`
	AccessLink string             `json:"accessLink"`
}

// CreateUser stores a blank level-1 profile for token, generating a token
// when none is given. An existing profile is reset.
func (s *Service) CreateUser(ctx context.Context, token model.SessionToken) (*CreatedUser, error) {
	token = model.SessionToken(strings.TrimSpace(string(token)))
	if token == "" {
		token = model.SessionToken(random.Token(s.random))
	}
	if token == "" || strings.ContainsAny(string(token), "/.#$[]") {
		return nil, fmt.Errorf("%w: invalid token", model.ErrInvalidRequest)
	}

	if err := s.profiles.Create(ctx, token); err != nil {
		return nil, err
	}
	s.logger.Info("player created")

	return &CreatedUser{Token: token, AccessLink: s.AccessLink(token)}, nil
}

// DeleteUser removes the profile of token
func (s *Service) DeleteUser(ctx context.Context, token model.SessionToken) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", model.ErrInvalidRequest)
	}
	if err := s.profiles.Delete(ctx, token); err != nil {
		return err
	}
	s.logger.Info("player deleted")
	return nil
}

// AccessLink is the URL that hands token to a player's browser
func (s *Service) AccessLink(token model.SessionToken) string {
	base := strings.TrimSuffix(s.cfg.PublicURL, "/")
	return base + "/?" + session.QueryParam + "=" + url.QueryEscape(string(token))
}

// QRCode renders the access link of token as a PNG
func (s *Service) QRCode(token model.SessionToken) ([]byte, error) {
	png, err := qrcode.Encode(s.AccessLink(token), qrcode.Medium, s.cfg.QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// HashKey returns the bcrypt hash to configure for key
func HashKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: key is empty", model.ErrInvalidRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
