package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrNoSession    = errors.New("no session token")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("operation not allowed")

	// Remote errors
	ErrUnavailable = errors.New("remote service unavailable")
	ErrNotFound    = errors.New("not found")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrValidation      = errors.New("validation failed")

	// Store errors
	ErrInvalidPath    = errors.New("invalid store path")
	ErrInvalidRequest = errors.New("invalid request")

	// Level errors
	ErrInvalidLevel    = errors.New("invalid level")
	ErrLevelLocked     = errors.New("level is locked")
	ErrLevelCompleted  = errors.New("level already completed")
	ErrEmptyPrompt     = errors.New("prompt is empty")
	ErrEmptySecret     = errors.New("secret word is empty")
	ErrRequestInFlight = errors.New("request already in flight")
	ErrStaleResult     = errors.New("result discarded: level or session changed")
)
