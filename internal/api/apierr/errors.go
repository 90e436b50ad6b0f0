package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInvalidPath    = "INVALID_PATH"
	CodeValidation     = "VALIDATION_FAILED"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidLevel   = "INVALID_LEVEL"
	CodeLevelLocked    = "LEVEL_LOCKED"
	CodeLevelCompleted = "LEVEL_COMPLETED"
	CodeInFlight       = "REQUEST_IN_FLIGHT"
	CodeUnavailable    = "UPSTREAM_UNAVAILABLE"
	CodeInternalError  = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var fe verification.FieldErrors
	if errors.As(err, &fe) {
		return &httpError{http.StatusBadRequest, APIError{CodeValidation, fe.Error()}}
	}

	switch {
	case errors.Is(err, model.ErrNoSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Session ID is required"}}
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Unauthorized"}}
	case errors.Is(err, model.ErrForbidden):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Forbidden"}}
	case errors.Is(err, model.ErrProfileNotFound), errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
	case errors.Is(err, model.ErrInvalidPath):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPath, err.Error()}}
	case errors.Is(err, model.ErrInvalidRequest), errors.Is(err, model.ErrEmptyPrompt), errors.Is(err, model.ErrEmptySecret):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}
	case errors.Is(err, model.ErrValidation):
		return &httpError{http.StatusBadRequest, APIError{CodeValidation, err.Error()}}
	case errors.Is(err, model.ErrInvalidLevel):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidLevel, "Invalid level"}}
	case errors.Is(err, model.ErrLevelLocked):
		return &httpError{http.StatusForbidden, APIError{CodeLevelLocked, "Level is locked"}}
	case errors.Is(err, model.ErrLevelCompleted):
		return &httpError{http.StatusConflict, APIError{CodeLevelCompleted, "Level already completed"}}
	case errors.Is(err, model.ErrRequestInFlight):
		return &httpError{http.StatusConflict, APIError{CodeInFlight, "A request is already in progress"}}
	case errors.Is(err, model.ErrUnavailable):
		return &httpError{http.StatusBadGateway, APIError{CodeUnavailable, "Upstream service unavailable"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
