package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/davidwalker2235/hcongame/internal/api/apierr"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/admin"
	"github.com/davidwalker2235/hcongame/internal/services/session"
)

type contextKey string

const tokenContextKey contextKey = "session_token"

// AdminKeyHeader carries the organizer key on admin requests
const AdminKeyHeader = "X-Admin-Key"

// Session extracts the session token, if any, into the request context.
// Handlers decide how to answer a request without one.
func Session() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				r = r.WithContext(context.WithValue(r.Context(), tokenContextKey, model.SessionToken(token)))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects requests without a session token
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return Session()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetToken(r.Context()) == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// AdminKey rejects requests whose X-Admin-Key does not match
func AdminKey(adminService *admin.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := adminService.Authenticate(r.Header.Get(AdminKeyHeader)); err != nil {
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token, ok := session.NewCookieSource(r).Lookup(); ok {
		return token
	}

	return ""
}

// GetToken returns the session token from the request context
func GetToken(ctx context.Context) model.SessionToken {
	token, _ := ctx.Value(tokenContextKey).(model.SessionToken)
	return token
}
