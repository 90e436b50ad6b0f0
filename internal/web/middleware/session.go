package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/session"
)

type contextKey string

const tokenContextKey contextKey = "session"

// WrongAccessPath is where requests without a usable session are sent
const WrongAccessPath = "/wrong-access"

// ProtectedPaths are the pages that require a valid session token
var ProtectedPaths = []string{"/", "/levels", "/about", "/ranking", "/login"}

// TokenValidator decides whether a session token is accepted
type TokenValidator interface {
	Valid(ctx context.Context, token model.SessionToken) bool
}

// SessionConfig configures the session gate
type SessionConfig struct {
	// Validator checks tokens on protected paths; nil accepts any token
	Validator    TokenValidator
	SecureCookie bool
	Protected    []string
}

// GetToken retrieves the session token from the request context
func GetToken(ctx context.Context) model.SessionToken {
	token, _ := ctx.Value(tokenContextKey).(model.SessionToken)
	return token
}

// WithToken returns ctx carrying token
func WithToken(ctx context.Context, token model.SessionToken) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// Session returns middleware that resolves the session token from the ?id
// query parameter, the X-Session-Id header or the session cookie.
//
// On protected paths a missing or rejected token is sent to the wrong
// access page, and a token that arrived in the URL is stored in the cookie
// once accepted. GET requests are then redirected to the same URL without
// the token.
func Session(cfg SessionConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	protected := cfg.Protected
	if protected == nil {
		protected = ProtectedPaths
	}
	isProtected := make(map[string]bool, len(protected))
	for _, p := range protected {
		isProtected[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := session.NewQuerySource(r)
			resolver := session.NewResolver(session.Config{
				Primary:   query,
				Fallbacks: []session.Source{session.NewHeaderSource(r), session.NewCookieSource(r)},
			})
			result, _ := resolver.Init()
			token := result.Token

			if isProtected[r.URL.Path] {
				if token == "" {
					http.Redirect(w, r, WrongAccessPath, http.StatusSeeOther)
					return
				}
				if cfg.Validator != nil && !cfg.Validator.Valid(r.Context(), token) {
					logger.Info("session token rejected", slog.String("path", r.URL.Path))
					http.Redirect(w, r, WrongAccessPath, http.StatusSeeOther)
					return
				}
			}

			if result.FromPrimary && isProtected[r.URL.Path] {
				if stored, _ := session.NewCookieSource(r).Lookup(); stored != string(token) {
					_ = session.NewCookieSink(w, cfg.SecureCookie).Save(string(token))
				}
				if r.Method == http.MethodGet && query.Stripped() {
					http.Redirect(w, r, query.StrippedURL(), http.StatusSeeOther)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}

// RequireSession returns middleware that sends requests without a session
// token to the wrong access page
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetToken(r.Context()) == "" {
				http.Redirect(w, r, WrongAccessPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
