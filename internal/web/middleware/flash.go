package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/davidwalker2235/hcongame/internal/web/templates/layout"
)

const (
	flashCookieName = "flash"
	flashContextKey = contextKey("flash")
)

// Flash message types
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// GetFlash returns the message shown on this request, nil when none
func GetFlash(ctx context.Context) *layout.FlashMessage {
	flash, _ := ctx.Value(flashContextKey).(*layout.FlashMessage)
	return flash
}

// SetFlash queues a message for the next page the browser loads. The value
// is base64 encoded since messages may hold characters cookies can't.
func SetFlash(w http.ResponseWriter, flashType, message string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(flashType + ":" + message))
	http.SetCookie(w, flashCookie(value, 60))
}

func flashCookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.Expires = time.Unix(0, 0)
	}
	return c
}

// Flash moves a queued message into the request context and expires its
// cookie so it is shown once
func Flash() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(flashCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			http.SetCookie(w, flashCookie("", -1))
			ctx := context.WithValue(r.Context(), flashContextKey, parseFlash(cookie.Value))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseFlash(value string) *layout.FlashMessage {
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	flashType, message, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return &layout.FlashMessage{Type: FlashInfo, Message: flashType}
	}
	return &layout.FlashMessage{Type: flashType, Message: message}
}
