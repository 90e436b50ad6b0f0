package middleware

import (
	"context"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
)

const snapshotContextKey contextKey = "verification"

// GetSnapshot retrieves the verification result from the request context
func GetSnapshot(ctx context.Context) verification.Snapshot {
	snap, _ := ctx.Value(snapshotContextKey).(verification.Snapshot)
	return snap
}

// Verifier runs one verification check for a request
type Verifier interface {
	Verify(ctx context.Context, token model.SessionToken, current verification.View) (verification.Snapshot, error)
}

// Verify returns middleware that checks the session's profile while the
// player is on view and follows the redirect the check decides on. The
// snapshot is added to the context for the handler.
func Verify(verifier Verifier, view verification.View) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Lookup failures are logged by the verifier and come back as a
			// redirect to the wrong access page
			snap, _ := verifier.Verify(r.Context(), GetToken(r.Context()), view)
			if snap.Redirect != "" {
				http.Redirect(w, r, string(snap.Redirect), http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), snapshotContextKey, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
