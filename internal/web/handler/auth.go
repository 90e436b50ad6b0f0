package handler

import (
	"log/slog"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/services/session"
	"github.com/davidwalker2235/hcongame/internal/web/middleware"
	"github.com/davidwalker2235/hcongame/internal/web/templates/layout"
	"github.com/davidwalker2235/hcongame/internal/web/templates/pages"
)

// AuthHandler handles the session pages: login, logout and wrong access
type AuthHandler struct {
	registry     *levels.Registry
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(registry *levels.Registry, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		registry:     registry,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Login confirms which player the session belongs to
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.Login(pageData(r, "Log in")))
}

// Logout clears the session cookie and drops the session's level state
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.GetToken(r.Context()); token != "" {
		h.registry.Remove(token)
	}
	if err := session.NewCookieSink(w, h.secureCookie).Clear(); err != nil {
		h.logger.Warn("failed to clear session cookie", "error", err)
	}
	render(w, r, pages.Logout(layout.PageData{Title: "Log out"}))
}

// About shows the player's registration details
func (h *AuthHandler) About(w http.ResponseWriter, r *http.Request) {
	data := pages.AboutData{PageData: pageData(r, "About")}
	if p := data.Profile; p != nil {
		data.Nickname = p.Nickname
		data.Email = p.Email
	}
	render(w, r, pages.About(data))
}

// WrongAccess tells the visitor a valid access link is needed
func (h *AuthHandler) WrongAccess(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.WrongAccess(layout.PageData{
		Title: "Wrong access",
		Flash: middleware.GetFlash(r.Context()),
	}))
}
