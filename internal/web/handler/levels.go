package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/web/middleware"
	"github.com/davidwalker2235/hcongame/internal/web/sse"
	"github.com/davidwalker2235/hcongame/internal/web/templates/components"
	"github.com/davidwalker2235/hcongame/internal/web/templates/pages"
)

// RevealHeader marks reveal requests sent by script. They get 204 instead
// of a redirect.
const RevealHeader = "X-Reveal"

// LevelsHandler handles the levels page and its actions
type LevelsHandler struct {
	registry    *levels.Registry
	broadcaster *sse.Broadcaster
	logger      *slog.Logger
}

// NewLevelsHandler creates a new LevelsHandler
func NewLevelsHandler(registry *levels.Registry, broadcaster *sse.Broadcaster, logger *slog.Logger) *LevelsHandler {
	return &LevelsHandler{
		registry:    registry,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// controller returns the session's controller, bootstrapping it on first
// use and applying the freshly verified profile otherwise
func (h *LevelsHandler) controller(r *http.Request) *levels.Controller {
	snap := middleware.GetSnapshot(r.Context())
	ctrl := h.registry.Get(snap.Token)
	if snap.Profile == nil {
		return ctrl
	}
	if !ctrl.Bootstrapped() {
		// A concurrent bootstrap has already applied the stored level
		_ = ctrl.Bootstrap(r.Context(), snap.Profile)
		return ctrl
	}
	ctrl.SyncProfile(snap.Profile)
	return ctrl
}

// View renders the levels page. ?level=N selects a level first.
func (h *LevelsHandler) View(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(r)

	level := ctrl.View().Selected
	if q := r.URL.Query().Get("level"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			middleware.SetFlash(w, middleware.FlashError, "Invalid level")
			http.Redirect(w, r, "/levels", http.StatusSeeOther)
			return
		}
		level = n
	}

	if err := ctrl.Select(r.Context(), level); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidLevel):
			middleware.SetFlash(w, middleware.FlashError, "Invalid level")
			http.Redirect(w, r, "/levels", http.StatusSeeOther)
			return
		case errors.Is(err, model.ErrLevelLocked):
			middleware.SetFlash(w, middleware.FlashError, "Level "+strconv.Itoa(level)+" is locked")
			http.Redirect(w, r, "/levels", http.StatusSeeOther)
			return
		}
		// Fetch failures are kept in the controller and shown in the panel
	}

	render(w, r, pages.Levels(pages.LevelsData{
		PageData: pageData(r, "Levels"),
		View:     ctrl.View(),
	}))
}

// Prompt sends a prompt for the level in the URL
func (h *LevelsHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	level, ok := levelVar(r)
	if !ok {
		middleware.SetFlash(w, middleware.FlashError, "Invalid level")
		http.Redirect(w, r, "/levels", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, middleware.FlashError, "Invalid form data")
		http.Redirect(w, r, components.LevelURL(level), http.StatusSeeOther)
		return
	}

	ctrl := h.controller(r)
	if err := h.selectForAction(r, ctrl, level); err != nil {
		h.actionFailed(w, r, level, err)
		return
	}
	if _, err := ctrl.SubmitPrompt(r.Context(), level, r.FormValue("prompt")); err != nil {
		h.actionFailed(w, r, level, err)
		return
	}
	http.Redirect(w, r, components.LevelURL(level), http.StatusSeeOther)
}

// Secret checks a secret word for the level in the URL
func (h *LevelsHandler) Secret(w http.ResponseWriter, r *http.Request) {
	level, ok := levelVar(r)
	if !ok {
		middleware.SetFlash(w, middleware.FlashError, "Invalid level")
		http.Redirect(w, r, "/levels", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, middleware.FlashError, "Invalid form data")
		http.Redirect(w, r, components.LevelURL(level), http.StatusSeeOther)
		return
	}

	ctrl := h.controller(r)
	if err := h.selectForAction(r, ctrl, level); err != nil {
		h.actionFailed(w, r, level, err)
		return
	}

	var nickname string
	if p := middleware.GetSnapshot(r.Context()).Profile; p != nil {
		nickname = p.Nickname
	}
	if _, err := ctrl.SubmitSecret(r.Context(), level, r.FormValue("secret"), nickname); err != nil {
		h.actionFailed(w, r, level, err)
		return
	}
	http.Redirect(w, r, components.LevelURL(level), http.StatusSeeOther)
}

// Reveal records that the text with the posted key finished animating
func (h *LevelsHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		h.controller(r).MarkRevealed(r.FormValue("key"))
	}
	if r.Header.Get(RevealHeader) != "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/levels", http.StatusSeeOther)
}

// SkipReveal shows every pending text in full
func (h *LevelsHandler) SkipReveal(w http.ResponseWriter, r *http.Request) {
	h.controller(r).SkipReveal()
	if r.Header.Get(RevealHeader) != "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/levels", http.StatusSeeOther)
}

// Events streams level changes for the session
func (h *LevelsHandler) Events(w http.ResponseWriter, r *http.Request) {
	hub, err := h.broadcaster.PlayerHub(middleware.GetToken(r.Context()))
	if err != nil {
		h.logger.Warn("could not open level stream", "error", err)
		http.Error(w, "Stream unavailable", http.StatusServiceUnavailable)
		return
	}
	sse.ServeSSE(w, r, hub)
}

// selectForAction makes level the selected one before a submission
func (h *LevelsHandler) selectForAction(r *http.Request, ctrl *levels.Controller, level int) error {
	if ctrl.View().Selected == level {
		return nil
	}
	err := ctrl.Select(r.Context(), level)
	if errors.Is(err, model.ErrStaleResult) {
		return nil
	}
	return err
}

// actionFailed turns a rejected action into a flash message. Remote
// failures are already stored in the controller and need no flash.
func (h *LevelsHandler) actionFailed(w http.ResponseWriter, r *http.Request, level int, err error) {
	target := components.LevelURL(level)
	switch {
	case errors.Is(err, model.ErrInvalidLevel):
		middleware.SetFlash(w, middleware.FlashError, "Invalid level")
		target = "/levels"
	case errors.Is(err, model.ErrLevelLocked):
		middleware.SetFlash(w, middleware.FlashError, "Level "+strconv.Itoa(level)+" is locked")
		target = "/levels"
	case errors.Is(err, model.ErrEmptyPrompt):
		middleware.SetFlash(w, middleware.FlashError, "Write a prompt first")
	case errors.Is(err, model.ErrEmptySecret):
		middleware.SetFlash(w, middleware.FlashError, "Write the secret word first")
	case errors.Is(err, model.ErrLevelCompleted):
		middleware.SetFlash(w, middleware.FlashInfo, "You already completed this level")
	case errors.Is(err, model.ErrRequestInFlight):
		middleware.SetFlash(w, middleware.FlashInfo, "Your last request is still running")
	case errors.Is(err, model.ErrStaleResult):
	default:
		h.logger.Debug("level action failed", "level", level, "error", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func levelVar(r *http.Request) (int, bool) {
	level, err := strconv.Atoi(mux.Vars(r)["level"])
	return level, err == nil
}
