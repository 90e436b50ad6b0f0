package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
	"github.com/davidwalker2235/hcongame/internal/web/middleware"
	"github.com/davidwalker2235/hcongame/internal/web/templates/pages"
)

// RegistrationHandler handles the registration page and form
type RegistrationHandler struct {
	verification *verification.Service
	logger       *slog.Logger
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(verificationService *verification.Service, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		verification: verificationService,
		logger:       logger,
	}
}

// Page renders the registration form, prefilled from a partial profile
func (h *RegistrationHandler) Page(w http.ResponseWriter, r *http.Request) {
	data := pages.RegistrationData{
		PageData:    pageData(r, "Registration"),
		FieldErrors: map[string]string{},
	}
	if p := data.Profile; p != nil {
		data.Nickname = p.Nickname
		data.Email = p.Email
	}
	render(w, r, pages.Registration(data))
}

// Register handles registration form submission
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	data := pages.RegistrationData{
		PageData:    pageData(r, "Registration"),
		FieldErrors: map[string]string{},
	}

	if err := r.ParseForm(); err != nil {
		data.Error = "Invalid form data"
		render(w, r, pages.Registration(data))
		return
	}
	data.Nickname = r.FormValue("nickname")
	data.Email = r.FormValue("email")

	profile, err := h.verification.Register(r.Context(), middleware.GetToken(r.Context()), data.Nickname, data.Email)
	if err != nil {
		var fieldErrors verification.FieldErrors
		switch {
		case errors.As(err, &fieldErrors):
			data.FieldErrors = fieldErrors
		case errors.Is(err, model.ErrNoSession):
			http.Redirect(w, r, middleware.WrongAccessPath, http.StatusSeeOther)
			return
		default:
			h.logger.Error("registration failed", "error", err)
			data.Error = "Error registering the user. Please try again."
		}
		render(w, r, pages.Registration(data))
		return
	}

	nickname := data.Nickname
	if profile != nil {
		nickname = profile.Nickname
	}
	middleware.SetFlash(w, middleware.FlashSuccess, "Welcome, "+nickname+"!")
	http.Redirect(w, r, "/levels", http.StatusSeeOther)
}
