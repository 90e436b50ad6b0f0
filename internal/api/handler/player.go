package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/api/apierr"
	"github.com/davidwalker2235/hcongame/internal/api/middleware"
	"github.com/davidwalker2235/hcongame/internal/api/request"
	"github.com/davidwalker2235/hcongame/internal/api/response"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
)

var errProfileMissing = fmt.Errorf("%w: no profile for this session", model.ErrProfileNotFound)

// PlayerHandler handles the caller's own profile
type PlayerHandler struct {
	verification *verification.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(verificationService *verification.Service) *PlayerHandler {
	return &PlayerHandler{
		verification: verificationService,
	}
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetToken(r.Context())

	profile, err := h.verification.Get(r.Context(), token)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if profile == nil {
		apierr.WriteError(w, errProfileMissing)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(token, profile))
}

// Status handles GET /api/v1/players/me/status
func (h *PlayerHandler) Status(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.verification.Verify(r.Context(), middleware.GetToken(r.Context()), verification.View(r.URL.Query().Get("view")))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.StatusFromSnapshot(snapshot))
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	token := middleware.GetToken(r.Context())
	profile, err := h.verification.Register(r.Context(), token, req.Nickname, req.Email)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(token, profile))
}
