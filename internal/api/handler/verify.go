package handler

import (
	"encoding/json"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/api/request"
	"github.com/davidwalker2235/hcongame/internal/api/response"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/session"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
)

// VerifyHandler verifies a session and syncs its level with the challenge API
type VerifyHandler struct {
	verification *verification.Service
}

// NewVerifyHandler creates a new verify-user handler
func NewVerifyHandler(verificationService *verification.Service) *VerifyHandler {
	return &VerifyHandler{
		verification: verificationService,
	}
}

// Get handles GET /api/verify-user?id=<token>. The X-Session-Id header is
// accepted when the query parameter is absent.
func (h *VerifyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(session.QueryParam)
	if id == "" {
		id, _ = session.NewHeaderSource(r).Lookup()
	}
	h.sync(w, r, id)
}

// Post handles POST /api/verify-user with {"sessionId": "<token>"}
func (h *VerifyHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.sync(w, r, req.SessionID)
}

func (h *VerifyHandler) sync(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		writeMessage(w, http.StatusBadRequest, "Session ID is required")
		return
	}
	result := h.verification.Sync(r.Context(), model.SessionToken(id))
	response.JSON(w, http.StatusOK, result)
}
