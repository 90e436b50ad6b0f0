package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/davidwalker2235/hcongame/internal/api/apierr"
	"github.com/davidwalker2235/hcongame/internal/api/request"
	"github.com/davidwalker2235/hcongame/internal/api/response"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/admin"
)

// AdminHandler handles organizer endpoints
type AdminHandler struct {
	admin *admin.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *admin.Service) *AdminHandler {
	return &AdminHandler{
		admin: adminService,
	}
}

// CreateUser handles POST /api/v1/admin/users. The body is optional.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	created, err := h.admin.CreateUser(r.Context(), model.SessionToken(req.Token))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, created)
}

// DeleteUser handles DELETE /api/v1/admin/users/{token}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	token := model.SessionToken(mux.Vars(r)["token"])

	if err := h.admin.DeleteUser(r.Context(), token); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// QRCode handles GET /api/v1/admin/users/{token}/qr
func (h *AdminHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	token := model.SessionToken(mux.Vars(r)["token"])

	png, err := h.admin.QRCode(token)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.PNG(w, png)
}
