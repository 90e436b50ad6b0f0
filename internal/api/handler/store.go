package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/api/middleware"
	"github.com/davidwalker2235/hcongame/internal/api/request"
	"github.com/davidwalker2235/hcongame/internal/api/response"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/storeproxy"
)

// StoreHandler serves the session store proxy
type StoreHandler struct {
	proxy *storeproxy.Service
}

// NewStoreHandler creates a new store proxy handler
func NewStoreHandler(proxy *storeproxy.Service) *StoreHandler {
	return &StoreHandler{
		proxy: proxy,
	}
}

// Execute handles POST /api/store
func (h *StoreHandler) Execute(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetToken(r.Context())
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req request.StoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	data, err := h.proxy.Execute(r.Context(), token, req)
	if err != nil {
		status, msg := storeError(err)
		writeMessage(w, status, msg)
		return
	}

	response.JSON(w, http.StatusOK, response.StoreData{Data: data})
}

// storeError maps proxy failures onto the proxy's own status codes and
// messages
func storeError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNoSession), errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, storeproxy.ErrMissingField):
		return http.StatusBadRequest, "Missing action or path"
	case errors.Is(err, storeproxy.ErrInvalidData):
		return http.StatusBadRequest, "Update data must be an object"
	case errors.Is(err, storeproxy.ErrUnsupportedAction):
		return http.StatusBadRequest, "Unsupported action"
	case errors.Is(err, model.ErrInvalidPath), errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	response.JSON(w, status, response.Message{Error: msg})
}
