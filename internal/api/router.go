package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/davidwalker2235/hcongame/internal/api/handler"
	"github.com/davidwalker2235/hcongame/internal/api/middleware"
	"github.com/davidwalker2235/hcongame/internal/api/response"
	"github.com/davidwalker2235/hcongame/internal/services/admin"
	"github.com/davidwalker2235/hcongame/internal/services/ranking"
	"github.com/davidwalker2235/hcongame/internal/services/storeproxy"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	StoreProxy   *storeproxy.Service
	Verification *verification.Service
	Ranking      *ranking.Service
	Admin        *admin.Service
	// StorageType is reported by the health check
	StorageType string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	storeHandler := handler.NewStoreHandler(cfg.StoreProxy)
	verifyHandler := handler.NewVerifyHandler(cfg.Verification)
	playerHandler := handler.NewPlayerHandler(cfg.Verification)
	rankingHandler := handler.NewRankingHandler(cfg.Ranking)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Session proxy and verification keep their unversioned paths
	store := r.Path("/api/store").Subrouter()
	store.Use(middleware.Session())
	store.Methods(http.MethodPost).HandlerFunc(storeHandler.Execute)

	r.HandleFunc("/api/verify-user", verifyHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/verify-user", verifyHandler.Post).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler(cfg.StorageType)).Methods(http.MethodGet)
	api.HandleFunc("/ranking", rankingHandler.List).Methods(http.MethodGet)

	players := api.PathPrefix("/players").Subrouter()
	players.Use(middleware.RequireSession())
	players.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	players.HandleFunc("/me/status", playerHandler.Status).Methods(http.MethodGet)
	players.HandleFunc("/register", playerHandler.Register).Methods(http.MethodPost)

	if cfg.Admin != nil {
		adminHandler := handler.NewAdminHandler(cfg.Admin)
		admins := api.PathPrefix("/admin").Subrouter()
		admins.Use(middleware.AdminKey(cfg.Admin))
		admins.HandleFunc("/users", adminHandler.CreateUser).Methods(http.MethodPost)
		admins.HandleFunc("/users/{token}", adminHandler.DeleteUser).Methods(http.MethodDelete)
		admins.HandleFunc("/users/{token}/qr", adminHandler.QRCode).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(storageType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: storageType})
	}
}
