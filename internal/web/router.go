package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/services/profile"
	"github.com/davidwalker2235/hcongame/internal/services/ranking"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
	"github.com/davidwalker2235/hcongame/internal/web/handler"
	"github.com/davidwalker2235/hcongame/internal/web/middleware"
	"github.com/davidwalker2235/hcongame/internal/web/sse"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger       *slog.Logger
	Verification *verification.Service
	Registry     *levels.Registry
	Profiles     *profile.Repository
	Ranking      *ranking.Service
	HubManager   *sse.HubManager
	// Validator checks tokens on protected pages; nil accepts any token
	Validator    middleware.TokenValidator
	SecureCookie bool
	StaticDir    string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Apply global middleware to all routes
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Session(middleware.SessionConfig{
		Validator:    cfg.Validator,
		SecureCookie: cfg.SecureCookie,
	}, cfg.Logger))

	// Create SSE hub manager if not provided
	hubManager := cfg.HubManager
	if hubManager == nil {
		hubManager = sse.NewHubManager(cfg.Logger)
	}
	broadcaster := sse.NewBroadcaster(hubManager, cfg.Registry, cfg.Profiles, cfg.Ranking, cfg.Logger)

	// Create handlers
	registrationHandler := handler.NewRegistrationHandler(cfg.Verification, cfg.Logger)
	levelsHandler := handler.NewLevelsHandler(cfg.Registry, broadcaster, cfg.Logger)
	rankingHandler := handler.NewRankingHandler(cfg.Ranking, broadcaster, cfg.Logger)
	authHandler := handler.NewAuthHandler(cfg.Registry, cfg.SecureCookie, cfg.Logger)

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	verify := func(view verification.View) func(http.Handler) http.Handler {
		return middleware.Verify(cfg.Verification, view)
	}

	// Pages. Each one checks the session's profile against the view it shows.
	pages := r.NewRoute().Subrouter()
	pages.Use(middleware.Flash())

	pages.Handle("/", chain(registrationHandler.Page, verify(verification.ViewRegistration))).Methods(http.MethodGet)
	pages.Handle("/", chain(registrationHandler.Register, middleware.RequireSession(), verify(verification.ViewRegistration))).Methods(http.MethodPost)
	pages.Handle("/levels", chain(levelsHandler.View, verify(verification.ViewLevels))).Methods(http.MethodGet)
	pages.Handle("/ranking", chain(rankingHandler.View, verify("/ranking"))).Methods(http.MethodGet)
	pages.Handle("/about", chain(authHandler.About, verify("/about"))).Methods(http.MethodGet)
	pages.Handle("/login", chain(authHandler.Login, verify("/login"))).Methods(http.MethodGet)
	pages.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodGet, http.MethodPost)
	pages.HandleFunc(middleware.WrongAccessPath, authHandler.WrongAccess).Methods(http.MethodGet)

	// Level actions
	actions := r.PathPrefix("/levels").Subrouter()
	actions.Use(middleware.RequireSession())
	actions.Use(verify(verification.ViewLevels))
	actions.HandleFunc("/reveal", levelsHandler.Reveal).Methods(http.MethodPost)
	actions.HandleFunc("/reveal/skip", levelsHandler.SkipReveal).Methods(http.MethodPost)
	actions.HandleFunc("/events", levelsHandler.Events).Methods(http.MethodGet)
	actions.HandleFunc("/{level:[0-9]+}/prompt", levelsHandler.Prompt).Methods(http.MethodPost)
	actions.HandleFunc("/{level:[0-9]+}/secret", levelsHandler.Secret).Methods(http.MethodPost)

	events := r.PathPrefix("/ranking").Subrouter()
	events.Use(middleware.RequireSession())
	events.Use(verify("/ranking"))
	events.HandleFunc("/events", rankingHandler.Events).Methods(http.MethodGet)

	return r
}

// chain wraps h in mws, the first one outermost
func chain(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
	var out http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}
