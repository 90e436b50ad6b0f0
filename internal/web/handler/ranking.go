package handler

import (
	"log/slog"
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/services/ranking"
	"github.com/davidwalker2235/hcongame/internal/web/sse"
	"github.com/davidwalker2235/hcongame/internal/web/templates/pages"
)

// RankingHandler handles the ranking page
type RankingHandler struct {
	ranking     *ranking.Service
	broadcaster *sse.Broadcaster
	logger      *slog.Logger
}

// NewRankingHandler creates a new RankingHandler
func NewRankingHandler(rankingService *ranking.Service, broadcaster *sse.Broadcaster, logger *slog.Logger) *RankingHandler {
	return &RankingHandler{
		ranking:     rankingService,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// View renders the leaderboard
func (h *RankingHandler) View(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ranking.Leaderboard(r.Context())
	if err != nil {
		h.logger.Warn("failed to load ranking", "error", err)
	}
	render(w, r, pages.Ranking(pages.RankingData{
		PageData: pageData(r, "Ranking"),
		Entries:  entries,
		Failed:   err != nil,
	}))
}

// Events streams leaderboard changes
func (h *RankingHandler) Events(w http.ResponseWriter, r *http.Request) {
	hub, err := h.broadcaster.RankingHub()
	if err != nil {
		h.logger.Warn("could not open ranking stream", "error", err)
		http.Error(w, "Stream unavailable", http.StatusServiceUnavailable)
		return
	}
	sse.ServeSSE(w, r, hub)
}
