package handler

import (
	"net/http"

	"github.com/davidwalker2235/hcongame/internal/api/apierr"
	"github.com/davidwalker2235/hcongame/internal/api/response"
	"github.com/davidwalker2235/hcongame/internal/services/ranking"
)

// RankingHandler serves the leaderboard
type RankingHandler struct {
	ranking *ranking.Service
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(rankingService *ranking.Service) *RankingHandler {
	return &RankingHandler{
		ranking: rankingService,
	}
}

// List handles GET /api/v1/ranking
func (h *RankingHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ranking.Leaderboard(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Ranking{Entries: entries})
}
