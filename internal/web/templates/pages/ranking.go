package pages

import (
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/web/templates/layout"
)

// RankingData is the data for the ranking page
type RankingData struct {
	layout.PageData
	Entries []model.LeaderboardEntry
	Failed  bool
}
