package pages

import (
	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/web/templates/layout"
)

// LevelsData is the data for the levels page
type LevelsData struct {
	layout.PageData
	View levels.View
}
