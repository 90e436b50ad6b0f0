// Package components holds page fragments that are also pushed over SSE
package components

import (
	"strconv"

	"github.com/davidwalker2235/hcongame/internal/services/levels"
)

// Element ids of the levels page. Tabs are swapped out of band by SSE
// updates; the panel is re-fetched on refresh events.
const (
	LevelTabsID  = "level-tabs"
	LevelPanelID = "level-panel"
)

// LevelURL is the page showing level
func LevelURL(level int) string {
	return "/levels?level=" + strconv.Itoa(level)
}

func levelAction(level int, action string) string {
	return "/levels/" + strconv.Itoa(level) + "/" + action
}

func tabLabel(level int) string {
	return "Level " + strconv.Itoa(level)
}

func plainText(text string) string {
	return levels.PlainText(levels.FormatText(text))
}

func secretChecking(view levels.View) bool {
	return view.Phase == levels.PhaseSecretChecking
}
