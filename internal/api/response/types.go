package response

import (
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/verification"
)

// StoreData is a successful session store proxy response
type StoreData struct {
	Data any `json:"data"`
}

// Message is the plain {"error": "..."} body used by the store proxy and
// the verify-user endpoint
type Message struct {
	Error string `json:"error"`
}

// Player represents a player profile in API responses
type Player struct {
	Token        string `json:"token"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
	CurrentLevel int    `json:"currentLevel"`
	Verified     bool   `json:"verified"`
}

// PlayerFromModel converts a model.Profile to a response Player
func PlayerFromModel(token model.SessionToken, p *model.Profile) Player {
	return Player{
		Token:        string(token),
		Nickname:     p.Nickname,
		Email:        p.Email,
		CurrentLevel: p.UnlockedLevel(model.MaxLevel),
		Verified:     p.IsVerified(),
	}
}

// Status is the verification state of a session
type Status struct {
	State    string         `json:"state"`
	Verified model.Tristate `json:"verified"`
	Redirect string         `json:"redirect,omitempty"`
	Profile  *Player        `json:"profile,omitempty"`
}

// StatusFromSnapshot converts a verification snapshot
func StatusFromSnapshot(s verification.Snapshot) Status {
	status := Status{
		State:    s.State.String(),
		Verified: s.Verified,
		Redirect: string(s.Redirect),
	}
	if s.Profile != nil {
		p := PlayerFromModel(s.Token, s.Profile)
		status.Profile = &p
	}
	return status
}

// Ranking is the leaderboard response
type Ranking struct {
	Entries []model.LeaderboardEntry `json:"entries"`
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
