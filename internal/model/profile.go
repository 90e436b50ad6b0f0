package model

import "strings"

// MaxLevel is the highest challenge level a player can unlock
const MaxLevel = 10

// SessionToken identifies a player. It keys the profile store and is the
// bearer credential for the challenge API.
type SessionToken string

// UsersCollection is the store collection holding one profile per token
const UsersCollection = "users"

// Aggregate collections maintained by the organizers
const (
	RankingPath     = "ranking"
	LeaderboardPath = "leaderboard"
)

// UserPath returns the store path of the profile for a token
func UserPath(token SessionToken) string {
	return UsersCollection + "/" + string(token)
}

// Profile is the player record stored at users/<token>
type Profile struct {
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
	CurrentLevel int    `json:"currentLevel,omitempty"`
}

// IsVerified reports whether both nickname and email are present
func (p *Profile) IsVerified() bool {
	if p == nil {
		return false
	}
	return strings.TrimSpace(p.Nickname) != "" && strings.TrimSpace(p.Email) != ""
}

// UnlockedLevel returns the highest level the profile may play, within [1, max]
func (p *Profile) UnlockedLevel(max int) int {
	if p == nil {
		return 1
	}
	return ClampLevel(p.CurrentLevel, max)
}

// ClampLevel restricts level to [1, max]. A missing or zero level means 1.
func ClampLevel(level, max int) int {
	if max < 1 {
		max = MaxLevel
	}
	if level < 1 {
		return 1
	}
	if level > max {
		return max
	}
	return level
}
