package model

import "time"

// LeaderboardEntry is one row of the read-only ranking aggregate
type LeaderboardEntry struct {
	ID           string         `json:"id"`
	Nickname     string         `json:"nickname"`
	Position     int            `json:"position"`
	Attempts     int            `json:"attempts,omitempty"`
	HighestLevel int            `json:"highestLevel,omitempty"`
	Score        float64        `json:"score,omitempty"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}
