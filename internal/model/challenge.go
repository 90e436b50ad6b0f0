package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Story is the narrative content of one level
type Story struct {
	Level      int    `json:"level"`
	Difficulty string `json:"difficulty,omitempty"`
	Story      string `json:"story"`
	Hint       string `json:"hint,omitempty"`
}

// PromptReply is the narrative response to a submitted prompt
type PromptReply struct {
	Level    int    `json:"level"`
	Response string `json:"response"`
}

// Verdict is the outcome of a secret-word submission
type Verdict struct {
	Level   int  `json:"level"`
	Correct bool `json:"correct"`
}

// AuthStatus is the challenge API's view of a token: either the current
// level or "new" for a token that has not started playing.
type AuthStatus struct {
	Level    int
	New      bool
	Nickname string
}

type authStatusWire struct {
	Level    json.RawMessage `json:"level"`
	Nickname string          `json:"nickname,omitempty"`
}

// UnmarshalJSON accepts the level as a number, a numeric string or "new"
func (a *AuthStatus) UnmarshalJSON(data []byte) error {
	var wire authStatusWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	a.Nickname = wire.Nickname
	a.Level = 0
	a.New = false

	if len(wire.Level) == 0 || string(wire.Level) == "null" {
		a.New = true
		return nil
	}

	var n int
	if err := json.Unmarshal(wire.Level, &n); err == nil {
		a.Level = n
		return nil
	}

	var s string
	if err := json.Unmarshal(wire.Level, &s); err != nil {
		return fmt.Errorf("auth status level: %w", err)
	}
	if s == "new" {
		a.New = true
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("auth status level %q: %w", s, err)
	}
	a.Level = n
	return nil
}

// MarshalJSON writes "new" for unstarted tokens
func (a AuthStatus) MarshalJSON() ([]byte, error) {
	var level any = a.Level
	if a.New {
		level = "new"
	}
	return json.Marshal(struct {
		Level    any    `json:"level"`
		Nickname string `json:"nickname,omitempty"`
	}{level, a.Nickname})
}
