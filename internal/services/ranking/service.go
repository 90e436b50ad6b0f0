// Package ranking reads the leaderboard aggregate maintained by the
// organizers
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/storage"
)

// Service reads the ranking. The "ranking" path is preferred and
// "leaderboard" is used when it is empty.
type Service struct {
	store  storage.Store
	logger *slog.Logger
}

// New creates a ranking service
func New(store storage.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Leaderboard returns the ranking entries in display order
func (s *Service) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	for _, path := range []string{model.RankingPath, model.LeaderboardPath} {
		value, err := s.store.Read(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if value != nil {
			return Entries(value), nil
		}
	}
	return []model.LeaderboardEntry{}, nil
}

// Watch calls fn with the ranking entries now and whenever they change
func (s *Service) Watch(ctx context.Context, fn func([]model.LeaderboardEntry, error)) (storage.Unsubscribe, error) {
	return s.store.Watch(ctx, model.RankingPath, func(value any, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(Entries(value), nil)
	})
}

var knownFields = map[string]bool{
	"nickname":     true,
	"position":     true,
	"attempts":     true,
	"highestLevel": true,
	"currentLevel": true,
	"score":        true,
	"completedAt":  true,
	"email":        true,
}

// Entries converts a stored ranking collection into sorted entries.
// Entries with a position come first in position order; the rest follow
// by id. Positions are then renumbered 1..n for display. Emails are never
// carried over.
func Entries(value any) []model.LeaderboardEntry {
	raw, _ := value.(map[string]any)
	entries := make([]model.LeaderboardEntry, 0, len(raw))

	for id, v := range raw {
		doc, ok := v.(map[string]any)
		if !ok {
			continue
		}
		e := model.LeaderboardEntry{ID: id}
		e.Nickname, _ = doc["nickname"].(string)
		e.Position = intField(doc, "position")
		e.Attempts = intField(doc, "attempts")
		e.HighestLevel = intField(doc, "highestLevel")
		if e.HighestLevel == 0 {
			e.HighestLevel = intField(doc, "currentLevel")
		}
		if score, ok := doc["score"].(float64); ok {
			e.Score = score
		}
		e.CompletedAt = timeField(doc["completedAt"])

		for k, v := range doc {
			if knownFields[k] {
				continue
			}
			if e.Extra == nil {
				e.Extra = make(map[string]any)
			}
			e.Extra[k] = v
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.Position > 0 && b.Position > 0 && a.Position != b.Position:
			return a.Position < b.Position
		case a.Position > 0 && b.Position == 0:
			return true
		case a.Position == 0 && b.Position > 0:
			return false
		default:
			return a.ID < b.ID
		}
	})

	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

func intField(doc map[string]any, key string) int {
	switch v := doc[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// timeField accepts RFC 3339 strings and Unix epoch milliseconds
func timeField(v any) *time.Time {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return nil
		}
		return &parsed
	case float64:
		if t <= 0 {
			return nil
		}
		parsed := time.UnixMilli(int64(t)).UTC()
		return &parsed
	default:
		return nil
	}
}
