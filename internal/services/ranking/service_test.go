package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/storage/memory"
	"github.com/davidwalker2235/hcongame/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	store   *memory.Store
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.service = New(s.store, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TearDownTest() {
	s.store.Close()
}

func (s *ServiceSuite) TestEmptyRanking() {
	entries, err := s.service.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
	s.NotNil(entries)
}

func (s *ServiceSuite) TestSortedByPosition() {
	s.Require().NoError(s.store.Write(s.ctx, model.RankingPath, map[string]any{
		"c": map[string]any{"nickname": "cypher", "position": 3},
		"a": map[string]any{"nickname": "neo", "position": 1, "attempts": 4, "currentLevel": 7},
		"b": map[string]any{"nickname": "trinity", "position": 2, "email": "t@x.com"},
		"z": map[string]any{"nickname": "unranked"},
	}))

	entries, err := s.service.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 4)

	s.Equal("neo", entries[0].Nickname)
	s.Equal(1, entries[0].Position)
	s.Equal(4, entries[0].Attempts)
	s.Equal(7, entries[0].HighestLevel)
	s.Equal("trinity", entries[1].Nickname)
	s.Nil(entries[1].Extra)
	s.Equal("cypher", entries[2].Nickname)
	s.Equal("unranked", entries[3].Nickname)
	s.Equal(4, entries[3].Position)
}

func (s *ServiceSuite) TestFallsBackToLeaderboard() {
	s.Require().NoError(s.store.Write(s.ctx, model.LeaderboardPath, map[string]any{
		"a": map[string]any{"nickname": "neo", "position": 1, "highestLevel": 10, "completedAt": "2024-01-01T12:00:00Z"},
	}))

	entries, err := s.service.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(10, entries[0].HighestLevel)
	s.Require().NotNil(entries[0].CompletedAt)
	s.True(entries[0].CompletedAt.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
}

func (s *ServiceSuite) TestWatchDeliversUpdates() {
	updates := make(chan []model.LeaderboardEntry, 4)
	unsubscribe, err := s.service.Watch(s.ctx, func(entries []model.LeaderboardEntry, err error) {
		s.NoError(err)
		updates <- entries
	})
	s.Require().NoError(err)
	defer unsubscribe()

	s.Empty(<-updates)

	s.Require().NoError(s.store.Write(s.ctx, "ranking/a", map[string]any{"nickname": "neo", "position": 1}))
	select {
	case entries := <-updates:
		s.Require().Len(entries, 1)
		s.Equal("neo", entries[0].Nickname)
	case <-time.After(2 * time.Second):
		s.Fail("no ranking update")
	}
}

func (s *ServiceSuite) TestEntriesKeepsExtraFields() {
	entries := Entries(map[string]any{
		"a": map[string]any{"nickname": "neo", "team": "zion", "completedAt": float64(1704110400000)},
		"b": "garbage",
	})
	s.Require().Len(entries, 1)
	s.Equal(map[string]any{"team": "zion"}, entries[0].Extra)
	s.Require().NotNil(entries[0].CompletedAt)
	s.Equal(2024, entries[0].CompletedAt.Year())
}
