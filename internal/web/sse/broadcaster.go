package sse

import (
	"context"
	"log/slog"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/services/profile"
	"github.com/davidwalker2235/hcongame/internal/services/ranking"
	"github.com/davidwalker2235/hcongame/internal/web/templates/components"
)

// Event names understood by the pages
const (
	EventTabsUpdate    = "tabs-update"
	EventRefresh       = "refresh"
	EventRankingUpdate = "ranking-update"
)

// Broadcaster follows store changes and pushes re-rendered fragments to
// the hubs that show them
type Broadcaster struct {
	hubManager *HubManager
	registry   *levels.Registry
	profiles   *profile.Repository
	ranking    *ranking.Service
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, registry *levels.Registry, profiles *profile.Repository, rankingService *ranking.Service, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		registry:   registry,
		profiles:   profiles,
		ranking:    rankingService,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// PlayerHub returns the hub of token, watching the player's profile for
// as long as the hub lives
func (b *Broadcaster) PlayerHub(token model.SessionToken) (*Hub, error) {
	hub, created := b.hubManager.GetOrCreateHub(PlayerTopic(token))
	if !created {
		return hub, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	unsubscribe, err := b.profiles.Watch(ctx, token, func(p *model.Profile, err error) {
		if err != nil {
			b.logger.Warn("sse profile watch failed", slog.Any("error", err))
			return
		}
		b.BroadcastProfile(ctx, token, p)
	})
	if err != nil {
		cancel()
		b.hubManager.RemoveHub(PlayerTopic(token))
		return nil, err
	}
	hub.OnClose(func() {
		unsubscribe()
		cancel()
	})
	return hub, nil
}

// RankingHub returns the shared ranking hub, watching the ranking for as
// long as the hub lives
func (b *Broadcaster) RankingHub() (*Hub, error) {
	hub, created := b.hubManager.GetOrCreateHub(RankingTopic)
	if !created {
		return hub, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	unsubscribe, err := b.ranking.Watch(ctx, func(entries []model.LeaderboardEntry, err error) {
		if err == nil && len(entries) == 0 {
			entries, err = b.ranking.Leaderboard(ctx)
		}
		if err != nil {
			b.logger.Warn("sse ranking watch failed", slog.Any("error", err))
		}
		b.BroadcastRanking(ctx, entries, err != nil)
	})
	if err != nil {
		cancel()
		b.hubManager.RemoveHub(RankingTopic)
		return nil, err
	}
	hub.OnClose(func() {
		unsubscribe()
		cancel()
	})
	return hub, nil
}

// BroadcastProfile applies a profile change to the player's level
// controller and pushes the new level tabs. Open pages re-fetch the level
// panel when the unlocked level moved.
func (b *Broadcaster) BroadcastProfile(ctx context.Context, token model.SessionToken, p *model.Profile) {
	hub := b.hubManager.GetHub(PlayerTopic(token))
	if hub == nil || p == nil {
		return
	}
	ctrl, ok := b.registry.Lookup(token)
	if !ok {
		return
	}

	before := ctrl.Unlocked()
	ctrl.SyncProfile(p)
	view := ctrl.View()

	html, err := Fragment(ctx, components.LevelTabsID, components.LevelTabs(view))
	if err != nil {
		b.logger.Error("sse failed to render level tabs", slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(EventTabsUpdate, html)
	if view.Unlocked != before {
		hub.BroadcastEvent(EventRefresh, "level")
	}
}

// BroadcastRanking pushes the rendered ranking to every ranking page
func (b *Broadcaster) BroadcastRanking(ctx context.Context, entries []model.LeaderboardEntry, failed bool) {
	hub := b.hubManager.GetHub(RankingTopic)
	if hub == nil {
		return
	}

	html, err := Fragment(ctx, components.RankingListID, components.RankingList(entries, failed))
	if err != nil {
		b.logger.Error("sse failed to render ranking", slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(EventRankingUpdate, html)
}
