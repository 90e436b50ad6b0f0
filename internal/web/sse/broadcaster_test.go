package sse

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/davidwalker2235/hcongame/internal/challenge"
	"github.com/davidwalker2235/hcongame/internal/challenge/challengetest"
	"github.com/davidwalker2235/hcongame/internal/dependencies/clock"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/levels"
	"github.com/davidwalker2235/hcongame/internal/services/profile"
	"github.com/davidwalker2235/hcongame/internal/services/ranking"
	"github.com/davidwalker2235/hcongame/internal/storage/memory"
	"github.com/davidwalker2235/hcongame/internal/testutil"
)

func TestFragment(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		body     string
		expected string
	}{
		{
			name:     "simple content",
			id:       "level-tabs",
			body:     "<p>Hello</p>",
			expected: `<div id="level-tabs" hx-swap-oob="true"><p>Hello</p></div>`,
		},
		{
			name:     "empty content",
			id:       "ranking-list",
			expected: `<div id="ranking-list" hx-swap-oob="true"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				_, err := io.WriteString(w, tt.body)
				return err
			})
			got, err := Fragment(context.Background(), tt.id, c)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

type broadcasterFixture struct {
	store       *memory.Store
	profiles    *profile.Repository
	registry    *levels.Registry
	manager     *HubManager
	broadcaster *Broadcaster
}

func newBroadcasterFixture(t *testing.T) *broadcasterFixture {
	t.Helper()
	logger := testutil.NopLogger()

	fake := challengetest.NewServer(model.MaxLevel)
	t.Cleanup(fake.Close)
	fake.AddPlayer("abc123", 1, "neo")

	cfg := challenge.DefaultConfig()
	cfg.BaseURL = fake.URL
	api := challenge.NewClient(cfg, logger)

	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	profiles := profile.NewRepository(store)
	registry := levels.NewRegistry(api, profiles, levels.DefaultConfig(), clock.New(), logger)
	manager := NewHubManager(logger)
	t.Cleanup(manager.Close)

	return &broadcasterFixture{
		store:       store,
		profiles:    profiles,
		registry:    registry,
		manager:     manager,
		broadcaster: NewBroadcaster(manager, registry, profiles, ranking.New(store, logger), logger),
	}
}

// waitForEvent reads client messages until one carries event
func waitForEvent(t *testing.T, client *Client, event string) string {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-client.send:
			if strings.Contains(string(msg), "event: "+event+"\n") {
				return string(msg)
			}
		case <-deadline:
			t.Fatalf("no %s event received", event)
			return ""
		}
	}
}

func TestBroadcaster_PlayerHubPushesLevelChanges(t *testing.T) {
	f := newBroadcasterFixture(t)
	ctx := context.Background()

	require.NoError(t, f.profiles.Register(ctx, "abc123", "neo", "neo@x.com"))
	ctrl := f.registry.Get("abc123")
	require.Equal(t, 1, ctrl.Unlocked())

	hub, err := f.broadcaster.PlayerHub("abc123")
	require.NoError(t, err)
	again, err := f.broadcaster.PlayerHub("abc123")
	require.NoError(t, err)
	require.Same(t, hub, again)

	client := NewClient(hub)
	require.True(t, hub.Register(client))
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, f.profiles.SetLevel(ctx, "abc123", 3))

	tabs := waitForEvent(t, client, EventTabsUpdate)
	for !strings.Contains(tabs, `href="/levels?level=3"`) {
		tabs = waitForEvent(t, client, EventTabsUpdate)
	}
	require.Contains(t, tabs, `id="level-tabs" hx-swap-oob="true"`)
	waitForEvent(t, client, EventRefresh)

	require.Equal(t, 3, ctrl.Unlocked())
}

func TestBroadcaster_PlayerHubStopsWatchingWhenRemoved(t *testing.T) {
	f := newBroadcasterFixture(t)

	_, err := f.broadcaster.PlayerHub("abc123")
	require.NoError(t, err)
	f.manager.RemoveHub(PlayerTopic("abc123"))

	_, created := f.manager.GetOrCreateHub(PlayerTopic("abc123"))
	require.True(t, created)
}

func TestBroadcaster_PlayerHubRequiresToken(t *testing.T) {
	f := newBroadcasterFixture(t)

	_, err := f.broadcaster.PlayerHub("")
	require.ErrorIs(t, err, model.ErrNoSession)
	require.Nil(t, f.manager.GetHub(PlayerTopic("")))
}

func TestBroadcaster_RankingHubPushesUpdates(t *testing.T) {
	f := newBroadcasterFixture(t)
	ctx := context.Background()

	hub, err := f.broadcaster.RankingHub()
	require.NoError(t, err)
	client := NewClient(hub)
	require.True(t, hub.Register(client))
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, f.store.Write(ctx, "ranking/a", map[string]any{"nickname": "trinity", "position": 1}))

	msg := waitForEvent(t, client, EventRankingUpdate)
	for !strings.Contains(msg, "trinity") {
		msg = waitForEvent(t, client, EventRankingUpdate)
	}
	require.Contains(t, msg, `id="ranking-list" hx-swap-oob="true"`)
}

func TestBroadcaster_NoHubDoesNotPanic(t *testing.T) {
	f := newBroadcasterFixture(t)
	ctx := context.Background()

	f.broadcaster.BroadcastProfile(ctx, "abc123", &model.Profile{CurrentLevel: 2})
	f.broadcaster.BroadcastRanking(ctx, nil, true)
}
