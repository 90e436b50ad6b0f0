package sse

import (
	"context"
	"testing"
	"time"

	"github.com/davidwalker2235/hcongame/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "test-event",
			data:      "hello world",
			expected:  "event: test-event\ndata: hello world\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "tabs-update",
			data:      "<nav>\n  <a>Level 1</a>\n</nav>",
			expected:  "event: tabs-update\ndata: <nav>\ndata:   <a>Level 1</a>\ndata: </nav>\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
		{
			name:      "blank line inside data",
			eventName: "test",
			data:      "a\n\nb",
			expected:  "event: test\ndata: a\ndata: \ndata: b\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single line", "hello", []string{"hello"}},
		{"two lines", "line1\nline2", []string{"line1", "line2"}},
		{"trailing newline", "line1\n", []string{"line1"}},
		{"empty string", "", []string{""}},
		{"crlf line endings", "line1\r\nline2\r\n", []string{"line1", "line2"}},
		{"inner blank line", "a\n\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitLines(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("splitLines(%q) returned %d lines, want %d",
					tt.input, len(result), len(tt.expected))
				return
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q",
						tt.input, i, line, tt.expected[i])
				}
			}
		})
	}
}

func TestPlayerTopicIsNotLogged(t *testing.T) {
	if got := logTopic(PlayerTopic("secret-token")); got != "player" {
		t.Errorf("logTopic() = %q, want %q", got, "player")
	}
	if got := logTopic(RankingTopic); got != RankingTopic {
		t.Errorf("logTopic() = %q, want %q", got, RankingTopic)
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub("test", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub)
	if !hub.Register(client) {
		t.Fatal("Register() = false on an open hub")
	}
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.BroadcastEvent("test-event", "test data")

	select {
	case msg := <-client.send:
		expected := "event: test-event\ndata: test data\n\n"
		if string(msg) != expected {
			t.Errorf("client received %q, want %q", string(msg), expected)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub("test", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after unregister, want 0", hub.ClientCount())
	}
	if _, ok := <-client.send; ok {
		t.Error("client channel still open after unregister")
	}
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := NewHub("test", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	clients := []*Client{NewClient(hub), NewClient(hub), NewClient(hub)}
	for _, c := range clients {
		hub.Register(c)
	}
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastEvent("update", "data")

	for i, client := range clients {
		select {
		case msg := <-client.send:
			if string(msg) != "event: update\ndata: data\n\n" {
				t.Errorf("client %d received %q", i+1, string(msg))
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive message", i+1)
		}
	}
}

func TestHub_CloseRunsHooksOnce(t *testing.T) {
	hub := NewHub("test", testutil.NopLogger())
	go hub.Run()

	calls := 0
	hub.OnClose(func() { calls++ })
	hub.Close()
	hub.Close()

	if calls != 1 {
		t.Errorf("close hook ran %d times, want 1", calls)
	}

	late := false
	hub.OnClose(func() { late = true })
	if !late {
		t.Error("hook registered after close did not run")
	}
	if hub.Register(NewClient(hub)) {
		t.Error("Register() = true on a closed hub")
	}
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	hub1, created := manager.GetOrCreateHub("player:abc")
	if hub1 == nil || !created {
		t.Fatal("GetOrCreateHub did not create a hub")
	}

	hub2, created := manager.GetOrCreateHub("player:abc")
	if hub1 != hub2 || created {
		t.Error("GetOrCreateHub returned a different hub for the same topic")
	}

	hub3, _ := manager.GetOrCreateHub(RankingTopic)
	if hub3 == hub1 {
		t.Error("GetOrCreateHub returned the same hub for a different topic")
	}
}

func TestHubManager_RemoveHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	hub, _ := manager.GetOrCreateHub("player:abc")
	closed := make(chan struct{})
	hub.OnClose(func() { close(closed) })

	manager.RemoveHub("player:abc")

	if manager.GetHub("player:abc") != nil {
		t.Error("Hub still exists after RemoveHub")
	}
	select {
	case <-closed:
	case <-time.After(100 * time.Millisecond):
		t.Error("hub was not closed")
	}

	// Removing a missing hub is a no-op
	manager.RemoveHub("missing")
}

func TestHubManager_CleanupEmptyHubs(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	manager.GetOrCreateHub("empty")
	active, _ := manager.GetOrCreateHub("active")
	active.Register(NewClient(active))
	time.Sleep(10 * time.Millisecond)

	if removed := manager.CleanupEmptyHubs(); removed != 1 {
		t.Errorf("CleanupEmptyHubs() = %d, want 1", removed)
	}
	if manager.GetHub("empty") != nil {
		t.Error("Empty hub still exists after cleanup")
	}
	if manager.GetHub("active") == nil {
		t.Error("Active hub was removed during cleanup")
	}
}

func TestHubManager_RunStopsWithContext(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		manager.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Run did not return after cancel")
	}
}
