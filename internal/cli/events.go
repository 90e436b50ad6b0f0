package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/session"
)

var eventStreams = []string{"levels", "ranking"}

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events [levels|ranking]",
		Short: "Stream live page events",
		Long: `Opens the live update stream of a page and prints each event.

  levels   tabs-update when your unlocked level changes, refresh when the
           open level should be reloaded
  ranking  ranking-update whenever the leaderboard changes

HTML fragments are shown as text unless --output json is used.
Press Ctrl+C to disconnect.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: eventStreams,
		RunE: func(cmd *cobra.Command, args []string) error {
			stream := eventStreams[0]
			if len(args) == 1 {
				stream = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return followStream(ctx, stream, NewOutput(cfg.Output))
		},
	}
}

// StreamEvent is one event received from a page stream
type StreamEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func followStream(ctx context.Context, stream string, out *Output) error {
	token := cfg.SessionToken()
	if token == "" {
		return model.ErrNoSession
	}

	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/" + stream + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.AddCookie(session.Cookie(string(token), false))

	// Redirects mean the gate turned the session away
	httpClient := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		if loc := resp.Header.Get("Location"); loc != "" {
			return fmt.Errorf("%w: stream refused, sent to %s", model.ErrForbidden, loc)
		}
		return fmt.Errorf("%w: stream refused (HTTP %d)", model.ErrForbidden, resp.StatusCode)
	}

	if cfg.Output != "json" {
		fmt.Printf("Connected to %s events\n", stream)
	}

	err = readEvents(resp.Body, func(ev StreamEvent) {
		ev.Time = time.Now()
		if cfg.Output != "json" {
			ev.Data = fragmentText(ev.Data)
		}
		out.Print(ev)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if cfg.Output != "json" {
		fmt.Println("Disconnected")
	}
	return nil
}

// readEvents parses a text/event-stream body and calls fn for every
// complete named event
func readEvents(r io.Reader, fn func(StreamEvent)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ev StreamEvent
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if ev.Event != "" {
				ev.Data = strings.Join(data, "\n")
				fn(ev)
			}
			ev, data = StreamEvent{}, nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			ev.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// fragmentText reduces an HTML fragment to its visible text on one line
func fragmentText(data string) string {
	if !strings.HasPrefix(strings.TrimSpace(data), "<") {
		return data
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(data))
	if err != nil {
		return data
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if len(text) > 120 {
		text = text[:120] + "..."
	}
	return text
}
