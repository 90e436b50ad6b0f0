package sse

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	keepalivePeriod = 30 * time.Second
	sendBufferSize  = 64
)

var (
	connectedFrame = []byte("event: connected\ndata: {\"status\":\"connected\"}\n\n")
	keepaliveFrame = []byte(": keepalive\n\n")
)

// Client is one open event stream. Frames the stream cannot keep up with
// are dropped by the hub.
type Client struct {
	hub         *Hub
	id          string
	send        chan []byte
	connectedAt time.Time
}

func NewClient(hub *Hub) *Client {
	return &Client{
		hub:         hub,
		id:          uuid.NewString(),
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams the hub's events to the request until the browser goes
// away or the hub closes
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := NewClient(hub)
	if !hub.Register(client) {
		http.Error(w, "Stream closed", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	write := func(frame []byte) bool {
		if _, err := w.Write(frame); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !write(connectedFrame) {
		return
	}

	keepalive := time.NewTicker(keepalivePeriod)
	defer keepalive.Stop()

	for {
		var frame []byte
		select {
		case msg, open := <-client.send:
			if !open {
				return
			}
			frame = msg
		case <-keepalive.C:
			frame = keepaliveFrame
		case <-r.Context().Done():
			return
		}
		if !write(frame) {
			return
		}
	}
}
