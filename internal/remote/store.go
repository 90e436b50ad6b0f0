// Package remote implements the key-path store contract on top of the
// session proxy endpoint of a running server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/session"
	"github.com/davidwalker2235/hcongame/internal/storage"
)

// Config configures the remote store client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
}

// DefaultConfig returns the default remote store configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:8080",
		Timeout:      30 * time.Second,
		PollInterval: storage.DefaultPollInterval,
	}
}

// StoreClient is a storage.Store that forwards every operation to the
// session proxy. Watches re-read the path on a fixed interval.
type StoreClient struct {
	baseURL      string
	token        func() model.SessionToken
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

// Ensure StoreClient implements the interface
var _ storage.Store = (*StoreClient)(nil)

// NewStoreClient creates a proxy-backed store. token is consulted on every
// request so a replaced session takes effect immediately.
func NewStoreClient(cfg Config, token func() model.SessionToken, logger *slog.Logger) *StoreClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &StoreClient{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		token:        token,
		pollInterval: cfg.PollInterval,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}
}

// Request is the body of a proxy call
type Request struct {
	Action string `json:"action"`
	Path   string `json:"path"`
	Data   any    `json:"data,omitempty"`
}

type response struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (c *StoreClient) Read(ctx context.Context, path string) (any, error) {
	var value any
	if err := c.call(ctx, Request{Action: "read", Path: path}, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func (c *StoreClient) Write(ctx context.Context, path string, value any) error {
	return c.call(ctx, Request{Action: "write", Path: path, Data: value}, nil)
}

func (c *StoreClient) Update(ctx context.Context, path string, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	return c.call(ctx, Request{Action: "update", Path: path, Data: fields}, nil)
}

func (c *StoreClient) Remove(ctx context.Context, path string) error {
	return c.call(ctx, Request{Action: "remove", Path: path}, nil)
}

func (c *StoreClient) Push(ctx context.Context, path string, value any) (string, error) {
	var result struct {
		Key string `json:"key"`
	}
	if err := c.call(ctx, Request{Action: "push", Path: path, Data: value}, &result); err != nil {
		return "", err
	}
	return result.Key, nil
}

func (c *StoreClient) Watch(ctx context.Context, path string, fn storage.WatchFunc) (storage.Unsubscribe, error) {
	p, err := storage.ParsePath(path)
	if err != nil {
		return nil, err
	}
	read := func(ctx context.Context) (any, error) {
		return c.Read(ctx, p.String())
	}
	return storage.PollWatch(ctx, p, read, c.pollInterval, fn), nil
}

func (c *StoreClient) call(ctx context.Context, body Request, result any) error {
	token := c.token()
	if token == "" {
		return model.ErrNoSession
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/store", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: string(token)})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("store proxy request failed", "action", body.Action, "path", body.Path, "error", err)
		return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", model.ErrUnavailable, err)
	}

	var parsed response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("%w: HTTP %d", kindForStatus(resp.StatusCode), resp.StatusCode)
		}
		return fmt.Errorf("%w: failed to parse response: %v", model.ErrUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s", kindForStatus(resp.StatusCode), parsed.Error)
	}

	if result != nil && len(parsed.Data) > 0 {
		if err := json.Unmarshal(parsed.Data, result); err != nil {
			return fmt.Errorf("%w: failed to parse data: %v", model.ErrUnavailable, err)
		}
	}
	return nil
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusForbidden:
		return model.ErrForbidden
	case http.StatusBadRequest:
		return model.ErrInvalidRequest
	case http.StatusNotFound:
		return model.ErrNotFound
	default:
		return model.ErrUnavailable
	}
}
