package challenge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// API is the remote challenge service. Every call authenticates with the
// player's session token as a bearer credential.
type API interface {
	// Bootstrap returns the level the token is currently allowed to play
	Bootstrap(ctx context.Context, token model.SessionToken) (*model.Story, error)
	Story(ctx context.Context, token model.SessionToken, level int) (*model.Story, error)
	Ask(ctx context.Context, token model.SessionToken, level int, prompt string) (*model.PromptReply, error)
	Verify(ctx context.Context, token model.SessionToken, level int, secret string) (*model.Verdict, error)
	Auth(ctx context.Context, token model.SessionToken) (*model.AuthStatus, error)
}

// Config configures the challenge API client
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is the maximum requests per second, 0 disables limiting
	RateLimit float64
	Burst     int
}

// DefaultConfig returns the default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://ernibots-api.enricd.com",
		Timeout: 30 * time.Second,
		Burst:   5,
	}
}

// Client talks to the challenge API over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Ensure Client implements API
var _ API = (*Client)(nil)

// NewClient creates a challenge API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

func (c *Client) Bootstrap(ctx context.Context, token model.SessionToken) (*model.Story, error) {
	return c.Story(ctx, token, 0)
}

func (c *Client) Story(ctx context.Context, token model.SessionToken, level int) (*model.Story, error) {
	var story model.Story
	if err := c.do(ctx, http.MethodGet, levelPath(level), token, nil, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (c *Client) Ask(ctx context.Context, token model.SessionToken, level int, prompt string) (*model.PromptReply, error) {
	var reply model.PromptReply
	body := map[string]string{"prompt": prompt}
	if err := c.do(ctx, http.MethodPost, levelPath(level), token, body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) Verify(ctx context.Context, token model.SessionToken, level int, secret string) (*model.Verdict, error) {
	var verdict model.Verdict
	body := map[string]string{"secret": secret}
	if err := c.do(ctx, http.MethodPost, levelPath(level)+"/verify", token, body, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func (c *Client) Auth(ctx context.Context, token model.SessionToken) (*model.AuthStatus, error) {
	var status model.AuthStatus
	if err := c.do(ctx, http.MethodGet, "/auth", token, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func levelPath(level int) string {
	return "/challenge/" + strconv.Itoa(level)
}

func (c *Client) do(ctx context.Context, method, path string, token model.SessionToken, body, result any) error {
	if token == "" {
		return model.ErrNoSession
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
		}
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+string(token))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("challenge request failed",
			"method", method,
			"path", path,
			"error", err,
		)
		return &Error{Message: err.Error(), kind: model.ErrUnavailable}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: err.Error(), kind: model.ErrUnavailable}
	}

	c.logger.Debug("challenge request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= 400 {
		return newError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &Error{
				Status:  resp.StatusCode,
				Message: fmt.Sprintf("failed to parse response: %v", err),
				kind:    model.ErrUnavailable,
			}
		}
	}
	return nil
}

// Detail is one validation problem reported by the API
type Detail struct {
	Loc  []any  `json:"loc,omitempty"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// Error is a failed challenge API call. It unwraps to one of the model
// sentinels so callers can test it with errors.Is.
type Error struct {
	Status  int
	Message string
	Detail  []Detail
	kind    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("challenge api: %s", e.Message)
	}
	return fmt.Sprintf("challenge api: %s (status %d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error {
	return e.kind
}

func newError(status int, body []byte) *Error {
	e := &Error{
		Status:  status,
		Message: fmt.Sprintf("HTTP error! status: %d", status),
		kind:    kindForStatus(status),
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return e
	}

	// FastAPI sends either a list of validation problems or a plain string
	var details []Detail
	if err := json.Unmarshal(payload.Detail, &details); err == nil && len(details) > 0 {
		msgs := make([]string, 0, len(details))
		for _, d := range details {
			msgs = append(msgs, d.Msg)
		}
		e.Detail = details
		e.Message = strings.Join(msgs, ", ")
		return e
	}
	var msg string
	if err := json.Unmarshal(payload.Detail, &msg); err == nil && msg != "" {
		e.Message = msg
	}
	return e
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return model.ErrUnauthorized
	case status == http.StatusNotFound:
		return model.ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return model.ErrInvalidRequest
	default:
		return model.ErrUnavailable
	}
}

// StatusOf returns the HTTP status of a challenge API error, or 0
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
