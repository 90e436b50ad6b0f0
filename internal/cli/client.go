package cli

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

	"github.com/davidwalker2235/hcongame/internal/api/apierr"
	"github.com/davidwalker2235/hcongame/internal/challenge"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/remote"
)

// Client talks to the server's JSON API as the resolved session
type Client struct {
	baseURL    string
	token      func() model.SessionToken
	httpClient *http.Client
}

// NewClient creates an API client. token is read on every request.
func NewClient(baseURL string, token func() model.SessionToken) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RequestError is a failed API call. It unwraps to the model error that
// matches its code so callers can use errors.Is.
type RequestError struct {
	Status  int
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

var codeErrors = map[string]error{
	apierr.CodeInvalidRequest: model.ErrInvalidRequest,
	apierr.CodeInvalidPath:    model.ErrInvalidPath,
	apierr.CodeValidation:     model.ErrValidation,
	apierr.CodeUnauthorized:   model.ErrUnauthorized,
	apierr.CodeForbidden:      model.ErrForbidden,
	apierr.CodeNotFound:       model.ErrNotFound,
	apierr.CodeInvalidLevel:   model.ErrInvalidLevel,
	apierr.CodeLevelLocked:    model.ErrLevelLocked,
	apierr.CodeLevelCompleted: model.ErrLevelCompleted,
	apierr.CodeInFlight:       model.ErrRequestInFlight,
	apierr.CodeUnavailable:    model.ErrUnavailable,
}

func (e *RequestError) Unwrap() error {
	if err, ok := codeErrors[e.Code]; ok {
		return err
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusForbidden:
		return model.ErrForbidden
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusBadRequest:
		return model.ErrInvalidRequest
	}
	return nil
}

// decodeError reads both error shapes the server writes: the coded
// {"error":{"code","message"}} of the v1 API and the plain {"error":"..."}
// of the proxy endpoints
func decodeError(status int, body []byte) *RequestError {
	reqErr := &RequestError{Status: status, Message: http.StatusText(status)}

	var raw struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err != nil || len(raw.Error) == 0 {
		if text := strings.TrimSpace(string(body)); text != "" {
			reqErr.Message = text
		}
		return reqErr
	}

	var coded apierr.APIError
	if err := json.Unmarshal(raw.Error, &coded); err == nil {
		reqErr.Code, reqErr.Message = coded.Code, coded.Message
		return reqErr
	}
	var message string
	if err := json.Unmarshal(raw.Error, &message); err == nil && message != "" {
		reqErr.Message = message
	}
	return reqErr
}

// Do sends body as JSON and decodes a successful response into result
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}

	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

// newStore returns the key-path store reached through the server's
// session proxy
func newStore(logger *slog.Logger) *remote.StoreClient {
	rc := remote.DefaultConfig()
	rc.BaseURL = cfg.ServerURL
	return remote.NewStoreClient(rc, cfg.SessionToken, logger)
}

func newChallenge(logger *slog.Logger) *challenge.Client {
	cc := challenge.DefaultConfig()
	cc.BaseURL = cfg.APIURL
	return challenge.NewClient(cc, logger)
}
