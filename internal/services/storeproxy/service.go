// Package storeproxy exposes the key-path store to players, restricted to
// what a session cookie entitles them to.
package storeproxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/storage"
)

// Action is a store operation requested through the proxy
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
	ActionPush   Action = "push"
)

// Request is one proxied store call
type Request struct {
	Action Action `json:"action"`
	Path   string `json:"path"`
	Data   any    `json:"data,omitempty"`
}

// Proxy errors. Each wraps the model sentinel that decides its HTTP status.
var (
	ErrNoSession         = fmt.Errorf("%w: unauthorized", model.ErrNoSession)
	ErrMissingField      = fmt.Errorf("%w: action and path are required", model.ErrInvalidRequest)
	ErrPathNotAllowed    = fmt.Errorf("%w: path not allowed", model.ErrForbidden)
	ErrActionNotAllowed  = fmt.Errorf("%w: operation not allowed", model.ErrForbidden)
	ErrInvalidData       = fmt.Errorf("%w: update data must be an object", model.ErrInvalidRequest)
	ErrUnsupportedAction = fmt.Errorf("%w: unsupported action", model.ErrInvalidRequest)
)

// PushResult is returned by a push
type PushResult struct {
	Key string `json:"key"`
}

// Service authorizes and executes proxied store calls
type Service struct {
	store  storage.Store
	logger *slog.Logger
}

// New creates a store proxy
func New(store storage.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

type scope int

const (
	scopeNone scope = iota
	scopeSelf
	scopeUsersRoot
	scopeAggregate
)

func classify(path string, token model.SessionToken) scope {
	self := model.UserPath(token)
	switch {
	case path == self || strings.HasPrefix(path, self+"/"):
		return scopeSelf
	case path == model.UsersCollection:
		return scopeUsersRoot
	case isAggregate(path, model.RankingPath), isAggregate(path, model.LeaderboardPath):
		return scopeAggregate
	default:
		return scopeNone
	}
}

func isAggregate(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+"/")
}

// Execute runs req on behalf of token. Players may read and modify their
// own profile subtree, read the users listing reduced to nicknames, and
// read the ranking aggregates.
func (s *Service) Execute(ctx context.Context, token model.SessionToken, req Request) (any, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	if req.Action == "" || req.Path == "" {
		return nil, ErrMissingField
	}

	path := storage.NormalizePath(req.Path)
	sc := classify(path, token)
	if sc == scopeNone {
		return nil, ErrPathNotAllowed
	}
	if req.Action != ActionRead && sc != scopeSelf {
		return nil, ErrActionNotAllowed
	}

	switch req.Action {
	case ActionRead:
		value, err := s.store.Read(ctx, path)
		if err != nil {
			return nil, s.fail(req, err)
		}
		if sc == scopeUsersRoot {
			return SanitizeUsers(value), nil
		}
		return value, nil

	case ActionWrite:
		if err := s.store.Write(ctx, path, req.Data); err != nil {
			return nil, s.fail(req, err)
		}
		return true, nil

	case ActionUpdate:
		fields, ok := req.Data.(map[string]any)
		if !ok || fields == nil {
			return nil, ErrInvalidData
		}
		if err := s.store.Update(ctx, path, fields); err != nil {
			return nil, s.fail(req, err)
		}
		return true, nil

	case ActionRemove:
		if err := s.store.Remove(ctx, path); err != nil {
			return nil, s.fail(req, err)
		}
		return true, nil

	case ActionPush:
		key, err := s.store.Push(ctx, path, req.Data)
		if err != nil {
			return nil, s.fail(req, err)
		}
		return PushResult{Key: key}, nil

	default:
		return nil, ErrUnsupportedAction
	}
}

func (s *Service) fail(req Request, err error) error {
	if errors.Is(err, model.ErrInvalidPath) || errors.Is(err, model.ErrInvalidRequest) {
		return err
	}
	s.logger.Error("store proxy operation failed",
		"action", req.Action,
		"path", req.Path,
		"error", err,
	)
	return err
}

// SanitizeUsers reduces the users collection to {id: {nickname}} so players
// can see who is playing without seeing emails. Entries without a nickname
// become empty objects.
func SanitizeUsers(value any) map[string]any {
	users, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]any, len(users))
	for id, raw := range users {
		entry := map[string]any{}
		if doc, ok := raw.(map[string]any); ok {
			if nickname, ok := doc["nickname"].(string); ok && nickname != "" {
				entry["nickname"] = nickname
			}
		}
		out[id] = entry
	}
	return out
}
