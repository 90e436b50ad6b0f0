// Package profile reads and writes player profiles in the key-path store
package profile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/storage"
)

// Repository is a typed view of the users collection
type Repository struct {
	store storage.Store
}

// NewRepository creates a profile repository over store
func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

// Store returns the underlying store
func (r *Repository) Store() storage.Store {
	return r.store
}

// Get returns the profile of token, or nil if none is stored
func (r *Repository) Get(ctx context.Context, token model.SessionToken) (*model.Profile, error) {
	if token == "" {
		return nil, model.ErrNoSession
	}
	value, err := r.store.Read(ctx, model.UserPath(token))
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Decode(value)
}

// Decode converts a stored value into a profile. nil stays nil.
func Decode(value any) (*model.Profile, error) {
	if value == nil {
		return nil, nil
	}
	var p model.Profile
	if err := storage.Decode(value, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// Watch calls fn with the profile of token now and whenever it changes
func (r *Repository) Watch(ctx context.Context, token model.SessionToken, fn func(*model.Profile, error)) (storage.Unsubscribe, error) {
	if token == "" {
		return nil, model.ErrNoSession
	}
	return r.store.Watch(ctx, model.UserPath(token), func(value any, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(Decode(value))
	})
}

// Register merges nickname and email into the profile, creating it if needed
func (r *Repository) Register(ctx context.Context, token model.SessionToken, nickname, email string) error {
	if token == "" {
		return model.ErrNoSession
	}
	err := r.store.Update(ctx, model.UserPath(token), map[string]any{
		"nickname": nickname,
		"email":    email,
	})
	if err != nil {
		return fmt.Errorf("register profile: %w", err)
	}
	return nil
}

// SetLevel stores the profile's current level
func (r *Repository) SetLevel(ctx context.Context, token model.SessionToken, level int) error {
	if token == "" {
		return model.ErrNoSession
	}
	err := r.store.Update(ctx, model.UserPath(token), map[string]any{
		"currentLevel": level,
	})
	if err != nil {
		return fmt.Errorf("set level: %w", err)
	}
	return nil
}

// Create stores a blank profile at level 1, replacing any existing one
func (r *Repository) Create(ctx context.Context, token model.SessionToken) error {
	err := r.store.Write(ctx, model.UserPath(token), map[string]any{
		"currentLevel": 1,
		"email":        "",
		"nickname":     "",
	})
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Delete removes a profile
func (r *Repository) Delete(ctx context.Context, token model.SessionToken) error {
	if err := r.store.Remove(ctx, model.UserPath(token)); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// Nickname is one entry of the users listing
type Nickname struct {
	Token    model.SessionToken
	Nickname string
}

// Nicknames lists the nickname of every profile that has one, sorted by
// token. Only nicknames are decoded so a sanitized listing works as well.
func (r *Repository) Nicknames(ctx context.Context) ([]Nickname, error) {
	value, err := r.store.Read(ctx, model.UsersCollection)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, _ := value.(map[string]any)

	out := make([]Nickname, 0, len(users))
	for id, raw := range users {
		doc, _ := raw.(map[string]any)
		nickname, _ := doc["nickname"].(string)
		if strings.TrimSpace(nickname) == "" {
			continue
		}
		out = append(out, Nickname{Token: model.SessionToken(id), Nickname: nickname})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

// NicknameTaken reports whether a profile other than self already uses
// nickname, ignoring case and surrounding space
func (r *Repository) NicknameTaken(ctx context.Context, self model.SessionToken, nickname string) (bool, error) {
	want := strings.ToLower(strings.TrimSpace(nickname))
	entries, err := r.Nicknames(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Token == self {
			continue
		}
		if strings.ToLower(strings.TrimSpace(e.Nickname)) == want {
			return true, nil
		}
	}
	return false, nil
}
