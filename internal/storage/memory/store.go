package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/davidwalker2235/hcongame/internal/storage"
)

// Store is an in-memory implementation of the key-path store. Watches are
// push-based: every mutation signals the watchers of overlapping paths.
type Store struct {
	mu   sync.RWMutex
	root any

	watchers *storage.WatcherSet
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		watchers: storage.NewWatcherSet(),
	}
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

func (s *Store) Read(ctx context.Context, path string) (any, error) {
	p, err := storage.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return s.read(p), nil
}

func (s *Store) read(p storage.Path) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storage.Clone(storage.GetIn(s.root, p))
}

func (s *Store) Write(ctx context.Context, path string, value any) error {
	p, err := storage.ParsePath(path)
	if err != nil {
		return err
	}
	normalized, err := storage.Normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.root = storage.SetIn(s.root, p, normalized)
	s.mu.Unlock()

	s.watchers.Notify(p)
	return nil
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := storage.ParsePath(path)
	if err != nil {
		return err
	}
	normalized := make(map[string]any, len(fields))
	for k, v := range fields {
		nv, err := storage.Normalize(v)
		if err != nil {
			return err
		}
		normalized[k] = nv
	}

	s.mu.Lock()
	root, err := storage.Merge(storage.Clone(s.root), p, normalized)
	if err == nil {
		s.root = root
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.watchers.Notify(p)
	return nil
}

func (s *Store) Remove(ctx context.Context, path string) error {
	return s.Write(ctx, path, nil)
}

func (s *Store) Push(ctx context.Context, path string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate push key: %w", err)
	}
	key := id.String()
	if err := s.Write(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Watch(ctx context.Context, path string, fn storage.WatchFunc) (storage.Unsubscribe, error) {
	p, err := storage.ParsePath(path)
	if err != nil {
		return nil, err
	}
	read := func(context.Context) (any, error) {
		return s.read(p), nil
	}
	return s.watchers.Watch(ctx, p, read, fn), nil
}

// Close stops all watchers
func (s *Store) Close() error {
	s.watchers.StopAll()
	return nil
}
