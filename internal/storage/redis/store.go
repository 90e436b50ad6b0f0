package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/storage"
)

// Store is a Redis-backed key-path store. Each <collection>/<id> subtree is
// one JSON document; a SET per collection indexes its documents. Mutations
// are published on a channel so watches in every process are push-based.
type Store struct {
	client *redis.Client
	cfg    Config

	watchers *storage.WatcherSet

	subMu  sync.Mutex
	pubsub *redis.PubSub
}

// New creates a new Redis store and verifies the connection
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Store{
		client:   client,
		cfg:      cfg,
		watchers: storage.NewWatcherSet(),
	}
}

// Close stops all watchers and closes the Redis connection
func (s *Store) Close() error {
	s.watchers.StopAll()

	s.subMu.Lock()
	if s.pubsub != nil {
		_ = s.pubsub.Close()
		s.pubsub = nil
	}
	s.subMu.Unlock()

	return s.client.Close()
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

func (s *Store) Read(ctx context.Context, path string) (any, error) {
	p, err := storage.ParsePath(path)
	if err != nil {
		return nil, err
	}

	if len(p) == 1 {
		return s.readCollection(ctx, p[0])
	}

	doc, err := s.getDoc(ctx, s.client, p[0], p[1])
	if err != nil {
		return nil, err
	}
	return storage.GetIn(doc, p[2:]), nil
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

	if err := s.writePath(ctx, p, normalized); err != nil {
		return err
	}
	return s.publish(ctx, p)
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

	if len(p) == 1 {
		// Fields fan out to separate documents
		for key, value := range normalized {
			rel, err := storage.ParsePath(key)
			if err != nil {
				return err
			}
			if err := s.writePath(ctx, p.Child(rel...), value); err != nil {
				return err
			}
		}
	} else {
		err = s.mutateDoc(ctx, p[0], p[1], func(doc any) (any, error) {
			return storage.Merge(doc, p[2:], normalized)
		})
		if err != nil {
			return err
		}
	}

	return s.publish(ctx, p)
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
	if err := s.ensureSubscribed(); err != nil {
		return nil, fmt.Errorf("%w: subscribe: %v", model.ErrUnavailable, err)
	}

	read := func(ctx context.Context) (any, error) {
		return s.Read(ctx, path)
	}
	return s.watchers.Watch(ctx, p, read, fn), nil
}

// writePath stores an already normalized value without publishing
func (s *Store) writePath(ctx context.Context, p storage.Path, value any) error {
	switch len(p) {
	case 1:
		return s.replaceCollection(ctx, p[0], value)
	case 2:
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.queueDoc(ctx, pipe, p[0], p[1], value)
		})
		return err
	default:
		return s.mutateDoc(ctx, p[0], p[1], func(doc any) (any, error) {
			return storage.SetIn(doc, p[2:], value), nil
		})
	}
}

// replaceCollection swaps every document of a collection in one transaction
func (s *Store) replaceCollection(ctx context.Context, collection string, value any) error {
	var children map[string]any
	if value != nil {
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s must hold an object", model.ErrInvalidRequest, collection)
		}
		children = m
	}
	for id := range children {
		if p, err := storage.ParsePath(id); err != nil || len(p) != 1 {
			return fmt.Errorf("%w: bad key %q", model.ErrInvalidPath, id)
		}
	}

	ids, err := s.client.SMembers(ctx, indexKey(collection)).Result()
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, docKey(collection, id))
		}
		pipe.Del(ctx, indexKey(collection))
		for id, doc := range children {
			if err := s.queueDoc(ctx, pipe, collection, id, doc); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) getDoc(ctx context.Context, g getter, collection, id string) (any, error) {
	data, err := g.Get(ctx, docKey(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// queueDoc adds the commands storing (or deleting, for nil) one document
func (s *Store) queueDoc(ctx context.Context, pipe redis.Pipeliner, collection, id string, doc any) error {
	key := docKey(collection, id)
	idx := indexKey(collection)

	if doc == nil {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, idx, id)
		return nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	pipe.Set(ctx, key, data, s.cfg.DocumentTTL)
	pipe.SAdd(ctx, idx, id)
	if s.cfg.DocumentTTL > 0 {
		pipe.Expire(ctx, idx, s.cfg.DocumentTTL) // Keep index TTL in sync
	}
	return nil
}

// mutateDoc applies fn to one document under an optimistic lock
func (s *Store) mutateDoc(ctx context.Context, collection, id string, fn func(doc any) (any, error)) error {
	txf := func(tx *redis.Tx) error {
		doc, err := s.getDoc(ctx, tx, collection, id)
		if err != nil {
			return err
		}
		next, err := fn(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.queueDoc(ctx, pipe, collection, id, next)
		})
		return err
	}

	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, docKey(collection, id))
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("%w: too many concurrent writes to %s/%s", model.ErrUnavailable, collection, id)
}

func (s *Store) readCollection(ctx context.Context, collection string) (any, error) {
	ids, err := s.client.SMembers(ctx, indexKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}

	// Fetch all documents in one round trip using MGET
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(values))
	for i, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Document may have expired
		}
		var doc any
		if err := json.Unmarshal([]byte(str), &doc); err != nil {
			continue // Skip invalid data
		}
		if doc != nil {
			out[ids[i]] = doc
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (s *Store) publish(ctx context.Context, p storage.Path) error {
	return s.client.Publish(ctx, changesChannel, p.String()).Err()
}

// ensureSubscribed starts the change listener on first use
func (s *Store) ensureSubscribed() error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.pubsub != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := s.client.Subscribe(ctx, changesChannel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return err
	}
	s.pubsub = ps

	go s.dispatch(ps.Channel())
	return nil
}

func (s *Store) dispatch(ch <-chan *redis.Message) {
	for msg := range ch {
		p, err := storage.ParsePath(msg.Payload)
		if err != nil {
			continue
		}
		s.watchers.Notify(p)
	}
}
