// Package storagetest holds the behavioural suite every store backend must pass.
package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/storage"
)

// StoreSuite exercises the storage.Store contract. Backends embed it and
// set NewStore in their SetupTest.
type StoreSuite struct {
	suite.Suite
	NewStore func() storage.Store

	Store storage.Store
	Ctx   context.Context
}

// SetupStore creates a fresh store; call it from the backend's SetupTest
func (s *StoreSuite) SetupStore() {
	s.Require().NotNil(s.NewStore, "NewStore must be set before SetupStore")
	s.Store = s.NewStore()
	s.Ctx = context.Background()
}

// recorder collects watch callbacks
type recorder struct {
	mu     sync.Mutex
	values []any
	errs   []error
}

func (r *recorder) fn(value any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errs = append(r.errs, err)
		return
	}
	r.values = append(r.values, value)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func (r *recorder) last() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return nil
	}
	return r.values[len(r.values)-1]
}

// Read / write tests

func (s *StoreSuite) TestReadMissingReturnsNil() {
	value, err := s.Store.Read(s.Ctx, "users/nobody")
	s.Require().NoError(err)
	s.Nil(value)
}

func (s *StoreSuite) TestWriteAndRead() {
	profile := map[string]any{"nickname": "neo", "email": "neo@x.com", "currentLevel": 3}
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", profile))

	value, err := s.Store.Read(s.Ctx, "users/abc123")
	s.Require().NoError(err)
	s.Equal(map[string]any{"nickname": "neo", "email": "neo@x.com", "currentLevel": float64(3)}, value)
}

func (s *StoreSuite) TestReadNestedField() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo"}))

	value, err := s.Store.Read(s.Ctx, "/users/abc123/nickname/")
	s.Require().NoError(err)
	s.Equal("neo", value)
}

func (s *StoreSuite) TestWriteReplaces() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo", "email": "neo@x.com"}))
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "trinity"}))

	value, err := s.Store.Read(s.Ctx, "users/abc123")
	s.Require().NoError(err)
	s.Equal(map[string]any{"nickname": "trinity"}, value)
}

func (s *StoreSuite) TestWriteNestedCreatesParents() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123/progress/level2", true))

	value, err := s.Store.Read(s.Ctx, "users/abc123")
	s.Require().NoError(err)
	s.Equal(map[string]any{"progress": map[string]any{"level2": true}}, value)
}

func (s *StoreSuite) TestReadCollection() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/a", map[string]any{"nickname": "neo"}))
	s.Require().NoError(s.Store.Write(s.Ctx, "users/b", map[string]any{"nickname": "trinity"}))

	value, err := s.Store.Read(s.Ctx, "users")
	s.Require().NoError(err)
	s.Equal(map[string]any{
		"a": map[string]any{"nickname": "neo"},
		"b": map[string]any{"nickname": "trinity"},
	}, value)
}

func (s *StoreSuite) TestWriteCollection() {
	ranking := map[string]any{
		"r1": map[string]any{"nickname": "neo", "position": 1},
		"r2": map[string]any{"nickname": "trinity", "position": 2},
	}
	s.Require().NoError(s.Store.Write(s.Ctx, "ranking", ranking))
	s.Require().NoError(s.Store.Write(s.Ctx, "ranking", map[string]any{"r3": map[string]any{"nickname": "morpheus"}}))

	value, err := s.Store.Read(s.Ctx, "ranking")
	s.Require().NoError(err)
	s.Equal(map[string]any{"r3": map[string]any{"nickname": "morpheus"}}, value)
}

func (s *StoreSuite) TestInvalidPathRejected() {
	for _, path := range []string{"", "/", "users//abc", "users/../admin", "users/a.b", "users/$x"} {
		_, err := s.Store.Read(s.Ctx, path)
		s.ErrorIs(err, model.ErrInvalidPath, "path %q", path)
		s.ErrorIs(s.Store.Write(s.Ctx, path, "x"), model.ErrInvalidPath, "path %q", path)
	}
}

// Update tests

func (s *StoreSuite) TestUpdateMergesWithoutLosingFields() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo", "email": "neo@x.com", "currentLevel": 1}))

	s.Require().NoError(s.Store.Update(s.Ctx, "users/abc123", map[string]any{"currentLevel": 4}))

	value, err := s.Store.Read(s.Ctx, "users/abc123")
	s.Require().NoError(err)
	s.Equal(map[string]any{"nickname": "neo", "email": "neo@x.com", "currentLevel": float64(4)}, value)
}

func (s *StoreSuite) TestUpdateCreatesMissingDocument() {
	s.Require().NoError(s.Store.Update(s.Ctx, "users/abc123", map[string]any{"nickname": "neo", "email": "neo@x.com"}))

	value, err := s.Store.Read(s.Ctx, "users/abc123")
	s.Require().NoError(err)
	s.Equal(map[string]any{"nickname": "neo", "email": "neo@x.com"}, value)
}

func (s *StoreSuite) TestUpdateNilRemovesField() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo", "email": "neo@x.com"}))

	s.Require().NoError(s.Store.Update(s.Ctx, "users/abc123", map[string]any{"email": nil}))

	value, err := s.Store.Read(s.Ctx, "users/abc123")
	s.Require().NoError(err)
	s.Equal(map[string]any{"nickname": "neo"}, value)
}

func (s *StoreSuite) TestUpdateRelativePathKeys() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo"}))

	s.Require().NoError(s.Store.Update(s.Ctx, "users", map[string]any{"abc123/currentLevel": 2}))

	value, err := s.Store.Read(s.Ctx, "users/abc123")
	s.Require().NoError(err)
	s.Equal(map[string]any{"nickname": "neo", "currentLevel": float64(2)}, value)
}

// Remove / push tests

func (s *StoreSuite) TestRemove() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo"}))

	s.Require().NoError(s.Store.Remove(s.Ctx, "users/abc123"))

	value, err := s.Store.Read(s.Ctx, "users/abc123")
	s.Require().NoError(err)
	s.Nil(value)
}

func (s *StoreSuite) TestRemoveLastFieldRemovesDocument() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo"}))

	s.Require().NoError(s.Store.Remove(s.Ctx, "users/abc123/nickname"))

	value, err := s.Store.Read(s.Ctx, "users")
	s.Require().NoError(err)
	s.Nil(value)
}

func (s *StoreSuite) TestPushGeneratesOrderedKeys() {
	first, err := s.Store.Push(s.Ctx, "users/abc123/attempts", map[string]any{"level": 1})
	s.Require().NoError(err)
	second, err := s.Store.Push(s.Ctx, "users/abc123/attempts", map[string]any{"level": 2})
	s.Require().NoError(err)

	s.NotEqual(first, second)
	s.Less(first, second)

	value, err := s.Store.Read(s.Ctx, "users/abc123/attempts/"+second+"/level")
	s.Require().NoError(err)
	s.Equal(float64(2), value)
}

// Watch tests

func (s *StoreSuite) TestWatchDeliversInitialValueAndChanges() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"currentLevel": 1}))

	rec := &recorder{}
	unsubscribe, err := s.Store.Watch(s.Ctx, "users/abc123", rec.fn)
	s.Require().NoError(err)
	defer unsubscribe()

	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	s.Require().NoError(s.Store.Update(s.Ctx, "users/abc123", map[string]any{"currentLevel": 2}))

	s.Eventually(func() bool {
		last, _ := rec.last().(map[string]any)
		return last["currentLevel"] == float64(2)
	}, time.Second, 5*time.Millisecond)
}

func (s *StoreSuite) TestWatchIgnoresUnrelatedPaths() {
	rec := &recorder{}
	unsubscribe, err := s.Store.Watch(s.Ctx, "users/abc123", rec.fn)
	s.Require().NoError(err)
	defer unsubscribe()

	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	s.Require().NoError(s.Store.Write(s.Ctx, "users/other", map[string]any{"nickname": "x"}))
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo"}))

	s.Eventually(func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	s.Equal(map[string]any{"nickname": "neo"}, rec.last())
}

func (s *StoreSuite) TestWatchParentSeesChildWrites() {
	rec := &recorder{}
	unsubscribe, err := s.Store.Watch(s.Ctx, "users", rec.fn)
	s.Require().NoError(err)
	defer unsubscribe()

	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	s.Nil(rec.last())

	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123/nickname", "neo"))

	s.Eventually(func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
}

func (s *StoreSuite) TestUnsubscribeIsIdempotentAndStopsCallbacks() {
	rec := &recorder{}
	unsubscribe, err := s.Store.Watch(s.Ctx, "users/abc123", rec.fn)
	s.Require().NoError(err)

	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	unsubscribe()
	unsubscribe()

	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo"}))
	time.Sleep(50 * time.Millisecond)
	s.Equal(1, rec.count())
}

func (s *StoreSuite) TestWatchStopsWhenContextEnds() {
	ctx, cancel := context.WithCancel(s.Ctx)
	rec := &recorder{}
	_, err := s.Store.Watch(ctx, "users/abc123", rec.fn)
	s.Require().NoError(err)

	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo"}))
	time.Sleep(50 * time.Millisecond)
	s.Equal(1, rec.count())
}
