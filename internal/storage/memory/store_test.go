package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/davidwalker2235/hcongame/internal/storage"
	"github.com/davidwalker2235/hcongame/internal/storage/storagetest"
)

type StoreSuite struct {
	storagetest.StoreSuite
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.NewStore = func() storage.Store { return New() }
	s.SetupStore()
}

func (s *StoreSuite) TearDownTest() {
	_ = s.Store.(*Store).Close()
}

func (s *StoreSuite) TestReadReturnsCopy() {
	s.Require().NoError(s.Store.Write(s.Ctx, "users/abc123", map[string]any{"nickname": "neo"}))

	value, err := s.Store.Read(s.Ctx, "users/abc123")
	s.Require().NoError(err)
	value.(map[string]any)["nickname"] = "mutated"

	again, err := s.Store.Read(s.Ctx, "users/abc123/nickname")
	s.Require().NoError(err)
	s.Equal("neo", again)
}

func (s *StoreSuite) TestCloseStopsWatchers() {
	store := s.Store.(*Store)
	_, err := store.Watch(s.Ctx, "users", func(any, error) {})
	s.Require().NoError(err)
	s.Equal(1, store.watchers.Len())

	s.Require().NoError(store.Close())
	s.Equal(0, store.watchers.Len())
}
