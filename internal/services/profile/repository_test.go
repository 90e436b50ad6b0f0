package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/storage/memory"
)

type RepositorySuite struct {
	suite.Suite
	store *memory.Store
	repo  *Repository
	ctx   context.Context
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.store = memory.New()
	s.repo = NewRepository(s.store)
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	s.store.Close()
}

func (s *RepositorySuite) TestGetMissingReturnsNil() {
	p, err := s.repo.Get(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Nil(p)
}

func (s *RepositorySuite) TestGetWithoutToken() {
	_, err := s.repo.Get(s.ctx, "")
	s.ErrorIs(err, model.ErrNoSession)
}

func (s *RepositorySuite) TestRegisterCreatesProfile() {
	s.Require().NoError(s.repo.Register(s.ctx, "abc123", "neo", "neo@x.com"))

	p, err := s.repo.Get(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal("neo", p.Nickname)
	s.Equal("neo@x.com", p.Email)
	s.Equal(0, p.CurrentLevel)
	s.Equal(1, p.UnlockedLevel(model.MaxLevel))
	s.True(p.IsVerified())
}

func (s *RepositorySuite) TestRegisterKeepsLevel() {
	s.Require().NoError(s.repo.SetLevel(s.ctx, "abc123", 3))
	s.Require().NoError(s.repo.Register(s.ctx, "abc123", "neo", "neo@x.com"))

	p, _ := s.repo.Get(s.ctx, "abc123")
	s.Equal(3, p.CurrentLevel)
}

func (s *RepositorySuite) TestSetLevelKeepsOtherFields() {
	s.Require().NoError(s.repo.Register(s.ctx, "abc123", "neo", "neo@x.com"))
	s.Require().NoError(s.repo.SetLevel(s.ctx, "abc123", 4))

	p, _ := s.repo.Get(s.ctx, "abc123")
	s.Equal(4, p.CurrentLevel)
	s.Equal("neo", p.Nickname)
	s.Equal("neo@x.com", p.Email)
}

func (s *RepositorySuite) TestCreateAndDelete() {
	s.Require().NoError(s.repo.Create(s.ctx, "fresh"))

	p, err := s.repo.Get(s.ctx, "fresh")
	s.Require().NoError(err)
	s.Require().NotNil(p)
	s.Equal(1, p.CurrentLevel)
	s.False(p.IsVerified())

	s.Require().NoError(s.repo.Delete(s.ctx, "fresh"))
	p, err = s.repo.Get(s.ctx, "fresh")
	s.Require().NoError(err)
	s.Nil(p)
}

func (s *RepositorySuite) TestNicknamesSkipsBlank() {
	s.Require().NoError(s.repo.Register(s.ctx, "b", "trinity", "t@x.com"))
	s.Require().NoError(s.repo.Register(s.ctx, "a", "neo", "n@x.com"))
	s.Require().NoError(s.repo.Create(s.ctx, "c"))

	names, err := s.repo.Nicknames(s.ctx)
	s.Require().NoError(err)
	s.Equal([]Nickname{
		{Token: "a", Nickname: "neo"},
		{Token: "b", Nickname: "trinity"},
	}, names)
}

func (s *RepositorySuite) TestNicknameTakenIgnoresCaseAndSelf() {
	s.Require().NoError(s.repo.Register(s.ctx, "a", "Neo", "n@x.com"))

	taken, err := s.repo.NicknameTaken(s.ctx, "b", " neo ")
	s.Require().NoError(err)
	s.True(taken)

	taken, err = s.repo.NicknameTaken(s.ctx, "a", "neo")
	s.Require().NoError(err)
	s.False(taken)

	taken, err = s.repo.NicknameTaken(s.ctx, "b", "morpheus")
	s.Require().NoError(err)
	s.False(taken)
}

func (s *RepositorySuite) TestDecodeRejectsNonObject() {
	_, err := Decode("not a profile")
	s.Error(err)
}

func (s *RepositorySuite) TestWatchDeliversProfileChanges() {
	updates := make(chan *model.Profile, 4)
	unsubscribe, err := s.repo.Watch(s.ctx, "abc123", func(p *model.Profile, err error) {
		s.NoError(err)
		updates <- p
	})
	s.Require().NoError(err)
	defer unsubscribe()

	s.Nil(<-updates)

	s.Require().NoError(s.repo.Register(s.ctx, "abc123", "neo", "neo@x.com"))
	select {
	case p := <-updates:
		s.Require().NotNil(p)
		s.Equal("neo", p.Nickname)
	case <-time.After(2 * time.Second):
		s.Fail("no profile update")
	}

	_, err = s.repo.Watch(s.ctx, "", func(*model.Profile, error) {})
	s.ErrorIs(err, model.ErrNoSession)
}
