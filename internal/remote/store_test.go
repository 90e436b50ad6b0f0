package remote_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/davidwalker2235/hcongame/internal/factory"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/remote"
	"github.com/davidwalker2235/hcongame/internal/testutil"
)

type StoreClientSuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
	token  atomic.Value
	client *remote.StoreClient
	ctx    context.Context
}

func TestStoreClientSuite(t *testing.T) {
	suite.Run(t, new(StoreClientSuite))
}

func (s *StoreClientSuite) SetupTest() {
	s.ctx = context.Background()
	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(s.app.Handler(factory.HandlerConfig{}))

	s.Require().NoError(s.app.AddPlayer(s.ctx, "abc123", 2, "neo", "neo@example.com"))
	s.Require().NoError(s.app.AddPlayer(s.ctx, "def456", 1, "trinity", "trinity@example.com"))

	s.token.Store(model.SessionToken("abc123"))
	cfg := remote.DefaultConfig()
	cfg.BaseURL = s.server.URL
	cfg.PollInterval = 20 * time.Millisecond
	s.client = remote.NewStoreClient(cfg, s.currentToken, testutil.NopLogger())
}

func (s *StoreClientSuite) TearDownTest() {
	s.server.Close()
	s.app.Close()
}

func (s *StoreClientSuite) currentToken() model.SessionToken {
	return s.token.Load().(model.SessionToken)
}

func (s *StoreClientSuite) TestReadOwnProfile() {
	value, err := s.client.Read(s.ctx, "users/abc123")
	s.Require().NoError(err)

	doc, ok := value.(map[string]any)
	s.Require().True(ok)
	s.Equal("neo", doc["nickname"])
	s.EqualValues(2, doc["currentLevel"])
}

func (s *StoreClientSuite) TestReadMissingReturnsNil() {
	value, err := s.client.Read(s.ctx, "users/abc123/missing")
	s.Require().NoError(err)
	s.Nil(value)
}

func (s *StoreClientSuite) TestWriteUpdateAndRemove() {
	s.Require().NoError(s.client.Write(s.ctx, "users/abc123/nickname", "neo2"))
	s.Require().NoError(s.client.Update(s.ctx, "users/abc123", map[string]any{"currentLevel": 4}))

	p, err := s.app.Profiles.Get(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal("neo2", p.Nickname)
	s.Equal(4, p.CurrentLevel)

	s.Require().NoError(s.client.Remove(s.ctx, "users/abc123/email"))
	p, err = s.app.Profiles.Get(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Empty(p.Email)
}

func (s *StoreClientSuite) TestPushReturnsKey() {
	key, err := s.client.Push(s.ctx, "users/abc123/attempts", map[string]any{"level": 1})
	s.Require().NoError(err)
	s.NotEmpty(key)

	value, err := s.app.Storage.Read(s.ctx, "users/abc123/attempts/"+key)
	s.Require().NoError(err)
	s.Equal(map[string]any{"level": float64(1)}, value)
}

func (s *StoreClientSuite) TestOtherPlayerForbidden() {
	err := s.client.Update(s.ctx, "users/def456", map[string]any{"currentLevel": 10})
	s.ErrorIs(err, model.ErrForbidden)

	_, err = s.client.Read(s.ctx, "config/secrets")
	s.ErrorIs(err, model.ErrForbidden)
}

func (s *StoreClientSuite) TestUsersListingIsSanitized() {
	value, err := s.client.Read(s.ctx, "users")
	s.Require().NoError(err)

	users, ok := value.(map[string]any)
	s.Require().True(ok)
	s.Require().Contains(users, "def456")
	s.Equal(map[string]any{"nickname": "trinity"}, users["def456"])
}

func (s *StoreClientSuite) TestNoTokenFailsWithoutRequest() {
	s.token.Store(model.SessionToken(""))

	_, err := s.client.Read(s.ctx, "users/abc123")
	s.ErrorIs(err, model.ErrNoSession)
}

func (s *StoreClientSuite) TestTokenIsReadPerRequest() {
	s.token.Store(model.SessionToken("def456"))

	value, err := s.client.Read(s.ctx, "users/def456/nickname")
	s.Require().NoError(err)
	s.Equal("trinity", value)

	err = s.client.Write(s.ctx, "users/abc123/nickname", "hijack")
	s.ErrorIs(err, model.ErrForbidden)
}

func (s *StoreClientSuite) TestWatchPollsForChanges() {
	var mu sync.Mutex
	var seen []any
	unsubscribe, err := s.client.Watch(s.ctx, "users/abc123/currentLevel", func(value any, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, value)
	})
	s.Require().NoError(err)
	defer unsubscribe()

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, 10*time.Millisecond)

	s.Require().NoError(s.app.Profiles.SetLevel(s.ctx, "abc123", 5))

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2 && seen[1] == float64(5)
	}, time.Second, 10*time.Millisecond)

	unsubscribe()
	unsubscribe()
	s.Require().NoError(s.app.Profiles.SetLevel(s.ctx, "abc123", 6))
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	s.Len(seen, 2)
}

func TestStoreClient_ServerUnavailable(t *testing.T) {
	cfg := remote.DefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.Timeout = time.Second
	client := remote.NewStoreClient(cfg, func() model.SessionToken { return "abc123" }, testutil.NopLogger())

	_, err := client.Read(context.Background(), "users/abc123")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnavailable)
}
