package challenge_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/davidwalker2235/hcongame/internal/challenge"
	"github.com/davidwalker2235/hcongame/internal/challenge/challengetest"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/testutil"
)

type ClientSuite struct {
	suite.Suite
	fake   *challengetest.Server
	client *challenge.Client
	ctx    context.Context
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.fake = challengetest.NewServer(model.MaxLevel)
	s.fake.AddPlayer("abc123", 3, "neo")

	cfg := challenge.DefaultConfig()
	cfg.BaseURL = s.fake.URL
	s.client = challenge.NewClient(cfg, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ClientSuite) TearDownTest() {
	s.fake.Close()
}

func (s *ClientSuite) TestBootstrapReturnsCurrentLevel() {
	story, err := s.client.Bootstrap(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal(3, story.Level)
	s.Equal(1, s.fake.Calls(http.MethodGet, "/challenge/0"))
}

func (s *ClientSuite) TestStoryReturnsNarrativeAndHint() {
	story, err := s.client.Story(s.ctx, "abc123", 2)
	s.Require().NoError(err)
	s.Equal(2, story.Level)
	s.Equal(challengetest.StoryText(2), story.Story)
	s.Equal(challengetest.HintText(2), story.Hint)
}

func (s *ClientSuite) TestUnknownTokenIsUnauthorized() {
	_, err := s.client.Story(s.ctx, "nobody", 1)
	s.ErrorIs(err, model.ErrUnauthorized)
	s.Equal(http.StatusUnauthorized, challenge.StatusOf(err))
	s.Contains(err.Error(), "Invalid token")
}

func (s *ClientSuite) TestEmptyTokenFailsWithoutRequest() {
	_, err := s.client.Story(s.ctx, "", 1)
	s.ErrorIs(err, model.ErrNoSession)
	s.Equal(0, s.fake.Calls(http.MethodGet, "/challenge/1"))
}

func (s *ClientSuite) TestAskReturnsResponse() {
	reply, err := s.client.Ask(s.ctx, "abc123", 3, "open the gate")
	s.Require().NoError(err)
	s.Equal(3, reply.Level)
	s.Contains(reply.Response, "open the gate")
}

func (s *ClientSuite) TestValidationDetailIsJoined() {
	_, err := s.client.Ask(s.ctx, "abc123", 3, "")
	s.ErrorIs(err, model.ErrInvalidRequest)

	var apiErr *challenge.Error
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusUnprocessableEntity, apiErr.Status)
	s.Equal("Field required", apiErr.Message)
	s.Len(apiErr.Detail, 1)
}

func (s *ClientSuite) TestVerifyCorrectSecret() {
	verdict, err := s.client.Verify(s.ctx, "abc123", 3, "secret-3")
	s.Require().NoError(err)
	s.True(verdict.Correct)
	s.Equal(3, verdict.Level)
	s.Equal(4, s.fake.Level("abc123"))
}

func (s *ClientSuite) TestVerifyWrongSecret() {
	verdict, err := s.client.Verify(s.ctx, "abc123", 3, "wrong")
	s.Require().NoError(err)
	s.False(verdict.Correct)
	s.Equal(3, s.fake.Level("abc123"))
}

func (s *ClientSuite) TestAuthReportsNewPlayer() {
	s.fake.AddPlayer("fresh", 0, "")

	status, err := s.client.Auth(s.ctx, "fresh")
	s.Require().NoError(err)
	s.True(status.New)

	status, err = s.client.Auth(s.ctx, "abc123")
	s.Require().NoError(err)
	s.False(status.New)
	s.Equal(3, status.Level)
	s.Equal("neo", status.Nickname)
}

func (s *ClientSuite) TestServerErrorIsUnavailable() {
	s.fake.FailWith(http.StatusBadGateway)

	_, err := s.client.Story(s.ctx, "abc123", 1)
	s.ErrorIs(err, model.ErrUnavailable)
}

func (s *ClientSuite) TestTransportErrorIsUnavailable() {
	s.fake.Close()

	_, err := s.client.Story(s.ctx, "abc123", 1)
	s.ErrorIs(err, model.ErrUnavailable)
	s.Equal(0, challenge.StatusOf(err))
}

func (s *ClientSuite) TestPlainStringDetail() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Challenge not found"}`))
	}))
	defer srv.Close()

	cfg := challenge.DefaultConfig()
	cfg.BaseURL = srv.URL
	client := challenge.NewClient(cfg, testutil.NopLogger())

	_, err := client.Story(s.ctx, "abc123", 99)
	s.ErrorIs(err, model.ErrNotFound)
	s.Contains(err.Error(), "Challenge not found")
}

func (s *ClientSuite) TestRateLimitedClientStillServes() {
	cfg := challenge.DefaultConfig()
	cfg.BaseURL = s.fake.URL
	cfg.RateLimit = 1000
	cfg.Burst = 2
	client := challenge.NewClient(cfg, testutil.NopLogger())

	for i := 0; i < 5; i++ {
		_, err := client.Story(s.ctx, "abc123", 1)
		s.Require().NoError(err)
	}
	s.Equal(5, s.fake.Calls(http.MethodGet, "/challenge/1"))
}

func (s *ClientSuite) TestRateLimitHonoursCancelledContext() {
	cfg := challenge.DefaultConfig()
	cfg.BaseURL = s.fake.URL
	cfg.RateLimit = 0.001
	cfg.Burst = 1
	client := challenge.NewClient(cfg, testutil.NopLogger())

	_, err := client.Story(s.ctx, "abc123", 1)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err = client.Story(ctx, "abc123", 1)
	s.ErrorIs(err, model.ErrUnavailable)
}
