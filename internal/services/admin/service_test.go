package admin

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/davidwalker2235/hcongame/internal/dependencies/mocks"
	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/profile"
	"github.com/davidwalker2235/hcongame/internal/storage/memory"
	"github.com/davidwalker2235/hcongame/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	store    *memory.Store
	profiles *profile.Repository
	random   *mocks.MockRandom
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	s.Require().NoError(err)

	s.store = memory.New()
	s.profiles = profile.NewRepository(s.store)
	s.random = mocks.NewMockRandom()
	s.service = New(s.profiles, s.random, Config{
		KeyHash:   string(hash),
		PublicURL: "https://game.example.com/",
	}, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TearDownTest() {
	s.store.Close()
}

func (s *ServiceSuite) TestAuthenticate() {
	s.NoError(s.service.Authenticate("letmein"))
	s.ErrorIs(s.service.Authenticate("wrong"), ErrInvalidKey)
	s.ErrorIs(s.service.Authenticate(""), model.ErrUnauthorized)
}

func (s *ServiceSuite) TestDisabledWithoutHash() {
	svc := New(s.profiles, s.random, DefaultConfig(), testutil.NopLogger())
	s.False(svc.Enabled())
	s.ErrorIs(svc.Authenticate("letmein"), ErrDisabled)
}

func (s *ServiceSuite) TestCreateUserWithToken() {
	created, err := s.service.CreateUser(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal(model.SessionToken("abc123"), created.Token)
	s.Equal("https://game.example.com/?id=abc123", created.AccessLink)

	value, err := s.store.Read(s.ctx, "users/abc123")
	s.Require().NoError(err)
	s.Equal(map[string]any{"currentLevel": float64(1), "email": "", "nickname": ""}, value)
}

func (s *ServiceSuite) TestCreateUserGeneratesToken() {
	s.random.QueueString("generated42")

	created, err := s.service.CreateUser(s.ctx, "")
	s.Require().NoError(err)
	s.Equal(model.SessionToken("generated42"), created.Token)

	p, err := s.profiles.Get(s.ctx, "generated42")
	s.Require().NoError(err)
	s.NotNil(p)
}

func (s *ServiceSuite) TestCreateUserResetsProfile() {
	s.Require().NoError(s.profiles.Register(s.ctx, "abc123", "neo", "neo@x.com"))
	s.Require().NoError(s.profiles.SetLevel(s.ctx, "abc123", 5))

	_, err := s.service.CreateUser(s.ctx, "abc123")
	s.Require().NoError(err)

	p, _ := s.profiles.Get(s.ctx, "abc123")
	s.Equal(1, p.CurrentLevel)
	s.False(p.IsVerified())
}

func (s *ServiceSuite) TestCreateUserRejectsPathCharacters() {
	_, err := s.service.CreateUser(s.ctx, "a/b")
	s.ErrorIs(err, model.ErrInvalidRequest)
}

func (s *ServiceSuite) TestDeleteUser() {
	_, err := s.service.CreateUser(s.ctx, "abc123")
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteUser(s.ctx, "abc123"))
	p, _ := s.profiles.Get(s.ctx, "abc123")
	s.Nil(p)

	s.ErrorIs(s.service.DeleteUser(s.ctx, ""), model.ErrInvalidRequest)
}

func (s *ServiceSuite) TestQRCodeIsPNG() {
	png, err := s.service.QRCode("abc123")
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(png, []byte("\x89PNG")))
}

func (s *ServiceSuite) TestHashKeyRoundTrip() {
	hash, err := HashKey("secret")
	s.Require().NoError(err)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")))

	_, err = HashKey("")
	s.ErrorIs(err, model.ErrInvalidRequest)
}
