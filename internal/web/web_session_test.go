package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidwalker2235/hcongame/internal/factory"
	"github.com/davidwalker2235/hcongame/internal/services/session"
)

func TestProtectedPagesRequireToken(t *testing.T) {
	for _, path := range []string{"/", "/levels", "/about", "/ranking", "/login"} {
		t.Run(path, func(t *testing.T) {
			ts := newWebTestServer(t)

			rr := ts.get(path)

			assert.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, "/wrong-access", rr.Header().Get("Location"))
		})
	}
}

func TestTokenFromURLIsStoredAndStripped(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "neo")

	rr := ts.get("/levels?level=1&id=abc123")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/levels?level=1", rr.Header().Get("Location"))

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "Expected session cookie")
	assert.Equal(t, "abc123", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure)

	// The stripped URL now works from the cookie alone
	rr = ts.followRedirect(rr)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestURLTokenReplacesCookie(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("first", 1, "neo")
	ts.addPlayer("second", 1, "trinity")

	ts.enter("first")
	ts.enter("second")

	rr := ts.get("/about")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "dd.nickname", "trinity")
}

func TestURLTokenMatchingCookieIsNotRewritten(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "neo")
	ts.enter("abc123")

	rr := ts.get("/levels?id=abc123")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/levels", rr.Header().Get("Location"))
	assert.Empty(t, rr.Result().Cookies())
}

func TestHeaderTokenIsAccepted(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "neo")

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.Header.Set(session.HeaderName, "abc123")
	rr := serve(ts, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Result().Cookies(), "Header tokens are not persisted")
}

func TestUnregisteredPlayerIsSentToRegistration(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "")
	ts.enter("abc123")

	for _, path := range []string{"/levels", "/about", "/ranking", "/login"} {
		rr := ts.get(path)
		assert.Equal(t, http.StatusSeeOther, rr.Code, path)
		assert.Equal(t, "/", rr.Header().Get("Location"), path)
	}
}

func TestRegisteredPlayerSkipsRegistration(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "neo")
	ts.enter("abc123")

	rr := ts.get("/")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/levels", rr.Header().Get("Location"))
}

func TestMissingProfileGoesToRegistration(t *testing.T) {
	ts := newWebTestServer(t)
	ts.enter("unknown")

	rr := ts.get("/")

	assert.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "form#registration-form")
}

func TestStrictMissingProfileIsDenied(t *testing.T) {
	ts := newWebTestServer(t, factory.WithStrictMissingProfile())
	ts.enter("unknown")

	rr := ts.get("/")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/wrong-access", rr.Header().Get("Location"))
}

func TestTokenValidation(t *testing.T) {
	ts := newWebTestServer(t, factory.WithTokenValidation())
	ts.addPlayer("abc123", 1, "neo")

	t.Run("unknown token is rejected", func(t *testing.T) {
		rr := ts.get("/levels?id=forged")
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/wrong-access", rr.Header().Get("Location"))
		assert.Empty(t, ts.cookies.session(), "Rejected tokens are not persisted")
	})

	t.Run("known token is accepted", func(t *testing.T) {
		rr := ts.get("/levels?id=abc123")
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/levels", rr.Header().Get("Location"))
		assert.Equal(t, "abc123", ts.cookies.session())
	})

	t.Run("verdicts are cached", func(t *testing.T) {
		before := ts.app.Challenge.Calls(http.MethodGet, "/challenge/0")
		ts.get("/about")
		ts.get("/about")
		assert.Equal(t, before, ts.app.Challenge.Calls(http.MethodGet, "/challenge/0"))
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	ts := newWebTestServer(t)
	ts.play("abc123", 1, "neo")
	require.Equal(t, 1, ts.app.Levels.Len())

	rr := ts.get("/logout")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, ts.cookies.session())
	assert.Equal(t, 0, ts.app.Levels.Len())
	doc := parseHTML(rr.Body)
	assertNotContainsElement(t, doc, "nav.nav")

	rr = ts.get("/levels")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/wrong-access", rr.Header().Get("Location"))
}

func TestWrongAccessPage(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/wrong-access")

	assert.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#wrong-access", "Incorrect access. A valid ID is required.")
	assertNotContainsElement(t, doc, "nav.nav")
}
