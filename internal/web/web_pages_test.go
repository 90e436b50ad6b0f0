package web_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingPage_ShowsEntriesInOrder(t *testing.T) {
	ts := newWebTestServer(t)
	ctx := context.Background()

	require.NoError(t, ts.app.Storage.Write(ctx, "ranking/b", map[string]any{
		"nickname":     "trinity",
		"position":     2,
		"highestLevel": 5,
		"attempts":     12,
	}))
	require.NoError(t, ts.app.Storage.Write(ctx, "ranking/a", map[string]any{
		"nickname":     "neo",
		"position":     1,
		"highestLevel": 7,
		"attempts":     9,
		"email":        "neo@example.com",
	}))

	ts.addPlayer("abc123", 1, "morpheus")
	ts.enter("abc123")

	rr := ts.get("/ranking")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)

	assertContainsElement(t, doc, `section.ranking-page[sse-connect="/ranking/events"]`)
	assertContainsElement(t, doc, "div#ranking-list")

	items := doc.Find("li.ranking-item")
	require.Equal(t, 2, items.Length())
	assert.Equal(t, "neo", items.Eq(0).Find(".nickname").Text())
	assert.Equal(t, "trinity", items.Eq(1).Find(".nickname").Text())
	assert.Contains(t, items.Eq(0).Find(".position").Text(), "1.")

	// Emails never reach the page
	assert.NotContains(t, doc.Text(), "neo@example.com")
}

func TestRankingPage_Empty(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "morpheus")
	ts.enter("abc123")

	rr := ts.get("/ranking")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)

	assertContainsText(t, doc, "p.empty", "No ranking data available")
	assertNotContainsElement(t, doc, "li.ranking-item")
}

func TestRankingPage_RequiresRegistration(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "")
	ts.enter("abc123")

	rr := ts.get("/ranking")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestAboutPage_ShowsRegistration(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 2, "neo")
	ts.enter("abc123")

	rr := ts.get("/about")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)

	assertContainsText(t, doc, "dd.nickname", "neo")
	assertContainsText(t, doc, "dd.email", "neo@example.com")
}

func TestLoginPage_NamesThePlayer(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "neo")
	ts.enter("abc123")

	rr := ts.get("/login")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)

	assertContainsText(t, doc, "section.login", "You are playing as neo.")
	assertContainsElement(t, doc, `section.login a[href="/levels"]`)
}

func TestInfoPages_RequireSession(t *testing.T) {
	for _, path := range []string{"/ranking", "/about", "/login"} {
		t.Run(path, func(t *testing.T) {
			ts := newWebTestServer(t)

			rr := ts.get(path)
			assert.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, "/wrong-access", rr.Header().Get("Location"))
		})
	}
}
