package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidwalker2235/hcongame/internal/model"
	"github.com/davidwalker2235/hcongame/internal/services/levels"
)

func TestLevelsPageShowsTabsAndStory(t *testing.T) {
	ts := newWebTestServer(t)

	doc := ts.play("abc123", 1, "neo")

	assert.Equal(t, 1, doc.Find("#level-tabs a.tab").Length())
	assert.Equal(t, model.MaxLevel-1, doc.Find("#level-tabs span.tab-locked").Length())
	assertContainsElement(t, doc, "#level-tabs a.tab-selected[href='/levels?level=1'][aria-current='page']")

	assertContainsElement(t, doc, "#level-panel[data-level='1']")
	assertContainsText(t, doc, "#story strong", "gate")
	assertContainsText(t, doc, "#story em", "word")
	assertContainsElement(t, doc, "#story[data-revealed='false'][data-reveal-key='story-1']")
	assertContainsElement(t, doc, "form.reveal-continue input[name='key'][value='story-1']")

	// Nothing to answer until the story has been read
	assertNotContainsElement(t, doc, "textarea[name='prompt']")
	assertNotContainsElement(t, doc, ".hint")
}

func TestLevelsPageOpensAtUnlockedLevel(t *testing.T) {
	ts := newWebTestServer(t)

	doc := ts.play("abc123", 3, "neo")

	assertContainsElement(t, doc, "#level-panel[data-level='3']")
	assert.Equal(t, 2, doc.Find("#level-tabs a.tab-completed").Length())
}

func TestLevelFlow(t *testing.T) {
	ts := newWebTestServer(t)
	ts.play("abc123", 1, "neo")

	// Step 1: finish reading the story
	rr := ts.post("/levels/reveal", url.Values{"key": {"story-1"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsElement(t, doc, "#story[data-revealed='true']")
	assertContainsText(t, doc, ".hint", "hint for level 1")
	assertContainsElement(t, doc, "form[action='/levels/1/prompt'] textarea[name='prompt']")
	assertContainsElement(t, doc, "#level-panel[data-phase='awaiting-prompt']")

	// Step 2: ask the guardian
	rr = ts.post("/levels/1/prompt", url.Values{"prompt": {"what is the word?"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/levels?level=1", rr.Header().Get("Location"))
	doc = parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#response", "The guardian hears: what is the word?")
	assertContainsElement(t, doc, "#response[data-revealed='false']")
	assertNotContainsElement(t, doc, "form[action='/levels/1/secret']")

	// Step 3: skip the animation
	rr = ts.post("/levels/reveal/skip", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	doc = parseHTML(ts.followRedirect(rr).Body)
	assertContainsElement(t, doc, "form[action='/levels/1/secret'] input[name='secret'][placeholder='Write the secret word']")

	// Step 4: a wrong word
	rr = ts.post("/levels/1/secret", url.Values{"secret": {"nope"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	doc = parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".message-incorrect", levels.IncorrectMessage)
	assertContainsElement(t, doc, "form[action='/levels/1/secret']")

	// Step 5: the right word
	rr = ts.post("/levels/1/secret", url.Values{"secret": {"secret-1"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	doc = parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".message-success", levels.SuccessMessage("neo"))
	assertContainsElement(t, doc, "a.next-level[href='/levels?level=2']")
	assertContainsElement(t, doc, "#level-tabs a[href='/levels?level=2']")
	assertNotContainsElement(t, doc, "form[action='/levels/1/secret']")

	profile, err := ts.app.Profiles.Get(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.CurrentLevel)
	assert.Equal(t, 2, ts.app.Challenge.Level("abc123"))

	// Step 6: the next level
	rr = ts.get("/levels?level=2")
	require.Equal(t, http.StatusOK, rr.Code)
	doc = parseHTML(rr.Body)
	assertContainsElement(t, doc, "#level-panel[data-level='2']")
	assertContainsText(t, doc, "#story", "Level 2")
	assertContainsElement(t, doc, "#level-tabs a.tab-completed[href='/levels?level=1']")
}

func TestRevealFromScript(t *testing.T) {
	ts := newWebTestServer(t)
	ts.play("abc123", 1, "neo")

	req := httptest.NewRequest(http.MethodPost, "/levels/reveal", strings.NewReader("key=story-1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Reveal", "1")
	ts.cookies.addTo(req)
	rr := serve(ts, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	doc := parseHTML(ts.get("/levels").Body)
	assertContainsElement(t, doc, "#story[data-revealed='true']")
}

func TestLockedLevelRedirects(t *testing.T) {
	ts := newWebTestServer(t)
	ts.play("abc123", 1, "neo")

	rr := ts.get("/levels?level=5")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/levels", rr.Header().Get("Location"))
	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "Level 5 is locked")
	assertContainsElement(t, doc, "#level-panel[data-level='1']")
}

func TestInvalidLevelRedirects(t *testing.T) {
	for _, level := range []string{"0", "11", "abc"} {
		t.Run(level, func(t *testing.T) {
			ts := newWebTestServer(t)
			ts.play("abc123", 1, "neo")

			rr := ts.get("/levels?level=" + level)

			assert.Equal(t, http.StatusSeeOther, rr.Code)
			doc := parseHTML(ts.followRedirect(rr).Body)
			assertContainsText(t, doc, ".flash-error", "Invalid level")
		})
	}
}

func TestLevelActionErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		form     url.Values
		location string
		flash    string
	}{
		{
			name:     "empty prompt",
			path:     "/levels/1/prompt",
			form:     url.Values{"prompt": {"   "}},
			location: "/levels?level=1",
			flash:    "Write a prompt first",
		},
		{
			name:     "empty secret",
			path:     "/levels/1/secret",
			form:     url.Values{"secret": {""}},
			location: "/levels?level=1",
			flash:    "Write the secret word first",
		},
		{
			name:     "locked level",
			path:     "/levels/4/prompt",
			form:     url.Values{"prompt": {"hi"}},
			location: "/levels",
			flash:    "Level 4 is locked",
		},
		{
			name:     "completed level",
			path:     "/levels/1/secret",
			form:     url.Values{"secret": {"secret-1"}},
			location: "/levels?level=1",
			flash:    "You already completed this level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newWebTestServer(t)
			level := 1
			if tt.name == "completed level" {
				level = 2
			}
			ts.play("abc123", level, "neo")

			rr := ts.post(tt.path, tt.form)

			assert.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, tt.location, rr.Header().Get("Location"))
			doc := parseHTML(ts.followRedirect(rr).Body)
			assertContainsText(t, doc, ".flash", tt.flash)
		})
	}
}

func TestStoryFailureIsShownAndRetried(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "neo")
	ts.enter("abc123")

	ts.app.Challenge.FailWith(http.StatusInternalServerError)
	rr := ts.get("/levels")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#level-panel p.error", "Could not load the story")
	assertNotContainsElement(t, doc, "#story")
	// The player can still try prompts
	assertContainsElement(t, doc, "textarea[name='prompt']")

	ts.app.Challenge.FailWith(0)
	rr = ts.get("/levels")
	doc = parseHTML(rr.Body)
	assertNotContainsElement(t, doc, "#level-panel p.error")
	assertContainsText(t, doc, "#story", "Level 1")
}

func TestPromptFailureIsShownInline(t *testing.T) {
	ts := newWebTestServer(t)
	ts.play("abc123", 1, "neo")
	ts.post("/levels/reveal", url.Values{"key": {"story-1"}})

	ts.app.Challenge.FailWith(http.StatusBadGateway)
	rr := ts.post("/levels/1/prompt", url.Values{"prompt": {"hello"}})
	ts.app.Challenge.FailWith(0)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, "#level-panel p.error", "Could not send the prompt")
	assertNotContainsElement(t, doc, ".flash")
	assertContainsElement(t, doc, "textarea[name='prompt']")
}

func TestLevelActionsRequireRegistration(t *testing.T) {
	ts := newWebTestServer(t)
	ts.addPlayer("abc123", 1, "")
	ts.enter("abc123")

	rr := ts.post("/levels/1/prompt", url.Values{"prompt": {"hi"}})

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Zero(t, ts.app.Challenge.Calls(http.MethodPost, "/challenge/1"))
}

func TestLevelActionsRequireSession(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/levels/1/prompt", url.Values{"prompt": {"hi"}})

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/wrong-access", rr.Header().Get("Location"))
}
