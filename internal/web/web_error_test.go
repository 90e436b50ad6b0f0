package web_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidwalker2235/hcongame/internal/web/middleware"
)

func TestFlashMessageShownOnce(t *testing.T) {
	ts := newWebTestServer(t)
	ts.play("abc123", 1, "neo")

	rr := ts.get("/levels?level=99")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/levels", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash.flash-error", "Invalid level")

	rr = ts.get("/levels")
	doc = parseHTML(rr.Body)
	assertNotContainsElement(t, doc, ".flash")
}

func TestPanicRendersErrorPage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := middleware.Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/levels", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "section.error-page h1", "Internal Server Error")
	assertContainsText(t, doc, "section.error-page p.error", "Something went wrong")
	assertNotContainsElement(t, doc, "nav")
}

func TestUnknownRouteNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/nowhere")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStaticFileServing(t *testing.T) {
	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{path: "/static/css/main.css", contentType: "text/css", contains: ".ranking-item"},
		{path: "/static/js/reveal.js", contentType: "javascript", contains: "/levels/reveal"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ts := newWebTestServer(t)

			rr := ts.get(tt.path)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Header().Get("Content-Type"), tt.contentType)
			assert.Contains(t, rr.Body.String(), tt.contains)
		})
	}
}

func TestStaticFileMissing(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/static/css/missing.css")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
