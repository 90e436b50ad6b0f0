package session

import (
	"net/http"
	"net/url"
	"time"
)

const (
	// CookieName is the cookie holding the session token
	CookieName = "hcongame_session_id"

	// QueryParam is the URL parameter organizers put the token in
	QueryParam = "id"

	// HeaderName carries the token for non-browser clients
	HeaderName = "X-Session-Id"

	// CookieMaxAge is how long the session cookie lives
	CookieMaxAge = 7 * 24 * time.Hour
)

// QuerySource reads the token from a request's query string. Strip records
// that the URL should be reloaded without it.
type QuerySource struct {
	r        *http.Request
	stripped bool
}

// NewQuerySource creates a query source for r
func NewQuerySource(r *http.Request) *QuerySource {
	return &QuerySource{r: r}
}

func (q *QuerySource) Lookup() (string, bool) {
	v := q.r.URL.Query().Get(QueryParam)
	return v, v != ""
}

func (q *QuerySource) Strip() {
	q.stripped = true
}

// Stripped reports whether the token was adopted from the URL
func (q *QuerySource) Stripped() bool {
	return q.stripped
}

// StrippedURL returns the request URL with the token parameter removed
func (q *QuerySource) StrippedURL() string {
	return StripToken(q.r.URL)
}

// StripToken returns u's path and query without the token parameter
func StripToken(u *url.URL) string {
	query := u.Query()
	query.Del(QueryParam)
	out := url.URL{Path: u.Path, RawQuery: query.Encode()}
	if out.Path == "" {
		out.Path = "/"
	}
	return out.String()
}

// CookieSource reads the session cookie
type CookieSource struct {
	r *http.Request
}

// NewCookieSource creates a cookie source for r
func NewCookieSource(r *http.Request) CookieSource {
	return CookieSource{r: r}
}

func (c CookieSource) Lookup() (string, bool) {
	cookie, err := c.r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, cookie.Value != ""
}

// HeaderSource reads the X-Session-Id header
type HeaderSource struct {
	r *http.Request
}

// NewHeaderSource creates a header source for r
func NewHeaderSource(r *http.Request) HeaderSource {
	return HeaderSource{r: r}
}

func (h HeaderSource) Lookup() (string, bool) {
	v := h.r.Header.Get(HeaderName)
	return v, v != ""
}

// CookieSink persists the token as a cookie readable by page scripts
type CookieSink struct {
	w      http.ResponseWriter
	secure bool
}

// NewCookieSink creates a cookie sink writing to w
func NewCookieSink(w http.ResponseWriter, secure bool) CookieSink {
	return CookieSink{w: w, secure: secure}
}

func (c CookieSink) Save(token string) error {
	http.SetCookie(c.w, Cookie(token, c.secure))
	return nil
}

func (c CookieSink) Clear() error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	})
	return nil
}

// Cookie builds the session cookie for token
func Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// HTTPResolver bundles a resolver built for one request with the query
// source, so the caller can redirect to the stripped URL
type HTTPResolver struct {
	*Resolver
	Query *QuerySource
}

// ForRequest builds the resolver used by web pages: the query parameter is
// primary, then the header and the cookie. A token found in the query is
// written back as a cookie.
func ForRequest(w http.ResponseWriter, r *http.Request, secureCookie bool) *HTTPResolver {
	query := NewQuerySource(r)
	return &HTTPResolver{
		Resolver: NewResolver(Config{
			Primary:   query,
			Fallbacks: []Source{NewHeaderSource(r), NewCookieSource(r)},
			Sinks:     []Sink{NewCookieSink(w, secureCookie)},
		}),
		Query: query,
	}
}
