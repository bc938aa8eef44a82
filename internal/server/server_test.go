package server_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog/internal/config"
	"github.com/sakif/blog/internal/server"
)

// These tests drive the fully wired server over real HTTP: in-memory SQLite,
// real bcrypt (at the cheapest cost), real session tokens and templates.

var articleLink = regexp.MustCompile(`href="/item/([0-9a-v]{20})"`)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Port:            0,
		DBPath:          ":memory:",
		SessionSecret:   "test-secret-at-least-16-bytes",
		SessionTTL:      time.Hour,
		RememberTTL:     24 * time.Hour,
		CookieSecure:    false,
		LogLevel:        "error",
		LogFormat:       "text",
		ShutdownTimeout: time.Second,
		BcryptCost:      4,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := server.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// newBrowser returns a client that keeps cookies and does not follow
// redirects, so every 303 can be asserted on.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, c *http.Client, u string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func post(t *testing.T, c *http.Client, u string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(u, form)
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func signupAndLogin(t *testing.T, c *http.Client, base, email, name string) {
	t.Helper()

	resp := post(t, c, base+"/signup", url.Values{
		"email": {email}, "name": {name}, "password": {"correct horse"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp = post(t, c, base+"/login", url.Values{
		"email": {email}, "password": {"correct horse"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/profile", resp.Header.Get("Location"))
}

func TestBlogLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := newBrowser(t)

	// --- accounts ---
	signupAndLogin(t, alice, ts.URL, "alice@example.com", "Alice")

	resp := post(t, newBrowser(t), ts.URL+"/signup", url.Values{
		"email": {"alice@example.com"}, "name": {"Other"}, "password": {"correct horse"},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "email is taken")

	resp = post(t, newBrowser(t), ts.URL+"/login", url.Values{
		"email": {"alice@example.com"}, "password": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := get(t, alice, ts.URL+"/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Alice")

	// --- publish ---
	resp = post(t, alice, ts.URL+"/create-article", url.Values{
		"title": {"First post"}, "intro": {"Hello"}, "text": {"Body text"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body = get(t, newBrowser(t), ts.URL+"/item")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "First post")
	assert.Contains(t, body, "by Alice")

	m := articleLink.FindStringSubmatch(body)
	require.Len(t, m, 2, "article link in list")
	articleURL := ts.URL + "/item/" + m[1]

	resp, body = get(t, alice, articleURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/item/"+m[1]+"/delete", "owner sees the delete control")

	// --- someone else ---
	bob := newBrowser(t)
	signupAndLogin(t, bob, ts.URL, "bob@example.com", "Bob")

	resp, body = get(t, bob, articleURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "/item/"+m[1]+"/delete")

	resp = post(t, bob, articleURL+"/delete", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = post(t, bob, articleURL+"/update", url.Values{
		"title": {"Hijacked"}, "intro": {"x"}, "text": {"x"},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// --- anonymous ---
	anon := newBrowser(t)
	resp, _ = get(t, anon, ts.URL+"/profile")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fprofile", resp.Header.Get("Location"))

	resp = post(t, anon, articleURL+"/delete", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// --- owner edits and deletes ---
	resp = post(t, alice, articleURL+"/update", url.Values{
		"title": {"Renamed"}, "intro": {"Hello"}, "text": {"Body text"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = get(t, alice, articleURL)
	assert.Contains(t, body, "Renamed")

	resp = post(t, alice, articleURL+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = get(t, alice, articleURL)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogout_RevokesCopiedCookie(t *testing.T) {
	ts := newTestServer(t)
	alice := newBrowser(t)
	signupAndLogin(t, alice, ts.URL, "alice@example.com", "Alice")

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	cookies := alice.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	stolen := cookies[0]

	resp := post(t, alice, ts.URL+"/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// Replay the pre-logout token from a different client.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/profile", nil)
	require.NoError(t, err)
	req.AddCookie(stolen)
	resp, err = newBrowser(t).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login"))
}

func TestProbes(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	resp, body := get(t, c, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, _ = get(t, c, ts.URL+"/static/css/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, c, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "blog_http_requests_total")
}
