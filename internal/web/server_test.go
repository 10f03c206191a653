package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/defzzd/learning-journal/internal/auth"
	"github.com/defzzd/learning-journal/internal/database"
)

const submitBtn = `value="Share" name="Share"`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	hash, err := auth.HashPassword("admin", auth.HashParams{Iterations: 1000, SaltLength: 8})
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}

	gate := auth.NewGate("admin", hash)
	sessions := auth.NewSessionManager([]byte("test-secret"), time.Hour)

	ts := httptest.NewServer(NewServer(db, gate, sessions, ":0").Router())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// noRedirect stops the client at the first response so redirects can be
// asserted directly.
func noRedirect(c *http.Client) *http.Client {
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

func get(t *testing.T, c *http.Client, url string) (int, string) {
	t.Helper()
	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, c *http.Client, url string, form url.Values) (int, string) {
	t.Helper()
	resp, err := c.PostForm(url, form)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func login(t *testing.T, c *http.Client, ts *httptest.Server, username, password string) string {
	t.Helper()
	_, body := postForm(t, c, ts.URL+"/login", url.Values{
		"username": {username},
		"password": {password},
	})
	return body
}

func TestEmptyListing(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	status, body := get(t, client, ts.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(body, "No entries here so far") {
		t.Fatal("expected empty listing marker")
	}
}

func TestAnonymousListingHidesSubmitControl(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	_, body := get(t, client, ts.URL+"/")
	if strings.Contains(body, submitBtn) {
		t.Fatal("submit control must not render for anonymous visitors")
	}
}

func TestLoginSuccessShowsSubmitControl(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	body := login(t, client, ts, "admin", "admin")
	if !strings.Contains(body, submitBtn) {
		t.Fatal("expected submit control after login")
	}
}

func TestLoginFailure(t *testing.T) {
	ts := newTestServer(t)

	for _, creds := range [][2]string{
		{"admin", "wrong"},
		{"wronguser", "admin"},
	} {
		client := newClient(t)
		body := login(t, client, ts, creds[0], creds[1])
		if !strings.Contains(body, "Login Failed") {
			t.Fatalf("expected generic failure message for %v", creds)
		}

		_, home := get(t, client, ts.URL+"/")
		if strings.Contains(home, submitBtn) {
			t.Fatalf("failed login must not create a session for %v", creds)
		}
	}
}

func TestAddEntry(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	login(t, client, ts, "admin", "admin")

	status, body := postForm(t, client, ts.URL+"/add", url.Values{
		"title": {"Hello"},
		"text":  {"This is a post"},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 after redirect, got %d", status)
	}
	if strings.Contains(body, "No entries here so far") {
		t.Fatal("listing still shows the empty marker")
	}
	if !strings.Contains(body, "Hello") || !strings.Contains(body, "This is a post") {
		t.Fatal("listing does not show the new entry")
	}
}

func TestAddEntryInvalidInput(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	login(t, client, ts, "admin", "admin")

	status, _ := postForm(t, client, ts.URL+"/add", url.Values{
		"title": {""},
		"text":  {"text without title"},
	})
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500 for invalid input, got %d", status)
	}

	_, body := get(t, client, ts.URL+"/")
	if !strings.Contains(body, "No entries here so far") {
		t.Fatal("invalid write must not persist anything")
	}
}

func TestAddRequiresLogin(t *testing.T) {
	ts := newTestServer(t)
	client := noRedirect(newClient(t))

	resp, err := client.PostForm(ts.URL+"/add", url.Values{
		"title": {"Sneaky"},
		"text":  {"no session"},
	})
	if err != nil {
		t.Fatalf("POST /add failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect to login, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestEditAndSubmitEntry(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	login(t, client, ts, "admin", "admin")

	postForm(t, client, ts.URL+"/add", url.Values{
		"title": {"Original Title"},
		"text":  {"original text"},
	})

	// First entry in a fresh database
	status, body := get(t, client, ts.URL+"/edit/1")
	if status != http.StatusOK {
		t.Fatalf("expected 200 from edit page, got %d", status)
	}
	if !strings.Contains(body, `value="Original Title"`) {
		t.Fatal("edit form is not pre-filled with the entry title")
	}
	if !strings.Contains(body, "/submit/1") {
		t.Fatal("edit form does not target the submit route")
	}

	status, body = postForm(t, client, ts.URL+"/submit/1", url.Values{
		"title": {"Updated Title"},
		"text":  {"updated text"},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 after redirect, got %d", status)
	}
	if !strings.Contains(body, "Updated Title") || !strings.Contains(body, "updated text") {
		t.Fatal("listing does not show the updated entry")
	}
	if strings.Contains(body, "Original Title") {
		t.Fatal("listing still shows the old title")
	}
}

func TestEditMissingEntry(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	login(t, client, ts, "admin", "admin")

	status, _ := get(t, client, ts.URL+"/edit/999")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing entry, got %d", status)
	}
}

func TestSubmitMissingEntry(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	login(t, client, ts, "admin", "admin")

	status, _ := postForm(t, client, ts.URL+"/submit/999", url.Values{
		"title": {"Ghost"},
		"text":  {"no such row"},
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing entry, got %d", status)
	}
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	home := login(t, client, ts, "admin", "admin")
	if !strings.Contains(home, submitBtn) {
		t.Fatal("expected submit control after login")
	}

	resp, err := noRedirect(newClientWithJar(t, client)).Get(ts.URL + "/logout")
	if err != nil {
		t.Fatalf("GET /logout failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 from logout, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}

	_, body := get(t, client, ts.URL+"/")
	if strings.Contains(body, submitBtn) {
		t.Fatal("submit control still renders after logout")
	}
}

// newClientWithJar shares the session jar of an existing client
func newClientWithJar(t *testing.T, from *http.Client) *http.Client {
	t.Helper()
	return &http.Client{Jar: from.Jar}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	status, body := get(t, client, ts.URL+"/logout")
	if status != http.StatusOK {
		t.Fatalf("expected logout without session to land on the listing, got %d", status)
	}
	if strings.Contains(body, submitBtn) {
		t.Fatal("logout without session must not log anyone in")
	}
}
