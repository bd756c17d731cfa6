package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/aibuilders/internal/authstate"
	"github.com/AdamBeresnev/aibuilders/internal/config"
	"github.com/AdamBeresnev/aibuilders/internal/db"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.InitDB("file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "../../migrations"))
	return database
}

type testServer struct {
	*httptest.Server
	hub *authstate.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hub := authstate.NewHub()
	t.Cleanup(hub.Close)
	app := newApplication(setupTestDB(t), scs.New(), hub, prometheus.NewRegistry(), &config.Config{GlobalLeaderboardLimit: 50})
	srv := httptest.NewServer(newRouter(app))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, hub: hub}
}

// client keeps its own session cookie and never follows redirects.
func (s *testServer) client(t *testing.T) *http.Client {
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

func (s *testServer) postForm(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(s.URL+path, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func (s *testServer) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(s.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (s *testServer) doJSON(t *testing.T, c *http.Client, method, path string, in any, out any) *http.Response {
	t.Helper()
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (s *testServer) signUp(t *testing.T, role, name string) *http.Client {
	t.Helper()
	c := s.client(t)
	form := url.Values{
		"type":     {role},
		"name":     {name},
		"email":    {strings.ToLower(name) + "@example.com"},
		"password": {"correct horse"},
	}
	if role == "sponsor" {
		form.Set("company_name", name+" Inc")
	}
	resp := s.postForm(t, c, "/signup", form)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/"+role+"-dashboard", resp.Header.Get("Location"))
	return c
}

// submitHTML posts a browser form and returns the rendered body.
func (s *testServer) submitHTML(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(s.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

type apiError struct {
	Error    string            `json:"error"`
	Fields   map[string]string `json:"fields"`
	Redirect string            `json:"redirect"`
}

func TestPageGuards(t *testing.T) {
	s := newTestServer(t)
	anon := s.client(t)

	resp, _ := s.get(t, anon, "/candidate-dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fcandidate-dashboard", resp.Header.Get("Location"))

	candidate := s.signUp(t, "candidate", "Sarah")

	resp, body := s.get(t, candidate, "/candidate-dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "My submissions")

	resp, _ = s.get(t, candidate, "/sponsor-dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/candidate-dashboard", resp.Header.Get("Location"))

	req, err := http.NewRequest(http.MethodGet, s.URL+"/sponsor-dashboard", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	htmx, err := candidate.Do(req)
	require.NoError(t, err)
	htmx.Body.Close()
	assert.Equal(t, http.StatusOK, htmx.StatusCode)
	assert.Equal(t, "/candidate-dashboard", htmx.Header.Get("HX-Redirect"))
}

func TestLoginReturnsToPreservedPath(t *testing.T) {
	s := newTestServer(t)
	c := s.signUp(t, "candidate", "Sarah")
	resp := s.postForm(t, c, "/logout", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, _ = s.get(t, c, "/candidate-dashboard")
	require.Equal(t, http.StatusFound, resp.StatusCode)

	testCases := []struct {
		name     string
		redirect string
		expect   string
	}{
		{name: "preserved path", redirect: "/submission-success?id=1", expect: "/submission-success?id=1"},
		{name: "no redirect", redirect: "", expect: "/candidate-dashboard"},
		{name: "other site", redirect: "//evil.example.com", expect: "/candidate-dashboard"},
		{name: "absolute url", redirect: "https://evil.example.com/", expect: "/candidate-dashboard"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fresh := s.client(t)
			resp := s.postForm(t, fresh, "/login", url.Values{
				"email":    {"sarah@example.com"},
				"password": {"correct horse"},
				"redirect": {tc.redirect},
			})
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tc.expect, resp.Header.Get("Location"))
		})
	}

	resp = s.postForm(t, s.client(t), "/login", url.Values{"email": {"sarah@example.com"}, "password": {"nope nope"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignupErrors(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "candidate", "Sarah")

	resp := s.postForm(t, s.client(t), "/signup", url.Values{"type": {"sponsor"}, "name": {"Acme"}, "email": {"acme@example.com"}, "password": {"correct horse"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.postForm(t, s.client(t), "/signup", url.Values{"type": {"candidate"}, "name": {"Other"}, "email": {"sarah@example.com"}, "password": {"correct horse"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSubmissionFlow(t *testing.T) {
	s := newTestServer(t)

	var mu sync.Mutex
	var events []authstate.EventKind
	s.hub.Subscribe(func(e authstate.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e.Kind)
	})

	sponsor := s.signUp(t, "sponsor", "Acme")
	candidate := s.signUp(t, "candidate", "Sarah")
	mu.Lock()
	assert.Equal(t, []authstate.EventKind{authstate.SignedUp, authstate.SignedUp}, events)
	mu.Unlock()

	today := time.Now().UTC().Format(time.DateOnly)
	var created map[string]any
	resp := s.doJSON(t, sponsor, http.MethodPost, "/api/challenges", map[string]string{
		"title":        "Support Bot",
		"description":  "Build a support bot",
		"prize_amount": "5000",
		"start_date":   today,
		"deadline":     time.Now().UTC().AddDate(0, 1, 0).Format(time.DateOnly),
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "active", created["status"])
	challengeID := created["id"].(string)

	var denied apiError
	resp = s.doJSON(t, candidate, http.MethodPost, "/api/challenges", map[string]string{}, &denied)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "/candidate-dashboard", denied.Redirect)

	resp = s.doJSON(t, s.client(t), http.MethodPost, "/api/submissions", map[string]string{}, &denied)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fapi%2Fsubmissions", denied.Redirect)

	submission := map[string]string{
		"challenge_id":   challengeID,
		"repository_url": "https://github.com/x/y",
		"description":    "desc",
		"demo_url":       "https://youtu.be/abc",
	}
	var first map[string]any
	resp = s.doJSON(t, candidate, http.MethodPost, "/api/submissions", submission, &first)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "desc...", first["title"])
	assert.Equal(t, "under-review", first["status"])
	assert.Equal(t, 0.0, first["score"])
	assert.Equal(t, "youtube", first["demo_embed"].(map[string]any)["type"])

	var second map[string]any
	resp = s.doJSON(t, candidate, http.MethodPost, "/api/submissions", submission, &second)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first["id"], second["id"])

	var invalid apiError
	resp = s.doJSON(t, candidate, http.MethodPost, "/api/submissions", map[string]string{"challenge_id": challengeID}, &invalid)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, invalid.Fields, "repository_url")

	var board []map[string]any
	resp = s.doJSON(t, s.client(t), http.MethodGet, "/api/challenges/"+challengeID+"/leaderboard", nil, &board)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, board, 1)
	assert.Equal(t, 1.0, board[0]["rank"])

	submissionID := first["id"].(string)
	var approved map[string]any
	resp = s.doJSON(t, sponsor, http.MethodPost, "/api/submissions/"+submissionID+"/approve", nil, &approved)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", approved["status"])

	resp = s.doJSON(t, sponsor, http.MethodPost, "/api/submissions/"+submissionID+"/approve", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var mine []map[string]any
	resp = s.doJSON(t, candidate, http.MethodGet, "/api/me/submissions", nil, &mine)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, mine, 1)
	assert.Equal(t, "approved", mine[0]["status"])

	_, metrics := s.get(t, s.client(t), "/metrics")
	assert.Contains(t, metrics, `aibuilders_submissions_total{outcome="created"} 1`)
	assert.Contains(t, metrics, `aibuilders_submissions_total{outcome="updated"} 1`)
	assert.Contains(t, metrics, `aibuilders_auth_events_total{event="signed_up"} 2`)
}

func TestJudgeRoutes(t *testing.T) {
	s := newTestServer(t)
	sponsor := s.signUp(t, "sponsor", "Acme")
	candidate := s.signUp(t, "candidate", "Sarah")

	var c map[string]any
	s.doJSON(t, sponsor, http.MethodPost, "/api/challenges", map[string]string{
		"title": "Support Bot", "description": "x", "start_date": "2025-01-01", "deadline": "2030-01-01",
	}, &c)
	var sub map[string]any
	s.doJSON(t, candidate, http.MethodPost, "/api/submissions", map[string]string{
		"challenge_id": c["id"].(string), "repository_url": "https://github.com/x/y", "description": "desc",
	}, &sub)
	base := "/api/judge/" + sub["id"].(string)

	var panel map[string]any
	resp := s.doJSON(t, sponsor, http.MethodGet, base, nil, &panel)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, panel["scoring_log"], 1)

	resp = s.doJSON(t, sponsor, http.MethodPost, base+"/rubric", map[string]any{"category": "impact", "value": 100}, &panel)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 17.5, panel["final_score"], 0.001)

	resp = s.doJSON(t, sponsor, http.MethodPost, base+"/override", map[string]any{"score": 150}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.doJSON(t, sponsor, http.MethodPost, base+"/override", map[string]any{"score": 88}, &panel)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 88.0, panel["final_score"])

	resp = s.doJSON(t, sponsor, http.MethodPost, base+"/badges", map[string]any{"badge": "sponsor"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.doJSON(t, sponsor, http.MethodPost, base+"/review", map[string]any{"comments": "Solid"}, &panel)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, panel["submitted"])
	assert.Len(t, panel["awarded_badges"], 1)

	// the panel survives across requests in the same session
	resp = s.doJSON(t, sponsor, http.MethodGet, base, nil, &panel)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, panel["scoring_log"], 3)

	resp = s.doJSON(t, candidate, http.MethodGet, base, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = s.doJSON(t, sponsor, http.MethodGet, "/api/judge/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	resp, _ := s.get(t, c, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.get(t, c, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No challenges have been posted yet.")

	resp, _ = s.get(t, c, "/api/challenges/c1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.get(t, c, "/api/leaderboard?limit=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var unauth apiError
	resp = s.doJSON(t, c, http.MethodGet, "/api/me", nil, &unauth)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fapi%2Fme", unauth.Redirect)

	resp, body = s.get(t, c, "/login?redirect=%2Fsponsor-dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="/sponsor-dashboard"`)

	resp, _ = s.get(t, c, "/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBrowserPages(t *testing.T) {
	s := newTestServer(t)
	sponsor := s.signUp(t, "sponsor", "Acme")
	candidate := s.signUp(t, "candidate", "Sarah")
	anon := s.client(t)

	resp, body := s.get(t, sponsor, "/challenges/new")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<form method="post" action="/challenges">`)
	assert.Contains(t, body, `<option value="medium" selected>`)

	resp, _ = s.get(t, candidate, "/challenges/new")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/candidate-dashboard", resp.Header.Get("Location"))

	resp, body = s.submitHTML(t, sponsor, "/challenges", url.Values{"title": {"Support Bot"}, "start_date": {"2025-01-01"}, "deadline": {"2030-01-01"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `value="Support Bot"`)
	assert.Contains(t, body, "is required")

	resp = s.postForm(t, sponsor, "/challenges", url.Values{
		"title":        {"Support Bot"},
		"description":  {"Build a support bot"},
		"prize_amount": {"5000"},
		"start_date":   {"2025-01-01"},
		"deadline":     {"2030-01-01"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	challengePath := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(challengePath, "/challenges/"))
	challengeID := strings.TrimPrefix(challengePath, "/challenges/")

	resp, body = s.get(t, anon, "/challenges")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="`+challengePath+`"`)
	assert.Contains(t, body, "$5000.00")

	resp, body = s.get(t, anon, challengePath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>Support Bot</h1>")
	assert.Contains(t, body, "No submissions yet.")
	assert.NotContains(t, body, "Submit a solution")

	_, body = s.get(t, candidate, challengePath)
	assert.Contains(t, body, `href="/submit/`+challengeID+`"`)

	resp, _ = s.get(t, anon, "/submit/"+challengeID)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp, body = s.get(t, candidate, "/submit/"+challengeID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Step 1: Project Details")
	assert.Contains(t, body, "Step 2: Media &amp; Documentation")
	assert.Contains(t, body, "Step 3: Review &amp; Submit")
	assert.Contains(t, body, `<input type="hidden" name="challenge_id" value="`+challengeID+`">`)

	resp, body = s.get(t, candidate, "/submit")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<option value="`+challengeID+`">Support Bot</option>`)

	resp, _ = s.get(t, candidate, "/submit/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.submitHTML(t, candidate, "/submissions", url.Values{"challenge_id": {challengeID}, "repository_url": {"nope"}, "description": {"My bot"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "must be a valid URL")
	assert.Contains(t, body, "My bot</textarea>")
	assert.Contains(t, body, `name="challenge_id" value="`+challengeID+`"`)

	resp, body = s.submitHTML(t, candidate, "/submissions", url.Values{"challenge_id": {uuid.NewString()}, "repository_url": {"https://github.com/x/y"}, "description": {"My bot"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "is not a known challenge")

	resp = s.postForm(t, candidate, "/submissions", url.Values{
		"challenge_id":   {challengeID},
		"repository_url": {"https://github.com/x/y"},
		"description":    {"My bot"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/submission-success?id="))

	_, body = s.get(t, anon, challengePath)
	assert.Contains(t, body, "<td>Sarah</td>")

	resp, body = s.get(t, anon, "/leaderboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<td>Sarah</td>")
	assert.Contains(t, body, "<td>My bot...</td>")

	resp, body = s.get(t, anon, "/builders/sarah")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>Sarah</h1>")
	assert.Contains(t, body, "@sarah")
	assert.Contains(t, body, "Under Review")
	assert.NotContains(t, body, "sarah@example.com")

	for _, path := range []string{"/builders/nobody", "/challenges/not-a-uuid", "/challenges/" + uuid.NewString()} {
		resp, body = s.get(t, anon, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Contains(t, body, "Page not found", path)
	}
}
