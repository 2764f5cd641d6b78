package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/neilotoole/slogt"
	"golang.org/x/crypto/bcrypt"

	"github.com/GetStream/postboard/api/validator"
	"github.com/GetStream/postboard/auth"
	"github.com/GetStream/postboard/board"
	"github.com/GetStream/postboard/memory"
	"github.com/GetStream/postboard/metrics"
)

type testserver struct {
	*httptest.Server
}

func newServer(t *testing.T, opts ...func(*API)) *testserver {
	t.Helper()
	db := memory.New()
	logger := slogt.New(t)
	m := metrics.New()
	tokens := &auth.Tokens{
		Secret: []byte("test-secret"),
		Users:  db,
		Logger: logger,
	}

	api := &API{
		Logger: logger,
		Users: &board.Directory{
			DB:       db,
			Tokens:   tokens,
			Logger:   logger,
			Events:   m,
			HashCost: bcrypt.MinCost,
		},
		Posts: &board.Posts{DB: db},
		Reactions: &board.Reactions{
			DB:     db,
			Posts:  db,
			Logger: logger,
			Events: m,
		},
		Tokens:  tokens,
		DB:      db,
		Val:     validator.New(),
		Metrics: m,
	}
	for _, opt := range opts {
		opt(api)
	}

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return &testserver{Server: srv}
}

// do sends a JSON request. An empty token sends no Authorization header.
func (s *testserver) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testserver) postForm(t *testing.T, path, token string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest("POST", s.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// register signs a user up and logs in, returning the access token.
func (s *testserver) register(t *testing.T, username, password string) string {
	t.Helper()
	creds := url.Values{"username": {username}, "password": {password}}
	if resp := s.postForm(t, "/signup", "", creds); resp.StatusCode != http.StatusOK {
		t.Fatalf("Signup %s: got HTTP status %d", username, resp.StatusCode)
	}
	resp := s.postForm(t, "/login", "", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login %s: got HTTP status %d", username, resp.StatusCode)
	}
	var tok board.Token
	decode(t, resp, &tok)
	return tok.AccessToken
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Could not decode response: %v", err)
	}
}

func TestAPI_authenticated(t *testing.T) {
	srv := newServer(t)
	token := srv.register(t, "alice", "pw1")

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
		wantAuth   string
	}{
		{
			name:       "Missing",
			wantStatus: 403,
			wantBody:   `{"detail": "Not authenticated"}`,
		},
		{
			name:       "EmptyCredentials",
			header:     "Bearer",
			wantStatus: 403,
			wantBody:   `{"detail": "Not authenticated"}`,
		},
		{
			name:       "WrongSchemeEmptyCredentials",
			header:     "Basic",
			wantStatus: 403,
			wantBody:   `{"detail": "Not authenticated"}`,
		},
		{
			name:       "WrongScheme",
			header:     "Basic YWxpY2U6cHcx",
			wantStatus: 403,
			wantBody:   `{"detail": "Invalid authentication credentials"}`,
		},
		{
			name:       "Garbage",
			header:     "Bearer not-a-token",
			wantStatus: 401,
			wantBody:   `{"detail": "Не удалось подтвердить учетные данные"}`,
			wantAuth:   "Bearer",
		},
		{
			name:       "LowercaseScheme",
			header:     "bearer " + token,
			wantStatus: 200,
			wantBody:   `[{"user_id": 1, "username": "alice"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", srv.URL+"/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			checkStatus(t, resp.StatusCode, tt.wantStatus)
			checkBody(t, resp, tt.wantBody)
			if got := resp.Header.Get("WWW-Authenticate"); got != tt.wantAuth {
				t.Errorf("Got WWW-Authenticate %q, want %q", got, tt.wantAuth)
			}
		})
	}
}

func TestAPI_deletedUserToken(t *testing.T) {
	srv := newServer(t)
	alice := srv.register(t, "alice", "pw1")
	bob := srv.register(t, "bob", "pw2")

	resp := srv.do(t, "DELETE", "/users/2", alice, "")
	checkStatus(t, resp.StatusCode, 200)

	resp = srv.do(t, "GET", "/posts", bob, "")
	checkStatus(t, resp.StatusCode, 401)
}

func TestAPI_requestID(t *testing.T) {
	srv := newServer(t)

	resp := srv.do(t, "GET", "/healthz", "", "")
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("Response has no request id")
	}

	req, _ := http.NewRequest("GET", srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("Got request id %q, want abc-123", got)
	}
}

func TestAPI_health(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		srv := newServer(t)
		resp := srv.do(t, "GET", "/healthz", "", "")
		checkStatus(t, resp.StatusCode, 200)
		checkBody(t, resp, `{"status": "ok"}`)
	})

	t.Run("Down", func(t *testing.T) {
		srv := newServer(t, func(a *API) {
			a.DB = downDB{}
		})
		resp := srv.do(t, "GET", "/healthz", "", "")
		checkStatus(t, resp.StatusCode, 503)
		checkBody(t, resp, `{"detail": "Storage unavailable"}`)
	})
}

type downDB struct{}

func (downDB) Ping(context.Context) error { return errors.New("connection refused") }

func TestAPI_metrics(t *testing.T) {
	srv := newServer(t)
	srv.register(t, "alice", "pw1")
	srv.do(t, "GET", "/posts/unknown/route", "", "")

	resp := srv.do(t, "GET", "/metrics", "", "")
	checkStatus(t, resp.StatusCode, 200)
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`postboard_http_requests_total{method="POST",route="POST /signup",status="200"} 1`,
		`postboard_http_requests_total{method="GET",route="unmatched",status="404"} 1`,
		`postboard_signups_total 1`,
		`postboard_logins_total{result="success"} 1`,
	} {
		if !bytes.Contains(b, []byte(want)) {
			t.Errorf("Metrics do not contain %s", want)
		}
	}
}

func TestAPI_rateLimit(t *testing.T) {
	srv := newServer(t, func(a *API) {
		a.Limiter = NewRateLimiter(0.001, 2)
	})
	creds := url.Values{"username": {"alice"}, "password": {"pw1"}}

	checkStatus(t, srv.postForm(t, "/login", "", creds).StatusCode, 401)
	checkStatus(t, srv.postForm(t, "/login", "", creds).StatusCode, 401)

	resp := srv.postForm(t, "/login", "", creds)
	checkStatus(t, resp.StatusCode, 429)
	checkBody(t, resp, `{"detail": "Too many requests"}`)

	// Other routes are not limited.
	checkStatus(t, srv.do(t, "GET", "/healthz", "", "").StatusCode, 200)
}

func TestRateLimiter_perClient(t *testing.T) {
	l := NewRateLimiter(0.001, 1)
	if !l.Allow("10.0.0.1") {
		t.Error("First request from 10.0.0.1 was rejected")
	}
	if l.Allow("10.0.0.1") {
		t.Error("Second request from 10.0.0.1 was allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("First request from 10.0.0.2 was rejected")
	}
}

func TestAPI_respondInternalError(t *testing.T) {
	buf := &bytes.Buffer{}
	api := &API{Logger: slog.New(slog.NewTextHandler(buf, nil))}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/posts", nil)
	api.fail(rec, req, errors.New("connection reset"))

	checkStatus(t, rec.Code, 500)
	checkBody(t, rec.Result(), `{"detail": "Internal server error"}`)
	checkLog(t, buf, "connection reset")
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind board.Kind
		want int
	}{
		{board.KindNotFound, 404},
		{board.KindConflict, 403},
		{board.KindForbidden, 403},
		{board.KindUnauthorized, 401},
		{board.KindBadRequest, 400},
		{board.KindInUse, 409},
		{0, 500},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := statusOf(tt.kind); got != tt.want {
				t.Errorf("statusOf(%v) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func checkStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("Got HTTP status %d, want %d", got, want)
	}
}

func checkBody(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	gotBody := normalizeJSON(t, resp.Body)
	wantBody := normalizeJSON(t, bytes.NewReader([]byte(want)))
	if gotBody != wantBody {
		t.Errorf("Body does not match\nGot\n  %s\n\nWant\n  %s", gotBody, wantBody)
	}
}

func checkLog(t *testing.T, buffer *bytes.Buffer, want string) {
	t.Helper()

	if s := buffer.String(); want != "" && !strings.Contains(s, want) {
		t.Errorf("Log does not contain  %s\n", want)
	}
}

func normalizeJSON(t *testing.T, r io.Reader) string {
	t.Helper()
	var buf bytes.Buffer
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Could not read JSON: %v", err)
	}
	if err := json.Indent(&buf, b, "  ", "  "); err != nil {
		t.Fatalf("Could not indent JSON: %v", err)
	}
	return strings.TrimSpace(buf.String())
}
