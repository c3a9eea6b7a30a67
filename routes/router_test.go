package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/awe/config"
	"github.com/cppla/awe/middleware"
	"github.com/cppla/awe/store"
	"github.com/cppla/awe/store/storetest"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := storetest.Open(t, store.Options{Intn: func(int) int { return 0 }})
	dir := t.TempDir()
	cfg := config.AppConfig{
		AppTitle:           "AWE",
		JWTSecret:          "test-secret",
		TokenTTLHours:      1,
		GinMode:            "test",
		RateLimitPerMinute: 10000,
		AllowedOrigins:     []string{"*"},
		UploadDir:          filepath.Join(dir, "uploads"),
		UploadMaxMB:        1,
		UploadAllowedExts:  []string{".png"},
	}
	h := SetupRouter(Deps{
		Config:     cfg,
		ConfigPath: filepath.Join(dir, "config.json"),
		Store:      st,
		Reload:     func(config.AppConfig) error { return nil },
	})
	return &testServer{t: t, handler: h, store: st}
}

func (s *testServer) do(method, path string, body interface{}, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (s *testServer) register(username string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"password": "secret1",
		"confirm":  "secret1",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	decode(s.t, rec, &session)
	require.NotEmpty(s.t, session.Token)
	return session.Token
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, middleware.ContentSecurityPolicy, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestViewMissingArticle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/wiki/Fisica", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var data struct {
		Slug string `json:"slug"`
	}
	env := decode(t, rec, &data)
	assert.Equal(t, 40401, env.Code)
	assert.Equal(t, "Fisica", data.Slug)
}

func TestRandomWithoutArticles(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/wiki/random", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 40402, decode(t, rec, nil).Code)
}

func TestEditRequiresSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/edit/Fisica", map[string]string{"content": "<p>x</p>"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 40101, decode(t, rec, nil).Code)

	n, err := s.store.CountArticles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEditThenViewAndHistory(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice")

	rec := s.do(http.MethodPost, "/api/v1/edit/Fisica", map[string]string{
		"content": "<p>Nova</p><script>alert(1)</script>",
		"summary": "first",
	}, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Created bool `json:"created"`
		Article struct {
			Content    string `json:"content"`
			LastEditor string `json:"last_editor"`
		} `json:"article"`
	}
	decode(t, rec, &out)
	assert.True(t, out.Created)
	assert.Equal(t, "<p>Nova</p>", out.Article.Content)
	assert.Equal(t, "alice", out.Article.LastEditor)

	rec = s.do(http.MethodGet, "/api/v1/wiki/Fisica", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Fuzzy   bool `json:"fuzzy"`
		Article struct {
			Content string `json:"content"`
		} `json:"article"`
	}
	decode(t, rec, &view)
	assert.False(t, view.Fuzzy)
	assert.Equal(t, "<p>Nova</p>", view.Article.Content)

	rec = s.do(http.MethodGet, "/api/v1/history/Fisica", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		History []json.RawMessage `json:"history"`
	}
	decode(t, rec, &hist)
	assert.Len(t, hist.History, 1)

	rec = s.do(http.MethodPost, "/api/v1/edit/Fisica", map[string]string{"content": "<p>Nova</p>"}, bearer(token))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 40902, decode(t, rec, nil).Code)
}

func TestWikiRedirects(t *testing.T) {
	s := newTestServer(t)
	token := s.register("bob")
	rec := s.do(http.MethodPost, "/api/v1/edit/Fisica", map[string]string{"content": "<p>a</p>"}, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)

	cases := map[string]string{
		"/api/v1/wiki/random":              "/api/v1/wiki/Fisica",
		"/api/v1/wiki/edit_article/Fisica": "/api/v1/edit/Fisica",
		"/api/v1/wiki/history/Fisica":      "/api/v1/history/Fisica",
	}
	for path, want := range cases {
		rec := s.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, want, rec.Header().Get("Location"), path)
	}
}

func TestCookieSessionNeedsCSRFHeader(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "carol", "password": "secret1", "confirm": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var session, csrf *http.Cookie
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case middleware.SessionCookie:
			session = c
		case middleware.CSRFCookie:
			csrf = c
		}
	}
	require.NotNil(t, session)
	require.NotNil(t, csrf)
	withCookies := func(r *http.Request) {
		r.AddCookie(session)
		r.AddCookie(csrf)
	}

	rec = s.do(http.MethodPost, "/api/v1/edit/Fisica", map[string]string{"content": "<p>a</p>"}, withCookies)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 40320, decode(t, rec, nil).Code)

	rec = s.do(http.MethodPost, "/api/v1/edit/Fisica", map[string]string{"content": "<p>a</p>"}, withCookies,
		func(r *http.Request) { r.Header.Set(middleware.CSRFHeader, csrf.Value) })
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestProfileEditableOnlyByOwner(t *testing.T) {
	s := newTestServer(t)
	s.register("carol")
	alice := s.register("alice")

	rec := s.do(http.MethodPost, "/api/v1/users/carol", map[string]string{"content": "<p>pwned</p>"}, bearer(alice))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 40310, decode(t, rec, nil).Code)

	rec = s.do(http.MethodPost, "/api/v1/edit/user:carol", map[string]string{"content": "<p>pwned</p>"}, bearer(alice))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 40310, decode(t, rec, nil).Code)

	_, err := s.store.GetArticle(context.Background(), "user:carol")
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec = s.do(http.MethodPost, "/api/v1/edit/user:alice", map[string]string{"content": "<p>sobre mim</p>"}, bearer(alice))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.register("dave")

	rec := s.do(http.MethodGet, "/api/v1/auth/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/logout", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/auth/me", nil, bearer(token))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 40104, decode(t, rec, nil).Code)
}

func TestRegisterDuplicateAndLogin(t *testing.T) {
	s := newTestServer(t)
	s.register("erin")

	rec := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "erin", "password": "secret1", "confirm": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "erin", "password": "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "erin", "password": "secret1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnonymousTopicCreatesArticle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/discussion/Quimica", map[string]string{
		"topic_title":  "Fontes",
		"comment_text": "<p>Faltam fontes.</p>",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	article, err := s.store.GetArticle(context.Background(), "Quimica")
	require.NoError(t, err)
	assert.Equal(t, "Quimica", article.Title)

	rec = s.do(http.MethodPost, "/api/v1/reply/999/Quimica", map[string]string{"comment_text": "<p>oi</p>"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 40403, decode(t, rec, nil).Code)
}

func TestConfigSaveIsAdminOnly(t *testing.T) {
	s := newTestServer(t)
	token := s.register("frank")

	rec := s.do(http.MethodPost, "/api/v1/config", map[string]string{"title": "X"}, bearer(token))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 40301, decode(t, rec, nil).Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSwapHandler(t *testing.T) {
	first := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	second := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	sw := NewSwapHandler(first)

	rec := httptest.NewRecorder()
	sw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	sw.Swap(second)
	rec = httptest.NewRecorder()
	sw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
