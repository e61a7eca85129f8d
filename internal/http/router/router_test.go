package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/auth"
	"github.com/threatlens/dashboard-api/internal/cache"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/database"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/http/handler"
	"github.com/threatlens/dashboard-api/internal/http/middleware"
	"github.com/threatlens/dashboard-api/internal/http/router"
	"github.com/threatlens/dashboard-api/internal/probe"
	"github.com/threatlens/dashboard-api/internal/repository"
	"github.com/threatlens/dashboard-api/internal/service"
	"github.com/threatlens/dashboard-api/internal/storage"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

const adminKey = "admin-key"

// upstream fakes the threat API. Sessions "user-token" and "admin-token" are valid.
func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	users := map[string]string{
		"user-token":  `{"user":{"id":"u1","email":"analyst@example.com","role":"user","plan":"simple"}}`,
		"admin-token": `{"user":{"id":"u9","email":"admin@example.com","role":"admin","plan":"premium"}}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case r.URL.Path == "/auth/login":
			var req domain.LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "correct-horse" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "user-token", Domain: "upstream.internal", HttpOnly: true})
			_, _ = w.Write([]byte(users["user-token"]))
		case r.URL.Path == "/auth/me":
			c, err := r.Cookie("session")
			if err != nil || users[c.Value] == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(users[c.Value]))
		case r.URL.Path == "/articles" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"success":true,"data":[
				{"id":"a1","title":"Zero-day in VPN","publishedAt":"2024-06-01T10:00:00Z","severity":"critical","type":"news"},
				{"id":"a2","title":"Forum chatter","publishedAt":"2024-06-02T10:00:00Z","severity":"low","type":"forum"}
			]}`))
		case r.URL.Path == "/articles/a1" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"article":{"id":"a1","title":"Zero-day in VPN","publishedAt":"2024-06-01T10:00:00Z"}}`))
		case strings.HasPrefix(r.URL.Path, "/articles/") && r.Method == http.MethodPatch:
			_, _ = w.Write([]byte(`{"success":true}`))
		case r.URL.Path == "/prompts":
			_, _ = w.Write([]byte(`[]`))
		case r.URL.Path == "/statistics/overview":
			_, _ = w.Write([]byte(`{"totalArticles":2}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setup(t *testing.T) http.Handler {
	t.Helper()
	log := zap.NewNop()
	up := upstream(t)

	cfg := &config.Config{}
	cfg.App.Environment = "development"
	cfg.Auth.CookieName = "session"
	cfg.Auth.APIKey = adminKey
	cfg.CORS.AllowCredentials = true
	cfg.Server.RequestTimeout = 10

	client, err := threatapi.NewClient(&config.UpstreamConfig{BaseURL: up.URL, Timeout: 5}, log)
	require.NoError(t, err)

	db, err := database.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(db, log))
	t.Cleanup(func() { _ = database.Close(db) })

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	sessions := auth.NewSessionResolver("session", nil, client, cache.NewMemory(), time.Minute, log)
	states := repository.NewArticleStateRepository(db)
	prefService := service.NewPreferenceService(repository.NewPreferenceRepository(db), log)
	articleService := service.NewArticleService(client, states, repository.NewExportRepository(db), store, log)

	rt := router.NewRouter(cfg, log, db, client, nil,
		auth.NewMiddleware(sessions, adminKey, log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		router.Handlers{
			Auth:       handler.NewAuthHandler(service.NewAuthService(client, sessions, log), "session", log),
			Article:    handler.NewArticleHandler(articleService, prefService, log),
			Keyword:    handler.NewKeywordHandler(service.NewKeywordService(client, log), log),
			Source:     handler.NewSourceHandler(service.NewSourceService(client, probe.NewProber(&config.ProbeConfig{Timeout: 5}, log), log), log),
			Prompt:     handler.NewPromptHandler(service.NewPromptService(client, log), log),
			Statistics: handler.NewStatisticsHandler(service.NewStatisticsService(client, log), log),
			Admin:      handler.NewAdminHandler(service.NewAdminService(client, log), log),
			Preference: handler.NewPreferenceHandler(prefService, log),
		},
	)
	return rt.Setup()
}

func request(h http.Handler, method, path, session string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if session != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: session})
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := setup(t)

	w := request(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(h, http.MethodGet, "/health/db", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"driver":"sqlite"`)

	w = request(h, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string                     `json:"status"`
		Checks map[string]json.RawMessage `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Contains(t, body.Checks, "upstream")
	assert.Contains(t, body.Checks, "database")
}

func TestLoginRelaysSessionCookie(t *testing.T) {
	h := setup(t)

	w := request(h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "Analyst@Example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "user-token", cookies[0].Value)
	assert.Empty(t, cookies[0].Domain)

	w = request(h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "analyst@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = request(h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrorTypeValidation)
}

func TestAuthenticationRequired(t *testing.T) {
	h := setup(t)

	assert.Equal(t, http.StatusUnauthorized, request(h, http.MethodGet, "/api/v1/articles", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, request(h, http.MethodGet, "/api/v1/articles", "forged", nil).Code)

	w := request(h, http.MethodGet, "/api/v1/auth/me", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)
}

func TestArticleFlow(t *testing.T) {
	h := setup(t)

	w := request(h, http.MethodGet, "/api/v1/articles?sort=oldest", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list domain.ArticleListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "a1", list.Articles[0].ID)

	// empty body toggles
	w = request(h, http.MethodPatch, "/api/v1/articles/a1/read", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state domain.ArticleStateDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	require.NotNil(t, state.Read)
	assert.True(t, *state.Read)
	assert.True(t, state.Mirrored)

	w = request(h, http.MethodGet, "/api/v1/articles?hideRead=true", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Articles, 1)
	assert.Equal(t, "a2", list.Articles[0].ID)

	w = request(h, http.MethodGet, "/api/v1/articles?severity=critical&type=news", "user-token", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	w = request(h, http.MethodGet, "/api/v1/me/state", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"a1":true`)

	assert.Equal(t, http.StatusBadRequest, request(h, http.MethodGet, "/api/v1/articles?sort=random", "user-token", nil).Code)
	assert.Equal(t, http.StatusBadRequest, request(h, http.MethodGet, "/api/v1/articles?window=soon", "user-token", nil).Code)
	assert.Equal(t, http.StatusBadRequest, request(h, http.MethodGet, "/api/v1/articles?hideSpam=maybe", "user-token", nil).Code)
}

func TestPreferencesDriveListDefaults(t *testing.T) {
	h := setup(t)

	w := request(h, http.MethodPut, "/api/v1/me/preferences", "user-token", map[string]string{"defaultSort": "title-desc"})
	require.Equal(t, http.StatusOK, w.Code)

	w = request(h, http.MethodGet, "/api/v1/articles", "user-token", nil)
	var list domain.ArticleListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Articles, 2)
	assert.Equal(t, "Zero-day in VPN", list.Articles[0].Title)
}

func TestExportAndDownload(t *testing.T) {
	h := setup(t)

	w := request(h, http.MethodPost, "/api/v1/articles/export", "user-token", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var export domain.ExportDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &export))
	assert.Equal(t, "/api/v1/exports/"+export.ID.String(), w.Header().Get("Location"))

	w = request(h, http.MethodGet, "/api/v1/exports/"+export.ID.String(), "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Zero-day in VPN")

	assert.Equal(t, http.StatusBadRequest, request(h, http.MethodGet, "/api/v1/exports/nope", "user-token", nil).Code)

	w = request(h, http.MethodGet, "/api/v1/exports", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var exports []domain.ExportDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exports))
	require.Len(t, exports, 1)

	assert.Equal(t, http.StatusNoContent, request(h, http.MethodDelete, "/api/v1/exports/"+export.ID.String(), "user-token", nil).Code)
	assert.Equal(t, http.StatusNotFound, request(h, http.MethodGet, "/api/v1/exports/"+export.ID.String(), "user-token", nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	h := setup(t)

	assert.Equal(t, http.StatusForbidden, request(h, http.MethodGet, "/api/v1/prompts", "user-token", nil).Code)
	assert.Equal(t, http.StatusForbidden, request(h, http.MethodDelete, "/api/v1/articles/a1", "user-token", nil).Code)
	assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/api/v1/prompts", "admin-token", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prompts", nil)
	req.Header.Set(threatapi.APIKeyHeader, adminKey)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatisticsRoutes(t *testing.T) {
	h := setup(t)

	w := request(h, http.MethodGet, "/api/v1/statistics/overview", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"totalArticles":2}`, w.Body.String())

	w = request(h, http.MethodGet, "/api/v1/statistics/threats", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code, "unavailable views degrade to an empty object")
	assert.JSONEq(t, `{}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, request(h, http.MethodGet, "/api/v1/statistics/bogus", "user-token", nil).Code)
}

func TestSourcePreviewRefusesInternalTargets(t *testing.T) {
	h := setup(t)

	w := request(h, http.MethodPost, "/api/v1/sources/preview", "user-token",
		domain.FeedPreviewRequest{URL: "ftp://feeds.example.com/rss"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(h, http.MethodPost, "/api/v1/sources/preview", "user-token",
		domain.FeedPreviewRequest{URL: "http://169.254.169.254/latest/meta-data/"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not publicly routable")
}
