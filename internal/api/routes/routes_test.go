package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/sentinel/internal/api/middleware"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/database"
	"github.com/Wikid82/sentinel/internal/engine"
	"github.com/Wikid82/sentinel/internal/services"
)

func setupRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.HTTP.JWTSecret = secret
	db := database.OpenTestDB(t)
	audit := services.NewAuditService(db)
	reps := services.NewReputationService(db)
	e, err := engine.New(cfg, engine.Deps{Audit: audit, Reputation: reps, RateLimits: reps})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "sentinel_test_total", Help: "test"}))

	router := gin.New()
	Register(router, Deps{Engine: e, Audit: audit, Metrics: reg}, cfg)
	return router
}

func request(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_Routes(t *testing.T) {
	router := setupRouter(t, "")

	paths := map[string]bool{}
	for _, r := range router.Routes() {
		paths[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/health",
		"POST /api/v1/validate",
		"GET /api/v1/events",
		"GET /api/v1/events/:uuid/notifications",
		"GET /api/v1/stats",
		"GET /api/v1/reputation/:user_id",
		"PUT /api/v1/reputation/:user_id",
		"GET /api/v1/patterns",
		"GET /api/v1/patterns/stats",
		"POST /api/v1/maintenance/purge",
		"GET /metrics",
	} {
		assert.True(t, paths[want], want)
	}

	w := request(router, http.MethodGet, "/api/v1/events", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = request(router, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sentinel_test_total")
}

func TestRegister_Auth(t *testing.T) {
	secret := "route-secret"
	router := setupRouter(t, secret)

	viewer, err := middleware.IssueToken([]byte(secret), "analyst", "viewer", time.Hour)
	require.NoError(t, err)
	admin, err := middleware.IssueToken([]byte(secret), "ops", AdminRole, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/api/v1/health", "", "").Code)
	w := request(router, http.MethodPost, "/api/v1/validate", "", `{"text":"hi","user_id":"u","session_id":"s"}`)
	assert.Equal(t, http.StatusOK, w.Code, "validation is open to callers without a token")

	assert.Equal(t, http.StatusUnauthorized, request(router, http.MethodGet, "/api/v1/events", "", "").Code)
	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/api/v1/events", viewer, "").Code)

	assert.Equal(t, http.StatusForbidden, request(router, http.MethodPost, "/api/v1/maintenance/purge?days=1", viewer, "").Code)
	assert.Equal(t, http.StatusOK, request(router, http.MethodPost, "/api/v1/maintenance/purge?days=1", admin, "").Code)
	assert.Equal(t, http.StatusOK, request(router, http.MethodPut, "/api/v1/reputation/u", admin, `{"notes":"checked"}`).Code)
}
