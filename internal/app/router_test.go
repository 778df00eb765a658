package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameguild-gg/gameguild-sub001/internal/observability"
	"github.com/gameguild-gg/gameguild-sub001/internal/rbac"
)

func newTestRouter(t *testing.T, cfg *Config, readiness map[string]ReadinessCheck) http.Handler {
	t.Helper()
	resolver := rbac.NewResolver(nil, nil, nil, nil, rbac.ResolverConfig{})
	mw := rbac.Middleware{Resolver: resolver}
	return NewRouter(RouterParams{
		Config:             cfg,
		PermissionsHandler: rbac.NewPermissionsHandler(nil, rbac.NewService(nil, nil, nil), resolver, mw),
		Metrics:            observability.NewMetrics(),
		Readiness:          readiness,
	})
}

func TestRouterHealthAndSecurityHeaders(t *testing.T) {
	router := newTestRouter(t, &Config{AppRateLimit: 100}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Ratelimit-Limit"))
}

func TestRouterMountsPermissionsAPIAndMetrics(t *testing.T) {
	router := newTestRouter(t, &Config{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/permissions/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"SuperAdmin"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gameguild_http_requests_total{code="200",route="/api/permissions/catalog"} 1`)
}

func TestRouterReadiness(t *testing.T) {
	router := newTestRouter(t, &Config{}, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"postgres":"ok","redis":"unavailable"}`, rec.Body.String())
}

func TestRouterRateLimit(t *testing.T) {
	router := newTestRouter(t, &Config{AppRateLimit: 1}, nil)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestNewLoggerHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown", slog.String("component", "authz"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"component":"authz"`)
}
