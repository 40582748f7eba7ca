package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type readyBody struct {
	Status string                    `json:"status"`
	Checks map[string]map[string]any `json:"checks"`
}

func serveReady(t *testing.T, h *HealthHandler) (int, readyBody) {
	t.Helper()
	router := setupTestRouter()
	router.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body readyBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter()
	router.GET("/health", HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"pricing-service"}`, w.Body.String())
}

func TestReady_AllHealthy(t *testing.T) {
	checker := new(MockHealthChecker)
	checker.On("DBHealth", mock.Anything).Return(nil)
	checker.On("RedisHealth", mock.Anything).Return(nil)
	checker.On("CacheStats").Return(&cache.CacheStats{L1Hits: 3})

	code, body := serveReady(t, NewHealthHandler(checker, staticEvents(true), true))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["redis"]["status"])
	assert.Equal(t, "healthy", body.Checks["events"]["status"])
	assert.EqualValues(t, 3, body.Checks["cache_stats"]["l1_hits"])
}

func TestReady_DatabaseDown(t *testing.T) {
	checker := new(MockHealthChecker)
	checker.On("DBHealth", mock.Anything).Return(errors.New("connection refused"))
	checker.On("RedisHealth", mock.Anything).Return(errors.New("timeout"))
	checker.On("CacheStats").Return(nil)

	code, body := serveReady(t, NewHealthHandler(checker, staticEvents(false), true))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["database"]["error"])
	assert.NotContains(t, body.Checks, "cache_stats")
}

func TestReady_Degraded(t *testing.T) {
	tests := []struct {
		name   string
		redis  error
		events EventsStatus
	}{
		{"redis unreachable", errors.New("dial tcp: i/o timeout"), staticEvents(true)},
		{"events disconnected", nil, staticEvents(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(MockHealthChecker)
			checker.On("DBHealth", mock.Anything).Return(nil)
			checker.On("RedisHealth", mock.Anything).Return(tt.redis)
			checker.On("CacheStats").Return(nil)

			code, body := serveReady(t, NewHealthHandler(checker, tt.events, true))

			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "degraded", body.Status)
		})
	}
}

func TestReady_OptionalDependenciesDisabled(t *testing.T) {
	checker := new(MockHealthChecker)
	checker.On("DBHealth", mock.Anything).Return(nil)
	checker.On("CacheStats").Return(nil)

	code, body := serveReady(t, NewHealthHandler(checker, nil, false))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.Checks["redis"]["status"])
	assert.Equal(t, "disabled", body.Checks["events"]["status"])
	checker.AssertNotCalled(t, "RedisHealth", mock.Anything)
}
