package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkalbot/kkalbot/internal/config"
	"github.com/kkalbot/kkalbot/internal/ledger"
)

func setupRouter(t *testing.T) (http.Handler, *ledger.Engine) {
	t.Helper()
	store, err := ledger.OpenSQLite(filepath.Join(t.TempDir(), "kkal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := ledger.NewEngine(store, config.LedgerConfig{
		DefaultLimit:        2000,
		MaxIntake:           5000,
		CutoffHour:          6,
		Timezone:            "Europe/Moscow",
		IntakeBreakpoints:   []int{80, 200, 450, 800},
		HeadroomBreakpoints: []float64{0.25, 0.55, 0.8, 1.0},
	})
	require.NoError(t, err)

	return NewRouter(store, NewHandler(engine)), engine
}

func decodeStatus(t *testing.T, body []byte) ledger.Status {
	t.Helper()
	var resp struct {
		Data ledger.Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Data
}

func TestHealthLive(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}

func TestHealthReady(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestGetStatus_UnknownKey(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ledger/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown ledger key")
}

func TestSetLimitThenGetStatus(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/ledger/42/limit", strings.NewReader(`{"limit":1800}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeStatus(t, rec.Body.Bytes())
	assert.Equal(t, 1800, status.Limit)
	assert.Equal(t, 0, status.Used)
	assert.Equal(t, 1800, status.Remaining)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ledger/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1800, decodeStatus(t, rec.Body.Bytes()).Limit)
}

func TestSetLimit_Rejected(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"zero", `{"limit":0}`},
		{"negative", `{"limit":-100}`},
		{"missing", `{}`},
		{"garbage", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/v1/ledger/42/limit", strings.NewReader(tt.body))
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestResetToday(t *testing.T) {
	router, engine := setupRouter(t)
	ctx := context.Background()

	_, err := engine.SetLimit(ctx, "42", 2000)
	require.NoError(t, err)
	_, err = engine.RecordIntake(ctx, "42", 450)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ledger/42/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeStatus(t, rec.Body.Bytes())
	assert.Equal(t, 0, status.Used)
	assert.Equal(t, 2000, status.Remaining)
}

func TestResetToday_UnknownKey(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ledger/42/reset", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kkal_")
}

func TestSecurityHeaders(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
