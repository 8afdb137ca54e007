package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agri-price-backend/internal/export"
	"agri-price-backend/internal/metrics"
	"agri-price-backend/internal/service"
	"agri-price-backend/internal/store"
	"agri-price-backend/internal/synth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2024, 10, 24, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Count      *int                `json:"count"`
	Message    string              `json:"message"`
	Pagination *service.Pagination `json:"pagination"`
	Token      string              `json:"token"`
}

func newTestRouter(t *testing.T, days int) (*gin.Engine, *Authenticator) {
	t.Helper()
	sy := synth.New(synth.WithSeed(9))
	recs, err := sy.Synthesize(testNow, days, synth.DefaultBaseIndex)
	require.NoError(t, err)
	svc := service.NewPriceService(store.NewMemoryRepository(recs), sy,
		service.WithClock(func() time.Time { return testNow }))

	auth := NewAuthenticator("ADMIN1", "secret", time.Hour)
	auth.now = func() time.Time { return testNow }
	rec := metrics.New(nil)
	r := NewRouter(RouterOptions{
		Handler:  New(svc, zerolog.Nop()),
		Auth:     auth,
		Limiter:  rate.NewLimiter(rate.Inf, 1),
		Recorder: rec,
		Metrics:  rec.Handler(),
	})
	return r, auth
}

func do(t *testing.T, r http.Handler, method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, 10)
	w, _ := do(t, r, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestPrices(t *testing.T) {
	r, _ := newTestRouter(t, 60)

	w, env := do(t, r, http.MethodGet, "/api/prices/latest?limit=3", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	require.NotNil(t, env.Count)
	assert.Equal(t, 3, *env.Count)

	w, env = do(t, r, http.MethodGet, "/api/prices/list?page=2&limit=25", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, service.Pagination{Page: 2, Limit: 25, Total: 60, TotalPages: 3}, *env.Pagination)

	w, env = do(t, r, http.MethodGet, "/api/prices/date/2024-10-01", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"date":"2024-10-01"`)

	w, env = do(t, r, http.MethodGet, "/api/prices/date/2000-01-01", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "未找到该日期的数据", env.Message)

	w, _ = do(t, r, http.MethodGet, "/api/prices/date/yesterday", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/prices/range?startDate=2024-10-01&endDate=2024-10-10", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, *env.Count)

	w, env = do(t, r, http.MethodGet, "/api/prices/range?startDate=2024-10-01", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "请提供开始日期和结束日期", env.Message)

	w, env = do(t, r, http.MethodGet, "/api/prices/ranking?type=decrease&limit=5", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, *env.Count)

	w, _ = do(t, r, http.MethodGet, "/api/prices/ranking?type=sideways", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/prices/product/egg/trend?days=7", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, *env.Count)

	w, _ = do(t, r, http.MethodGet, "/api/prices/product/durian/trend", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport(t *testing.T) {
	r, _ := newTestRouter(t, 20)
	w, _ := do(t, r, http.MethodGet, "/api/prices/export?days=5", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "agri_prices_20241024.xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestStatisticsAndAnalysis(t *testing.T) {
	r, _ := newTestRouter(t, 120)
	for _, path := range []string{
		"/api/statistics/overview",
		"/api/statistics/products?days=7",
		"/api/statistics/monthly",
		"/api/statistics/change-stats",
		"/api/analysis/prediction?days=5&method=linear",
		"/api/analysis/moving-average?periods=5,10",
		"/api/analysis/trend?days=90",
		"/api/analysis/correlation",
		"/api/analysis/seasonality",
		"/api/analysis/indicators?days=60",
	} {
		w, env := do(t, r, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.True(t, env.Success, path)
	}

	w, env := do(t, r, http.MethodGet, "/api/analysis/moving-average?periods=5,x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestPrediction_InsufficientHistory(t *testing.T) {
	r, _ := newTestRouter(t, 5)
	w, env := do(t, r, http.MethodGet, "/api/analysis/prediction", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "历史数据不足，无法预测", env.Message)
}

func TestAuthAndGenerate(t *testing.T) {
	r, _ := newTestRouter(t, 10)

	w, _ := do(t, r, http.MethodPost, "/api/generate", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := do(t, r, http.MethodPost, "/api/auth/verify", map[string]string{"code": "WRONG"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, env = do(t, r, http.MethodPost, "/api/auth/verify", map[string]string{"code": "ADMIN1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, env.Token)
	bearer := map[string]string{"Authorization": "Bearer " + env.Token}

	w, env = do(t, r, http.MethodPost, "/api/generate", map[string]any{"days": 0, "base_index": -3}, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_GT")

	w, env = do(t, r, http.MethodPost, "/api/generate", map[string]any{"end_date": "2024-01-31", "days": 31}, bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"start":"2024-01-01"`)

	w, env = do(t, r, http.MethodGet, "/api/prices/latest", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"date":"2024-01-31"`)

	// empty body uses defaults
	w, _ = do(t, r, http.MethodPost, "/api/generate", nil, bearer)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGenerate_ExplicitZeroRejected(t *testing.T) {
	r, auth := newTestRouter(t, 10)
	bearer := map[string]string{"Authorization": "Bearer " + auth.GenerateToken()}

	w, _ := do(t, r, http.MethodPost, "/api/generate", map[string]any{"base_index": 0}, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_GT")

	w, _ = do(t, r, http.MethodPost, "/api/generate", map[string]any{"days": 0}, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_MIN")

	// 未传的字段仍取默认值
	w, env := do(t, r, http.MethodPost, "/api/generate", map[string]any{"end_date": "2024-10-24"}, bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"total":365`)
}

func TestGenerate_UsesConfiguredMaxDays(t *testing.T) {
	sy := synth.New(synth.WithSeed(3), synth.WithMaxDays(20))
	recs, err := sy.Synthesize(testNow, 5, synth.DefaultBaseIndex)
	require.NoError(t, err)
	svc := service.NewPriceService(store.NewMemoryRepository(recs), sy,
		service.WithClock(func() time.Time { return testNow }))
	auth := NewAuthenticator("ADMIN1", "secret", time.Hour)
	auth.now = func() time.Time { return testNow }
	r := NewRouter(RouterOptions{
		Handler: New(svc, zerolog.Nop()),
		Auth:    auth,
		Limiter: rate.NewLimiter(rate.Inf, 1),
	})
	bearer := map[string]string{"Authorization": "Bearer " + auth.GenerateToken()}

	w, _ := do(t, r, http.MethodPost, "/api/generate", map[string]any{"end_date": "2024-10-24", "days": 21}, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, r, http.MethodPost, "/api/generate", map[string]any{"end_date": "2024-10-24", "days": 20}, bearer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"total":20`)
}

func TestMetricsAndNoRoute(t *testing.T) {
	r, _ := newTestRouter(t, 10)
	do(t, r, http.MethodGet, "/api/prices/latest", nil, nil)

	w, env := do(t, r, http.MethodGet, "/api/nothing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "接口不存在", env.Message)

	w, _ = do(t, r, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/api/prices/latest"`)
}
