package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/surgecast/internal/domain/arearisk"
	"github.com/yanqian/surgecast/internal/domain/auth"
	"github.com/yanqian/surgecast/internal/domain/facility"
	"github.com/yanqian/surgecast/internal/domain/history"
	"github.com/yanqian/surgecast/internal/infra/config"
	"github.com/yanqian/surgecast/internal/infra/historyrepo"
	apperrors "github.com/yanqian/surgecast/pkg/errors"
	"github.com/yanqian/surgecast/pkg/metrics"
)

func TestRouter_PredictSuccess(t *testing.T) {
	want := facility.Assessment{
		EmergencyLoad:    176.4,
		ICUBeds:          18.65,
		VentilatorDemand: 9.2,
		StaffWorkload:    facility.WorkloadHigh,
		AlertLevel:       facility.AlertRed,
		Recommendations:  facility.AlertRed.Recommendations(),
	}
	deps := newTestDeps()
	deps.facility.predictFn = func(_ context.Context, f facility.Features) (facility.Assessment, error) {
		require.NotNil(t, f.HourOfDay)
		require.Equal(t, 18.0, *f.HourOfDay)
		return want, nil
	}

	rec := performRequest(t, deps.server(t, nil), http.MethodPost, "/predict", predictBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got facility.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, want, got)
}

func TestRouter_PredictWrongType(t *testing.T) {
	deps := newTestDeps()
	rec := performRequest(t, deps.server(t, nil), http.MethodPost, "/predict", `{"hour_of_day":"noon"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_request", body["code"])
	require.NotEmpty(t, body["error"])
}

func TestRouter_PredictMissingField(t *testing.T) {
	deps := newTestDeps()
	deps.facility.predictFn = func(context.Context, facility.Features) (facility.Assessment, error) {
		return facility.Assessment{}, apperrors.Wrap("invalid_input", "missing field: previous_load", nil)
	}

	rec := performRequest(t, deps.server(t, nil), http.MethodPost, "/predict", `{"day_of_week":1}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_input", body["code"])
	require.Equal(t, "missing field: previous_load", body["error"])
}

func TestRouter_PredictorFailureIsBadGateway(t *testing.T) {
	deps := newTestDeps()
	deps.facility.predictFn = func(context.Context, facility.Features) (facility.Assessment, error) {
		return facility.Assessment{}, apperrors.Wrap("predictor_error", "predictor unavailable", io.ErrUnexpectedEOF)
	}

	rec := performRequest(t, deps.server(t, nil), http.MethodPost, "/predict", predictBody, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "predictor_error", decodeErrorBody(t, rec.Body.Bytes())["code"])
}

func TestRouter_RetriesPredictorFailure(t *testing.T) {
	deps := newTestDeps()
	calls := 0
	deps.facility.predictFn = func(_ context.Context, f facility.Features) (facility.Assessment, error) {
		calls++
		require.NotNil(t, f.PreviousLoad)
		if calls == 1 {
			return facility.Assessment{}, apperrors.Wrap("predictor_error", "predictor unavailable", nil)
		}
		return facility.Assessment{AlertLevel: facility.AlertGreen}, nil
	}
	server := deps.server(t, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 2, Paths: []string{"/predict"}}
	})

	rec := performRequest(t, server, http.MethodPost, "/predict", predictBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, calls)
}

func TestRouter_RetryStopsAtMaxAttemptsAndSkipsServerErrors(t *testing.T) {
	deps := newTestDeps()
	predicts := 0
	deps.facility.predictFn = func(context.Context, facility.Features) (facility.Assessment, error) {
		predicts++
		return facility.Assessment{}, apperrors.Wrap("predictor_error", "predictor unavailable", nil)
	}
	records := 0
	deps.facility.recordFn = func(context.Context, facility.RecordRequest) (facility.RecordedPrediction, error) {
		records++
		return facility.RecordedPrediction{}, apperrors.Wrap("history_error", "failed to save prediction", nil)
	}
	server := deps.server(t, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, Paths: []string{"/predict", "/api/v1/predictions"}}
	})

	rec := performRequest(t, server, http.MethodPost, "/predict", predictBody, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 3, predicts)
	require.Equal(t, "predictor_error", decodeErrorBody(t, rec.Body.Bytes())["code"])

	rec = performRequest(t, server, http.MethodPost, "/api/v1/predictions", predictBody, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, records)
}

func TestBackoffDoubles(t *testing.T) {
	require.Zero(t, backoff(0, 3))
	require.Equal(t, 100*time.Millisecond, backoff(100*time.Millisecond, 1))
	require.Equal(t, 400*time.Millisecond, backoff(100*time.Millisecond, 3))
}

func TestRouter_CreatePrediction(t *testing.T) {
	deps := newTestDeps()
	id := uuid.New()
	deps.facility.recordFn = func(_ context.Context, req facility.RecordRequest) (facility.RecordedPrediction, error) {
		require.Equal(t, "Friday rush", req.ScenarioName)
		return facility.RecordedPrediction{Success: true, ID: id}, nil
	}

	body := `{"scenario_name":"Friday rush","day_of_week":4,"hour_of_day":18,"previous_load":120,"seasonal_indicator":0.8,"accident_probability":0.5}`
	rec := performRequest(t, deps.server(t, nil), http.MethodPost, "/api/v1/predictions", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got facility.RecordedPrediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.True(t, got.Success)
	require.Equal(t, id, got.ID)
}

func TestRouter_AreaRiskEmptyBodyUsesDefaults(t *testing.T) {
	deps := newTestDeps()
	server := deps.server(t, nil)

	for _, path := range []string{"/predict-area-risk", "/api/v1/area-risk"} {
		rec := performRequest(t, server, http.MethodPost, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var got arearisk.Assessment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, 7.58, got.AreaRiskScore)
		require.Equal(t, arearisk.TierCritical, got.RiskLevel)
		require.Equal(t, 18.9, got.PredictedEmergencyLoad)
	}
}

func TestRouter_AreaRiskMalformedBody(t *testing.T) {
	deps := newTestDeps()
	rec := performRequest(t, deps.server(t, nil), http.MethodPost, "/predict-area-risk", `{"traffic_density":`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, rec.Body.Bytes())["code"])
}

func TestRouter_ListPredictionsParsesQuery(t *testing.T) {
	deps := newTestDeps()
	deps.history.listFn = func(_ context.Context, f history.Filter) (history.Page, error) {
		require.Equal(t, "red", f.AlertLevel)
		require.Equal(t, 10, f.Limit)
		require.Equal(t, 2, f.Page)
		require.NotNil(t, f.Start)
		require.NotNil(t, f.End)
		require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *f.Start)
		require.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), *f.End)
		return history.Page{Pagination: history.Pagination{Page: 2, Limit: 10, Total: 11, Pages: 2}}, nil
	}

	path := "/api/v1/predictions?alert_level=red&limit=10&page=2&start_date=2024-03-01&end_date=2024-03-01"
	rec := performRequest(t, deps.server(t, nil), http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got history.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 2, got.Pagination.Pages)
}

func TestRouter_ListPredictionsBadQuery(t *testing.T) {
	deps := newTestDeps()
	server := deps.server(t, nil)

	rec := performRequest(t, server, http.MethodGet, "/api/v1/predictions?limit=ten", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(t, server, http.MethodGet, "/api/v1/predictions?start_date=yesterday", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ListPredictionsHugePage(t *testing.T) {
	deps := newTestDeps()
	repo := historyrepo.NewMemoryRepository()
	require.NoError(t, repo.Insert(context.Background(), history.Record{ID: uuid.New(), AlertLevel: "GREEN", Timestamp: time.Now()}))
	deps.history.listFn = history.NewService(history.Config{}, repo, newTestLogger()).List

	rec := performRequest(t, deps.server(t, nil), http.MethodGet, "/api/v1/predictions?page=368934881474191033", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["code"])
}

func TestRouter_GetPredictionNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.history.getFn = func(context.Context, string) (history.Record, error) {
		return history.Record{}, apperrors.Wrap("not_found", "prediction not found", history.ErrNotFound)
	}

	rec := performRequest(t, deps.server(t, nil), http.MethodGet, "/api/v1/predictions/"+uuid.NewString(), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "prediction not found", decodeErrorBody(t, rec.Body.Bytes())["error"])
}

func TestRouter_DeletePredictionRequiresAdmin(t *testing.T) {
	deps := newTestDeps()
	deleted := ""
	deps.history.deleteFn = func(_ context.Context, id string) error {
		deleted = id
		return nil
	}
	server := deps.server(t, nil)
	path := "/api/v1/predictions/abc"

	rec := performRequest(t, server, http.MethodDelete, path, "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(t, server, http.MethodDelete, path, "", map[string]string{"Authorization": "Bearer bogus"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", decodeErrorBody(t, rec.Body.Bytes())["code"])

	rec = performRequest(t, server, http.MethodDelete, path, "", map[string]string{"Authorization": "Bearer staff"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, deleted)

	rec = performRequest(t, server, http.MethodDelete, path, "", map[string]string{"Authorization": "Bearer admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc", deleted)
}

func TestRouter_AnalyticsDays(t *testing.T) {
	deps := newTestDeps()
	deps.history.analyticsFn = func(_ context.Context, days int) (history.Analytics, error) {
		require.Equal(t, 30, days)
		return history.Analytics{TotalPredictions: 3}, nil
	}
	server := deps.server(t, nil)

	rec := performRequest(t, server, http.MethodGet, "/api/v1/analytics?days=30", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(t, server, http.MethodGet, "/api/v1/analytics?days=week", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LoginInvalidCredentials(t *testing.T) {
	deps := newTestDeps()
	rec := performRequest(t, deps.server(t, nil), http.MethodPost, "/api/v1/auth/token", `{"username":"ops","password":"nope"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credentials", decodeErrorBody(t, rec.Body.Bytes())["code"])
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	deps := newTestDeps()
	server := deps.server(t, nil)

	rec := performRequest(t, server, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health["status"])

	performRequest(t, server, http.MethodPost, "/predict-area-risk", "{}", nil)
	rec = performRequest(t, server, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `surgecast_area_assessments_total{risk_level="CRITICAL"} 1`)
}

func TestRouter_RateLimit(t *testing.T) {
	deps := newTestDeps()
	server := deps.server(t, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	rec := performRequest(t, server, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(t, server, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, rec.Body.Bytes())["code"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	deps := newTestDeps()
	server := deps.server(t, func(cfg *config.Config) {
		cfg.HTTP.AllowedOrigins = []string{"https://dashboard.example"}
	})

	rec := performRequest(t, server, http.MethodOptions, "/predict", "", map[string]string{"Origin": "https://dashboard.example"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

const predictBody = `{"day_of_week":4,"hour_of_day":18,"previous_load":120,"seasonal_indicator":0.8,"accident_probability":0.5}`

type testDeps struct {
	facility *stubFacility
	history  *stubHistory
	auth     *stubAuth
	registry *metrics.Registry
}

func newTestDeps() *testDeps {
	return &testDeps{
		facility: &stubFacility{},
		history:  &stubHistory{},
		auth:     &stubAuth{},
		registry: metrics.NewRegistry(),
	}
}

func (d *testDeps) server(t *testing.T, mutate func(*config.Config)) *http.Server {
	t.Helper()
	logger := newTestLogger()
	area := arearisk.NewService(arearisk.Config{}, nil, d.registry, logger)
	handler := NewHandler(d.facility, area, d.history, d.auth, nil, d.registry, logger)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}
	return NewRouter(cfg, handler)
}

func performRequest(t *testing.T, server *http.Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

type stubFacility struct {
	predictFn func(context.Context, facility.Features) (facility.Assessment, error)
	recordFn  func(context.Context, facility.RecordRequest) (facility.RecordedPrediction, error)
}

func (s *stubFacility) Predict(ctx context.Context, f facility.Features) (facility.Assessment, error) {
	if s.predictFn != nil {
		return s.predictFn(ctx, f)
	}
	return facility.Assessment{}, nil
}

func (s *stubFacility) PredictAndRecord(ctx context.Context, req facility.RecordRequest) (facility.RecordedPrediction, error) {
	if s.recordFn != nil {
		return s.recordFn(ctx, req)
	}
	return facility.RecordedPrediction{}, nil
}

type stubHistory struct {
	listFn      func(context.Context, history.Filter) (history.Page, error)
	getFn       func(context.Context, string) (history.Record, error)
	deleteFn    func(context.Context, string) error
	analyticsFn func(context.Context, int) (history.Analytics, error)
}

func (s *stubHistory) Record(context.Context, history.Record) error { return nil }

func (s *stubHistory) List(ctx context.Context, f history.Filter) (history.Page, error) {
	if s.listFn != nil {
		return s.listFn(ctx, f)
	}
	return history.Page{}, nil
}

func (s *stubHistory) Get(ctx context.Context, id string) (history.Record, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return history.Record{}, nil
}

func (s *stubHistory) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubHistory) Analytics(ctx context.Context, days int) (history.Analytics, error) {
	if s.analyticsFn != nil {
		return s.analyticsFn(ctx, days)
	}
	return history.Analytics{}, nil
}

func (s *stubHistory) HandleJob(context.Context, string, []byte) error { return nil }

// stubAuth treats the bearer token as the role name.
type stubAuth struct{}

func (stubAuth) Login(context.Context, auth.LoginRequest) (auth.TokenResponse, error) {
	return auth.TokenResponse{}, apperrors.Wrap("invalid_credentials", "invalid username or password", nil)
}

func (stubAuth) Refresh(context.Context, string) (auth.TokenResponse, error) {
	return auth.TokenResponse{}, apperrors.Wrap("invalid_token", "invalid refresh token", nil)
}

func (stubAuth) ValidateToken(_ context.Context, token string) (auth.Claims, error) {
	role := auth.Role(token)
	if !role.Valid() {
		return auth.Claims{}, apperrors.Wrap("invalid_token", "invalid token", nil)
	}
	return auth.Claims{Username: token, Role: role, TokenType: "access"}, nil
}
