package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/investiq/internal/api/handlers"
	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/decision"
	"github.com/wonny/investiq/internal/metrics"
	"github.com/wonny/investiq/internal/policy"
	"github.com/wonny/investiq/pkg/config"
	"github.com/wonny/investiq/pkg/logger"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

// fakeAnalyzer decides from fixed reports, or fails/panics on demand
type fakeAnalyzer struct {
	engine *decision.Engine
	err    error
	panics bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, symbol string) (*contracts.Analysis, error) {
	if f.panics {
		panic("analyst exploded")
	}
	if f.err != nil {
		return nil, f.err
	}

	reports := contracts.Reports{
		Fundamental: &contracts.AnalystReport{Agent: contracts.AgentFundamental, Score: 85},
		Sentiment:   &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: 0.6},
		Technical:   &contracts.AnalystReport{Agent: contracts.AgentTechnical, Score: 80},
		Risk:        &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: contracts.RiskLow},
	}
	v, err := f.engine.Decide(symbol, reports)
	if err != nil {
		return nil, err
	}
	return &contracts.Analysis{Symbol: symbol, Verdict: v, Reports: reports}, nil
}

type testServer struct {
	handler  http.Handler
	analyzer *fakeAnalyzer
	recorder *metrics.Recorder
}

func newTestServer(t *testing.T, limiter Limiter) *testServer {
	t.Helper()

	cfg, snapshot, err := policy.Resolve("")
	require.NoError(t, err)

	engine, err := decision.NewEngine(policy.ToPolicy(cfg), nil)
	require.NoError(t, err)

	analyzer := &fakeAnalyzer{engine: engine}
	rec := metrics.New()
	log := logger.NewNop()
	clock := handlers.Clock(func() time.Time { return fixedNow })

	h := Handlers{
		Analysis: handlers.NewAnalysisHandler(analyzer, engine, clock, log),
		Policy:   handlers.NewPolicyHandler(cfg, snapshot, engine.Rules()),
	}

	return &testServer{
		handler:  NewRouter(h, limiter, rec, log),
		analyzer: analyzer,
		recorder: rec,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:51000"
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	var out map[string]interface{}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rr, body := s.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "investiq-api", body["service"])
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil)

	rr, body := s.do(t, "POST", "/api/analyze", `{"symbol":"AAPL"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "2026-10-18T09:30:00Z", body["timestamp"])

	decision := body["decision"].(map[string]interface{})
	assert.Equal(t, "AAPL", decision["symbol"])
	verdict := decision["verdict"].(map[string]interface{})
	assert.Equal(t, "Buy", verdict["recommendation"])
	assert.Contains(t, decision, "detailed_analysis")
}

func TestAnalyze_PathSymbol(t *testing.T) {
	s := newTestServer(t, nil)

	rr, body := s.do(t, "POST", "/api/analyze/MSFT", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "MSFT", body["decision"].(map[string]interface{})["symbol"])
}

func TestAnalyze_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"symbol":`},
		{"missing symbol", `{}`},
		{"symbol too long", `{"symbol":"ABCDEFGHIJKLMNOPQ"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := s.do(t, "POST", "/api/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"no data", fmt.Errorf("Technical analyst: %w", contracts.ErrNoData), http.StatusNotFound, "no data"},
		{"invalid symbol", fmt.Errorf("%w: %q", contracts.ErrInvalidSymbol, "$"), http.StatusBadRequest, "invalid symbol"},
		{"missing signal", contracts.NewSignalError(contracts.ErrMissingSignal, contracts.AgentRisk, "absent"), http.StatusUnprocessableEntity, "missing signal"},
		{"timeout", fmt.Errorf("Risk analyst: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "deadline"},
		{"internal", errors.New("connection refused to 10.0.0.5"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			s.analyzer.err = tt.err

			rr, body := s.do(t, "POST", "/api/analyze/AAPL", "")
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["error"], tt.message)
			assert.NotContains(t, body["error"], "10.0.0.5")
		})
	}
}

func TestDecide(t *testing.T) {
	s := newTestServer(t, nil)

	rr, body := s.do(t, "POST", "/api/decide",
		`{"symbol":"TSLA","fundamental":80,"sentiment":0.6,"technical":75,"risk_level":"low"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	verdict := body["decision"].(map[string]interface{})
	assert.Equal(t, "TSLA", verdict["symbol"])
	assert.Equal(t, "Buy", verdict["recommendation"])
	assert.Len(t, verdict["reasoning"], 7)
}

func TestDecide_Rejections(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing risk", `{"fundamental":80,"sentiment":0.6,"technical":75}`, http.StatusUnprocessableEntity, "missing signal [Risk]"},
		{"nothing", `{}`, http.StatusUnprocessableEntity, "missing signal [Fundamental, Sentiment, Technical, Risk]"},
		{"sentiment out of range", `{"fundamental":80,"sentiment":2,"technical":75,"risk_level":"Low"}`, http.StatusUnprocessableEntity, "validation failed"},
		{"unknown risk level", `{"fundamental":80,"sentiment":0.6,"technical":75,"risk_level":"Extreme"}`, http.StatusUnprocessableEntity, "invalid signal"},
		{"malformed", `[`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := s.do(t, "POST", "/api/decide", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, body["error"], tt.message)
		})
	}
}

func TestDecide_ValidationDetails(t *testing.T) {
	s := newTestServer(t, nil)

	_, body := s.do(t, "POST", "/api/decide", `{"fundamental":120,"sentiment":0.6,"technical":75,"risk_level":"Low"}`)

	details := body["details"].([]interface{})
	require.Len(t, details, 1)
	first := details[0].(map[string]interface{})
	assert.Equal(t, "fundamental", first["field"])
	assert.Equal(t, "ERR_LTE", first["code"])
}

func TestPolicy(t *testing.T) {
	s := newTestServer(t, nil)

	rr, body := s.do(t, "GET", "/api/policy", "")
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, policy.SourceBuiltin, body["source"])
	assert.Len(t, body["policy_hash"], 64)
	assert.Equal(t, []interface{}{"risk_override", "strong_consensus", "mixed_signals", "score_threshold"}, body["rule_order"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, "POST", "/api/analyze/AAPL", "")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `investiq_http_requests_total{method="POST",route="/api/analyze/{symbol}",status="200"} 1`)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, NewLocalLimiter(2))

	for i := 0; i < 2; i++ {
		rr, _ := s.do(t, "POST", "/api/analyze/AAPL", "")
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr, body := s.do(t, "POST", "/api/analyze/AAPL", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "rate limit exceeded", body["error"])
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// health는 제한 없음
	rr, _ = s.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLocalLimiter_EvictsIdleClients(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	l := NewLocalLimiter(1)
	l.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		allowed, err := l.Allow(ctx, ip)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, allowed, "burst spent")
	assert.Equal(t, 3, l.size())

	// TTL 이내 재방문 client는 유지, 나머지는 sweep
	now = now.Add(localIdleTTL / 2)
	allowed, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, allowed)

	now = now.Add(localIdleTTL / 2)
	allowed, _ = l.Allow(ctx, "10.0.0.4")
	assert.True(t, allowed)
	assert.Equal(t, 2, l.size(), "10.0.0.1 and 10.0.0.3 evicted")

	// 제거된 client는 새 bucket으로 시작
	allowed, _ = l.Allow(ctx, "10.0.0.1")
	assert.True(t, allowed)
	assert.Equal(t, 3, l.size())
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	s := newTestServer(t, failingLimiter{})

	rr, _ := s.do(t, "POST", "/api/analyze/AAPL", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, nil)
	s.analyzer.panics = true

	rr, body := s.do(t, "POST", "/api/analyze/AAPL", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, false, body["success"])
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	rr, _ := s.do(t, "GET", "/health", "")
	generated := rr.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36, "uuid request id")

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-abc")
	kept := httptest.NewRecorder()
	s.handler.ServeHTTP(kept, req)
	assert.Equal(t, "trace-abc", kept.Header().Get(RequestIDHeader))
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(nil, 0))
	assert.IsType(t, &LocalLimiter{}, NewLimiter(nil, 10))
}

func TestServerHandler(t *testing.T) {
	s := newTestServer(t, nil)
	srv := New(testConfig(), logger.NewNop(), s.handler)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/health", bytes.NewReader(nil)))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServerServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t, nil)
	srv := New(testConfig(), logger.NewNop(), s.handler)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerWriteTimeout(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, 60*time.Second, New(cfg, logger.NewNop(), nil).WriteTimeout())

	cfg.Analysis.AnalystTimeout = 20 * time.Second
	assert.Equal(t, 35*time.Second, New(cfg, logger.NewNop(), nil).WriteTimeout())
}

func testConfig() *config.Config {
	return &config.Config{Port: "0", Env: "development"}
}
