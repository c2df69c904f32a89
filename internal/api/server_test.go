package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wmsyafiq/Script-Playwright-Demo/internal/config"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/progress"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/walk"
)

// gateDriver implements browser.Driver; navigation blocks on gate when set so
// tests can hold a run open.
type gateDriver struct {
	mu     sync.Mutex
	gate   chan struct{}
	visits []string
}

func (d *gateDriver) Start(context.Context) error { return nil }

func (d *gateDriver) Navigate(_ context.Context, url string) error {
	if d.gate != nil {
		<-d.gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visits = append(d.visits, url)
	return nil
}

func (d *gateDriver) Type(context.Context, string, string, time.Duration) error { return nil }

func (d *gateDriver) Close(context.Context) error { return nil }

func newTestServer(t *testing.T, driver *gateDriver, cfg config.Config) *Server {
	t.Helper()
	hub := progress.NewHub(progress.Config{BufferSize: 512})
	t.Cleanup(hub.Close)
	emitter := progress.NewEmitter(hub, nil, nil)
	runner := walk.New(walk.DefaultSteps(), driver, emitter, nil, walk.Config{}, nil)
	return NewServer(runner, emitter, hub, cfg, zap.NewNop())
}

func doRequest(s *Server, method, path string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func waitIdle(t *testing.T, s *Server) {
	t.Helper()
	require.Eventually(t, func() bool { return !s.runner.Running() }, 5*time.Second, time.Millisecond)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &gateDriver{}, config.Config{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(s, http.MethodGet, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := doRequest(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDemoPages(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &gateDriver{}, config.Config{})

	rec := doRequest(s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Site Walker")

	rec = doRequest(s, http.MethodGet, "/demo")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "start_logger")
	require.Contains(t, rec.Body.String(), "cancel_run")
}

func TestStartRunAndConflict(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	driver := &gateDriver{gate: gate}
	s := newTestServer(t, driver, config.Config{})

	rec := doRequest(s, http.MethodPost, "/v1/run/start")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var ack map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.Equal(t, "started", ack["status"])
	require.NotEmpty(t, ack["run_id"])

	// A second start while the run is held open is rejected.
	rec = doRequest(s, http.MethodPost, "/v1/run/start")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(s, http.MethodGet, "/v1/run/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, true, status["running"])

	close(gate)
	waitIdle(t, s)

	rec = doRequest(s, http.MethodGet, "/v1/run/status")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, false, status["running"])
}

func TestCancelRun(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	driver := &gateDriver{gate: gate}
	s := newTestServer(t, driver, config.Config{})

	rec := doRequest(s, http.MethodPost, "/v1/run/start")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doRequest(s, http.MethodPost, "/v1/run/cancel")
	require.Equal(t, http.StatusAccepted, rec.Code)

	close(gate)
	waitIdle(t, s)

	// Cancellation fired mid-walk, so not every site was visited.
	driver.mu.Lock()
	visited := len(driver.visits)
	driver.mu.Unlock()
	require.Less(t, visited, len(walk.DefaultSteps()))
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "sekrit"
	s := newTestServer(t, &gateDriver{}, cfg)

	rec := doRequest(s, http.MethodGet, "/v1/run/status")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(s, http.MethodGet, "/v1/run/status", func(r *http.Request) {
		r.Header.Set("X-API-Key", "sekrit")
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Pages and health stay open without a key.
	rec = doRequest(s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
}
