// Package metrics exposes Prometheus collectors for the walker service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	walkerRunsStartedTotal     prometheus.Counter
	walkerRunsFinishedTotal    *prometheus.CounterVec
	walkerActiveRuns           prometheus.Gauge
	walkerRunProgressPercent   prometheus.Gauge
	walkerStepsVisitedTotal    *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	wsClientsConnected         prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times; every exported helper calls it on first use.
func Init() {
	once.Do(func() {
		walkerRunsStartedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "walker_runs_started_total",
				Help: "Total demo runs started.",
			},
		)

		walkerRunsFinishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walker_runs_finished_total",
				Help: "Total demo runs finished, labeled by result.",
			},
			[]string{"result"},
		)

		walkerActiveRuns = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "walker_active_runs",
				Help: "Number of runs currently executing (0 or 1).",
			},
		)

		walkerRunProgressPercent = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "walker_run_progress_percent",
				Help: "Most recently reported run progress percentage.",
			},
		)

		walkerStepsVisitedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walker_steps_visited_total",
				Help: "Pages visited by the walk, labeled by site.",
			},
			[]string{"site"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		wsClientsConnected = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "walker_ws_clients_connected",
				Help: "Connected WebSocket observers.",
			},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// RunStarted increments the started-runs counter.
func RunStarted() {
	Init()
	walkerRunsStartedTotal.Inc()
}

// RunFinished increments the finished-runs counter for the given result.
func RunFinished(result string) {
	Init()
	walkerRunsFinishedTotal.WithLabelValues(result).Inc()
}

// IncActiveRuns increments the active-runs gauge.
func IncActiveRuns() {
	Init()
	walkerActiveRuns.Inc()
}

// DecActiveRuns decrements the active-runs gauge.
func DecActiveRuns() {
	Init()
	walkerActiveRuns.Dec()
}

// SetRunProgress records the latest progress percentage.
func SetRunProgress(percent int) {
	Init()
	walkerRunProgressPercent.Set(float64(percent))
}

// StepVisited increments the visit counter for the site of rawURL.
func StepVisited(rawURL string) {
	Init()
	walkerStepsVisitedTotal.WithLabelValues(SanitizeSite(rawURL)).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncWSClients increments the connected-observers gauge.
func IncWSClients() {
	Init()
	wsClientsConnected.Inc()
}

// DecWSClients decrements the connected-observers gauge.
func DecWSClients() {
	Init()
	wsClientsConnected.Dec()
}
