package api

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wmsyafiq/Script-Playwright-Demo/internal/config"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/metrics"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/progress"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/walk"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server wires HTTP handlers to the runner and the event hub.
type Server struct {
	router chi.Router
	runner *walk.Runner
	sink   walk.Sink
	hub    *progress.Hub
	logger *zap.Logger
	cfg    config.Config
	tmpl   *template.Template
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	runner *walk.Runner,
	sink walk.Sink,
	hub *progress.Hub,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		runner: runner,
		sink:   sink,
		hub:    hub,
		logger: logger,
		cfg:    cfg,
		tmpl:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/", s.home)
	r.Get("/demo", s.demo)

	// The WebSocket route stays outside the timeout handler; hijacked
	// connections outlive any request deadline.
	r.Get("/ws", s.handleWS)

	r.Route("/v1", func(r chi.Router) {
		r.Use(timeoutMiddleware(30 * time.Second))
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/run", func(r chi.Router) {
			r.Post("/start", s.startRun)
			r.Post("/cancel", s.cancelRun)
			r.Get("/status", s.runStatus)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) home(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, "index.html")
}

func (s *Server) demo(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, "demo.html")
}

func (s *Server) renderPage(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, nil); err != nil {
		s.logger.Error("render page failed", zap.String("page", name), zap.Error(err))
	}
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	runID, err := s.start(r.Context())
	if err != nil {
		if errors.Is(err, walk.ErrRunActive) {
			writeError(w, http.StatusConflict, "a run is already active")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "run_id": runID})
}

func (s *Server) cancelRun(w http.ResponseWriter, _ *http.Request) {
	s.cancel(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (s *Server) runStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"running": s.runner.Running(),
		"run_id":  s.runner.RunID(),
	})
}

// start emits the kickoff log line and spawns a run. The run continues past
// the request lifetime, so it gets a fresh context.
func (s *Server) start(context.Context) (string, error) {
	s.sink.Log(context.Background(), "[SYS] Starting browser demo...", 0)
	runID, err := s.runner.Start(context.Background())
	if err != nil {
		return "", err
	}
	s.logger.Info("run start accepted", zap.String("run_id", runID))
	return runID, nil
}

// cancel emits the cancel log line and sets the cooperative flag. The
// {running:false} status follows from the runner once it actually stops.
func (s *Server) cancel(ctx context.Context) {
	s.sink.Log(ctx, "[SYS] Cancel signal received.", 0)
	s.runner.Cancel()
	s.logger.Info("cancel requested", zap.String("run_id", s.runner.RunID()))
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps the WebSocket upgrade working through the middleware chain.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
