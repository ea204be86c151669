// Package server exposes the dashboard over HTTP: a same-origin CSV proxy,
// dashboard data endpoints, session lookups and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/dashboard"
	"github.com/sells-group/voc-cli/internal/fetcher"
	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/monitoring"
)

// SessionReader is the store subset the session endpoints need.
type SessionReader interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.Session, error)
}

// Deps are the collaborators of the server. Fetcher, Loader and Checker
// are required; Sessions may be nil, which disables the session routes.
type Deps struct {
	// Fetcher downloads upstream CSVs for the proxy.
	Fetcher fetcher.Fetcher
	// Loader loads dashboard sources. It should not itself go through
	// this server's proxy.
	Loader dashboard.Loader
	// Checker resolves job ids to fresh CSV locations.
	Checker  dashboard.StatusChecker
	Sessions SessionReader
}

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	ProxyRPS       float64
	ProxyBurst     int
	// Now anchors dashboard trends. Zero anchors on the latest review.
	Now time.Time
}

// Server is the HTTP API.
type Server struct {
	deps      Deps
	opts      Options
	collector *monitoring.Collector
	router    chi.Router
}

// New builds the router.
func New(deps Deps, opts Options) *Server {
	s := &Server{deps: deps, opts: opts}
	if deps.Sessions != nil {
		s.collector = monitoring.NewCollector(deps.Sessions)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(monitoring.Middleware)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", monitoring.Handler())

	limiter := newIPLimiter(s.opts.ProxyRPS, s.opts.ProxyBurst)
	r.Route("/api", func(r chi.Router) {
		r.With(limiter.Handler).Get("/proxy-csv", s.handleProxyCSV)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/jobs/{jobID}", s.handleJobDashboard)

		if s.deps.Sessions != nil {
			r.Get("/sessions", s.handleListSessions)
			r.Get("/sessions/stats", s.handleSessionStats)
			r.Get("/sessions/{sessionID}", s.handleGetSession)
		}
	})
	return r
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// The proxied URL may carry signed query parameters; log the path only.
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
