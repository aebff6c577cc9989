// Package http serves the reports as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"spendview/internal/log"
	"spendview/internal/middleware/ratelimit"
	"spendview/internal/middleware/security"
	"spendview/internal/middleware/trace"
)

// Options configures a Server. Zero values get defaults.
type Options struct {
	Logger   *log.Logger
	Location *time.Location
	// Ready backs /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
	// RequestsPerMinute limits /api per client.
	RequestsPerMinute int
	// Now is the clock used for default dates.
	Now func() time.Time
}

type Server struct {
	http.Server
	reports  ReportService
	location *time.Location
	ready    func(ctx context.Context) error
	now      func() time.Time
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc ReportService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ips := security.NewClientIPResolver()
	s := &Server{
		reports:  svc,
		location: opts.Location,
		ready:    opts.Ready,
		now:      opts.Now,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		tracer:   trace.NewMiddleware(opts.Logger, ips.ClientIP),
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	r := mux.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(headers.Middleware)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	// API routes sit on the root router so a method mismatch reaches
	// MethodNotAllowedHandler.
	limit := s.limiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusTooManyRequests, errorBody{
			Error:     "rate limit exceeded",
			RequestID: trace.GetRequestID(r.Context()),
		})
	})
	api := func(path string, h http.HandlerFunc) {
		r.Handle(path, limit(h)).Methods(http.MethodGet)
	}
	api("/api/dashboard", s.handleDashboard)
	api("/api/events", s.handleEvents)
	api("/api/reports/category", s.handleCategory)
	api("/api/reports/cashback", s.handleCashback)

	// Router middleware only runs on matched routes.
	unmatched := func(status int, msg string) http.Handler {
		return s.tracer.Middleware(headers.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, r, status, errorBody{Error: msg, RequestID: trace.GetRequestID(r.Context())})
		})))
	}
	r.NotFoundHandler = unmatched(http.StatusNotFound, "not found")
	r.MethodNotAllowedHandler = unmatched(http.StatusMethodNotAllowed, "method not allowed")

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Metrics returns the request counters.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
