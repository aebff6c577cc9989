// Package trace assigns request IDs and logs request completion.
package trace

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"spendview/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
	// HeaderRequestID carries the request ID in and out.
	HeaderRequestID = "X-Request-ID"

	maxIncomingIDLength = 64
)

// Middleware handles request tracing and logging
type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string
	metrics   Metrics
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests  int64
	FailedRequests int64
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		logger:    logger.WithComponent(log.ComponentHTTP),
		extractIP: extractIP,
	}
}

// Middleware tags the request with an ID, stores a logger carrying that ID in
// the context and logs the outcome.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	structured := log.NewStructuredLogger(m.logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := incomingRequestID(r)
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.IntoContext(ctx, m.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 500 {
			atomic.AddInt64(&m.metrics.FailedRequests, 1)
		}
		structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// incomingRequestID accepts a caller supplied ID when it is short and
// printable.
func incomingRequestID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
	if id == "" || len(id) > maxIncomingIDLength {
		return ""
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return ""
		}
	}
	return id
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:  atomic.LoadInt64(&m.metrics.TotalRequests),
		FailedRequests: atomic.LoadInt64(&m.metrics.FailedRequests),
	}
}
