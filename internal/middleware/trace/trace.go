// Package trace assigns request IDs and records request completion in logs
// and metrics.
package trace

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"billreminder/internal/log"
	"billreminder/internal/metrics"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

type contextKey string

// RequestIDKey is the context key for request ID
const RequestIDKey contextKey = "request_id"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Middleware handles request tracing and logging
type Middleware struct {
	logger    *log.Logger
	metrics   *metrics.Metrics
	extractIP func(*http.Request) string
	now       func() time.Time
}

// NewMiddleware creates a new trace middleware. m may be nil.
func NewMiddleware(logger *log.Logger, m *metrics.Metrics, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		logger:    logger,
		metrics:   m,
		extractIP: extractIP,
		now:       time.Now,
	}
}

// Handler returns HTTP middleware for request tracing
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(requestID) {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		logger := m.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, logger)
		r = r.WithContext(ctx)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := m.now().Sub(start)

		log.NewStructuredLogger(logger).LogHTTPEnd(ctx, r, status, elapsed.Milliseconds(), clientIP)
		m.metrics.ObserveHTTP(routePattern(r), r.Method, status, elapsed)
	})
}

// routePattern keeps metric labels bounded by using the matched chi route
// rather than the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
