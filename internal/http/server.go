// Package http exposes the bill operations as a JSON API on a chi router.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"billreminder/internal/core"
	"billreminder/internal/log"
	"billreminder/internal/metrics"
	"billreminder/internal/middleware/auth"
	"billreminder/internal/middleware/ratelimit"
	"billreminder/internal/middleware/security"
	"billreminder/internal/middleware/trace"
	"billreminder/internal/services"
)

// BillAPI is the slice of the bill service the handlers call.
type BillAPI interface {
	ListBills(ctx context.Context, ownerID string) ([]core.Bill, error)
	GetBill(ctx context.Context, ownerID string, id int64) (core.Bill, error)
	NewBillTemplate(today core.Date) core.BillInput
	CreateBill(ctx context.Context, owner core.Owner, in core.BillInput) (core.Bill, error)
	UpdateBill(ctx context.Context, ownerID string, id int64, in core.BillInput) (core.Bill, error)
	DeleteBill(ctx context.Context, ownerID string, id int64) error
	Dashboard(ctx context.Context, ownerID string, today core.Date) (core.Dashboard, error)
	Report(ctx context.Context, ownerID string, rng core.DateRange) (core.Report, error)
	ExportReport(ctx context.Context, ownerID string, rng core.DateRange, generatedAt time.Time) (services.ExportedReport, error)
	Ready(ctx context.Context) error
}

// Options configure the server beyond its collaborators.
type Options struct {
	Addr            string
	RateLimitPerMin int
	// Location decides which calendar day "today" is.
	Location *time.Location
	Now      func() time.Time
}

type Server struct {
	http.Server

	bills   BillAPI
	auth    *auth.Authenticator
	logger  *log.Logger
	metrics *metrics.Metrics
	limiter *ratelimit.Limiter
	loc     *time.Location
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer builds the router and wraps it in an http.Server. m may be nil.
func NewServer(opts Options, bills BillAPI, authn *auth.Authenticator, logger *log.Logger, m *metrics.Metrics) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		bills:   bills,
		auth:    authn,
		logger:  logger.WithComponent(log.ComponentHTTP),
		metrics: m,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMin}),
		loc:     opts.Location,
		now:     opts.Now,
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	ips := security.NewIPExtractor()

	r := chi.NewRouter()
	r.Use(trace.NewMiddleware(s.logger, s.metrics, ips.ClientIP).Handler)
	r.Use(chimw.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
		}))

		r.With(s.auth.Optional(s.unauthorized)).Get("/dashboard", s.handleDashboard)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Required(s.unauthorized))

			r.Route("/bills", func(r chi.Router) {
				r.Get("/", s.handleListBills)
				r.Post("/", s.handleCreateBill)
				r.Get("/new", s.handleNewBill)
				r.Get("/{id}", s.handleGetBill)
				r.Put("/{id}", s.handleUpdateBill)
				r.Delete("/{id}", s.handleDeleteBill)
			})
			r.Get("/reports", s.handleReport)
			r.Get("/reports/export", s.handleExportReport)
		})
	})

	return r
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	UnauthorizedError(err.Error()).Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.bills.Ready(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
		return
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

// today is the current calendar date in the configured location.
func (s *Server) today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

// writeError maps service errors to responses. Persistence failures never
// leak their cause.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		body := errorBody{Error: core.ErrValidation.Error()}
		for _, f := range ve.Fields {
			body.Fields = append(body.Fields, fieldBody{Field: f.Field, Message: f.Message})
		}
		NewJSONResponse().Status(http.StatusUnprocessableEntity).JSON(body).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(core.ErrNotFound.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.NewFields().WithOperation(op).WithError(err).WithErrorType(log.ErrorTypeInternal).ToSlice()...)
		InternalServerError(core.ErrPersistence.Error()).Write(w)
	}
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
