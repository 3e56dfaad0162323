// Package http serves the household ledger as a local JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "conti/internal/log"
	"conti/internal/metrics"
	"conti/internal/middleware/ratelimit"
	"conti/internal/middleware/security"
	"conti/internal/middleware/trace"
	"conti/internal/services"
)

// ReadinessCheck reports whether dependencies are usable.
type ReadinessCheck func(ctx context.Context) error

// Options configures optional server collaborators.
type Options struct {
	Logger    *applog.Logger
	Metrics   *metrics.Metrics
	RateLimit ratelimit.Config
	Ready     ReadinessCheck
}

type Server struct {
	http.Server
	household *services.Household
	logger    *applog.Logger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	ready     ReadinessCheck
}

// NewServer wires the router for addr. The returned server is not started.
func NewServer(addr string, household *services.Household, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	s := &Server{
		household: household,
		logger:    opts.Logger.WithComponent(applog.ComponentHTTP),
		metrics:   opts.Metrics,
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		ready:     opts.Ready,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	clientIP := security.NewClientIP()

	r := chi.NewRouter()
	r.Use(trace.Middleware)
	r.Use(applog.Middleware(s.logger, trace.FromRequest))
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.limiter.Middleware(clientIP.Extract, s.rateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Post("/transactions/quick", s.handleQuickAdd)
		r.Post("/transactions/{id}/pay", s.handlePay)
		r.Post("/transactions/{id}/unpay", s.handleUnpay)
		r.Post("/transactions/{id}/duplicate", s.handleDuplicate)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Get("/reports/{month}", s.handleReport)

		r.Get("/budgets/{month}", s.handleBudgetStatus)
		r.Put("/budgets", s.handleSetBudget)

		r.Get("/fixed-bills", s.handleListFixedBills)
		r.Post("/fixed-bills", s.handleAddFixedBill)
		r.Get("/fixed-bills/due", s.handleDueFixedBills)
		r.Delete("/fixed-bills/{id}", s.handleRemoveFixedBill)
		r.Get("/bills/pending", s.handlePendingBills)

		r.Get("/settlements", s.handleSettlementHistory)
		r.Get("/settlements/{month}", s.handlePreviewSettlement)
		r.Post("/settlements/{month}", s.handleConfirmSettlement)

		r.Put("/preferences/user", s.handleSetCurrentUser)
		r.Put("/preferences/theme", s.handleSetTheme)

		r.Get("/export", s.handleExport)
	})
	return r
}

// observe records request duration by route pattern, so ids in paths do not
// explode label cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordRequest(r.Method, route, status, time.Since(start))
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.IncrRateLimited()
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
