package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/middleware/ratelimit"
	"brankas/internal/middleware/security"
	"brankas/internal/middleware/trace"
	"brankas/internal/services"
	"brankas/internal/storage"
)

// Services are the application operations exposed over HTTP.
type Services struct {
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Planning     *services.PlanningService
	Profiles     *services.ProfileService
	Dashboard    *services.DashboardService
}

// Options tune the server. Zero values fall back to defaults.
type Options struct {
	Logger         *log.Logger
	RateLimit      int           // write requests per minute per client
	RequestTimeout time.Duration // per-request context deadline
	// FilesDir is served under /files/ when set; it backs the local object store.
	FilesDir string
	// Ready reports whether dependencies are reachable, for /readyz.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	svc         Services
	opts        Options
	logger      *log.Logger
	structLog   *log.StructuredLogger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	started     time.Time
	txCreated   atomic.Int64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:         svc,
		opts:        opts,
		logger:      logger,
		structLog:   log.NewStructuredLogger(logger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		detector:    security.NewDetector(),
		started:     time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.withTimeout(handler)
	handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit,
		http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       opts.RequestTimeout,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	if s.opts.FilesDir != "" {
		files := http.StripPrefix("/files/", http.FileServer(http.Dir(s.opts.FilesDir)))
		mux.Handle("GET /files/", security.StaticAssetMiddleware(86400)(files))
	}

	api := func(pattern string, h http.HandlerFunc) { mux.HandleFunc(pattern, requireUser(h)) }

	api("GET /api/accounts", s.handleListAccounts)
	api("POST /api/accounts", s.handleCreateAccount)
	api("GET /api/accounts/{id}", s.handleGetAccount)
	api("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	api("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	api("GET /api/accounts/{id}/stats", s.handleAccountStats)

	api("GET /api/transactions", s.handleListTransactions)
	api("POST /api/transactions", s.handleCreateTransaction)
	api("GET /api/transactions/export.csv", s.handleExportTransactions)
	api("GET /api/transactions/{id}", s.handleGetTransaction)
	api("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api("POST /api/transactions/{id}/struck", s.handleToggleStruck)
	api("POST /api/receipts", s.handleUploadReceipt)

	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories", s.handleCreateCategory)
	api("PATCH /api/categories/{id}", s.handleRenameCategory)
	api("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api("GET /api/budgets", s.handleListBudgets)
	api("POST /api/budgets", s.handleCreateBudget)
	api("PUT /api/budgets/{id}", s.handleUpdateBudget)
	api("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	api("GET /api/goals", s.handleListGoals)
	api("POST /api/goals", s.handleCreateGoal)
	api("PUT /api/goals/{id}", s.handleUpdateGoal)
	api("DELETE /api/goals/{id}", s.handleDeleteGoal)
	api("GET /api/debts", s.handleListDebts)
	api("POST /api/debts", s.handleCreateDebt)
	api("PUT /api/debts/{id}", s.handleUpdateDebt)
	api("DELETE /api/debts/{id}", s.handleDeleteDebt)

	api("GET /api/profile", s.handleGetProfile)
	api("PATCH /api/profile", s.handleUpdateProfile)
	api("POST /api/profile/avatar", s.handleUploadAvatar)
	api("GET /api/settings", s.handleGetSettings)
	api("PATCH /api/settings", s.handleUpdateSettings)

	api("GET /api/dashboard", s.handleDashboard)
}

// withTimeout bounds every request's context by the configured timeout.
func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// fail maps a service error onto a status code. Only unexpected errors are
// logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	var valErr *core.ValidationError
	switch {
	case errors.As(err, &reqErr):
		BadRequestError(reqErr.Error()).Write(w)
	case errors.As(err, &valErr):
		UnprocessableEntityError(valErr.Err.Error()).Field(valErr.Field).Write(w)
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError("not found").Write(w)
	case errors.Is(err, context.DeadlineExceeded):
		log.FromContext(r.Context()).WarnContext(r.Context(), "Request timed out", log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusServiceUnavailable, "request timed out").Write(w)
	default:
		s.structLog.LogRequestError(r.Context(), r, userID(r.Context()), err)
		InternalServerError("internal error").Write(w)
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

