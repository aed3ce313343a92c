package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilan/internal/cache"
	"bilan/internal/core"
	"bilan/internal/ledger"
	"bilan/internal/log"
	"bilan/internal/middleware/ratelimit"
	"bilan/internal/middleware/security"
	"bilan/internal/middleware/trace"
	"bilan/internal/services"
)

// Deps carries what the handlers need. Reports and Statements are optional.
type Deps struct {
	Ledger     *services.LedgerService
	Totals     *services.TotalsService
	History    *services.HistoryService
	Store      ledger.Reader
	Statements ledger.StatementStore
	Reports    *cache.ReportCache
	Ping       func(ctx context.Context) error
	Logger     *log.Logger
	Currency   string
	Title      string
	RateLimit  ratelimit.Config
}

type Server struct {
	http.Server
	ledger     *services.LedgerService
	totals     *services.TotalsService
	history    *services.HistoryService
	store      ledger.Reader
	statements ledger.StatementStore
	reports    *cache.ReportCache
	ping       func(ctx context.Context) error
	logger     *log.Logger
	currency   string
	title      string
	today      func() core.Date

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	rl := deps.RateLimit
	if rl.RequestsPerMinute <= 0 {
		rl = ratelimit.DefaultConfig()
	}

	detector := security.NewDetector()
	s := &Server{
		ledger:     deps.Ledger,
		totals:     deps.Totals,
		history:    deps.History,
		store:      deps.Store,
		statements: deps.Statements,
		reports:    deps.Reports,
		ping:       deps.Ping,
		logger:     logger.WithComponent(log.ComponentHTTP),
		currency:   deps.Currency,
		title:      deps.Title,
		today:      core.Today,
		limiter:    ratelimit.NewLimiter(rl),
		detector:   detector,
		tracer:     trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})

	var h http.Handler = mux
	h = limit(h)
	h = detector.Middleware(h)
	h = headers.Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/items", s.handleListItems)
	mux.HandleFunc("POST /api/items", s.handleCreateItem)
	mux.HandleFunc("DELETE /api/items", s.handleDeleteAllItems)
	mux.HandleFunc("PUT /api/items/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", s.handleDeleteItem)
	mux.HandleFunc("GET /api/items/{id}/margin", s.handleItemMargin)
	mux.HandleFunc("GET /api/margin", s.handleMargin)

	mux.HandleFunc("GET /api/sales", s.handleListSales)
	mux.HandleFunc("PUT /api/sales", s.handleSaveSale)
	mux.HandleFunc("PUT /api/days/{date}/sales", s.handleSaveSales)
	mux.HandleFunc("POST /api/days/{date}/reset", s.handleResetDay)
	mux.HandleFunc("DELETE /api/days/{date}", s.handleDeleteDay)

	mux.HandleFunc("GET /api/charges", s.handleListCharges)
	mux.HandleFunc("POST /api/charges", s.handleAddCharge)
	mux.HandleFunc("DELETE /api/charges/{id}", s.handleDeleteCharge)
	mux.HandleFunc("GET /api/fixed-charges", s.handleGetFixedCharges)
	mux.HandleFunc("PUT /api/fixed-charges", s.handleSaveFixedCharges)
	mux.HandleFunc("GET /api/salaries", s.handleListSalaries)
	mux.HandleFunc("POST /api/salaries", s.handleAddSalary)
	mux.HandleFunc("DELETE /api/salaries/{id}", s.handleDeleteSalary)

	mux.HandleFunc("GET /api/daily-totals", s.handleDailyTotals)
	mux.HandleFunc("POST /api/daily-totals", s.handleDailyTotalsAdHoc)
	mux.HandleFunc("GET /api/statements", s.handleStatement)
	mux.HandleFunc("GET /api/statements/snapshot", s.handleStatementSnapshot)
	mux.HandleFunc("GET /api/statements/export.csv", s.handleStatementCSV)
	mux.HandleFunc("GET /api/reports", s.handleReport)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/export.csv", s.handleHistoryCSV)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics gathers the middleware counters for the status endpoint.
type Metrics struct {
	Requests  trace.Metrics             `json:"requests"`
	Security  security.DetectionMetrics `json:"security"`
	RateLimit ratelimit.Metrics         `json:"rate_limit"`
}

func (s *Server) Metrics() Metrics {
	return Metrics{
		Requests:  s.tracer.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "backend unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]any{
		"status":  "ready",
		"metrics": s.Metrics(),
	}).Write(w)
}
