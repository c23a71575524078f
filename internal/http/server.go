package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"saldo/internal/cache"
	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/trace"
	"saldo/internal/services"
)

// Server serves the ledger JSON API. Period balances are cached with a short
// TTL; any fact mutation clears the whole cache because carry-over makes
// every later period depend on every earlier fact.
type Server struct {
	http.Server
	ledger   *services.LedgerService
	accounts *services.AccountService

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	balanceCache *cache.LRUCache[core.PeriodBalance]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, accounts *services.AccountService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:       ledger,
		accounts:     accounts,
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		balanceCache: cache.NewLRUCache[core.PeriodBalance](100, 30*time.Second),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.balanceCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/balance", s.withSecurity(s.handlePeriodBalance))
	mux.HandleFunc("GET /api/entries", s.withSecurity(s.handlePeriodEntries))

	mux.HandleFunc("POST /api/expenses", s.withSecurity(s.handleCreateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withSecurity(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/recurring", s.withSecurity(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.withSecurity(s.handleCreateRecurring))
	mux.HandleFunc("POST /api/recurring/{id}/active", s.withSecurity(s.handleSetRecurringActive))

	mux.HandleFunc("PUT /api/salaries", s.withSecurity(s.handleUpsertSalary))
	mux.HandleFunc("POST /api/incomes", s.withSecurity(s.handleCreateExtraIncome))
	mux.HandleFunc("POST /api/invoices", s.withSecurity(s.handleCreateInvoice))
	mux.HandleFunc("POST /api/invoices/{id}/paid", s.withSecurity(s.handleSetInvoicePaid))

	mux.HandleFunc("GET /api/accounts", s.withSecurity(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.withSecurity(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts/{id}/balance", s.withSecurity(s.handleAccountBalance))
	mux.HandleFunc("POST /api/accounts/{id}/adjustments", s.withSecurity(s.handleCreateAdjustment))
	mux.HandleFunc("POST /api/transfers", s.withSecurity(s.handleCreateTransfer))

	mux.HandleFunc("GET /api/settings/start-day", s.withSecurity(s.handleGetStartDay))
	mux.HandleFunc("PUT /api/settings/start-day", s.withSecurity(s.handleSetStartDay))

	// Middleware chain, outermost first: context logger, request tracing,
	// request-id enrichment (must run inside tracing to see the id).
	var handler http.Handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(mux)
	handler = trace.NewMiddleware(extractClientIP).Middleware(handler)
	handler = applog.Middleware(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP))(handler)
	s.Server.Handler = handler

	return s
}

// withSecurity adds security headers, threat detection, and rate limiting.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		logger := applog.FromContext(r.Context())

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(r.Context(), "Suspicious request blocked",
				"client_ip", clientIP,
				"method", r.Method,
				"path", r.URL.Path)
			NewResponse().Status(http.StatusForbidden).Error("forbidden", "request blocked").Write(w)
			return
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"path", r.URL.Path)
			NewResponse().
				Status(http.StatusTooManyRequests).
				Header("Retry-After", "60").
				Error("rate_limited", "rate limit exceeded, try again later").
				Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// resolveStartDay reads the optional start_day query override, falling back
// to the persisted preference.
func (s *Server) resolveStartDay(r *http.Request) (int, error) {
	if v := strings.TrimSpace(r.URL.Query().Get("start_day")); v != "" {
		day, err := strconv.Atoi(v)
		if err != nil {
			return 0, core.ErrInvalidStartDay
		}
		if err := core.ValidateStartDay(day); err != nil {
			return 0, err
		}
		return day, nil
	}
	return s.ledger.MonthStartDay(r.Context())
}

// invalidateBalances drops every cached balance. Carry-over chains make
// partial invalidation incorrect.
func (s *Server) invalidateBalances() {
	s.balanceCache.Clear()
}

func balanceCacheKey(periodKey string, startDay int) string {
	return periodKey + "/" + strconv.Itoa(startDay)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
