package http

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"famfin/internal/auth"
	"famfin/internal/log"
	"famfin/internal/middleware/ratelimit"
	"famfin/internal/middleware/security"
	"famfin/internal/middleware/trace"
	"famfin/internal/services"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	// TrustedProxies are the CIDRs whose forwarded headers name the client.
	TrustedProxies []string
}

type Server struct {
	http.Server
	svc         *services.Service
	tokens      *auth.TokenIssuer
	logger      *log.Logger
	detector    *security.Detector
	rateLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc *services.Service, tokens *auth.TokenIssuer, logger *log.Logger) (*Server, error) {
	detector, err := security.NewDetector(cfg.TrustedProxies...)
	if err != nil {
		return nil, err
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:         svc,
		tokens:      tokens,
		logger:      logger,
		detector:    detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
	}
	s.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})

	r.Use(
		log.Middleware(s.logger),
		trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware,
		log.RequestIDMiddleware(trace.RequestID),
		s.detector.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
	)

	r.Handle("/healthz", methods{http.MethodGet: handleHealth})
	r.Handle("/readyz", methods{http.MethodGet: s.handleReady})

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit))

	public := api.PathPrefix("/auth").Subrouter()
	public.Use(log.ComponentMiddleware(log.ComponentAuth))
	public.Handle("/register", methods{http.MethodPost: s.handleRegister})
	public.Handle("/login", methods{http.MethodPost: s.handleLogin})

	p := api.NewRoute().Subrouter()
	p.Use(s.requireAuth)

	p.Handle("/accounts", methods{http.MethodGet: s.handleListAccounts, http.MethodPost: s.handleCreateAccount})
	p.Handle("/accounts/{id}", methods{http.MethodPut: s.handleUpdateAccount, http.MethodDelete: s.handleDeleteAccount})

	p.Handle("/transactions", methods{http.MethodGet: s.handleListTransactions, http.MethodPost: s.handleCreateTransaction})
	p.Handle("/transactions/{id}", methods{http.MethodDelete: s.handleDeleteTransaction})

	p.Handle("/family-members", methods{http.MethodGet: s.handleListFamilyMembers, http.MethodPost: s.handleCreateFamilyMember})
	p.Handle("/family-members/{id}", methods{http.MethodDelete: s.handleDeleteFamilyMember})

	p.Handle("/cards", methods{http.MethodGet: s.handleListCards, http.MethodPost: s.handleCreateCard})
	p.Handle("/cards/{id}", methods{http.MethodGet: s.handleGetCard, http.MethodDelete: s.handleDeleteCard})
	p.Handle("/cards/{id}/purchases", methods{http.MethodGet: s.handleListPurchases, http.MethodPost: s.handleCreatePurchase})
	p.Handle("/cards/{id}/purchases/{pid}/pay", methods{http.MethodPost: s.handlePayInstallment})

	p.Handle("/loans", methods{http.MethodGet: s.handleListLoans, http.MethodPost: s.handleCreateLoan})
	p.Handle("/loans/{id}", methods{http.MethodGet: s.handleGetLoan, http.MethodDelete: s.handleDeleteLoan})
	p.Handle("/loans/{id}/pay", methods{http.MethodPost: s.handlePayLoan})

	p.Handle("/third-party-loans", methods{http.MethodGet: s.handleListThirdPartyLoans, http.MethodPost: s.handleCreateThirdPartyLoan})
	p.Handle("/third-party-loans/{id}", methods{http.MethodGet: s.handleGetThirdPartyLoan, http.MethodDelete: s.handleDeleteThirdPartyLoan})
	p.Handle("/third-party-loans/{id}/payments", methods{http.MethodPost: s.handleAddThirdPartyPayment})
	p.Handle("/third-party-loans/{id}/payments/{pid}", methods{http.MethodDelete: s.handleDeleteThirdPartyPayment})

	p.Handle("/budgets", methods{http.MethodGet: s.handleListBudgets, http.MethodPost: s.handleCreateBudget})
	p.Handle("/budgets/{id}", methods{http.MethodPut: s.handleUpdateBudget, http.MethodDelete: s.handleDeleteBudget})

	p.Handle("/goals", methods{http.MethodGet: s.handleListGoals, http.MethodPost: s.handleCreateGoal})
	p.Handle("/goals/{id}/contribute", methods{http.MethodPost: s.handleContributeGoal})
	p.Handle("/goals/{id}", methods{http.MethodDelete: s.handleDeleteGoal})

	p.Handle("/fixed-expenses", methods{http.MethodGet: s.handleListFixedExpenses, http.MethodPost: s.handleCreateFixedExpense})
	p.Handle("/fixed-expenses/{id}/pay", methods{http.MethodPost: s.handlePayFixedExpense})
	p.Handle("/fixed-expenses/{id}", methods{http.MethodDelete: s.handleDeleteFixedExpense})

	p.Handle("/calculators/amortization", methods{http.MethodPost: s.handleAmortization})
	p.Handle("/calculators/payoff", methods{http.MethodPost: s.handlePayoff})

	p.Handle("/reports/health", methods{http.MethodGet: s.handleHealthReport})
	p.Handle("/reports/summary", methods{http.MethodGet: s.handleSummaryReport})
	p.Handle("/reports/debts", methods{http.MethodGet: s.handleDebtReport})
	p.Handle("/dashboard", methods{http.MethodGet: s.handleDashboard})

	return r
}

// methods dispatches one path by HTTP method. Each path is registered once,
// so a known path with an unknown method answers 405 with an Allow header.
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	w.Header().Set("Allow", strings.Join(m.allowed(), ", "))
	ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
}

func (m methods) allowed() []string {
	allowed := make([]string, 0, len(m))
	for method := range m {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	return allowed
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.NewFields().
			WithErrorType(log.ErrorTypeRateLimit).
			WithClientIP(s.detector.ExtractClientIP(r)).
			WithHTTPRequest(r.Method, r.URL.Path, "", "", "").
			ToSlice()...)
	TooManyRequestsError().Write(w)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports 503 while the database cannot be reached.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "database unavailable").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// deleteByID runs del for the {id} route variable and answers 204.
func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, userID, id int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := del(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
