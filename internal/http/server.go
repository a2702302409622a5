// Package http exposes the JSON API: dashboard summary, period analytics,
// narrative generation and the resource CRUD endpoints.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/smilior/kakeibo/internal/log"
	"github.com/smilior/kakeibo/internal/services"
	"github.com/smilior/kakeibo/internal/storage"
)

type Server struct {
	httpServer *http.Server
	expenses   *services.ExpenseService
	dashboard  *services.DashboardService
	analytics  *services.AnalyticsService
	repo       *storage.Repository
	logger     *log.Logger
}

func NewServer(addr string, expenses *services.ExpenseService, dashboard *services.DashboardService, analytics *services.AnalyticsService, repo *storage.Repository, logger *log.Logger) *Server {
	s := &Server{
		expenses:  expenses,
		dashboard: dashboard,
		analytics: analytics,
		repo:      repo,
		logger:    logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/dashboard/summary", s.requireMethod(http.MethodGet, s.handleDashboardSummary))
	mux.HandleFunc("/api/analytics/period", s.requireMethod(http.MethodGet, s.handlePeriodAnalytics))
	mux.HandleFunc("/api/analytics/yearly", s.requireMethod(http.MethodGet, s.handleYearlyOverview))
	mux.HandleFunc("/api/narratives/generate", s.requireMethod(http.MethodPost, s.handleGenerateNarrative))

	mux.HandleFunc("/api/expenses", s.handleExpenses)
	mux.HandleFunc("/api/expenses/bulk", s.requireMethod(http.MethodPost, s.handleBulkExpenses))
	mux.HandleFunc("/api/expenses/", s.handleExpenseByID)

	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/presets/", s.handlePresetByID)
	mux.HandleFunc("/api/preset-items", s.handlePresetItems)
	mux.HandleFunc("/api/preset-items/", s.handlePresetItemByID)

	mux.HandleFunc("/api/rules", s.handleRules)
	mux.HandleFunc("/api/rules/", s.handleRuleByID)
	mux.HandleFunc("/api/trackers", s.handleTrackers)
	mux.HandleFunc("/api/trackers/", s.handleTrackerByID)
	mux.HandleFunc("/api/subscriptions", s.handleSubscriptions)
	mux.HandleFunc("/api/subscriptions/", s.handleSubscriptionByID)
	mux.HandleFunc("/api/family-members", s.handleFamilyMembers)
	mux.HandleFunc("/api/family-members/", s.handleFamilyMemberByID)
	mux.HandleFunc("/api/household", s.handleHousehold)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      log.Middleware(s.logger)(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // narrative generation can be slow
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
