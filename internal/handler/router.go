package handler

import (
	"net/http"
	"time"

	"github.com/financeiro-leve/ledger-go/internal/infra/observability"
	"github.com/financeiro-leve/ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(finSvc *service.FinanceService, authSvc *service.AuthService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(finSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Accounts
		// =============================================
		r.Get("/accounts", listAccountsHandler(finSvc, logger))
		r.Post("/accounts", createAccountHandler(finSvc, logger))
		r.Put("/accounts/{accountId}", updateAccountHandler(finSvc, logger))
		r.Delete("/accounts/{accountId}", deleteAccountHandler(finSvc, logger))

		// =============================================
		// Cards
		// =============================================
		r.Get("/cards", listCardsHandler(finSvc, logger))
		r.Post("/cards", createCardHandler(finSvc, logger))
		r.Put("/cards/{cardId}", updateCardHandler(finSvc, logger))
		r.Delete("/cards/{cardId}", deleteCardHandler(finSvc, logger))

		// =============================================
		// Transactions
		// =============================================
		r.Get("/transactions", listTransactionsHandler(finSvc, logger))
		r.Post("/transactions", createTransactionHandler(finSvc, logger))
		r.Put("/transactions/{transactionId}", updateTransactionHandler(finSvc, logger))
		r.Delete("/transactions/{transactionId}", deleteTransactionHandler(finSvc, logger))
		r.Post("/transactions/{transactionId}/toggle", toggleTransactionHandler(finSvc, logger))

		// =============================================
		// Month view (gated)
		// GET /v1/months/{month} — month as 2006-01
		// =============================================
		r.Get("/months/{month}", monthViewHandler(finSvc, logger))

		// =============================================
		// Backup
		// =============================================
		r.Get("/backup/export", backupExportHandler(finSvc, logger))
		r.Post("/backup/import", backupImportHandler(finSvc, logger))

		// =============================================
		// Config & PRO
		// =============================================
		r.Get("/config", getConfigHandler(finSvc, logger))
		r.Put("/config/theme", updateThemeHandler(finSvc, logger))
		r.Post("/config/snooze", snoozeFreeModalHandler(finSvc, logger))
		r.Post("/pro/request", requestActivationHandler(finSvc, logger))
		r.Post("/pro/activate", activateProHandler(finSvc, logger))

		// =============================================
		// Metrics summary
		// =============================================
		r.Get("/metrics/summary", metricsSummaryHandler(metrics))

		// =============================================
		// Auth & sync
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/google", authGoogleHandler(authSvc, logger))
			r.Get("/me", authMeHandler(authSvc, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(authSvc, logger))
				r.Post("/logout", authLogoutHandler(authSvc, logger))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))
			r.Post("/sync/pull", syncPullHandler(finSvc, logger))
		})
	})

	return r
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(finSvc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status := "healthy"
		start := time.Now()
		if _, err := finSvc.GetConfig(ctx); err != nil {
			logger.Warn("healthz: storage check failed", zap.Error(err))
			status = "degraded"
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":             status,
			"storage_latency_ms": time.Since(start).Milliseconds(),
			"checked_at":         time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetOpsSummary())
	}
}
