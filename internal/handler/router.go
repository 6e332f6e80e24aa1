// Package handler wires the HTTP surface: routing, middleware, and
// the translation between wire payloads and the service layer.
package handler

import (
	"net/http"

	"github.com/jeongsim/accounting-api/internal/infra/observability"
	"github.com/jeongsim/accounting-api/internal/port"
	"github.com/jeongsim/accounting-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router mounts. Commentary is
// optional; when nil its endpoint answers 503.
type Services struct {
	Snapshot     *service.SnapshotService
	Ledger       *service.LedgerService
	Transactions *service.TransactionService
	Donations    *service.DonationService
	Session      *service.SessionService
	Commentary   *service.CommentaryService
	Uploader     port.EvidenceUploader
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Snapshot))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 인증
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", loginHandler(svcs.Session, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(svcs.Session, logger))
				r.Get("/me", meHandler(svcs.Session, logger))
			})
		})

		// =============================================
		// 장부 (protected)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Session, logger))

			r.Get("/snapshot", snapshotHandler(svcs.Snapshot, logger))
			r.Get("/journal", journalHandler(svcs.Ledger, logger))
			r.Get("/summary", summaryHandler(svcs.Ledger, logger))
			r.Get("/reports/{year}", settlementHandler(svcs.Ledger, logger))
			r.Post("/reports/{year}/commentary", commentaryHandler(svcs.Ledger, svcs.Snapshot, svcs.Commentary, logger))

			r.Get("/transactions", listTransactionsHandler(svcs.Transactions, logger))
			r.Post("/transactions", createTransactionHandler(svcs.Transactions, logger))
			r.Post("/transactions/{txID}/approvals/{step}", toggleApprovalHandler(svcs.Transactions, logger))

			r.Get("/donations", listDonationsHandler(svcs.Donations, logger))
			r.Get("/donations/next-serial", nextSerialHandler(svcs.Donations, logger))
			r.Post("/donations", issueDonationHandler(svcs.Donations, logger))
			r.Post("/donations/{donationID}/email", sendReceiptMailHandler(svcs.Donations, logger))
			r.Get("/saints/{saintID}/donation-total", donationTotalHandler(svcs.Donations, logger))

			r.Post("/files", uploadFileHandler(svcs.Uploader, logger))
			r.Post("/admin/reconcile", reconcileHandler(svcs.Snapshot, logger))
		})

		// =============================================
		// 운영 지표
		// =============================================
		r.Get("/metrics/ops", opsMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(snap *service.SnapshotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		if !snap.Connected() {
			status = "degraded"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    status,
			"connected": snap.Connected(),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func opsMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetOpsSnapshot())
	}
}
