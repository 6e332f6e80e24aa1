package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 거래 — list, create, approvals
// ============================================================

func listTransactionsHandler(txSvc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		q := r.URL.Query()
		transactions, err := txSvc.List(ctx, q.Get("year"), q.Get("type"), q.Get("q"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
	}
}

func createTransactionHandler(txSvc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		var req service.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := txSvc.Create(ctx, UserFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func toggleApprovalHandler(txSvc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{txID}/approvals/{step}")
		defer span.End()

		txID := chi.URLParam(r, "txID")
		step := domain.ApprovalStep(chi.URLParam(r, "step"))
		span.SetAttributes(
			attribute.String("tx.id", txID),
			attribute.String("step", string(step)),
		)

		tx, err := txSvc.ToggleApproval(ctx, UserFromContext(ctx), txID, step)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}
