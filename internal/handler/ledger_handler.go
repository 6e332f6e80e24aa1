package handler

import (
	"net/http"

	"github.com/jeongsim/accounting-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 장부 조회 — snapshot, journal, summary, reports
// ============================================================

func snapshotHandler(snap *service.SnapshotService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/snapshot")
		defer span.End()

		var err error
		var data any
		if r.URL.Query().Get("refresh") == "true" {
			data, err = snap.Refresh(ctx)
		} else {
			data, err = snap.Snapshot(ctx)
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"data":      data,
			"connected": snap.Connected(),
		})
	}
}

func journalHandler(ledgerSvc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/journal")
		defer span.End()

		rows, err := ledgerSvc.Journal(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"journal": rows})
	}
}

func summaryHandler(ledgerSvc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/summary")
		defer span.End()

		start := r.URL.Query().Get("start")
		end := r.URL.Query().Get("end")
		if start == "" || end == "" {
			writeError(w, http.StatusBadRequest, "start and end are required")
			return
		}

		summary, err := ledgerSvc.Summarize(ctx, start, end)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func settlementHandler(ledgerSvc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/{year}")
		defer span.End()

		year, err := parseYearParam(chi.URLParam(r, "year"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("target_year", year))

		report, err := ledgerSvc.Settle(ctx, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func commentaryHandler(ledgerSvc *service.LedgerService, snap *service.SnapshotService, commentarySvc *service.CommentaryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reports/{year}/commentary")
		defer span.End()

		if commentarySvc == nil {
			writeError(w, http.StatusServiceUnavailable, "commentary unavailable: Gemini not configured")
			return
		}

		year, err := parseYearParam(chi.URLParam(r, "year"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		report, err := ledgerSvc.Settle(ctx, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		data, err := snap.Snapshot(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		text, err := commentarySvc.Generate(ctx, data.OrgInfo.Name, report)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"targetYear": year,
			"commentary": text,
		})
	}
}
