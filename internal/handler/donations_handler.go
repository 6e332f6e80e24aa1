package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jeongsim/accounting-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 기부금 영수증 — list, serial, total, issue, email
// ============================================================

func listDonationsHandler(donationSvc *service.DonationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/donations")
		defer span.End()

		year := 0
		if v := r.URL.Query().Get("year"); v != "" {
			parsed, err := parseYearParam(v)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			year = parsed
		}

		donations, err := donationSvc.List(ctx, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"donations": donations})
	}
}

func nextSerialHandler(donationSvc *service.DonationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/donations/next-serial")
		defer span.End()

		year, err := parseYearParam(r.URL.Query().Get("year"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("target_year", year))

		serial, err := donationSvc.NextSerial(ctx, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"serialNumber": serial})
	}
}

func donationTotalHandler(donationSvc *service.DonationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/saints/{saintID}/donation-total")
		defer span.End()

		saintID := chi.URLParam(r, "saintID")
		year, err := parseYearParam(r.URL.Query().Get("year"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		total, err := donationSvc.DonationTotal(ctx, saintID, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"saintId":    saintID,
			"targetYear": year,
			"total":      total,
		})
	}
}

func issueDonationHandler(donationSvc *service.DonationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/donations")
		defer span.End()

		var req service.IssueDonationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := donationSvc.Issue(ctx, UserFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func sendReceiptMailHandler(donationSvc *service.DonationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/donations/{donationID}/email")
		defer span.End()

		donationID := chi.URLParam(r, "donationID")

		// Body is optional: an empty request mails the roster address
		// with the default rendering.
		var req service.SendReceiptMailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := donationSvc.SendReceiptMail(ctx, donationID, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"result": "sent"})
	}
}
