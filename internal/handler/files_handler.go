package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jeongsim/accounting-api/internal/port"
	"github.com/jeongsim/accounting-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// 파일 업로드 — POST /v1/files
// ============================================================

func uploadFileHandler(uploader port.EvidenceUploader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/files")
		defer span.End()

		var req struct {
			FileName   string `json:"fileName"`
			Base64Data string `json:"base64Data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Base64Data == "" {
			writeError(w, http.StatusBadRequest, "base64Data is required")
			return
		}

		url, err := uploader.UploadEvidence(ctx, req.Base64Data, req.FileName)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"url": url})
	}
}

// ============================================================
// 정합성 점검 — POST /v1/admin/reconcile
// ============================================================

func reconcileHandler(snap *service.SnapshotService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/reconcile")
		defer span.End()

		data, err := snap.Reconcile(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"result":       "reconciled",
			"transactions": len(data.Transactions),
			"donations":    len(data.Donations),
		})
	}
}
