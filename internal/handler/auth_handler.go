package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jeongsim/accounting-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// 인증 — POST /v1/auth/login, GET /v1/auth/me
// ============================================================

func loginHandler(sessionSvc *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req struct {
			ID       string `json:"id"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := sessionSvc.Login(ctx, req.ID, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func meHandler(sessionSvc *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/auth/me")
		defer span.End()

		sessionUser := UserFromContext(ctx)
		user, err := sessionSvc.Me(ctx, &service.JWTClaims{
			Sub:  sessionUser.ID,
			Name: sessionUser.Name,
			Role: string(sessionUser.Role),
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
