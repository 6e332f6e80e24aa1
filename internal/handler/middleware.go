package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const userKey contextKey = "user"

// JWTAuthMiddleware validates Bearer tokens and injects the session
// user into context. Handlers never guess the acting user from the
// payload; they read it from here.
func JWTAuthMiddleware(sessionSvc *service.SessionService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "로그인이 필요합니다.")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "유효하지 않은 토큰 형식입니다.")
				return
			}

			claims, err := sessionSvc.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			user := domain.User{
				ID:   claims.Sub,
				Name: claims.Name,
				Role: domain.Role(claims.Role),
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) domain.User {
	u, _ := ctx.Value(userKey).(domain.User)
	return u
}
