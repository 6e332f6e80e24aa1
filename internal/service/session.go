package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeongsim/accounting-api/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

// SessionService authenticates against the approval-line roster and
// issues access tokens. Roster credentials live in cleartext in the
// backing sheet; the comparison here mirrors that contract exactly,
// including the single generic failure message.
type SessionService struct {
	snap      *SnapshotService
	jwtSecret []byte
	ttl       time.Duration
	logger    *zap.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(snap *SnapshotService, jwtSecret string, ttl time.Duration, logger *zap.Logger) *SessionService {
	return &SessionService{
		snap:      snap,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		logger:    logger,
	}
}

// LoginResult is the successful login response.
type LoginResult struct {
	AccessToken string      `json:"accessToken"`
	ExpiresIn   int         `json:"expiresIn"`
	User        domain.User `json:"user"`
}

const loginFailedMessage = "아이디 또는 비밀번호가 일치하지 않습니다."

// Login checks the submitted credentials against the roster. Both
// sides are trimmed before the exact comparison. Unknown id and wrong
// password return the same message so the two are indistinguishable.
func (s *SessionService) Login(ctx context.Context, id, password string) (*LoginResult, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Login")
	defer span.End()

	id = strings.TrimSpace(id)
	password = strings.TrimSpace(password)
	if id == "" || password == "" {
		return nil, &domain.ErrUnauthorized{Message: loginFailedMessage}
	}

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	for i, item := range data.ApprovalLine {
		if strings.TrimSpace(item.ID) != id || strings.TrimSpace(item.Password) != password {
			continue
		}

		user := domain.User{
			ID:      id,
			Name:    item.Name,
			Role:    rosterRole(item, i),
			SignURL: item.SignURL,
		}
		token, err := s.signAccessToken(user)
		if err != nil {
			return nil, fmt.Errorf("sign access token: %w", err)
		}

		s.logger.Info("user logged in",
			zap.String("user_id", user.ID),
			zap.String("role", string(user.Role)),
		)
		return &LoginResult{
			AccessToken: token,
			ExpiresIn:   int(s.ttl.Seconds()),
			User:        user,
		}, nil
	}

	s.logger.Warn("login failed", zap.String("user_id", id))
	return nil, &domain.ErrUnauthorized{Message: loginFailedMessage}
}

// Me resolves the current user from validated claims, refreshing the
// name and signature URL from the roster when the entry still exists.
func (s *SessionService) Me(ctx context.Context, claims *JWTClaims) (*domain.User, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Me")
	defer span.End()

	user := domain.User{
		ID:   claims.Sub,
		Name: claims.Name,
		Role: domain.Role(claims.Role),
	}

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return &user, nil
	}
	for _, item := range data.ApprovalLine {
		if strings.TrimSpace(item.ID) == claims.Sub {
			user.Name = item.Name
			user.SignURL = item.SignURL
			break
		}
	}
	return &user, nil
}

// rosterRole returns the entry's role value, falling back to the
// conventional position (담당, 사무국장, 원장) for sheets that never
// filled the role column.
func rosterRole(item domain.ApprovalLineItem, index int) domain.Role {
	if r := strings.TrimSpace(item.Role); r != "" {
		return domain.Role(r)
	}
	switch index {
	case 0:
		return domain.RolePreparer
	case 1:
		return domain.RoleSecretaryGeneral
	case 2:
		return domain.RoleDirector
	}
	return ""
}

// ============================================================
// JWT
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
	Role string `json:"role"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func (s *SessionService) signAccessToken(user domain.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:  user.ID,
		Name: user.Name,
		Role: string(user.Role),
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "accounting-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateAccessToken parses and verifies an access token. Used by the
// auth middleware.
func (s *SessionService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "세션이 만료되었습니다. 다시 로그인해 주세요."}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "유효하지 않은 토큰입니다."}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "유효하지 않은 토큰입니다."}
	}
	return claims, nil
}
