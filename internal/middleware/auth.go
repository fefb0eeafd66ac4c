// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/api/httpx"
	"github.com/baharkarakas/blog-backend/internal/apperr"
	"github.com/baharkarakas/blog-backend/internal/auth"
	"github.com/baharkarakas/blog-backend/internal/models"
	"github.com/baharkarakas/blog-backend/internal/repository"
)

const (
	MsgMissingToken = "Missing authorization token"
	MsgInvalidToken = "Invalid token"
	MsgUserNotFound = "User not found"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type AuthMiddleware struct {
	tokens TokenParser
	users  UserLookup
	log    *zap.Logger
}

func NewAuthMiddleware(tokens TokenParser, users UserLookup, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, log: log}
}

// Protect requires a valid bearer token whose subject still exists. The
// user is loaded on every request so deleted accounts lose access at once.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			httpx.WriteAppError(w, apperr.Unauthorized(MsgMissingToken))
			return
		}

		claims, err := m.tokens.Parse(token)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, auth.ErrTokenExpired) {
				reason = "expired"
			}
			m.log.Debug("token rejected", zap.String("reason", reason), zap.Error(err),
				zap.String("request_id", RequestIDFrom(r.Context())))
			httpx.WriteAppError(w, apperr.Unauthorized(MsgInvalidToken))
			return
		}

		u, err := m.users.GetByID(r.Context(), claims.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			httpx.WriteAppError(w, apperr.Unauthorized(MsgUserNotFound))
			return
		}
		if err != nil {
			m.log.Error("resolve token subject", zap.String("user_id", claims.UserID), zap.Error(err))
			httpx.WriteAppError(w, apperr.Server(err))
			return
		}

		ctx := WithUser(r.Context(), UserCtx{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
