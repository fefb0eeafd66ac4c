package middleware

import (
	"net/http"

	"github.com/baharkarakas/blog-backend/internal/api/httpx"
	"github.com/baharkarakas/blog-backend/internal/apperr"
	"github.com/baharkarakas/blog-backend/internal/models"
)

const MsgAdminRequired = "Admin access required"

// RBAC allows only the given roles. It reads the user Protect put in the
// context and never anything the client sent.
func RBAC(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r.Context())
			if !ok {
				httpx.WriteAppError(w, apperr.Unauthorized(MsgMissingToken))
				return
			}
			if _, ok := allowed[u.Role]; !ok {
				httpx.WriteAppError(w, apperr.Forbidden(forbiddenMsg(roles)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole wraps a handler and allows only the given role.
func RequireRole(need models.Role) func(http.Handler) http.Handler {
	return RBAC(need)
}

func forbiddenMsg(roles []models.Role) string {
	if len(roles) == 1 && roles[0] == models.RoleAdmin {
		return MsgAdminRequired
	}
	return "Insufficient permissions"
}
