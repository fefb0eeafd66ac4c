package middleware

import (
	"context"

	"github.com/baharkarakas/blog-backend/internal/models"
)

type userKey struct{}

// UserCtx is the authenticated caller, resolved from the store by Protect.
type UserCtx struct {
	ID       string
	Username string
	Email    string
	Role     models.Role
}

func WithUser(ctx context.Context, u UserCtx) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func CurrentUser(ctx context.Context) (UserCtx, bool) {
	u, ok := ctx.Value(userKey{}).(UserCtx)
	return u, ok
}
