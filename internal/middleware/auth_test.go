package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/api/httpx"
	"github.com/baharkarakas/blog-backend/internal/auth"
	"github.com/baharkarakas/blog-backend/internal/models"
	"github.com/baharkarakas/blog-backend/internal/repository"
	"github.com/baharkarakas/blog-backend/internal/repository/memory"
)

type guardFixture struct {
	guard  *AuthMiddleware
	users  repository.Users
	tokens *auth.TokenManager
	now    time.Time
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	f := &guardFixture{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	f.tokens = auth.NewTokenManager(auth.TokenConfig{Secret: "s", Issuer: "blog-backend"},
		auth.WithClock(func() time.Time { return f.now }))
	f.users = memory.New().Repositories().Users
	f.guard = NewAuthMiddleware(f.tokens, f.users, zap.NewNop())
	return f
}

func (f *guardFixture) user(t *testing.T, role models.Role) (models.User, string) {
	t.Helper()
	u, err := f.users.Create(context.Background(), models.User{
		Username: string(role) + "-user", Email: string(role) + "@example.com", PasswordHash: "h", Role: role,
	})
	require.NoError(t, err)
	tok, _, err := f.tokens.Issue(u)
	require.NoError(t, err)
	return u, tok
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	u, _ := CurrentUser(r.Context())
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"id": u.ID, "role": string(u.Role), "username": u.Username})
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestProtect_AttachesResolvedUser(t *testing.T) {
	f := newGuardFixture(t)
	u, tok := f.user(t, models.RoleUser)

	rec := serve(f.guard.Protect(http.HandlerFunc(whoAmI)), "Bearer "+tok)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, u.ID, body["id"])
	assert.Equal(t, "user-user", body["username"])
}

func TestProtect_MissingToken(t *testing.T) {
	f := newGuardFixture(t)
	h := f.guard.Protect(http.HandlerFunc(whoAmI))

	for _, header := range []string{"", "Token abc", "Bearer ", "Basic dXNlcjpwYXNz"} {
		rec := serve(h, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, MsgMissingToken, errorOf(t, rec), header)
	}
}

func TestProtect_InvalidAndExpiredTokens(t *testing.T) {
	f := newGuardFixture(t)
	_, tok := f.user(t, models.RoleUser)
	h := f.guard.Protect(http.HandlerFunc(whoAmI))

	rec := serve(h, "Bearer "+tok+"x")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgInvalidToken, errorOf(t, rec))

	f.now = f.now.Add(25 * time.Hour)
	rec = serve(h, "bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgInvalidToken, errorOf(t, rec))
}

func TestProtect_DeletedUserLosesAccess(t *testing.T) {
	f := newGuardFixture(t)
	u, tok := f.user(t, models.RoleAdmin)
	h := f.guard.Protect(http.HandlerFunc(whoAmI))

	require.Equal(t, http.StatusOK, serve(h, "Bearer "+tok).Code)
	require.NoError(t, f.users.Delete(context.Background(), u.ID))

	rec := serve(h, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MsgUserNotFound, errorOf(t, rec))
}

func TestProtect_RoleComesFromStoreNotToken(t *testing.T) {
	f := newGuardFixture(t)
	u, tok := f.user(t, models.RoleAdmin)
	// demoted after the token was issued
	_ = f.users.Delete(context.Background(), u.ID)
	u.Role = models.RoleUser
	_, err := f.users.Create(context.Background(), u)
	require.NoError(t, err)

	rec := serve(f.guard.Protect(RequireRole(models.RoleAdmin)(http.HandlerFunc(whoAmI))), "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, strings.Contains(errorOf(t, rec), "Admin"))
}
