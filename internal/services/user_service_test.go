package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/apperr"
	"github.com/baharkarakas/blog-backend/internal/models"
	"github.com/baharkarakas/blog-backend/internal/repository/memory"
)

func TestUserService_ProfileAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := store.Repositories()
	svc := NewUserService(repos.Users, repos.AuditLogs, zap.NewNop())

	jane, _ := repos.Users.Create(ctx, models.User{Username: "jane", Email: "jane@example.com", PasswordHash: "h"})
	_, _ = repos.Users.Create(ctx, models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h"})

	p, err := svc.Profile(ctx, jane.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", p.Username)

	_, err = svc.Profile(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	updated, err := svc.UpdateProfile(ctx, jane.ID, UpdateProfileRequest{Email: " Jane.Doe@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "jane", updated.Username)
	assert.Equal(t, "jane.doe@example.com", updated.Email)

	_, err = svc.UpdateProfile(ctx, jane.ID, UpdateProfileRequest{Username: "bob"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, MsgUsernameTaken, err.Error())

	_, err = svc.UpdateProfile(ctx, jane.ID, UpdateProfileRequest{Email: "bob@example.com"})
	assert.Equal(t, MsgUserExists, err.Error())

	_, err = svc.UpdateProfile(ctx, jane.ID, UpdateProfileRequest{Email: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUserService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := store.Repositories()
	svc := NewUserService(repos.Users, repos.AuditLogs, zap.NewNop())

	jane, _ := repos.Users.Create(ctx, models.User{Username: "jane", Email: "jane@example.com", PasswordHash: "h"})
	_, _ = repos.Users.Create(ctx, models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h"})

	users, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, svc.Delete(ctx, "admin-1", jane.ID))
	assert.True(t, apperr.Is(svc.Delete(ctx, "admin-1", jane.ID), apperr.KindNotFound))

	users, _ = svc.List(ctx, 10, 0)
	assert.Len(t, users, 1)

	entries := store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditUserDeleted, entries[0].Action)
}
