package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/blog-backend/internal/models"
	"github.com/baharkarakas/blog-backend/internal/repository"
)

// tickingClock advances one minute per call so ordering is deterministic.
func tickingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestUsers_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	_, err := repos.Users.Create(ctx, models.User{Username: "jane", Email: "jane@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repos.Users.Create(ctx, models.User{Username: "other", Email: "jane@example.com", PasswordHash: "h"})
	field, ok := repository.DuplicateField(err)
	require.True(t, ok)
	assert.Equal(t, "email", field)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = repos.Users.Create(ctx, models.User{Username: "jane", Email: "other@example.com", PasswordHash: "h"})
	field, ok = repository.DuplicateField(err)
	require.True(t, ok)
	assert.Equal(t, "username", field)
}

func TestUsers_CreateDefaultsRoleAndID(t *testing.T) {
	repos := New().Repositories()
	u, err := repos.Users.Create(context.Background(), models.User{Username: "a", Email: "a@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUsers_UpdateProfileAndDelete(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()
	a, _ := repos.Users.Create(ctx, models.User{Username: "a", Email: "a@example.com"})
	_, _ = repos.Users.Create(ctx, models.User{Username: "b", Email: "b@example.com"})

	_, err := repos.Users.UpdateProfile(ctx, a.ID, "b", "a@example.com")
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	updated, err := repos.Users.UpdateProfile(ctx, a.ID, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)

	require.NoError(t, repos.Users.Delete(ctx, a.ID))
	_, err = repos.Users.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repos.Users.Delete(ctx, a.ID), repository.ErrNotFound)
}

func TestPosts_SlugUniqueAndDelete(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	_, err := repos.Posts.Create(ctx, models.Post{Title: "A", Slug: "a"})
	require.NoError(t, err)
	_, err = repos.Posts.Create(ctx, models.Post{Title: "A again", Slug: "a"})
	field, _ := repository.DuplicateField(err)
	assert.Equal(t, "slug", field)

	exists, _ := repos.Posts.ExistsBySlug(ctx, "a")
	assert.True(t, exists)

	deleted, err := repos.Posts.DeleteBySlug(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", deleted.Title)

	_, err = repos.Posts.GetBySlug(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repos.Posts.DeleteBySlug(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPosts_SearchNewestFirstAndBounded(t *testing.T) {
	ctx := context.Background()
	repos := New().WithClock(tickingClock()).Repositories()

	for i := 0; i < 12; i++ {
		_, err := repos.Posts.Create(ctx, models.Post{
			Title:    fmt.Sprintf("Finding focus %d", i),
			Slug:     fmt.Sprintf("finding-focus-%d", i),
			Category: models.CategoryMindset,
		})
		require.NoError(t, err)
	}
	_, _ = repos.Posts.Create(ctx, models.Post{Title: "Unrelated", Slug: "unrelated", Category: models.CategoryStrategy})

	got, err := repos.Posts.Search(ctx, "FIN", 10)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, "finding-focus-11", got[0].Slug)
	assert.Equal(t, "finding-focus-2", got[9].Slug)

	byCategory, _ := repos.Posts.Search(ctx, "strat", 10)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "unrelated", byCategory[0].Slug)
}

func TestPosts_ListFilterAndPaging(t *testing.T) {
	ctx := context.Background()
	repos := New().WithClock(tickingClock()).Repositories()
	_, _ = repos.Posts.Create(ctx, models.Post{Slug: "a", Category: models.CategoryFinance})
	_, _ = repos.Posts.Create(ctx, models.Post{Slug: "b", Category: models.CategoryMindset})
	_, _ = repos.Posts.Create(ctx, models.Post{Slug: "c", Category: models.CategoryFinance})

	all, _ := repos.Posts.List(ctx, repository.PostFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Slug)

	finance, _ := repos.Posts.List(ctx, repository.PostFilter{Category: models.CategoryFinance})
	require.Len(t, finance, 2)

	second, _ := repos.Posts.List(ctx, repository.PostFilter{Limit: 1, Offset: 1})
	require.Len(t, second, 1)
	assert.Equal(t, "b", second[0].Slug)

	empty, _ := repos.Posts.List(ctx, repository.PostFilter{Offset: 10})
	assert.Empty(t, empty)
}

func TestSavedPosts(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()
	u, _ := repos.Users.Create(ctx, models.User{Username: "a", Email: "a@example.com"})
	p1, _ := repos.Posts.Create(ctx, models.Post{Slug: "one"})
	p2, _ := repos.Posts.Create(ctx, models.Post{Slug: "two"})

	require.NoError(t, repos.SavedPosts.Save(ctx, u.ID, p1.ID))
	require.NoError(t, repos.SavedPosts.Save(ctx, u.ID, p2.ID))
	require.NoError(t, repos.SavedPosts.Save(ctx, u.ID, p1.ID))
	assert.ErrorIs(t, repos.SavedPosts.Save(ctx, u.ID, "missing"), repository.ErrNotFound)

	saved, _ := repos.SavedPosts.ListByUser(ctx, u.ID)
	require.Len(t, saved, 2)
	assert.Equal(t, "two", saved[0].Slug)

	_, _ = repos.Posts.DeleteBySlug(ctx, "two")
	require.NoError(t, repos.SavedPosts.Remove(ctx, u.ID, p1.ID))
	saved, _ = repos.SavedPosts.ListByUser(ctx, u.ID)
	assert.Empty(t, saved)
}
