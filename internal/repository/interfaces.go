package repository

import (
	"context"
	"errors"

	"github.com/baharkarakas/blog-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// DuplicateError is returned when the store's unique constraint rejects a
// write. Field names the violated column (email, username, slug).
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "duplicate " + e.Field }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// DuplicateField returns the violated field when err is a DuplicateError.
func DuplicateField(err error) (string, bool) {
	var d *DuplicateError
	if errors.As(err, &d) {
		return d.Field, true
	}
	return "", false
}

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateProfile(ctx context.Context, id, username, email string) (models.User, error)
	Delete(ctx context.Context, id string) error
}

type PostFilter struct {
	Category models.Category
	Limit    int
	Offset   int
}

type Posts interface {
	Create(ctx context.Context, p models.Post) (models.Post, error)
	GetBySlug(ctx context.Context, slug string) (models.Post, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f PostFilter) ([]models.Post, error)
	// Search matches q case-insensitively against title, description and
	// category, newest first.
	Search(ctx context.Context, q string, limit int) ([]models.Post, error)
	// DeleteBySlug returns the removed row so callers can release its thumbnail.
	DeleteBySlug(ctx context.Context, slug string) (models.Post, error)
}

type SavedPosts interface {
	Save(ctx context.Context, userID, postID string) error
	Remove(ctx context.Context, userID, postID string) error
	ListByUser(ctx context.Context, userID string) ([]models.Post, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Repositories struct {
	Users      Users
	Posts      Posts
	SavedPosts SavedPosts
	AuditLogs  AuditLogs
	Health     Pinger
}
