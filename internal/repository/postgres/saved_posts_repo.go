package postgres

import (
	"context"
	"errors"

	"github.com/baharkarakas/blog-backend/internal/models"
	"github.com/baharkarakas/blog-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type savedPostsRepo struct{ pool *pgxpool.Pool }

const foreignKeyViolation = "23503"

func (r *savedPostsRepo) Save(ctx context.Context, userID, postID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO saved_posts(user_id, post_id) VALUES($1,$2)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return repository.ErrNotFound
	}
	return err
}

func (r *savedPostsRepo) Remove(ctx context.Context, userID, postID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM saved_posts WHERE user_id=$1 AND post_id=$2`, userID, postID)
	return err
}

func (r *savedPostsRepo) ListByUser(ctx context.Context, userID string) ([]models.Post, error) {
	return collectPosts(r.pool.Query(ctx,
		`SELECT p.id, p.title, p.slug, p.description, p.category, p.content,
		        p.thumbnail, p.thumbnail_kind, p.created_at, p.updated_at
		   FROM saved_posts s
		   JOIN posts p ON p.id = s.post_id
		  WHERE s.user_id = $1
		  ORDER BY s.created_at DESC`,
		userID,
	))
}
