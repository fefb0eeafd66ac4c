package postgres

import (
	"context"

	"github.com/baharkarakas/blog-backend/internal/models"
	"github.com/baharkarakas/blog-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postsRepo struct{ pool *pgxpool.Pool }

const postColumns = `id, title, slug, description, category, content, thumbnail, thumbnail_kind, created_at, updated_at`

func scanPost(row pgx.Row) (models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Category, &p.Content,
		&p.Thumbnail, &p.ThumbnailKind, &p.CreatedAt, &p.UpdatedAt)
	return p, mapErr(err)
}

func collectPosts(rows pgx.Rows, err error) ([]models.Post, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *postsRepo) Create(ctx context.Context, p models.Post) (models.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO posts (
  id, title, slug, description, category, content, thumbnail, thumbnail_kind
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING ` + postColumns
	return scanPost(r.pool.QueryRow(ctx, q,
		p.ID, p.Title, p.Slug, p.Description, p.Category, p.Content, p.Thumbnail, p.ThumbnailKind,
	))
}

func (r *postsRepo) GetBySlug(ctx context.Context, slug string) (models.Post, error) {
	return scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE slug=$1`, slug))
}

func (r *postsRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE slug=$1)`, slug).Scan(&exists)
	return exists, err
}

func (r *postsRepo) List(ctx context.Context, f repository.PostFilter) ([]models.Post, error) {
	var category *string
	if f.Category != "" {
		c := string(f.Category)
		category = &c
	}
	return collectPosts(r.pool.Query(ctx,
		`SELECT `+postColumns+`
		   FROM posts
		  WHERE ($1::text IS NULL OR category = $1)
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		category, f.Limit, f.Offset,
	))
}

func (r *postsRepo) Search(ctx context.Context, q string, limit int) ([]models.Post, error) {
	return collectPosts(r.pool.Query(ctx,
		`SELECT `+postColumns+`
		   FROM posts
		  WHERE title ILIKE $1 ESCAPE '\'
		     OR description ILIKE $1 ESCAPE '\'
		     OR category ILIKE $1 ESCAPE '\'
		  ORDER BY created_at DESC
		  LIMIT $2`,
		containsPattern(q), limit,
	))
}

func (r *postsRepo) DeleteBySlug(ctx context.Context, slug string) (models.Post, error) {
	return scanPost(r.pool.QueryRow(ctx, `DELETE FROM posts WHERE slug=$1 RETURNING `+postColumns, slug))
}
