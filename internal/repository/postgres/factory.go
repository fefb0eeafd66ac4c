package postgres

import (
	repo "github.com/baharkarakas/blog-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		Users:      &usersRepo{pool},
		Posts:      &postsRepo{pool},
		SavedPosts: &savedPostsRepo{pool},
		AuditLogs:  &auditLogsRepo{pool},
		Health:     pool,
	}
}
