package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baharkarakas/blog-backend/internal/repository"
)

const uniqueViolation = "23505"

// constraint name -> field reported to the service layer
var uniqueConstraints = map[string]string{
	"users_email_key":    "email",
	"users_username_key": "username",
	"posts_slug_key":     "slug",
}

// mapErr translates driver errors into repository errors. The unique
// constraints are the source of truth for email, username and slug.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := uniqueConstraints[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &repository.DuplicateError{Field: field}
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching q anywhere, with the
// LIKE wildcards in q taken literally.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
