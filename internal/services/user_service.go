package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/apperr"
	"github.com/baharkarakas/blog-backend/internal/models"
	repo "github.com/baharkarakas/blog-backend/internal/repository"
	"github.com/baharkarakas/blog-backend/internal/validate"
)

const (
	MsgUserNotFound = "User not found"

	defaultUserPage = 50
	maxUserPage     = 200
)

type UserService struct {
	users repo.Users
	audit repo.AuditLogs
	log   *zap.Logger
}

func NewUserService(users repo.Users, audit repo.AuditLogs, log *zap.Logger) *UserService {
	return &UserService{users: users, audit: audit, log: log}
}

func (s *UserService) Profile(ctx context.Context, id string) (models.PublicUser, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.PublicUser{}, s.lookupErr(err)
	}
	return u.Public(), nil
}

// UpdateProfileRequest fields are optional; empty keeps the current value.
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (models.PublicUser, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.PublicUser{}, s.lookupErr(err)
	}

	username := strings.TrimSpace(req.Username)
	email := models.NormalizeEmail(req.Email)
	if err := validate.Collect(
		validate.Email("email", email),
		validate.MaxLen("username", "Username", username, maxUsernameLen),
	).Err(""); err != nil {
		return models.PublicUser{}, err
	}
	if username == "" {
		username = u.Username
	}
	if email == "" {
		email = u.Email
	}
	if username == u.Username && email == u.Email {
		return u.Public(), nil
	}

	updated, err := s.users.UpdateProfile(ctx, id, username, email)
	if err != nil {
		if cerr := conflictFor(err); cerr != nil {
			return models.PublicUser{}, cerr
		}
		return models.PublicUser{}, s.lookupErr(err)
	}
	return updated.Public(), nil
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.PublicUser, error) {
	if limit <= 0 {
		limit = defaultUserPage
	}
	if limit > maxUserPage {
		limit = maxUserPage
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		s.log.Error("list users", zap.Error(err))
		return nil, apperr.Server(err)
	}
	out := make([]models.PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

// Delete removes a user. Outstanding tokens stop working because the
// access guard resolves the subject on every request.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return s.lookupErr(err)
	}
	recordAudit(ctx, s.audit, s.log, actorID, "user", id, models.AuditUserDeleted, nil)
	return nil
}

func (s *UserService) lookupErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(MsgUserNotFound)
	}
	s.log.Error("user store", zap.Error(err))
	return apperr.Server(err)
}
