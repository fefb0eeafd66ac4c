package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/baharkarakas/blog-backend/internal/apperr"
	"github.com/baharkarakas/blog-backend/internal/auth"
	"github.com/baharkarakas/blog-backend/internal/metrics"
	"github.com/baharkarakas/blog-backend/internal/models"
	repo "github.com/baharkarakas/blog-backend/internal/repository"
	"github.com/baharkarakas/blog-backend/internal/telemetry"
	"github.com/baharkarakas/blog-backend/internal/validate"
)

const (
	MsgAllFieldsRequired  = "All fields are required"
	MsgUserExists         = "User already exists. Please log in."
	MsgUsernameTaken      = "Username is already taken. Please choose a different one."
	MsgInvalidCredentials = "Invalid email or password"

	maxUsernameLen = 50
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

type AuthConfig struct {
	AdminEmails []string
}

type AuthService struct {
	users  repo.Users
	audit  repo.AuditLogs
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	admins map[string]struct{}
	log    *zap.Logger

	// compared against on unknown emails so both login failures cost a bcrypt round
	dummyHash string
}

func NewAuthService(users repo.Users, audit repo.AuditLogs, hasher *auth.PasswordHasher, tokens *auth.TokenManager, cfg AuthConfig, log *zap.Logger) (*AuthService, error) {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		admins[models.NormalizeEmail(e)] = struct{}{}
	}
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:     users,
		audit:     audit,
		hasher:    hasher,
		tokens:    tokens,
		admins:    admins,
		log:       log,
		dummyHash: dummy,
	}, nil
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.PublicUser
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (AuthResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "AuthService.Signup")
	defer span.End()

	res, err := s.signup(ctx, req)
	s.observe("signup", err)
	telemetry.RecordError(span, err)
	return res, err
}

func (s *AuthService) signup(ctx context.Context, req SignupRequest) (AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	email := models.NormalizeEmail(req.Email)

	if err := validate.Collect(
		validate.Required("username", "Username", username),
		validate.Required("email", "Email", email),
		validate.Required("password", "Password", req.Password),
	).Err(MsgAllFieldsRequired); err != nil {
		return AuthResult{}, err
	}
	if err := validate.Collect(
		validate.Email("email", email),
		validate.MaxLen("username", "Username", username, maxUsernameLen),
		validate.MaxBytes("password", "Password", req.Password, maxPasswordBytes),
	).Err(""); err != nil {
		return AuthResult{}, err
	}

	// Fast pre-checks for a friendly message; the unique constraints decide.
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return AuthResult{}, s.serverErr("signup: email lookup", err)
	} else if taken {
		return AuthResult{}, apperr.Conflict(MsgUserExists)
	}
	if taken, err := s.users.ExistsByUsername(ctx, username); err != nil {
		return AuthResult{}, s.serverErr("signup: username lookup", err)
	} else if taken {
		return AuthResult{}, apperr.Conflict(MsgUsernameTaken)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return AuthResult{}, s.serverErr("signup: hash password", err)
	}

	u, err := s.users.Create(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         s.roleFor(email),
	})
	if err != nil {
		if cerr := conflictFor(err); cerr != nil {
			return AuthResult{}, cerr
		}
		return AuthResult{}, s.serverErr("signup: create user", err)
	}

	recordAudit(ctx, s.audit, s.log, u.ID, "user", u.ID, models.AuditUserSignup, map[string]any{"role": u.Role})
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	res, err := s.login(ctx, req)
	s.observe("login", err)
	telemetry.RecordError(span, err)
	return res, err
}

func (s *AuthService) login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	email := models.NormalizeEmail(req.Email)
	if err := validate.Collect(
		validate.Required("email", "Email", email),
		validate.Required("password", "Password", req.Password),
	).Err(MsgAllFieldsRequired); err != nil {
		return AuthResult{}, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		_ = s.hasher.Verify(req.Password, s.dummyHash)
		return AuthResult{}, apperr.Unauthorized(MsgInvalidCredentials)
	}
	if err != nil {
		return AuthResult{}, s.serverErr("login: user lookup", err)
	}

	if err := s.hasher.Verify(req.Password, u.PasswordHash); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.log.Error("login: stored hash unusable", zap.String("user_id", u.ID), zap.Error(err))
		}
		return AuthResult{}, apperr.Unauthorized(MsgInvalidCredentials)
	}
	return s.issue(u)
}

func (s *AuthService) issue(u models.User) (AuthResult, error) {
	tok, exp, err := s.tokens.Issue(u)
	if err != nil {
		return AuthResult{}, s.serverErr("issue token", err)
	}
	return AuthResult{Token: tok, ExpiresAt: exp, User: u.Public()}, nil
}

func (s *AuthService) roleFor(email string) models.Role {
	if _, ok := s.admins[email]; ok {
		return models.RoleAdmin
	}
	return models.RoleUser
}

func (s *AuthService) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "fail"
	}
	metrics.AuthAttempts.WithLabelValues(op, result).Inc()
}

func (s *AuthService) serverErr(msg string, err error) error {
	s.log.Error(msg, zap.Error(err))
	return apperr.Server(err)
}

// conflictFor maps a unique violation on users to the user-facing conflict.
func conflictFor(err error) error {
	field, ok := repo.DuplicateField(err)
	if !ok {
		return nil
	}
	if field == "username" {
		return apperr.Conflict(MsgUsernameTaken)
	}
	return apperr.Conflict(MsgUserExists)
}
