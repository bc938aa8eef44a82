// Package service contains the business logic layer of the blog.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses forms, renders pages
//	Service (Business layer) → validates, enforces ownership, orchestrates
//	Repository (Data layer)  → reads/writes SQLite
//
// Services take repository interfaces, not *sqlite.DB, so tests can hand
// them in-memory fakes. They accept plain values (strings, model.Identity)
// and return apperror values; they know nothing about HTTP.
//
// WHO IS ASKING?
// Operations that depend on the caller take a model.Identity argument. The
// handler reads it from the request context once and passes it down; no
// service reaches into a context or a cookie to find out who the user is.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/metrics"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// AuthService owns accounts and credentials.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates an account.
//
// Email and name are trimmed of surrounding whitespace and must not be empty.
// The password is taken exactly as typed; it must not be empty and must fit
// bcrypt's 72-byte limit. Emails are case-sensitive.
//
// DUPLICATE EMAILS:
// The lookup below gives a friendly error in the common case, but it is not
// what guarantees uniqueness: two signups racing for the same email can both
// pass it. The UNIQUE constraint on users.email settles the race, and the
// repository turns the losing INSERT into the same DuplicateEmail error.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	switch {
	case email == "":
		return nil, apperror.ValidationFailed("email", "email is required")
	case name == "":
		return nil, apperror.ValidationFailed("name", "name is required")
	case password == "":
		return nil, apperror.ValidationFailed("password", "password is required")
	case len(password) > auth.MaxPasswordBytes:
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		metrics.RecordSignup(metrics.ResultFailure)
		return nil, apperror.DuplicateEmail(email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			metrics.RecordSignup(metrics.ResultFailure)
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	metrics.RecordSignup(metrics.ResultSuccess)
	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("name", user.Name),
	)
	return user, nil
}

// Verify checks an email and password and returns the matching user.
//
// An unknown email and a wrong password produce the identical AuthFailure
// error, so the login page cannot be used to find out who has an account.
// For the same reason an unknown email still costs one bcrypt comparison,
// against PasswordService.DummyHash; otherwise the fast "no such user" path
// would give the game away by its response time.
func (s *AuthService) Verify(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: looking up email: %w", err)
		}
		_ = s.passwords.Verify(s.passwords.DummyHash(), password)
		metrics.RecordLogin(metrics.ResultFailure)
		return nil, apperror.AuthFailure()
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			metrics.RecordLogin(metrics.ResultFailure)
			return nil, apperror.AuthFailure()
		}
		return nil, fmt.Errorf("service/auth: verifying password for user %s: %w", user.ID, err)
	}

	metrics.RecordLogin(metrics.ResultSuccess)
	return user, nil
}

// GetUser returns the user with the given ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.NotFound("user", id)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}
