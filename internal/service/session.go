package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/metrics"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// Default session lifetimes.
const (
	DefaultSessionTTL  = 24 * time.Hour
	DefaultRememberTTL = 365 * 24 * time.Hour
)

// SessionConfig holds the session lifetimes.
type SessionConfig struct {
	TTL         time.Duration // browser session (remember unchecked)
	RememberTTL time.Duration // "remember me"
}

// SessionService issues, resolves and revokes login sessions.
//
// A session is a row in the sessions table plus a signed token naming it.
// The token proves the server issued it; the row proves it hasn't been
// revoked. Both must check out for a token to resolve to a user.
type SessionService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	tokens   *auth.TokenService
	cfg      SessionConfig
	logger   *slog.Logger

	now func() time.Time // swapped in tests
}

// NewSessionService creates a SessionService. Zero TTLs select the defaults.
func NewSessionService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	tokens *auth.TokenService,
	cfg SessionConfig,
	logger *slog.Logger,
) *SessionService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = DefaultRememberTTL
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Establish starts a session for userID and returns its token.
//
// With remember set the session lasts RememberTTL and the handler gives the
// cookie the same Max-Age, so it survives a browser restart. Without it the
// session lasts TTL and the cookie ends with the browser session, whichever
// comes first.
func (s *SessionService) Establish(ctx context.Context, userID string, remember bool) (string, *model.Session, error) {
	ttl := s.cfg.TTL
	if remember {
		ttl = s.cfg.RememberTTL
	}

	session := &model.Session{
		UserID:    userID,
		Remember:  remember,
		ExpiresAt: s.now().UTC().Add(ttl).Truncate(time.Second),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("service/session: creating session for user %s: %w", userID, err)
	}

	token, err := s.tokens.Generate(userID, session.ID, session.ExpiresAt)
	if err != nil {
		return "", nil, fmt.Errorf("service/session: %w", err)
	}

	s.logger.Info("session established",
		slog.String("userID", userID),
		slog.Bool("remember", remember),
	)
	return token, session, nil
}

// Resolve maps a token to the identity it belongs to.
//
// It never fails. A malformed, forged or expired token, a session that was
// terminated, and a session whose user no longer exists all resolve to
// model.Anonymous. So does a store failure, which is logged: treating the
// visitor as logged out is the safe way to degrade.
func (s *SessionService) Resolve(ctx context.Context, token string) model.Identity {
	if token == "" {
		return model.Anonymous
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return model.Anonymous
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("resolving session", slog.String("error", err.Error()))
		}
		return model.Anonymous
	}
	if session.UserID != claims.UserID || session.Expired(s.now()) {
		return model.Anonymous
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("resolving session user", slog.String("error", err.Error()))
		}
		return model.Anonymous
	}

	return model.Identity{UserID: user.ID, Name: user.Name}
}

// Terminate revokes the session behind token. After it returns nil, Resolve
// of the same token yields model.Anonymous.
//
// A token that is already invalid, or whose session is already gone, is not
// an error: logging out twice is fine.
func (s *SessionService) Terminate(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("service/session: deleting session %s: %w", claims.SessionID, err)
	}

	s.logger.Info("session terminated", slog.String("userID", claims.UserID))
	return nil
}

// PurgeExpired deletes every session that has expired and returns how many
// were removed. The server calls it once at startup.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("service/session: purging expired sessions: %w", err)
	}
	metrics.RecordSessionsPurged(n)
	return n, nil
}
