package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// compile-time check that *SessionDB implements repository.SessionRepository
var _ repository.SessionRepository = (*SessionDB)(nil)

// SessionDB stores login sessions.
type SessionDB struct {
	conn *sql.DB
}

// Create inserts a session. ID and CreatedAt are generated here; the caller
// sets UserID, Remember and ExpiresAt.
func (s *SessionDB) Create(ctx context.Context, session *model.Session) error {
	session.ID = xid.New().String()
	session.CreatedAt = time.Now().UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, remember, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Remember,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating session for user %s: %w", session.UserID, err)
	}
	return nil
}

// GetByID returns the session with the given ID.
// Expired rows are returned as-is; deciding what "expired" means is the
// service's job.
func (s *SessionDB) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, user_id, remember, expires_at, created_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(
		&session.ID,
		&session.UserID,
		&session.Remember,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}
	return &session, nil
}

// Delete removes a session. Returns apperror.ErrNotFound if it was already gone.
func (s *SessionDB) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("session", id)
	}
	return nil
}

// DeleteExpired removes every session that expired at or before now and
// returns how many were removed.
func (s *SessionDB) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`,
		now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting expired sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
