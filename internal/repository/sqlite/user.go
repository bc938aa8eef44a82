package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores users.
type UserDB struct {
	conn *sql.DB
}

// Create inserts a new user, filling in ID and CreatedAt.
//
// UNIQUENESS IS THE DATABASE'S JOB:
// The service checks for an existing email first to give a fast answer, but
// two signups for the same email can pass that check at the same time. The
// UNIQUE constraint on users.email is what guarantees exactly one of them
// wins. We translate the loser's constraint error into apperror.DuplicateEmail
// so the caller gets the same answer either way.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateEmail(user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, created_at
		 FROM users WHERE id = ?`,
		id,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by their login email (exact match).
// Returns apperror.ErrNotFound if nobody registered with that email.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, created_at
		 FROM users WHERE email = ?`,
		email,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found",
			}
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint error.
//
// modernc.org/sqlite returns *sqlite.Error carrying the extended result code.
// SQLITE_CONSTRAINT_UNIQUE (2067) is the only one we care about here; other
// constraint failures (NOT NULL, CHECK) are real bugs and stay store failures.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
