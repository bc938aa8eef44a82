// Package repository declares the storage contracts used by the service layer.
//
// Services depend on these interfaces, never on a concrete database. The
// SQLite implementation lives in repository/sqlite; service tests use small
// in-memory fakes instead.
package repository

import (
	"context"
	"time"

	"github.com/sakif/blog/internal/model"
)

// UserRepository persists User records.
//
// Create must return an error matching apperror.ErrConflict when the email is
// already taken. This has to come from the store's UNIQUE constraint, not from
// a prior lookup, so that two concurrent signups cannot both succeed.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// ArticleRepository persists Article records.
//
// Update writes only title, intro and text. Each method is one statement, so
// each is atomic on its own.
type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	GetByID(ctx context.Context, id string) (*model.Article, error)
	List(ctx context.Context) ([]model.Article, error)
	ListByCreator(ctx context.Context, name string) ([]model.Article, error)
	Update(ctx context.Context, article *model.Article) error
	Delete(ctx context.Context, id string) error
}

// SessionRepository persists the server side of login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
