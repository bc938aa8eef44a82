package handler

import (
	"context"

	"github.com/sakif/blog/internal/model"
)

// The handlers depend on these small interfaces rather than on the concrete
// service structs, so handler tests can substitute stubs. The service
// package's *AuthService, *SessionService and *ArticleService satisfy them.

// Accounts registers and verifies users.
type Accounts interface {
	Register(ctx context.Context, email, name, password string) (*model.User, error)
	Verify(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// Sessions starts and ends login sessions.
type Sessions interface {
	Establish(ctx context.Context, userID string, remember bool) (string, *model.Session, error)
	Terminate(ctx context.Context, token string) error
}

// Articles is the article use-case surface.
type Articles interface {
	Create(ctx context.Context, id model.Identity, title, intro, text string) (*model.Article, error)
	List(ctx context.Context) ([]model.Article, error)
	ListByCreator(ctx context.Context, name string) ([]model.Article, error)
	Get(ctx context.Context, id string) (*model.Article, error)
	Update(ctx context.Context, id model.Identity, articleID, title, intro, text string) (*model.Article, error)
	Delete(ctx context.Context, id model.Identity, articleID string) error
}
