package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Services don't know
// or care whether they talk to SQLite or to a map, which is exactly what lets
// these tests run in microseconds.
//
// Each fake stores copies, never the caller's pointer, so a test can't
// accidentally mutate "the database" through a returned struct. Set one of
// the *Err fields to simulate a store failure.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]*model.User
	nextID  int

	createErr error
	getErr    error
	// lookups counts GetByEmail calls, so tests can see the dummy-hash path.
	lookups int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	// Same guarantee as the UNIQUE constraint: checked and written under one lock.
	if _, taken := f.byEmail[user.Email]; taken {
		return apperror.DuplicateEmail(user.Email)
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now().UTC()
	stored := *user
	f.byID[user.ID] = &stored
	f.byEmail[user.Email] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	result := *u
	return &result, nil
}

// remove simulates an account deleted behind the service's back.
func (f *fakeUserRepo) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		delete(f.byEmail, u.Email)
		delete(f.byID, id)
	}
}

type fakeArticleRepo struct {
	articles map[string]*model.Article
	seq      map[string]int // insertion order, the tie-breaker for equal timestamps
	nextID   int
	clock    func() time.Time

	createErr error
	listErr   error
	updateErr error
	deleteErr error
	// calls counts every repository call; validation tests assert it stays 0.
	calls int
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{
		articles: make(map[string]*model.Article),
		seq:      make(map[string]int),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

func (f *fakeArticleRepo) Create(_ context.Context, a *model.Article) error {
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	a.ID = fmt.Sprintf("article-%d", f.nextID)
	a.CreatedAt = f.clock()
	stored := *a
	f.articles[a.ID] = &stored
	f.seq[a.ID] = f.nextID
	return nil
}

func (f *fakeArticleRepo) GetByID(_ context.Context, id string) (*model.Article, error) {
	f.calls++
	a, ok := f.articles[id]
	if !ok {
		return nil, apperror.NotFound("article", id)
	}
	result := *a
	return &result, nil
}

func (f *fakeArticleRepo) List(_ context.Context) ([]model.Article, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(func(*model.Article) bool { return true }), nil
}

func (f *fakeArticleRepo) ListByCreator(_ context.Context, name string) ([]model.Article, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(func(a *model.Article) bool {
		return a.CreatorName != nil && *a.CreatorName == name
	}), nil
}

func (f *fakeArticleRepo) sorted(keep func(*model.Article) bool) []model.Article {
	result := []model.Article{}
	for _, a := range f.articles {
		if keep(a) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return f.seq[result[i].ID] > f.seq[result[j].ID]
	})
	return result
}

func (f *fakeArticleRepo) Update(_ context.Context, a *model.Article) error {
	f.calls++
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.articles[a.ID]
	if !ok {
		return apperror.NotFound("article", a.ID)
	}
	stored.Title, stored.Intro, stored.Text = a.Title, a.Intro, a.Text
	return nil
}

func (f *fakeArticleRepo) Delete(_ context.Context, id string) error {
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.articles[id]; !ok {
		return apperror.NotFound("article", id)
	}
	delete(f.articles, id)
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*model.Session
	nextID   int

	createErr error
	getErr    error
	deleteErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	s.ID = fmt.Sprintf("session-%d", f.nextID)
	s.CreatedAt = time.Now().UTC()
	stored := *s
	f.sessions[s.ID] = &stored
	return nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperror.NotFound("session", id)
	}
	result := *s
	return &result, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.sessions[id]; !ok {
		return apperror.NotFound("session", id)
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range f.sessions {
		if !s.ExpiresAt.After(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}
