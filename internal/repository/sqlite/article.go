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

// compile-time check that *ArticleDB implements repository.ArticleRepository
var _ repository.ArticleRepository = (*ArticleDB)(nil)

// ArticleDB stores articles.
type ArticleDB struct {
	conn *sql.DB
}

const articleColumns = `id, title, intro, text, created_at, creator_name`

// Create inserts a new article, filling in ID and CreatedAt.
//
// creator_name is written straight from the pointer: a nil CreatorName
// becomes SQL NULL, which is how an anonymous article is stored.
func (a *ArticleDB) Create(ctx context.Context, article *model.Article) error {
	article.ID = xid.New().String()
	article.CreatedAt = time.Now().UTC()

	_, err := a.conn.ExecContext(ctx,
		`INSERT INTO articles (id, title, intro, text, created_at, creator_name)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		article.ID,
		article.Title,
		article.Intro,
		article.Text,
		article.CreatedAt,
		article.CreatorName,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating article: %w", err)
	}

	return nil
}

// GetByID retrieves a single article by its ID.
// Returns apperror.ErrNotFound if the article doesn't exist.
func (a *ArticleDB) GetByID(ctx context.Context, id string) (*model.Article, error) {
	var article model.Article

	// SCANNING A NULLABLE COLUMN:
	// &article.CreatorName is a **string. database/sql sets the *string to
	// nil for NULL and allocates a string otherwise, so no sql.NullString
	// juggling is needed.
	err := a.conn.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`,
		id,
	).Scan(
		&article.ID,
		&article.Title,
		&article.Intro,
		&article.Text,
		&article.CreatedAt,
		&article.CreatorName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("article", id)
		}
		return nil, fmt.Errorf("sqlite: getting article %s: %w", id, err)
	}

	return &article, nil
}

// List returns every article, newest first.
//
// There is no LIMIT: the blog shows everything on one page. That is fine for
// a small blog and is the first thing to change if it grows.
//
// ORDERING:
// created_at DESC puts the newest first. Two articles created within the
// same clock tick would tie, so rowid DESC (insertion order) breaks the tie
// and the one inserted last still comes first.
func (a *ArticleDB) List(ctx context.Context) ([]model.Article, error) {
	rows, err := a.conn.QueryContext(ctx,
		`SELECT `+articleColumns+`
		 FROM articles
		 ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing articles: %w", err)
	}
	return scanArticles(rows)
}

// ListByCreator returns the articles whose creator_name equals name, newest first.
// Anonymous articles (NULL creator) never match, not even for name "".
func (a *ArticleDB) ListByCreator(ctx context.Context, name string) ([]model.Article, error) {
	rows, err := a.conn.QueryContext(ctx,
		`SELECT `+articleColumns+`
		 FROM articles
		 WHERE creator_name = ?
		 ORDER BY created_at DESC, rowid DESC`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing articles by creator: %w", err)
	}
	return scanArticles(rows)
}

func scanArticles(rows *sql.Rows) ([]model.Article, error) {
	// CRITICAL: always close rows, or the connection never returns to the pool.
	defer rows.Close()

	articles := make([]model.Article, 0)
	for rows.Next() {
		var article model.Article
		if err := rows.Scan(
			&article.ID,
			&article.Title,
			&article.Intro,
			&article.Text,
			&article.CreatedAt,
			&article.CreatorName,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating articles: %w", err)
	}

	return articles, nil
}

// Update replaces the title, intro and text of an existing article.
//
// Only the three mutable columns appear in the SET clause; id, created_at
// and creator_name cannot change here no matter what the caller put in the
// struct. A single UPDATE is atomic, so a concurrent reader sees either all
// three old values or all three new ones.
//
// Zero rows affected means the id doesn't exist → NotFound.
func (a *ArticleDB) Update(ctx context.Context, article *model.Article) error {
	result, err := a.conn.ExecContext(ctx,
		`UPDATE articles
		 SET title = ?, intro = ?, text = ?
		 WHERE id = ?`,
		article.Title,
		article.Intro,
		article.Text,
		article.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating article %s: %w", article.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("article", article.ID)
	}

	return nil
}

// Delete removes an article by its ID.
// Same pattern as Update: check RowsAffected to detect "not found".
func (a *ArticleDB) Delete(ctx context.Context, id string) error {
	result, err := a.conn.ExecContext(ctx,
		`DELETE FROM articles WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting article %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("article", id)
	}

	return nil
}
