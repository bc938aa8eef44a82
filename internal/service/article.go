package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/metrics"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// Validation limits, in characters (runes), not bytes: "é" counts once.
const (
	MaxTitleLength = 100
	MaxIntroLength = 300
)

// Messages shown when an ownership check fails.
const (
	MsgUpdateForbidden = "you can only edit your own articles"
	MsgDeleteForbidden = "you can only delete your own articles"
)

// ArticleService handles business logic for articles.
type ArticleService struct {
	repo   repository.ArticleRepository
	logger *slog.Logger
}

// NewArticleService creates a new ArticleService.
func NewArticleService(repo repository.ArticleRepository, logger *slog.Logger) *ArticleService {
	return &ArticleService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new article.
//
// Anyone may post, signed in or not. An authenticated author's name is
// copied into CreatorName; an anonymous article gets no creator and so can
// never be edited or deleted afterwards (see CanMutate).
//
// VALIDATE BEFORE STORING:
// Every limit is checked here, before the repository is touched. The CHECK
// constraints in the schema only back this up; a store that silently
// truncated or accepted long values would otherwise decide what gets saved.
func (s *ArticleService) Create(ctx context.Context, id model.Identity, title, intro, text string) (*model.Article, error) {
	title, intro, err := validateArticle(title, intro, text)
	if err != nil {
		return nil, err
	}

	article := &model.Article{
		Title: title,
		Intro: intro,
		Text:  text,
	}
	if id.Authenticated() {
		name := id.Name
		article.CreatorName = &name
	}

	if err := s.repo.Create(ctx, article); err != nil {
		metrics.RecordArticleOp("create", metrics.ResultFailure)
		s.logger.Error("failed to create article",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating article: %w", err)
	}

	metrics.RecordArticleOp("create", metrics.ResultSuccess)
	s.logger.Info("article created",
		slog.String("id", article.ID),
		slog.String("creator", article.Creator()),
	)
	return article, nil
}

// List returns every article, newest first.
//
// There is no pagination: the whole table is read on every call. Fine for a
// personal blog, the first thing to change if it ever isn't.
func (s *ArticleService) List(ctx context.Context) ([]model.Article, error) {
	articles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return articles, nil
}

// ListByCreator returns the articles created under name, newest first.
func (s *ArticleService) ListByCreator(ctx context.Context, name string) ([]model.Article, error) {
	if name == "" {
		return []model.Article{}, nil
	}
	articles, err := s.repo.ListByCreator(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("listing articles by %s: %w", name, err)
	}
	return articles, nil
}

// Get retrieves an article by its ID.
// Returns apperror.ErrNotFound if the article doesn't exist.
func (s *ArticleService) Get(ctx context.Context, id string) (*model.Article, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NotFound("article", id)
	}
	return s.repo.GetByID(ctx, id)
}

// Update replaces the title, intro and text of an article.
//
// CHECK ORDER:
//  1. the article must exist        → NotFound
//  2. the caller must own it        → Forbidden
//  3. the new values must be valid  → Validation
//
// Ownership comes before validation so a stranger probing someone else's
// article learns nothing from the validation messages. ID, CreatedAt and
// CreatorName are never touched.
func (s *ArticleService) Update(ctx context.Context, id model.Identity, articleID, title, intro, text string) (*model.Article, error) {
	article, err := s.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}

	if !CanMutate(id, article) {
		metrics.RecordForbidden("update")
		return nil, apperror.Forbidden(MsgUpdateForbidden)
	}

	title, intro, err = validateArticle(title, intro, text)
	if err != nil {
		return nil, err
	}

	article.Title = title
	article.Intro = intro
	article.Text = text
	if err := s.repo.Update(ctx, article); err != nil {
		metrics.RecordArticleOp("update", metrics.ResultFailure)
		return nil, fmt.Errorf("updating article %s: %w", article.ID, err)
	}

	metrics.RecordArticleOp("update", metrics.ResultSuccess)
	s.logger.Info("article updated",
		slog.String("id", article.ID),
		slog.String("by", id.Name),
	)
	return article, nil
}

// Delete removes an article. Same existence and ownership checks as Update.
func (s *ArticleService) Delete(ctx context.Context, id model.Identity, articleID string) error {
	article, err := s.Get(ctx, articleID)
	if err != nil {
		return err
	}

	if !CanMutate(id, article) {
		metrics.RecordForbidden("delete")
		return apperror.Forbidden(MsgDeleteForbidden)
	}

	if err := s.repo.Delete(ctx, article.ID); err != nil {
		metrics.RecordArticleOp("delete", metrics.ResultFailure)
		return fmt.Errorf("deleting article %s: %w", article.ID, err)
	}

	metrics.RecordArticleOp("delete", metrics.ResultSuccess)
	s.logger.Info("article deleted",
		slog.String("id", article.ID),
		slog.String("by", id.Name),
	)
	return nil
}

// validateArticle returns the trimmed title and intro, or a validation error.
// Text is stored as typed, but must contain something besides whitespace.
func validateArticle(title, intro, text string) (string, string, error) {
	title = strings.TrimSpace(title)
	intro = strings.TrimSpace(intro)

	switch {
	case title == "":
		return "", "", apperror.ValidationFailed("title", "title is required")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return "", "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	case intro == "":
		return "", "", apperror.ValidationFailed("intro", "intro is required")
	case utf8.RuneCountInString(intro) > MaxIntroLength:
		return "", "", apperror.ValidationFailed("intro",
			fmt.Sprintf("intro must be %d characters or less", MaxIntroLength))
	case strings.TrimSpace(text) == "":
		return "", "", apperror.ValidationFailed("text", "text is required")
	}
	return title, intro, nil
}
