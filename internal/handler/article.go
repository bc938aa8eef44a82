package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/service"
)

// maxFormBytes caps a form body. Article text is unbounded in the schema,
// but not every byte a client cares to send.
const maxFormBytes = 1 << 20

// ArticleHandler serves the article pages and form posts.
type ArticleHandler struct {
	articles Articles
	render   *Renderer
	logger   *slog.Logger
}

// NewArticleHandler creates an ArticleHandler.
func NewArticleHandler(articles Articles, render *Renderer, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{
		articles: articles,
		render:   render,
		logger:   logger,
	}
}

// HandleIndex serves the home page.
//
// HTTP: GET / and GET /home
func (h *ArticleHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, pageIndex, page{
		Title:    "Home",
		Identity: auth.IdentityFromContext(r.Context()),
	})
}

// HandleList shows every article, newest first.
//
// HTTP: GET /item
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.List(r.Context())
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}
	h.render.render(w, r, http.StatusOK, pageItems, page{
		Title:    "Articles",
		Identity: auth.IdentityFromContext(r.Context()),
		Articles: articles,
	})
}

// HandleDetail shows one article. The edit and delete controls appear only
// when the caller may use them.
//
// HTTP: GET /item/{id}
func (h *ArticleHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	article, err := h.articles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}

	h.render.render(w, r, http.StatusOK, pageItemDetail, page{
		Title:     article.Title,
		Identity:  id,
		Article:   article,
		CanMutate: service.CanMutate(id, article),
	})
}

// HandleEditForm shows the edit form, pre-filled. Only the owner gets it;
// everyone else gets the 403 page they would get on submit.
//
// HTTP: GET /item/{id}/update
func (h *ArticleHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	article, err := h.articles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}
	if !service.CanMutate(id, article) {
		h.render.renderError(w, r, apperror.Forbidden(service.MsgUpdateForbidden))
		return
	}

	h.render.render(w, r, http.StatusOK, pageItemUpdate, page{
		Title:    "Edit " + article.Title,
		Identity: id,
		Article:  article,
		Form:     articleForm(article.Title, article.Intro, article.Text),
	})
}

// HandleUpdate saves an edit and redirects to the article list.
// Invalid input re-renders the form with what was typed and a 400.
//
// HTTP: POST /item/{id}/update
func (h *ArticleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if err := parseForm(w, r); err != nil {
		h.render.renderError(w, r, err)
		return
	}
	title, intro, text := r.PostForm.Get("title"), r.PostForm.Get("intro"), r.PostForm.Get("text")

	_, err := h.articles.Update(r.Context(), id, chi.URLParam(r, "id"), title, intro, text)
	if errors.Is(err, apperror.ErrValidation) {
		// Update checked existence and ownership before validating, so the
		// article is there and the caller owns it.
		article, getErr := h.articles.Get(r.Context(), chi.URLParam(r, "id"))
		if getErr != nil {
			h.render.renderError(w, r, getErr)
			return
		}
		h.render.render(w, r, http.StatusBadRequest, pageItemUpdate, page{
			Title:    "Edit " + article.Title,
			Identity: id,
			Error:    userMessage(err),
			Article:  article,
			Form:     articleForm(title, intro, text),
		})
		return
	}
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/item", http.StatusSeeOther)
}

// HandleDelete deletes an article and redirects to the article list.
//
// HTTP: POST /item/{id}/delete
//
// POST, not GET: a link or a prefetching browser must not be able to delete
// anything.
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	if err := h.articles.Delete(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		h.render.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/item", http.StatusSeeOther)
}

// HandleCreateForm shows the empty article form.
//
// HTTP: GET /create-article
func (h *ArticleHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, pageCreateArticle, page{
		Title:    "Write an article",
		Identity: auth.IdentityFromContext(r.Context()),
	})
}

// HandleCreate publishes an article and redirects home. Anonymous visitors
// may post too; their articles have no creator.
//
// HTTP: POST /create-article
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if err := parseForm(w, r); err != nil {
		h.render.renderError(w, r, err)
		return
	}
	title, intro, text := r.PostForm.Get("title"), r.PostForm.Get("intro"), r.PostForm.Get("text")

	_, err := h.articles.Create(r.Context(), id, title, intro, text)
	if errors.Is(err, apperror.ErrValidation) {
		h.render.render(w, r, http.StatusBadRequest, pageCreateArticle, page{
			Title:    "Write an article",
			Identity: id,
			Error:    userMessage(err),
			Form:     articleForm(title, intro, text),
		})
		return
	}
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func articleForm(title, intro, text string) map[string]string {
	return map[string]string{"title": title, "intro": intro, "text": text}
}

// parseForm reads a urlencoded form body of at most maxFormBytes.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return apperror.ValidationFailed("form", "the form could not be read")
	}
	return nil
}
