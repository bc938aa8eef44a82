// Package handler contains the HTTP request handlers of the blog.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming request (path params, form fields)
//  2. Read the caller's identity from the context (auth.IdentityFromContext)
//  3. Call the service layer, passing the identity explicitly
//  4. Render a page or redirect
//
// Handlers hold no business rules. Whether an article may be edited is
// decided by service.CanMutate; handlers only use it to show or hide the
// buttons and to pick the status code of the error page.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/blog/internal/logging"
	"github.com/sakif/blog/internal/model"
)

// Page names, one per file in web/templates (besides base.html).
const (
	pageIndex         = "index"
	pageItems         = "items"
	pageItemDetail    = "item_detail"
	pageItemUpdate    = "item_update"
	pageCreateArticle = "create_article"
	pageLogin         = "login"
	pageSignup        = "signup"
	pageProfile       = "profile"
	pageError         = "error"
)

var allPages = []string{
	pageIndex, pageItems, pageItemDetail, pageItemUpdate, pageCreateArticle,
	pageLogin, pageSignup, pageProfile, pageError,
}

// page is the data every template receives. Each page uses the fields it
// needs; base.html uses Title, Identity and Error.
type page struct {
	Title    string
	Identity model.Identity
	Error    string            // message shown above the content
	Form     map[string]string // values echoed back into a re-rendered form
	Next     string            // where to go after logging in

	Article   *model.Article
	Articles  []model.Article
	CanMutate bool
	User      *model.User

	SuggestLogin bool // anonymous visitor hit an owner-only action
}

// Renderer executes the HTML templates.
//
// TEMPLATE SETS:
// Every page file defines a "content" block that base.html pulls in with
// {{template "content" .}}. Because each page defines the same block name,
// each page gets its own template set: base.html parsed together with that
// one page. All sets are parsed once at startup.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string { return t.Local().Format("2 Jan 2006 15:04") },
}

// NewRenderer parses templates/base.html and every page from fsys
// (web.FS in production).
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(allPages)), logger: logger}
	for _, name := range allPages {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys,
			"templates/base.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// render writes page name with the given status.
//
// The template is executed into a buffer first. If execution fails halfway,
// nothing has been sent yet and the client gets a clean 500 instead of half
// a page under a 200 header.
func (rd *Renderer) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	tmpl, ok := rd.pages[name]
	if !ok {
		logging.FromRequest(rd.logger, r).Error("unknown template", slog.String("name", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		logging.FromRequest(rd.logger, r).Error("failed to render template",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
