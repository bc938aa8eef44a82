package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/logging"
	"github.com/sakif/blog/internal/model"
)

// AuthHandler manages signup, login, logout and the profile page.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup  → create an account, then send the user to log in
//   - HandleLogin   → check credentials, start a session, set the cookie
//   - HandleLogout  → end the session and clear the cookie
//   - HandleProfile → the signed-in user's own articles
type AuthHandler struct {
	accounts     Accounts
	sessions     Sessions
	articles     Articles
	render       *Renderer
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. cookieSecure marks the session
// cookie Secure (HTTPS only); turn it on in production.
func NewAuthHandler(
	accounts Accounts,
	sessions Sessions,
	articles Articles,
	render *Renderer,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		sessions:     sessions,
		articles:     articles,
		render:       render,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// HandleSignupForm shows the signup form.
//
// HTTP: GET /signup
func (h *AuthHandler) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, pageSignup, page{
		Title:    "Sign up",
		Identity: auth.IdentityFromContext(r.Context()),
	})
}

// HandleSignup registers an account and redirects to the login page.
//
// HTTP: POST /signup
//
// A taken email (409) or invalid input (400) re-renders the form with the
// email and name kept; the password is never echoed back.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.render.renderError(w, r, err)
		return
	}
	email, name := r.PostForm.Get("email"), r.PostForm.Get("name")

	_, err := h.accounts.Register(r.Context(), email, name, r.PostForm.Get("password"))
	if errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrConflict) {
		h.render.render(w, r, statusFor(err), pageSignup, page{
			Title:    "Sign up",
			Identity: auth.IdentityFromContext(r.Context()),
			Error:    userMessage(err),
			Form:     map[string]string{"email": email, "name": name},
		})
		return
	}
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleLoginForm shows the login form.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, pageLogin, page{
		Title:    "Log in",
		Identity: auth.IdentityFromContext(r.Context()),
		Next:     safeNext(r.URL.Query().Get("next")),
	})
}

// HandleLogin verifies the credentials, starts a session and redirects to
// the profile page (or to the page the user was sent away from).
//
// HTTP: POST /login
//
// COOKIE:
// The session token goes into an HttpOnly cookie, so page scripts can't
// read it, with SameSite=Lax, so cross-site form posts don't carry it.
// With "remember me" the cookie gets a Max-Age matching the session and
// survives a browser restart; without it there is no Max-Age and the
// browser drops the cookie when it closes.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.render.renderError(w, r, err)
		return
	}
	email := r.PostForm.Get("email")
	remember := r.PostForm.Get("remember") != ""
	next := safeNext(r.PostForm.Get("next"))

	user, err := h.accounts.Verify(r.Context(), email, r.PostForm.Get("password"))
	if errors.Is(err, apperror.ErrAuthFailure) {
		h.render.render(w, r, http.StatusUnauthorized, pageLogin, page{
			Title:    "Log in",
			Identity: model.Anonymous,
			Error:    userMessage(err),
			Form:     map[string]string{"email": email},
			Next:     next,
		})
		return
	}
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}

	token, session, err := h.sessions.Establish(r.Context(), user.ID, remember)
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}

	cookie := &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.Expires = session.ExpiresAt
		cookie.MaxAge = int(time.Until(session.ExpiresAt).Seconds())
	}
	http.SetCookie(w, cookie)

	logging.FromRequest(h.logger, r).Info("user logged in",
		slog.String("userID", user.ID),
		slog.Bool("remember", remember),
	)

	if next == "" {
		next = "/profile"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// HandleLogout ends the session and clears the cookie.
//
// HTTP: POST /logout
//
// WHY POST AND NOT GET?
// Logout changes state. A GET could be triggered by an <img> tag on another
// site or by a browser prefetching links.
//
// The session row is deleted, not just the cookie: a copy of the token
// taken before logout stops working too.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var err error
	if c, cookieErr := r.Cookie(auth.SessionCookieName); cookieErr == nil {
		err = h.sessions.Terminate(r.Context(), c.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete now
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if err != nil {
		h.render.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleProfile lists the signed-in user's own articles.
// Mounted behind auth.RequireLogin, so the identity is authenticated.
//
// HTTP: GET /profile
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	user, err := h.accounts.GetUser(r.Context(), id.UserID)
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}
	articles, err := h.articles.ListByCreator(r.Context(), id.Name)
	if err != nil {
		h.render.renderError(w, r, err)
		return
	}

	h.render.render(w, r, http.StatusOK, pageProfile, page{
		Title:    id.Name,
		Identity: id,
		User:     user,
		Articles: articles,
	})
}

// safeNext returns next if it is a local path, "" otherwise.
// Without this check, /login?next=https://evil.example would turn the login
// form into an open redirect.
//
// Browsers treat a backslash like a slash and silently drop tabs and
// newlines, so "/\evil.example" and "/\t/evil.example" both end up at
// //evil.example. Anything with a backslash or a control character is
// rejected outright; what is left must parse as a bare path.
func safeNext(next string) string {
	if strings.ContainsFunc(next, func(r rune) bool { return r < 0x20 || r == 0x7f || r == '\\' }) {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return ""
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
