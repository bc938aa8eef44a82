package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sakif/blog/internal/model"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. With a plain string key, any
// package that knows the string can read or shadow the value. A
// package-private type means only this package can set or read it.
type contextKey string

const identityKey contextKey = "identity"

// IdentityResolver turns a raw session token into the identity it belongs to.
// It never fails: anything wrong with the token means model.Anonymous.
// service.SessionService is the production implementation.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) model.Identity
}

// LoadIdentity is a middleware that resolves the session cookie on every
// request and stores the resulting identity in the request context.
//
// It never blocks a request. A missing, forged, expired or revoked cookie
// just leaves the visitor anonymous, and handlers decide what that means:
// anonymous visitors can read and even post articles, but can only be
// refused when they try to edit or delete.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler that wraps it:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
func LoadIdentity(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := model.Anonymous
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				id = resolver.Resolve(r.Context(), cookie.Value)
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireLogin redirects anonymous visitors to loginPath, remembering where
// they were going in the "next" query parameter. Put it after LoadIdentity.
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFromContext(r.Context()).Authenticated() {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity LoadIdentity stored, or
// model.Anonymous when there is none.
//
// Usage in handlers:
//
//	id := auth.IdentityFromContext(r.Context())
//	if !id.Authenticated() {
//	    // anonymous visitor
//	}
func IdentityFromContext(ctx context.Context) model.Identity {
	id, ok := ctx.Value(identityKey).(model.Identity)
	if !ok {
		return model.Anonymous
	}
	return id
}
