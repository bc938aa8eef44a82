package handler

// RESPONSE HELPERS:
// Domain errors from the service layer are translated to HTTP here, and
// only here. Services return apperror values; they never pick a status code.
//
//	apperror.ErrValidation  → 400
//	apperror.ErrAuthFailure → 401
//	apperror.ErrForbidden   → 403
//	apperror.ErrNotFound    → 404
//	apperror.ErrConflict    → 409
//	anything else           → 500, logged, generic message
//
// Validation, auth and conflict errors usually re-render the form they came
// from (see the handlers); the rest get the error page.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/logging"
)

const msgInternal = "Something went wrong on our side. Please try again."

// statusFor maps an error to its HTTP status code.
//
// errors.Is walks the whole chain, so a service error wrapped with
// fmt.Errorf("...: %w", appErr) still matches its sentinel.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrAuthFailure):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text safe to show for err. Only *AppError messages are
// shown verbatim: anything else may contain SQL, file paths or other
// internals, so it becomes a generic message.
func userMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && statusFor(err) != http.StatusInternalServerError {
		return appErr.Message
	}
	return msgInternal
}

// renderError shows the error page for err with the matching status.
// Server errors are logged with the request ID; the user only sees the
// generic message. Anonymous visitors turned away with a 403 are pointed
// at the login and signup pages.
func (rd *Renderer) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromRequest(rd.logger, r).Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	id := auth.IdentityFromContext(r.Context())
	rd.render(w, r, status, pageError, page{
		Title:        userMessage(err),
		Identity:     id,
		SuggestLogin: status == http.StatusForbidden && !id.Authenticated(),
	})
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}
