// Package apperror defines the domain errors shared by the service and
// repository layers.
//
// Every error the blog reports to a user is an *AppError wrapping one of the
// sentinels below. Handlers never inspect messages; they match the sentinel
// with errors.Is and pick the HTTP status from it. Anything that is NOT an
// *AppError (a dropped connection, a full disk, a broken migration) is a store
// failure and is shown to the user as a generic message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrForbidden   = errors.New("forbidden")
	ErrAuthFailure = errors.New("authentication failed")
)

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Message string // Human-readable error message
	Field   string // Optional: form field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateEmail reports a signup with an email that is already registered.
// The user can fix the form and resubmit, so it is a conflict, not a failure.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("the email %s is already registered", email),
		Field:   "email",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// AuthFailure is returned for every failed login, whatever the cause.
//
// The message is deliberately the same for "no such email" and "wrong
// password": telling them apart would let anyone probe which addresses have
// an account.
func AuthFailure() *AppError {
	return &AppError{
		Err:     ErrAuthFailure,
		Message: "Please check your login details and try again",
	}
}
