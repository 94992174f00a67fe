// Package apperr defines the closed set of domain error kinds the HTTP
// boundary switches on. Handlers must branch on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates domain failures. The set is closed: adding a kind means
// deciding its HTTP mapping here, not at a call site.
type Kind string

const (
	KindValidation       Kind = "VALIDATION"
	KindAlreadyExists    Kind = "ALREADY_EXISTS"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindAccountDisabled  Kind = "ACCOUNT_DISABLED"
	KindCaptchaFailed    Kind = "CAPTCHA_FAILED"
	KindTokenInvalid     Kind = "TOKEN_INVALID_OR_EXPIRED"
	KindNotFound         Kind = "NOT_FOUND"
	KindForbidden        Kind = "FORBIDDEN"
	KindInternal         Kind = "INTERNAL"
)

// Error is a typed domain error carrying a kind, a caller-safe message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Predefined errors for the auth discrimination points. "Unknown email" and
// "wrong password" are deliberately one variant to prevent account enumeration.
var (
	ErrInvalidCredentials = New(KindInvalidCredentials, "invalid email or password")
	ErrAccountDisabled    = New(KindAccountDisabled, "account is disabled")
	ErrEmailExists        = New(KindAlreadyExists, "user with this email already exists")
	ErrCaptchaFailed      = New(KindCaptchaFailed, "captcha verification failed")
	ErrTokenInvalid       = New(KindTokenInvalid, "invalid or expired token")
	ErrForbidden          = New(KindForbidden, "access denied")
)

// Is makes predefined errors matchable with errors.Is by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error kind to its HTTP status code. The refresh endpoint
// overrides KindTokenInvalid to 401; everywhere else it renders as 400.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindCaptchaFailed, KindTokenInvalid:
		return http.StatusBadRequest
	case KindAlreadyExists:
		return http.StatusConflict
	case KindInvalidCredentials, KindAccountDisabled:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-safe message for err. Internal errors render a
// generic message so infrastructure detail never leaks to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
