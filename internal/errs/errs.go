// Package errs defines the error taxonomy shared by the guard, contest
// access, and credential layers. Business failures carry a stable,
// user-visible message; unexpected store failures are never wrapped into
// this taxonomy and propagate as plain errors.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a business failure.
type Kind int

const (
	KindAuthenticationRequired Kind = iota
	KindPermissionDenied
	KindAccountDisabled
	KindResourceNotFound
	KindValidation
	KindTokenInvalid
	KindTokenExpired
	KindRateLimited
	KindConflict
)

// Error is a business-level failure with a stable message. The message is
// part of the API contract and must not be reworded casually.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// AuthenticationRequired reports a missing or anonymous principal.
func AuthenticationRequired(msg string) *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: msg}
}

// PermissionDenied reports an authenticated principal lacking rights.
func PermissionDenied(msg string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: msg}
}

// AccountDisabled reports a principal whose disabled flag is set.
func AccountDisabled(msg string) *Error {
	return &Error{Kind: KindAccountDisabled, Message: msg}
}

// NotFound reports a missing resource. Also used to mask resources the
// caller is not allowed to know about.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindResourceNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a rejected input field.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// TokenInvalid reports a credential that does not exist or fails
// verification.
func TokenInvalid(msg string) *Error {
	return &Error{Kind: KindTokenInvalid, Message: msg}
}

// TokenExpired reports a credential past its expiry.
func TokenExpired(msg string) *Error {
	return &Error{Kind: KindTokenExpired, Message: msg}
}

// RateLimited reports an operation attempted inside its cooldown window.
func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// Conflict reports a duplicate-key style failure.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and a
// boolean indicating whether it was one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a business error of the given kind.
func IsKind(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}
