// Package apperr carries the kind tag a REST handler needs to pick an HTTP
// status, without individual components importing net/http. Grounded on
// spec.md §7's propagation policy: components surface a string reason and a
// kind; only the REST boundary maps kinds to status codes. Modeled after
// the teacher's internal/core/errors sentinel-error conventions, adapted to
// carry a kind instead of being a flat var block.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the error category a REST handler maps to a status code.
type Kind string

const (
	KindValidation   Kind = "validation"   // 400
	KindUnauthorized Kind = "unauthorized" // 401
	KindForbidden    Kind = "forbidden"    // 403
	KindNotFound     Kind = "not_found"    // 404
	KindInternal     Kind = "internal"     // 500
)

// Error is a kind-tagged application error.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}

	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a kind-tagged error with no wrapped cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap builds a kind-tagged error around an underlying cause.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

// Validation is a shorthand for New(KindValidation, reason).
func Validation(reason string) *Error { return New(KindValidation, reason) }

// Unauthorized is a shorthand for New(KindUnauthorized, reason).
func Unauthorized(reason string) *Error { return New(KindUnauthorized, reason) }

// Forbidden is a shorthand for New(KindForbidden, reason).
func Forbidden(reason string) *Error { return New(KindForbidden, reason) }

// NotFound is a shorthand for New(KindNotFound, reason).
func NotFound(reason string) *Error { return New(KindNotFound, reason) }

// Internal wraps cause as an internal-kind error.
func Internal(reason string, cause error) *Error { return Wrap(KindInternal, reason, cause) }

// KindOf extracts the Kind from err, defaulting to KindInternal when err
// isn't (or doesn't wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}
