// Package apperrors defines the rejection taxonomy shared by every lifecycle
// operation. Each rejection carries a machine-checkable Kind and a detail
// string interpolating the concrete values involved.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a rejection.
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindQuotaExceeded   Kind = "QUOTA_EXCEEDED"
	KindPositionHole    Kind = "POSITION_HOLE"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindValidation      Kind = "VALIDATION"
	KindUnexpectedState Kind = "UNEXPECTED_STATE"
)

// Violation is a single field-level constraint failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the error type returned for every rejection.
type Error struct {
	Kind       Kind
	Field      string
	Detail     string
	Params     map[string]any
	Violations []Violation
	Err        error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Detail
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels below can be used
// with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound        = &Error{Kind: KindNotFound, Detail: "Not Found"}
	ErrQuotaExceeded   = &Error{Kind: KindQuotaExceeded, Detail: "quota exceeded"}
	ErrPositionHole    = &Error{Kind: KindPositionHole, Detail: "position would create a hole"}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized, Detail: "Authentication required"}
	ErrForbidden       = &Error{Kind: KindForbidden, Detail: "Access Denied."}
	ErrValidation      = &Error{Kind: KindValidation, Detail: "validation failed"}
	ErrUnexpectedState = &Error{Kind: KindUnexpectedState, Detail: "unexpected state"}
)

// KindOf returns the kind of err, or "" when err is not (or does not wrap)
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NotFound is the outcome for absent resources and for resources the caller
// may not see. Both are indistinguishable on purpose.
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Detail: "Not Found"}
}

// ReferenceNotFound is returned when a parent reference supplied by the
// client cannot be resolved for the caller.
func ReferenceNotFound(field, ref string) *Error {
	return &Error{
		Kind:   KindNotFound,
		Field:  field,
		Detail: fmt.Sprintf("Item not found for %q.", ref),
		Params: map[string]any{"reference": ref},
	}
}

// QuotaExceeded reports that a parent already holds max children.
func QuotaExceeded(field, parent, child string, max int, current int64) *Error {
	return &Error{
		Kind:   KindQuotaExceeded,
		Field:  field,
		Detail: fmt.Sprintf("The maximum number of %s (%d) for this %s has been reached.", child, max, parent),
		Params: map[string]any{"parent": parent, "child": child, "max": max, "current": current},
	}
}

// PositionHole reports a position that would break contiguity.
func PositionHole(field, detail string, params map[string]any) *Error {
	return &Error{Kind: KindPositionHole, Field: field, Detail: detail, Params: params}
}

// Unauthorized is returned when no caller identity is available.
func Unauthorized(detail string) *Error {
	if detail == "" {
		detail = ErrUnauthorized.Detail
	}
	return &Error{Kind: KindUnauthorized, Detail: detail}
}

// Forbidden is reserved for admin-only collection operations.
func Forbidden(detail string) *Error {
	return &Error{Kind: KindForbidden, Detail: detail}
}

// Validation builds a single-field validation error.
func Validation(field, message string) *Error {
	return &Error{
		Kind:       KindValidation,
		Field:      field,
		Detail:     message,
		Violations: []Violation{{Field: field, Message: message}},
	}
}

// Violations groups several field-level failures into one error.
func Violations(vs []Violation) *Error {
	msgs := make([]string, 0, len(vs))
	for _, v := range vs {
		msgs = append(msgs, v.Field+": "+v.Message)
	}
	return &Error{Kind: KindValidation, Detail: strings.Join(msgs, "\n"), Violations: vs}
}

// UnexpectedState signals a structurally impossible situation, such as an
// entity loaded without its project.
func UnexpectedState(detail string, err error) *Error {
	return &Error{Kind: KindUnexpectedState, Detail: detail, Err: err}
}
