// Package identity carries the authenticated caller for the duration of one
// operation.
package identity

import (
	"context"

	"smarterd/internal/apperrors"
)

type contextKey string

const callerKey contextKey = "caller"

// Caller is the authenticated user performing an operation.
type Caller struct {
	ID       uint
	Slug     string
	Username string
	Admin    bool
}

// IsAdmin reports whether the caller bypasses ownership checks.
func (c *Caller) IsAdmin() bool {
	return c != nil && c.Admin
}

// Owns reports whether ownerID designates the caller.
func (c *Caller) Owns(ownerID uint) bool {
	return c != nil && c.ID != 0 && c.ID == ownerID
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// FromContext returns the caller stored in ctx, if any.
func FromContext(ctx context.Context) (*Caller, bool) {
	caller, ok := ctx.Value(callerKey).(*Caller)
	if !ok || caller == nil {
		return nil, false
	}
	return caller, true
}

// Require returns the caller stored in ctx or an UNAUTHORIZED error. It must
// run before any resource lookup.
func Require(ctx context.Context) (*Caller, error) {
	caller, ok := FromContext(ctx)
	if !ok || caller.ID == 0 {
		return nil, apperrors.Unauthorized("")
	}
	return caller, nil
}
