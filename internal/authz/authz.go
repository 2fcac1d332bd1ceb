// Package authz decides which records a caller may see or mutate.
//
// A record is visible to the user at the root of its ownership chain and to
// administrators. Every other caller is told the record does not exist, so
// ownership cannot be probed.
package authz

import (
	"errors"
	"fmt"

	"smarterd/internal/apperrors"
	"smarterd/internal/identity"
	"smarterd/internal/models"
	"smarterd/internal/repositories"
)

// Authorizer evaluates ownership rules.
type Authorizer struct{}

// New creates an Authorizer.
func New() *Authorizer {
	return &Authorizer{}
}

// CanAccess returns nil when caller may view or mutate res. The owner chain
// of res must be loaded.
func (a *Authorizer) CanAccess(caller *identity.Caller, res models.Owned) error {
	if caller == nil {
		return apperrors.Unauthorized("")
	}
	ownerID, ok := res.RootOwnerID()
	if !ok {
		return apperrors.UnexpectedState(fmt.Sprintf("owner of %T is not loaded", res), nil)
	}
	if caller.IsAdmin() || caller.Owns(ownerID) {
		return nil
	}
	return apperrors.NotFound()
}

// ResolveParent authorizes the parent referenced by a create. lookupErr is
// the outcome of loading parent from ref. An absent parent and a parent the
// caller may not see both fail on field with the same message.
func (a *Authorizer) ResolveParent(caller *identity.Caller, field, ref string, parent models.Owned, lookupErr error) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, apperrors.ErrNotFound) {
			return apperrors.ReferenceNotFound(field, ref)
		}
		return lookupErr
	}
	if err := a.CanAccess(caller, parent); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ReferenceNotFound(field, ref)
		}
		return err
	}
	return nil
}

// ProjectScope returns the scope project queries run with for caller.
func (a *Authorizer) ProjectScope(caller *identity.Caller) repositories.Scope {
	if caller.IsAdmin() {
		return repositories.AllRecords()
	}
	return repositories.OwnedBy(caller.ID)
}

// RequireAdmin guards the collection operations reserved to administrators.
func (a *Authorizer) RequireAdmin(caller *identity.Caller, action string) error {
	if caller.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden(fmt.Sprintf("Only administrators can %s.", action))
}

// CanAccessUser allows administrators and the user itself.
func (a *Authorizer) CanAccessUser(caller *identity.Caller, user *models.User) error {
	return a.CanAccess(caller, user)
}
