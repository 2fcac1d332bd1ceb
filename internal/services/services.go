package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smarterd/internal/apperrors"
	"smarterd/internal/authz"
	"smarterd/internal/events"
	"smarterd/internal/hasher"
	"smarterd/internal/lock"
	"smarterd/internal/metrics"
	"smarterd/internal/repositories"
	"smarterd/internal/slug"
	"smarterd/internal/validation"

	log "github.com/sirupsen/logrus"
)

// Dependencies are the collaborators shared by every lifecycle service.
// Only Store is required; New fills in defaults for the rest, except for
// Events and Metrics which stay disabled when nil.
type Dependencies struct {
	Store     repositories.Store
	Authz     *authz.Authorizer
	Slugs     slug.Generator
	Validator *validation.Validator
	Hasher    hasher.Hasher
	Locks     *lock.Keyed
	Events    events.Publisher
	Metrics   *metrics.Metrics
}

// Services groups the lifecycle services built on one set of Dependencies.
type Services struct {
	Users      *UserService
	Projects   *ProjectService
	Entities   *EntityService
	Attributes *AttributeService
}

// New builds every lifecycle service.
func New(deps Dependencies) *Services {
	d := deps.withDefaults()
	return &Services{
		Users:      &UserService{deps: d},
		Projects:   &ProjectService{deps: d},
		Entities:   &EntityService{deps: d},
		Attributes: &AttributeService{deps: d},
	}
}

func (d Dependencies) withDefaults() *Dependencies {
	if d.Authz == nil {
		d.Authz = authz.New()
	}
	if d.Slugs == nil {
		d.Slugs = slug.NewUUIDGenerator()
	}
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Hasher == nil {
		d.Hasher = hasher.NewBcryptHasher(0)
	}
	if d.Locks == nil {
		d.Locks = lock.NewKeyed()
	}
	return &d
}

// locked runs fn in a transaction while holding the in-process lock of key.
// The lock is released on every exit path.
func (d *Dependencies) locked(ctx context.Context, key string, fn func(tx repositories.Store) error) error {
	unlock := d.Locks.Lock(key)
	defer unlock()
	return d.Store.WithinTransaction(ctx, fn)
}

// observe records the outcome of an operation. Rejections are logged at
// debug level, anything else at error level.
func (d *Dependencies) observe(resource, operation string, start time.Time, err error) {
	d.Metrics.Observe(resource, operation, start, err)
	if err == nil {
		return
	}
	entry := log.WithFields(log.Fields{"resource": resource, "operation": operation})
	if kind := apperrors.KindOf(err); kind != "" && kind != apperrors.KindUnexpectedState {
		entry.WithField("kind", kind).Debugf("Operation rejected: %v", err)
		return
	}
	entry.Errorf("Operation failed: %v", err)
}

func (d *Dependencies) emit(resource, action, slug, parent, actor string) {
	events.Emit(d.Events, events.Event{Resource: resource, Action: action, Slug: slug, Parent: parent, Actor: actor})
}

func lockKey(kind string, id uint) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// notFoundAsIs turns a wrapped repository miss into the bare NOT_FOUND
// outcome returned to callers.
func notFoundAsIs(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound()
	}
	return err
}

// referenceGone maps a parent row deleted between its lookup and its lock to
// the outcome of an unresolvable reference on field.
func referenceGone(err error, field, ref string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ReferenceNotFound(field, ref)
	}
	return err
}

// immutable rejects a patch trying to move a record to another parent. A
// patch naming the current parent is accepted.
func immutable(field, message string, requested *string, current string) error {
	if requested == nil || *requested == current {
		return nil
	}
	return apperrors.Validation(field, message)
}
