package services

import (
	"context"
	"time"

	"smarterd/internal/events"
	"smarterd/internal/identity"
	"smarterd/internal/models"
	"smarterd/internal/position"
	"smarterd/internal/repositories"
	"smarterd/internal/slug"
)

// AttributeInput is the payload creating an attribute in the referenced
// entity. A nil Position appends the attribute.
type AttributeInput struct {
	Name     string `json:"name" validate:"required,notblank,alpha,max=180"`
	Entity   string `json:"entity" validate:"required,notblank"`
	Position *int   `json:"position,omitempty"`
}

// AttributePatch is the payload updating an attribute. A Position moves the
// attribute within its entity; Entity is accepted only when it names the
// current entity.
type AttributePatch struct {
	Name     *string `json:"name" validate:"omitempty,notblank,alpha,max=180"`
	Position *int    `json:"position,omitempty"`
	Entity   *string `json:"entity,omitempty"`
}

// AttributeService handles the lifecycle of attributes and keeps the
// positions of each entity contiguous.
type AttributeService struct {
	deps *Dependencies
}

// GetAttribute returns an attribute visible to the caller.
func (s *AttributeService) GetAttribute(ctx context.Context, slug string) (*models.Attribute, error) {
	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	return loadAttribute(ctx, s.deps, s.deps.Store, caller, slug)
}

// ListAttributes returns the attributes of an entity ordered by position.
func (s *AttributeService) ListAttributes(ctx context.Context, entitySlug string) ([]models.Attribute, error) {
	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := loadEntity(ctx, s.deps, s.deps.Store, caller, entitySlug)
	if err != nil {
		return nil, err
	}
	return s.deps.Store.Attributes().ListByEntity(ctx, entity.ID)
}

// CreateAttribute creates an attribute and shifts the siblings it lands
// before.
func (s *AttributeService) CreateAttribute(ctx context.Context, input AttributeInput) (attribute *models.Attribute, err error) {
	defer func(start time.Time) { s.deps.observe("attribute", "create", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Validator.Struct(input); err != nil {
		return nil, err
	}

	attribute = &models.Attribute{Name: input.Name, Position: models.UnassignedPosition}
	if input.Position != nil {
		attribute.Position = *input.Position
	}
	slug.Assign(s.deps.Slugs, attribute)

	entity, lookupErr := s.deps.Store.Entities().GetBySlug(ctx, input.Entity)
	if err := s.deps.Authz.ResolveParent(caller, "entity", input.Entity, entity, lookupErr); err != nil {
		return nil, err
	}
	attribute.EntityID = entity.ID

	err = s.deps.locked(ctx, lockKey("entity", entity.ID), func(tx repositories.Store) error {
		if err := tx.Entities().LockByID(ctx, entity.ID); err != nil {
			return referenceGone(err, "entity", input.Entity)
		}
		pos, err := position.NewEngine(tx.Attributes(), position.Attributes).Insert(ctx, entity.ID, attribute.Position)
		if err != nil {
			return err
		}
		attribute.Position = pos
		return tx.Attributes().Create(ctx, attribute)
	})
	if err != nil {
		return nil, err
	}

	attribute.Entity = entity
	s.deps.emit("attribute", events.ActionCreated, attribute.Slug, entity.Slug, caller.Username)
	return attribute, nil
}

// UpdateAttribute renames and/or moves an attribute within its entity.
func (s *AttributeService) UpdateAttribute(ctx context.Context, slug string, patch AttributePatch) (attribute *models.Attribute, err error) {
	defer func(start time.Time) { s.deps.observe("attribute", "update", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Validator.Struct(patch); err != nil {
		return nil, err
	}

	current, err := loadAttribute(ctx, s.deps, s.deps.Store, caller, slug)
	if err != nil {
		return nil, err
	}

	err = s.deps.locked(ctx, lockKey("entity", current.EntityID), func(tx repositories.Store) error {
		if err := tx.Entities().LockByID(ctx, current.EntityID); err != nil {
			return notFoundAsIs(err)
		}
		// Reload under the lock: the position may have moved since.
		attribute, err = loadAttribute(ctx, s.deps, tx, caller, slug)
		if err != nil {
			return err
		}
		if err := immutable("entity", "The entity of an attribute cannot be changed.", patch.Entity, attribute.Entity.Slug); err != nil {
			return err
		}

		changed := false
		if patch.Position != nil {
			to, err := position.NewEngine(tx.Attributes(), position.Attributes).Move(ctx, attribute.EntityID, attribute.Position, *patch.Position)
			if err != nil {
				return err
			}
			changed = to != attribute.Position
			attribute.Position = to
		}
		if patch.Name != nil && *patch.Name != attribute.Name {
			attribute.Name = *patch.Name
			changed = true
		}
		if !changed {
			return nil
		}
		return tx.Attributes().Update(ctx, attribute)
	})
	if err != nil {
		return nil, err
	}

	s.deps.emit("attribute", events.ActionUpdated, attribute.Slug, attribute.Entity.Slug, caller.Username)
	return attribute, nil
}

// DeleteAttribute deletes an attribute and renumbers its siblings in the
// same transaction.
func (s *AttributeService) DeleteAttribute(ctx context.Context, slug string) (err error) {
	defer func(start time.Time) { s.deps.observe("attribute", "delete", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return err
	}

	current, err := loadAttribute(ctx, s.deps, s.deps.Store, caller, slug)
	if err != nil {
		return err
	}

	err = s.deps.locked(ctx, lockKey("entity", current.EntityID), func(tx repositories.Store) error {
		if err := tx.Entities().LockByID(ctx, current.EntityID); err != nil {
			return notFoundAsIs(err)
		}
		attribute, err := loadAttribute(ctx, s.deps, tx, caller, slug)
		if err != nil {
			return err
		}
		if err := tx.Attributes().Delete(ctx, attribute.ID); err != nil {
			return err
		}
		return position.NewEngine(tx.Attributes(), position.Attributes).Remove(ctx, attribute.EntityID, attribute.Position)
	})
	if err != nil {
		return err
	}

	s.deps.emit("attribute", events.ActionDeleted, slug, current.Entity.Slug, caller.Username)
	return nil
}

// loadAttribute fetches an attribute with its owner chain and authorizes it.
func loadAttribute(ctx context.Context, d *Dependencies, store repositories.Store, caller *identity.Caller, slug string) (*models.Attribute, error) {
	attribute, err := store.Attributes().GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAsIs(err)
	}
	if err := d.Authz.CanAccess(caller, attribute); err != nil {
		return nil, err
	}
	return attribute, nil
}
