package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smarterd/internal/apperrors"
	"smarterd/internal/events"
	"smarterd/internal/identity"
	"smarterd/internal/models"
	"smarterd/internal/quota"
	"smarterd/internal/repositories"
	"smarterd/internal/slug"
)

// EntityInput is the payload creating an entity in the referenced project.
type EntityInput struct {
	Name    string `json:"name" validate:"required,notblank,alpha,max=180"`
	Project string `json:"project" validate:"required,notblank"`
}

// EntityPatch is the payload updating an entity. Project is accepted only
// when it names the current project.
type EntityPatch struct {
	Name    *string `json:"name" validate:"omitempty,notblank,alpha,max=180"`
	Project *string `json:"project,omitempty"`
}

// EntityDetails is an entity along with its attributes ordered by position.
type EntityDetails struct {
	models.Entity
	Attributes []models.Attribute `json:"attributes"`
}

// EntityService handles the lifecycle of entities.
type EntityService struct {
	deps *Dependencies
}

// GetEntity returns an entity visible to the caller with its attributes.
func (s *EntityService) GetEntity(ctx context.Context, slug string) (*EntityDetails, error) {
	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	entity, err := loadEntity(ctx, s.deps, s.deps.Store, caller, slug)
	if err != nil {
		return nil, err
	}

	attributes, err := s.deps.Store.Attributes().ListByEntity(ctx, entity.ID)
	if err != nil {
		return nil, err
	}
	return &EntityDetails{Entity: *entity, Attributes: attributes}, nil
}

// ListEntities returns the entities of a project visible to the caller.
func (s *EntityService) ListEntities(ctx context.Context, projectSlug string) ([]models.Entity, error) {
	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.deps, s.deps.Store, caller, projectSlug)
	if err != nil {
		return nil, err
	}
	return s.deps.Store.Entities().ListByProject(ctx, project.ID)
}

// CreateEntity creates an entity in a project the caller may access.
func (s *EntityService) CreateEntity(ctx context.Context, input EntityInput) (entity *models.Entity, err error) {
	defer func(start time.Time) { s.deps.observe("entity", "create", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Validator.Struct(input); err != nil {
		return nil, err
	}

	entity = &models.Entity{Name: input.Name}
	slug.Assign(s.deps.Slugs, entity)

	project, lookupErr := s.deps.Store.Projects().GetBySlug(ctx, input.Project, s.deps.Authz.ProjectScope(caller))
	if err := s.deps.Authz.ResolveParent(caller, "project", input.Project, project, lookupErr); err != nil {
		return nil, err
	}
	entity.ProjectID = project.ID

	err = s.deps.locked(ctx, lockKey("project", project.ID), func(tx repositories.Store) error {
		if err := tx.Projects().LockByID(ctx, project.ID); err != nil {
			return referenceGone(err, "project", input.Project)
		}
		if err := quota.EntitiesPerProject.Check(ctx, func(ctx context.Context) (int64, error) {
			return tx.Entities().CountByProject(ctx, project.ID)
		}); err != nil {
			return err
		}
		if err := uniqueEntityName(ctx, tx, entity.Name, project.ID, 0); err != nil {
			return err
		}
		return tx.Entities().Create(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	entity.Project = project
	s.deps.emit("entity", events.ActionCreated, entity.Slug, project.Slug, caller.Username)
	return entity, nil
}

// UpdateEntity renames an entity. Its project cannot be changed.
func (s *EntityService) UpdateEntity(ctx context.Context, slug string, patch EntityPatch) (entity *models.Entity, err error) {
	defer func(start time.Time) { s.deps.observe("entity", "update", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Validator.Struct(patch); err != nil {
		return nil, err
	}

	current, err := loadEntity(ctx, s.deps, s.deps.Store, caller, slug)
	if err != nil {
		return nil, err
	}

	// Names are unique per project: renames take the lock creates take.
	err = s.deps.locked(ctx, lockKey("project", current.ProjectID), func(tx repositories.Store) error {
		if err := tx.Projects().LockByID(ctx, current.ProjectID); err != nil {
			return notFoundAsIs(err)
		}
		entity, err = loadEntity(ctx, s.deps, tx, caller, slug)
		if err != nil {
			return err
		}
		if err := immutable("project", "The project of an entity cannot be changed.", patch.Project, entity.Project.Slug); err != nil {
			return err
		}
		if patch.Name == nil || *patch.Name == entity.Name {
			return nil
		}
		if err := uniqueEntityName(ctx, tx, *patch.Name, entity.ProjectID, entity.ID); err != nil {
			return err
		}
		entity.Name = *patch.Name
		return tx.Entities().Update(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.deps.emit("entity", events.ActionUpdated, entity.Slug, entity.Project.Slug, caller.Username)
	return entity, nil
}

// DeleteEntity deletes an entity with its attributes.
func (s *EntityService) DeleteEntity(ctx context.Context, slug string) (err error) {
	defer func(start time.Time) { s.deps.observe("entity", "delete", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return err
	}

	current, err := loadEntity(ctx, s.deps, s.deps.Store, caller, slug)
	if err != nil {
		return err
	}

	err = s.deps.locked(ctx, lockKey("entity", current.ID), func(tx repositories.Store) error {
		if err := tx.Entities().LockByID(ctx, current.ID); err != nil {
			return notFoundAsIs(err)
		}
		entity, err := loadEntity(ctx, s.deps, tx, caller, slug)
		if err != nil {
			return err
		}
		if err := tx.Attributes().DeleteByEntity(ctx, entity.ID); err != nil {
			return err
		}
		return tx.Entities().Delete(ctx, entity.ID)
	})
	if err != nil {
		return err
	}

	s.deps.emit("entity", events.ActionDeleted, slug, current.Project.Slug, caller.Username)
	return nil
}

// loadEntity fetches an entity with its project and authorizes it.
func loadEntity(ctx context.Context, d *Dependencies, store repositories.Store, caller *identity.Caller, slug string) (*models.Entity, error) {
	entity, err := store.Entities().GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAsIs(err)
	}
	if err := d.Authz.CanAccess(caller, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func uniqueEntityName(ctx context.Context, tx repositories.Store, name string, projectID, selfID uint) error {
	existing, err := tx.Entities().FindByNameAndProject(ctx, name, projectID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	}
	return apperrors.Validation("name", fmt.Sprintf("You already created an entity with this name %s", name))
}
