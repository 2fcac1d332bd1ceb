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

// ProjectInput is the payload creating a project. The owner is always the
// caller.
type ProjectInput struct {
	Name string `json:"name" validate:"required,notblank,max=50"`
}

// ProjectPatch is the payload updating a project. Owner is accepted only
// when it names the current owner.
type ProjectPatch struct {
	Name  *string `json:"name" validate:"omitempty,notblank,max=50"`
	Owner *string `json:"owner,omitempty"`
}

// ProjectPage is one page of a project listing.
type ProjectPage struct {
	Items   []models.Project `json:"items"`
	Page    int              `json:"page"`
	PerPage int              `json:"perPage"`
	Total   int64            `json:"total"`
}

// ProjectDetails is a project along with its entities.
type ProjectDetails struct {
	models.Project
	Entities []models.Entity `json:"entities"`
}

// ProjectService handles the lifecycle of projects.
type ProjectService struct {
	deps *Dependencies
}

// ListProjects returns one page of the projects visible to the caller.
func (s *ProjectService) ListProjects(ctx context.Context, page int) (*ProjectPage, error) {
	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	projects, total, err := s.deps.Store.Projects().List(ctx, s.deps.Authz.ProjectScope(caller), page)
	if err != nil {
		return nil, err
	}
	return &ProjectPage{Items: projects, Page: page, PerPage: repositories.ProjectsPerPage, Total: total}, nil
}

// GetProject returns a project visible to the caller with its entities.
func (s *ProjectService) GetProject(ctx context.Context, slug string) (*ProjectDetails, error) {
	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.deps, s.deps.Store, caller, slug)
	if err != nil {
		return nil, err
	}

	entities, err := s.deps.Store.Entities().ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectDetails{Project: *project, Entities: entities}, nil
}

// CreateProject creates a project owned by the caller.
func (s *ProjectService) CreateProject(ctx context.Context, input ProjectInput) (project *models.Project, err error) {
	defer func(start time.Time) { s.deps.observe("project", "create", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Validator.Struct(input); err != nil {
		return nil, err
	}

	project = &models.Project{Name: input.Name, OwnerID: caller.ID}
	slug.Assign(s.deps.Slugs, project)

	err = s.deps.locked(ctx, lockKey("user", caller.ID), func(tx repositories.Store) error {
		if err := tx.Users().LockByID(ctx, caller.ID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.Unauthorized("Token does not identify a user.")
			}
			return err
		}
		if err := quota.ProjectsPerUser.Check(ctx, func(ctx context.Context) (int64, error) {
			return tx.Projects().CountByOwner(ctx, caller.ID)
		}); err != nil {
			return err
		}
		if err := uniqueProjectName(ctx, tx, project.Name, caller.ID, 0); err != nil {
			return err
		}
		return tx.Projects().Create(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	s.deps.emit("project", events.ActionCreated, project.Slug, "", caller.Username)
	return project, nil
}

// UpdateProject renames a project.
func (s *ProjectService) UpdateProject(ctx context.Context, slug string, patch ProjectPatch) (project *models.Project, err error) {
	defer func(start time.Time) { s.deps.observe("project", "update", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Validator.Struct(patch); err != nil {
		return nil, err
	}

	current, err := loadProject(ctx, s.deps, s.deps.Store, caller, slug)
	if err != nil {
		return nil, err
	}

	// Names are unique per owner: renames take the lock creates take.
	err = s.deps.locked(ctx, lockKey("user", current.OwnerID), func(tx repositories.Store) error {
		if err := tx.Users().LockByID(ctx, current.OwnerID); err != nil {
			return notFoundAsIs(err)
		}
		project, err = loadProject(ctx, s.deps, tx, caller, slug)
		if err != nil {
			return err
		}
		if project.Owner == nil {
			return apperrors.UnexpectedState(fmt.Sprintf("owner of project %s is not loaded", project.Slug), nil)
		}
		if err := immutable("owner", "The owner of a project cannot be changed.", patch.Owner, project.Owner.Slug); err != nil {
			return err
		}
		if patch.Name == nil || *patch.Name == project.Name {
			return nil
		}
		if err := uniqueProjectName(ctx, tx, *patch.Name, project.OwnerID, project.ID); err != nil {
			return err
		}
		project.Name = *patch.Name
		return tx.Projects().Update(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	s.deps.emit("project", events.ActionUpdated, project.Slug, "", caller.Username)
	return project, nil
}

// DeleteProject deletes a project with its entities and their attributes.
func (s *ProjectService) DeleteProject(ctx context.Context, slug string) (err error) {
	defer func(start time.Time) { s.deps.observe("project", "delete", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return err
	}

	current, err := loadProject(ctx, s.deps, s.deps.Store, caller, slug)
	if err != nil {
		return err
	}

	err = s.deps.locked(ctx, lockKey("project", current.ID), func(tx repositories.Store) error {
		if err := tx.Projects().LockByID(ctx, current.ID); err != nil {
			return notFoundAsIs(err)
		}
		project, err := loadProject(ctx, s.deps, tx, caller, slug)
		if err != nil {
			return err
		}
		if err := tx.Attributes().DeleteByProject(ctx, project.ID); err != nil {
			return err
		}
		if err := tx.Entities().DeleteByProject(ctx, project.ID); err != nil {
			return err
		}
		return tx.Projects().Delete(ctx, project.ID)
	})
	if err != nil {
		return err
	}

	s.deps.emit("project", events.ActionDeleted, slug, "", caller.Username)
	return nil
}

// loadProject fetches a project within the caller's scope and authorizes it.
func loadProject(ctx context.Context, d *Dependencies, store repositories.Store, caller *identity.Caller, slug string) (*models.Project, error) {
	project, err := store.Projects().GetBySlug(ctx, slug, d.Authz.ProjectScope(caller))
	if err != nil {
		return nil, notFoundAsIs(err)
	}
	if err := d.Authz.CanAccess(caller, project); err != nil {
		return nil, err
	}
	return project, nil
}

func uniqueProjectName(ctx context.Context, tx repositories.Store, name string, ownerID, selfID uint) error {
	existing, err := tx.Projects().FindByNameAndOwner(ctx, name, ownerID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	}
	return apperrors.Validation("name", fmt.Sprintf("You have already created a project with this name %s", name))
}
