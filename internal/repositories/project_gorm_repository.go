package repositories

import (
	"context"
	"fmt"
	"time"

	"smarterd/internal/apperrors"
	"smarterd/internal/models"

	"gorm.io/gorm"
)

// GORMProjectRepository is a GORM implementation of ProjectRepository.
type GORMProjectRepository struct {
	db *gorm.DB
}

// NewGORMProjectRepository creates a new instance of GORMProjectRepository.
func NewGORMProjectRepository(db *gorm.DB) *GORMProjectRepository {
	return &GORMProjectRepository{
		db: db,
	}
}

// scoped adds the ownership filter to a project query.
func scoped(db *gorm.DB, scope Scope) *gorm.DB {
	if scope.All {
		return db
	}
	return db.Where("projects.owner_id = ?", scope.OwnerID)
}

// Create creates a new project in the database.
func (r *GORMProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Omit("Owner").Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// Update renames a project. The owner column is never written.
func (r *GORMProjectRepository) Update(ctx context.Context, project *models.Project) error {
	res := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", project.ID).
		Updates(map[string]any{"name": project.Name, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("project %s not found for update: %w", project.Slug, apperrors.ErrNotFound)
	}
	return nil
}

// Delete deletes a project by its ID from the database.
func (r *GORMProjectRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("project with ID %d not found for deletion: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// GetBySlug retrieves a project visible within scope.
func (r *GORMProjectRepository) GetBySlug(ctx context.Context, slug string, scope Scope) (*models.Project, error) {
	var project models.Project
	err := scoped(r.db.WithContext(ctx), scope).
		Preload("Owner").
		Where("projects.slug = ?", slug).
		First(&project).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("project with slug %s not found: %w", slug, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project by slug %s: %w", slug, err)
	}
	return &project, nil
}

// FindByNameAndOwner looks up the (name, owner) unique key.
func (r *GORMProjectRepository) FindByNameAndOwner(ctx context.Context, name string, ownerID uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Where("name = ? AND owner_id = ?", name, ownerID).
		First(&project).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("project %q of user %d not found: %w", name, ownerID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project %q: %w", name, err)
	}
	return &project, nil
}

// CountByOwner counts the projects of a user.
func (r *GORMProjectRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Project{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count projects of user %d: %w", ownerID, err)
	}
	return count, nil
}

// List returns one page (1-based) of the projects visible within scope,
// along with the total number of visible projects.
func (r *GORMProjectRepository) List(ctx context.Context, scope Scope, page int) ([]models.Project, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := scoped(r.db.WithContext(ctx).Model(&models.Project{}), scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	var projects []models.Project
	err := scoped(r.db.WithContext(ctx), scope).
		Preload("Owner").
		Order("projects.id").
		Offset((page - 1) * ProjectsPerPage).
		Limit(ProjectsPerPage).
		Find(&projects).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// LockByID locks the project row until the surrounding transaction ends.
func (r *GORMProjectRepository) LockByID(ctx context.Context, id uint) error {
	if err := lockRow(ctx, r.db, &models.Project{}, id); err != nil {
		return fmt.Errorf("failed to lock project %d: %w", id, err)
	}
	return nil
}
