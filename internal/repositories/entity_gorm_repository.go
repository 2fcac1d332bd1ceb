package repositories

import (
	"context"
	"fmt"
	"time"

	"smarterd/internal/apperrors"
	"smarterd/internal/models"

	"gorm.io/gorm"
)

// GORMEntityRepository is a GORM implementation of EntityRepository.
type GORMEntityRepository struct {
	db *gorm.DB
}

// NewGORMEntityRepository creates a new instance of GORMEntityRepository.
func NewGORMEntityRepository(db *gorm.DB) *GORMEntityRepository {
	return &GORMEntityRepository{
		db: db,
	}
}

// Create creates a new entity in the database.
func (r *GORMEntityRepository) Create(ctx context.Context, entity *models.Entity) error {
	if err := r.db.WithContext(ctx).Omit("Project").Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}
	return nil
}

// Update renames an entity. The project column is never written.
func (r *GORMEntityRepository) Update(ctx context.Context, entity *models.Entity) error {
	res := r.db.WithContext(ctx).
		Model(&models.Entity{}).
		Where("id = ?", entity.ID).
		Updates(map[string]any{"name": entity.Name, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update entity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("entity %s not found for update: %w", entity.Slug, apperrors.ErrNotFound)
	}
	return nil
}

// Delete deletes an entity by its ID from the database.
func (r *GORMEntityRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Entity{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete entity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("entity with ID %d not found for deletion: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// GetBySlug retrieves an entity with its project eagerly loaded.
func (r *GORMEntityRepository) GetBySlug(ctx context.Context, slug string) (*models.Entity, error) {
	var entity models.Entity
	if err := r.db.WithContext(ctx).Preload("Project").Where("slug = ?", slug).First(&entity).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("entity with slug %s not found: %w", slug, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get entity by slug %s: %w", slug, err)
	}
	return &entity, nil
}

// FindByNameAndProject looks up the (name, project) unique key.
func (r *GORMEntityRepository) FindByNameAndProject(ctx context.Context, name string, projectID uint) (*models.Entity, error) {
	var entity models.Entity
	err := r.db.WithContext(ctx).
		Where("name = ? AND project_id = ?", name, projectID).
		First(&entity).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("entity %q of project %d not found: %w", name, projectID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get entity %q: %w", name, err)
	}
	return &entity, nil
}

// CountByProject counts the entities of a project.
func (r *GORMEntityRepository) CountByProject(ctx context.Context, projectID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Entity{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count entities of project %d: %w", projectID, err)
	}
	return count, nil
}

// ListByProject returns the entities of a project in creation order.
func (r *GORMEntityRepository) ListByProject(ctx context.Context, projectID uint) ([]models.Entity, error) {
	var entities []models.Entity
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list entities of project %d: %w", projectID, err)
	}
	return entities, nil
}

// DeleteByProject deletes every entity of a project.
func (r *GORMEntityRepository) DeleteByProject(ctx context.Context, projectID uint) error {
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.Entity{}).Error; err != nil {
		return fmt.Errorf("failed to delete entities of project %d: %w", projectID, err)
	}
	return nil
}

// LockByID locks the entity row until the surrounding transaction ends.
func (r *GORMEntityRepository) LockByID(ctx context.Context, id uint) error {
	if err := lockRow(ctx, r.db, &models.Entity{}, id); err != nil {
		return fmt.Errorf("failed to lock entity %d: %w", id, err)
	}
	return nil
}
