package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smarterd/internal/apperrors"
	"smarterd/internal/models"

	"gorm.io/gorm"
)

// GORMAttributeRepository is a GORM implementation of AttributeRepository.
type GORMAttributeRepository struct {
	db *gorm.DB
}

// NewGORMAttributeRepository creates a new instance of GORMAttributeRepository.
func NewGORMAttributeRepository(db *gorm.DB) *GORMAttributeRepository {
	return &GORMAttributeRepository{
		db: db,
	}
}

// Create creates a new attribute in the database.
func (r *GORMAttributeRepository) Create(ctx context.Context, attribute *models.Attribute) error {
	if err := r.db.WithContext(ctx).Omit("Entity").Create(attribute).Error; err != nil {
		return fmt.Errorf("failed to create attribute: %w", err)
	}
	return nil
}

// Update writes the name and position of an attribute. The entity column is
// never written.
func (r *GORMAttributeRepository) Update(ctx context.Context, attribute *models.Attribute) error {
	res := r.db.WithContext(ctx).
		Model(&models.Attribute{}).
		Where("id = ?", attribute.ID).
		Updates(map[string]any{
			"name":       attribute.Name,
			"position":   attribute.Position,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update attribute: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("attribute %s not found for update: %w", attribute.Slug, apperrors.ErrNotFound)
	}
	return nil
}

// Delete deletes an attribute by its ID from the database.
func (r *GORMAttributeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Attribute{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete attribute: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("attribute with ID %d not found for deletion: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// GetBySlug retrieves an attribute with its entity and project loaded.
func (r *GORMAttributeRepository) GetBySlug(ctx context.Context, slug string) (*models.Attribute, error) {
	var attribute models.Attribute
	err := r.db.WithContext(ctx).
		Preload("Entity.Project").
		Where("slug = ?", slug).
		First(&attribute).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("attribute with slug %s not found: %w", slug, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get attribute by slug %s: %w", slug, err)
	}
	return &attribute, nil
}

// ListByEntity returns the attributes of an entity ordered by position.
func (r *GORMAttributeRepository) ListByEntity(ctx context.Context, entityID uint) ([]models.Attribute, error) {
	var attributes []models.Attribute
	if err := r.db.WithContext(ctx).Where("entity_id = ?", entityID).Order("position").Find(&attributes).Error; err != nil {
		return nil, fmt.Errorf("failed to list attributes of entity %d: %w", entityID, err)
	}
	return attributes, nil
}

// DeleteByEntity deletes every attribute of an entity.
func (r *GORMAttributeRepository) DeleteByEntity(ctx context.Context, entityID uint) error {
	if err := r.db.WithContext(ctx).Where("entity_id = ?", entityID).Delete(&models.Attribute{}).Error; err != nil {
		return fmt.Errorf("failed to delete attributes of entity %d: %w", entityID, err)
	}
	return nil
}

// DeleteByProject deletes every attribute of every entity of a project.
func (r *GORMAttributeRepository) DeleteByProject(ctx context.Context, projectID uint) error {
	entityIDs := r.db.Model(&models.Entity{}).Select("id").Where("project_id = ?", projectID)
	if err := r.db.WithContext(ctx).Where("entity_id IN (?)", entityIDs).Delete(&models.Attribute{}).Error; err != nil {
		return fmt.Errorf("failed to delete attributes of project %d: %w", projectID, err)
	}
	return nil
}

// MaxPosition returns the highest position used in the entity's group. The
// boolean is false when the entity has no attribute.
func (r *GORMAttributeRepository) MaxPosition(ctx context.Context, entityID uint) (int, bool, error) {
	var last sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&models.Attribute{}).
		Select("MAX(position)").
		Where("entity_id = ?", entityID).
		Row().
		Scan(&last)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read last position of entity %d: %w", entityID, err)
	}
	if !last.Valid {
		return 0, false, nil
	}
	return int(last.Int64), true, nil
}

// Shift adds delta to every position in [from, to] of the entity's group. A
// negative to leaves the range unbounded.
func (r *GORMAttributeRepository) Shift(ctx context.Context, entityID uint, from, to, delta int) error {
	q := r.db.WithContext(ctx).
		Model(&models.Attribute{}).
		Where("entity_id = ? AND position >= ?", entityID, from)
	if to >= 0 {
		q = q.Where("position <= ?", to)
	}
	if err := q.UpdateColumn("position", gorm.Expr("position + ?", delta)).Error; err != nil {
		return fmt.Errorf("failed to shift positions of entity %d: %w", entityID, err)
	}
	return nil
}
