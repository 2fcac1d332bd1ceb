package models

import "time"

// MaxAttributesPerEntity is the number of attributes a single entity may hold.
const MaxAttributesPerEntity = 127

// Entity represents an ERD entity (a table) inside a project.
type Entity struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;type:varchar(180);not null"`
	Name      string    `json:"name" gorm:"type:varchar(180);not null;uniqueIndex:uniq_entity_name_project"`
	ProjectID uint      `json:"-" gorm:"not null;index;uniqueIndex:uniq_entity_name_project"`
	Project   *Project  `json:"project,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e *Entity) GetSlug() string { return e.Slug }
func (e *Entity) SetSlug(slug string) { e.Slug = slug }

// RootOwnerID walks Entity -> Project -> User. It reports false when the
// project was not loaded alongside the entity.
func (e *Entity) RootOwnerID() (uint, bool) {
	if e.Project == nil {
		return 0, false
	}
	return e.Project.RootOwnerID()
}
