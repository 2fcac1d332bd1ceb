package models

import "time"

// MaxEntitiesPerProject is the number of entities a single project may hold.
const MaxEntitiesPerProject = 30

// Project represents an ERD project owned by a user.
type Project struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;type:varchar(180);not null"`
	Name      string    `json:"name" gorm:"type:varchar(50);not null;uniqueIndex:uniq_project_name_owner"`
	OwnerID   uint      `json:"-" gorm:"not null;index;uniqueIndex:uniq_project_name_owner"`
	Owner     *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Project) GetSlug() string { return p.Slug }
func (p *Project) SetSlug(slug string) { p.Slug = slug }

// RootOwnerID returns the owning user's ID.
func (p *Project) RootOwnerID() (uint, bool) {
	return p.OwnerID, p.OwnerID != 0
}
