package models

import "time"

// UnassignedPosition asks for the attribute to be appended to its entity.
const UnassignedPosition = -1

// Attribute represents a column of an entity. Positions of the attributes of
// one entity always form the sequence 0..n-1.
type Attribute struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;type:varchar(180);not null"`
	Name      string    `json:"name" gorm:"type:varchar(180);not null"`
	EntityID  uint      `json:"-" gorm:"not null;index:idx_attribute_entity_position,priority:1"`
	Entity    *Entity   `json:"entity,omitempty" gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE"`
	Position  int       `json:"position" gorm:"type:smallint;not null;index:idx_attribute_entity_position,priority:2"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Attribute) GetSlug() string { return a.Slug }
func (a *Attribute) SetSlug(slug string) { a.Slug = slug }

func (a *Attribute) GetPosition() int { return a.Position }
func (a *Attribute) SetPosition(pos int) { a.Position = pos }

// RootOwnerID walks Attribute -> Entity -> Project -> User.
func (a *Attribute) RootOwnerID() (uint, bool) {
	if a.Entity == nil {
		return 0, false
	}
	return a.Entity.RootOwnerID()
}
