package models

import "time"

// MaxProjectsPerUser is the number of projects a single user may own.
const MaxProjectsPerUser = 5

// User represents an account owning projects.
type User struct {
	ID             uint      `json:"-" gorm:"primaryKey"`
	Slug           string    `json:"slug" gorm:"uniqueIndex;type:varchar(180);not null"`
	Username       string    `json:"username" gorm:"uniqueIndex;type:varchar(180);not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;type:varchar(180);not null"`
	IsAdmin        bool      `json:"isAdmin" gorm:"not null;default:false"`
	HashedPassword string    `json:"-" gorm:"type:varchar(180);not null"`
	PlainPassword  *string   `json:"-" gorm:"-"` // Never persisted, erased once hashed
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) GetSlug() string { return u.Slug }
func (u *User) SetSlug(slug string) { u.Slug = slug }

// RootOwnerID returns the user itself: a user is the root of its own chain.
func (u *User) RootOwnerID() (uint, bool) {
	return u.ID, u.ID != 0
}

// Roles returns the role names carried in issued tokens.
func (u *User) Roles() []string {
	if u.IsAdmin {
		return []string{RoleAdmin, RoleUser}
	}
	return []string{RoleUser}
}

// EraseCredentials drops the plaintext password from memory.
func (u *User) EraseCredentials() {
	u.PlainPassword = nil
}

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)
