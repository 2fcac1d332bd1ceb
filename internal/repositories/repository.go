package repositories

import (
	"context"

	"smarterd/internal/models"
)

// ProjectsPerPage is the page size of project listings.
const ProjectsPerPage = 10

// Scope restricts which projects a query may return.
type Scope struct {
	OwnerID uint
	All     bool
}

// OwnedBy limits a query to the projects of ownerID.
func OwnedBy(ownerID uint) Scope {
	return Scope{OwnerID: ownerID}
}

// AllRecords disables ownership filtering.
func AllRecords() Scope {
	return Scope{All: true}
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetBySlug(ctx context.Context, slug string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	LockByID(ctx context.Context, id uint) error
}

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uint) error
	GetBySlug(ctx context.Context, slug string, scope Scope) (*models.Project, error)
	FindByNameAndOwner(ctx context.Context, name string, ownerID uint) (*models.Project, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	List(ctx context.Context, scope Scope, page int) ([]models.Project, int64, error)
	LockByID(ctx context.Context, id uint) error
}

// EntityRepository defines the interface for entity data access. Entities
// are always returned with their project loaded.
type EntityRepository interface {
	Create(ctx context.Context, entity *models.Entity) error
	Update(ctx context.Context, entity *models.Entity) error
	Delete(ctx context.Context, id uint) error
	GetBySlug(ctx context.Context, slug string) (*models.Entity, error)
	FindByNameAndProject(ctx context.Context, name string, projectID uint) (*models.Entity, error)
	CountByProject(ctx context.Context, projectID uint) (int64, error)
	ListByProject(ctx context.Context, projectID uint) ([]models.Entity, error)
	DeleteByProject(ctx context.Context, projectID uint) error
	LockByID(ctx context.Context, id uint) error
}

// AttributeRepository defines the interface for attribute data access. It
// also backs the sortable group of each entity.
type AttributeRepository interface {
	Create(ctx context.Context, attribute *models.Attribute) error
	Update(ctx context.Context, attribute *models.Attribute) error
	Delete(ctx context.Context, id uint) error
	GetBySlug(ctx context.Context, slug string) (*models.Attribute, error)
	ListByEntity(ctx context.Context, entityID uint) ([]models.Attribute, error)
	DeleteByEntity(ctx context.Context, entityID uint) error
	DeleteByProject(ctx context.Context, projectID uint) error
	MaxPosition(ctx context.Context, entityID uint) (int, bool, error)
	Shift(ctx context.Context, entityID uint, from, to, delta int) error
}

// Store groups the repositories and opens transactions spanning them.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	Entities() EntityRepository
	Attributes() AttributeRepository
	// WithinTransaction runs fn against a Store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}
