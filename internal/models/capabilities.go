package models

// Sluggable is implemented by records exposed through a public slug.
type Sluggable interface {
	GetSlug() string
	SetSlug(slug string)
}

// Positioned is implemented by records living in a sortable group.
type Positioned interface {
	GetPosition() int
	SetPosition(pos int)
}

// Owned is implemented by every record reachable from a root user. The
// boolean is false when the chain up to the user has not been loaded.
type Owned interface {
	RootOwnerID() (uint, bool)
}

// All returns the models handled by the schema migration.
func All() []any {
	return []any{&User{}, &Project{}, &Entity{}, &Attribute{}}
}
