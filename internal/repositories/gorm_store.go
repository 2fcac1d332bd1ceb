package repositories

import (
	"context"
	"errors"

	"smarterd/internal/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStore is a GORM implementation of Store.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new instance of GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

func (s *GORMStore) Users() UserRepository           { return NewGORMUserRepository(s.db) }
func (s *GORMStore) Projects() ProjectRepository     { return NewGORMProjectRepository(s.db) }
func (s *GORMStore) Entities() EntityRepository      { return NewGORMEntityRepository(s.db) }
func (s *GORMStore) Attributes() AttributeRepository { return NewGORMAttributeRepository(s.db) }

// WithinTransaction runs fn inside a database transaction.
func (s *GORMStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMStore(tx))
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// lockRow takes a row lock on the record identified by id and fails with
// apperrors.ErrNotFound when the row is gone. SQLite has no row-level
// locking and its dialect drops the clause; writers are already serialized
// there.
func lockRow(ctx context.Context, db *gorm.DB, model any, id uint) error {
	var found []uint
	err := db.WithContext(ctx).
		Model(model).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Pluck("id", &found).Error
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
