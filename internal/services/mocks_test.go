package services_test

import (
	"context"

	"smarterd/internal/models"
	"smarterd/internal/repositories"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetBySlug(ctx context.Context, slug string) (*models.User, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) LockByID(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStore is a mock implementation of repositories.Store. Only Users and
// WithinTransaction are backed by expectations.
type MockStore struct {
	mock.Mock
	users *MockUserRepository
}

func (m *MockStore) Users() repositories.UserRepository { return m.users }

func (m *MockStore) Projects() repositories.ProjectRepository {
	m.Called()
	return nil
}

func (m *MockStore) Entities() repositories.EntityRepository {
	m.Called()
	return nil
}

func (m *MockStore) Attributes() repositories.AttributeRepository {
	m.Called()
	return nil
}

func (m *MockStore) WithinTransaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	m.Called(ctx)
	return fn(m)
}

// MockHasher is a mock implementation of hasher.Hasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Compare(hashed, plain string) (bool, error) {
	args := m.Called(hashed, plain)
	return args.Bool(0), args.Error(1)
}
