package services_test

import (
	"context"
	"testing"

	"smarterd/internal/apperrors"
	"smarterd/internal/identity"
	"smarterd/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func adminContext() context.Context {
	return identity.WithCaller(context.Background(), &identity.Caller{ID: 1, Username: "admin", Admin: true})
}

func TestUserService_CreateUserHashesBeforeRejecting(t *testing.T) {
	mockHasher := new(MockHasher)
	store := &MockStore{users: new(MockUserRepository)}
	svc := services.New(services.Dependencies{Store: store, Hasher: mockHasher})

	password := "SmartERD"
	mockHasher.On("Hash", "SmartERD").Return("hashed", nil).Once()

	user, err := svc.Users.CreateUser(adminContext(), services.UserInput{
		Username: "newcomer",
		Email:    "not-an-email",
		Password: &password,
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockHasher.AssertExpectations(t)
	store.AssertNotCalled(t, "WithinTransaction", mock.Anything)
	store.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_CreateUserRequiresAdmin(t *testing.T) {
	store := &MockStore{users: new(MockUserRepository)}
	svc := services.New(services.Dependencies{Store: store, Hasher: new(MockHasher)})

	ctx := identity.WithCaller(context.Background(), &identity.Caller{ID: 2, Username: "user"})
	password := "SmartERD"
	_, err := svc.Users.CreateUser(ctx, services.UserInput{Username: "other", Email: "other@smarterd.io", Password: &password})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	store.AssertNotCalled(t, "WithinTransaction", mock.Anything)
}

func TestUserService_RequiresCaller(t *testing.T) {
	store := &MockStore{users: new(MockUserRepository)}
	svc := services.New(services.Dependencies{Store: store})

	_, err := svc.Users.GetUser(context.Background(), "u-1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	store.users.AssertNotCalled(t, "GetBySlug", mock.Anything, mock.Anything)
}

func TestUserService_UpdateUserRejectsRoleChangeBySelf(t *testing.T) {
	mockHasher := new(MockHasher)
	users := new(MockUserRepository)
	store := &MockStore{users: users}
	svc := services.New(services.Dependencies{Store: store, Hasher: mockHasher})

	self := userFixture(2, "user", false)
	users.On("GetBySlug", mock.Anything, self.Slug).Return(self, nil)
	store.On("WithinTransaction", mock.Anything).Return()

	ctx := identity.WithCaller(context.Background(), services.CallerFor(self))
	promote := true
	_, err := svc.Users.UpdateUser(ctx, self.Slug, services.UserPatch{IsAdmin: &promote})

	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
