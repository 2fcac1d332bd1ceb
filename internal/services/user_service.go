package services

import (
	"context"
	"errors"
	"time"

	"smarterd/internal/apperrors"
	"smarterd/internal/events"
	"smarterd/internal/identity"
	"smarterd/internal/models"
	"smarterd/internal/repositories"
	"smarterd/internal/slug"
)

// UserInput is the payload creating a user.
type UserInput struct {
	Username string  `json:"username" validate:"required,notblank,min=3,max=180"`
	Email    string  `json:"email" validate:"required,email,max=180"`
	Password *string `json:"password" validate:"required,notblank,min=6,max=180"`
	IsAdmin  bool    `json:"isAdmin"`
}

// UserPatch is the payload updating a user. Only administrators may change
// IsAdmin.
type UserPatch struct {
	Email    *string `json:"email" validate:"omitempty,email,max=180"`
	Password *string `json:"password" validate:"omitempty,notblank,min=6,max=180"`
	IsAdmin  *bool   `json:"isAdmin"`
}

// UserService handles the lifecycle of users.
type UserService struct {
	deps *Dependencies
}

// GetUser returns a user. Only administrators may read other users.
func (s *UserService) GetUser(ctx context.Context, slug string) (*models.User, error) {
	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.deps.Store, caller, slug)
}

// CreateUser creates a user. It is reserved to administrators.
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (user *models.User, err error) {
	defer func(start time.Time) { s.deps.observe("user", "create", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Authz.RequireAdmin(caller, "create users"); err != nil {
		return nil, err
	}

	user, err = s.create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.deps.emit("user", events.ActionCreated, user.Slug, "", caller.Username)
	return user, nil
}

// Bootstrap creates a user without a caller. It serves fixtures and the
// command line, which run outside of any request.
func (s *UserService) Bootstrap(ctx context.Context, input UserInput) (user *models.User, err error) {
	defer func(start time.Time) { s.deps.observe("user", "bootstrap", start, err) }(time.Now())
	return s.create(ctx, input)
}

func (s *UserService) create(ctx context.Context, input UserInput) (*models.User, error) {
	user := &models.User{
		Username:      input.Username,
		Email:         input.Email,
		IsAdmin:       input.IsAdmin,
		PlainPassword: input.Password,
	}
	slug.Assign(s.deps.Slugs, user)

	verr := s.deps.Validator.Struct(input)
	if err := s.applyCredentials(user); err != nil {
		return nil, err
	}
	if verr != nil {
		return nil, verr
	}

	err := s.deps.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		if err := uniqueUsername(ctx, tx, user.Username); err != nil {
			return err
		}
		if err := uniqueEmail(ctx, tx, user.Email, 0); err != nil {
			return err
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser changes the email, password or role of a user.
func (s *UserService) UpdateUser(ctx context.Context, slug string, patch UserPatch) (user *models.User, err error) {
	defer func(start time.Time) { s.deps.observe("user", "update", start, err) }(time.Now())

	caller, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}

	err = s.deps.Store.WithinTransaction(ctx, func(tx repositories.Store) error {
		user, err = s.load(ctx, tx, caller, slug)
		if err != nil {
			return err
		}

		verr := s.deps.Validator.Struct(patch)
		if patch.Password != nil {
			user.PlainPassword = patch.Password
		}
		if err := s.applyCredentials(user); err != nil {
			return err
		}
		if verr != nil {
			return verr
		}

		if patch.IsAdmin != nil && *patch.IsAdmin != user.IsAdmin {
			if !caller.IsAdmin() {
				return apperrors.Validation("isAdmin", "Only administrators can change the role of a user.")
			}
			user.IsAdmin = *patch.IsAdmin
		}
		if patch.Email != nil && *patch.Email != user.Email {
			if err := uniqueEmail(ctx, tx, *patch.Email, user.ID); err != nil {
				return err
			}
			user.Email = *patch.Email
		}
		return tx.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.deps.emit("user", events.ActionUpdated, user.Slug, "", caller.Username)
	return user, nil
}

// applyCredentials hashes the plaintext password, if any, and erases it.
// It runs whether or not the rest of the input is valid, so the plaintext
// never outlives the operation.
func (s *UserService) applyCredentials(user *models.User) error {
	defer user.EraseCredentials()
	if user.PlainPassword == nil || *user.PlainPassword == "" {
		return nil
	}
	hashed, err := s.deps.Hasher.Hash(*user.PlainPassword)
	if err != nil {
		return err
	}
	user.HashedPassword = hashed
	return nil
}

func (s *UserService) load(ctx context.Context, store repositories.Store, caller *identity.Caller, slug string) (*models.User, error) {
	user, err := store.Users().GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAsIs(err)
	}
	if err := s.deps.Authz.CanAccessUser(caller, user); err != nil {
		return nil, err
	}
	return user, nil
}

func uniqueUsername(ctx context.Context, tx repositories.Store, username string) error {
	_, err := tx.Users().GetByUsername(ctx, username)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	return apperrors.Validation("username", "This value is already used.")
}

func uniqueEmail(ctx context.Context, tx repositories.Store, email string, selfID uint) error {
	existing, err := tx.Users().GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	}
	return apperrors.Validation("email", "This value is already used.")
}
