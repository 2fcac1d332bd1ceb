package authz

import (
	"errors"
	"testing"

	"smarterd/internal/apperrors"
	"smarterd/internal/identity"
	"smarterd/internal/models"
	"smarterd/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner    = &identity.Caller{ID: 1, Username: "owner"}
	stranger = &identity.Caller{ID: 2, Username: "stranger"}
	admin    = &identity.Caller{ID: 3, Username: "admin", Admin: true}
)

func entityOwnedBy(ownerID uint) *models.Entity {
	return &models.Entity{
		ID:        10,
		Name:      "Student",
		ProjectID: 20,
		Project:   &models.Project{ID: 20, Name: "School", OwnerID: ownerID},
	}
}

func TestCanAccess(t *testing.T) {
	a := New()
	project := &models.Project{ID: 20, OwnerID: owner.ID}
	attribute := &models.Attribute{ID: 30, EntityID: 10, Entity: entityOwnedBy(owner.ID)}

	for _, res := range []models.Owned{project, entityOwnedBy(owner.ID), attribute} {
		assert.NoError(t, a.CanAccess(owner, res))
		assert.NoError(t, a.CanAccess(admin, res))

		err := a.CanAccess(stranger, res)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NotErrorIs(t, err, apperrors.ErrForbidden)
	}
}

func TestCanAccess_UnloadedChainIsUnexpected(t *testing.T) {
	a := New()

	err := a.CanAccess(owner, &models.Entity{ID: 10, ProjectID: 20})
	assert.Equal(t, apperrors.KindUnexpectedState, apperrors.KindOf(err))

	err = a.CanAccess(admin, &models.Attribute{ID: 30})
	assert.Equal(t, apperrors.KindUnexpectedState, apperrors.KindOf(err))
}

func TestCanAccess_NoCaller(t *testing.T) {
	err := New().CanAccess(nil, &models.Project{OwnerID: 1})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestResolveParent(t *testing.T) {
	a := New()
	project := &models.Project{ID: 20, OwnerID: owner.ID}

	assert.NoError(t, a.ResolveParent(owner, "project", "p-1", project, nil))

	t.Run("not owned", func(t *testing.T) {
		err := a.ResolveParent(stranger, "project", "p-1", project, nil)
		var appErr *apperrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.KindNotFound, appErr.Kind)
		assert.Equal(t, "project", appErr.Field)
		assert.Equal(t, `Item not found for "p-1".`, appErr.Detail)
	})

	t.Run("absent looks the same", func(t *testing.T) {
		lookupErr := apperrors.NotFound()
		err := a.ResolveParent(stranger, "project", "p-1", nil, lookupErr)
		var appErr *apperrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "project", appErr.Field)
		assert.Equal(t, `Item not found for "p-1".`, appErr.Detail)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		boom := errors.New("connection refused")
		err := a.ResolveParent(owner, "project", "p-1", nil, boom)
		assert.ErrorIs(t, err, boom)
	})
}

func TestProjectScope(t *testing.T) {
	a := New()

	assert.Equal(t, repositories.AllRecords(), a.ProjectScope(admin))
	assert.Equal(t, repositories.OwnedBy(owner.ID), a.ProjectScope(owner))
}

func TestRequireAdmin(t *testing.T) {
	a := New()

	assert.NoError(t, a.RequireAdmin(admin, "create users"))
	assert.ErrorIs(t, a.RequireAdmin(owner, "create users"), apperrors.ErrForbidden)
}

func TestCanAccessUser(t *testing.T) {
	a := New()
	user := &models.User{ID: owner.ID, Username: "owner"}

	assert.NoError(t, a.CanAccessUser(owner, user))
	assert.NoError(t, a.CanAccessUser(admin, user))
	assert.ErrorIs(t, a.CanAccessUser(stranger, user), apperrors.ErrNotFound)
}
