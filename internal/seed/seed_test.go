package seed_test

import (
	"context"
	"testing"

	"smarterd/internal/database"
	"smarterd/internal/hasher"
	"smarterd/internal/identity"
	"smarterd/internal/repositories"
	"smarterd/internal/seed"
	"smarterd/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRun(t *testing.T) {
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	store := repositories.NewGORMStore(db)
	svc := services.New(services.Dependencies{Store: store, Hasher: hasher.NewBcryptHasher(bcrypt.MinCost)})
	ctx := context.Background()

	result, err := seed.Run(ctx, svc, store.Users())
	require.NoError(t, err)
	assert.Equal(t, &seed.Result{Users: 2, Projects: 3, Entities: 6, Attributes: 2}, result)

	user, err := store.Users().GetByUsername(ctx, seed.UserUsername)
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)
	admin, err := store.Users().GetByUsername(ctx, seed.AdminUsername)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	asUser := identity.WithCaller(ctx, services.CallerFor(user))
	page, err := svc.Projects.ListProjects(asUser, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	var studentSlug string
	for _, p := range page.Items {
		if p.Name != seed.UserProjectName {
			continue
		}
		entities, err := svc.Entities.ListEntities(asUser, p.Slug)
		require.NoError(t, err)
		for _, e := range entities {
			if e.Name == "Student" {
				studentSlug = e.Slug
			}
		}
	}
	require.NotEmpty(t, studentSlug)

	attributes, err := svc.Attributes.ListAttributes(asUser, studentSlug)
	require.NoError(t, err)
	require.Len(t, attributes, 2)
	assert.Equal(t, "fullName", attributes[0].Name)
	assert.Equal(t, 0, attributes[0].Position)
	assert.Equal(t, "birthDate", attributes[1].Name)
	assert.Equal(t, 1, attributes[1].Position)

	again, err := seed.Run(ctx, svc, store.Users())
	require.NoError(t, err)
	assert.Equal(t, &seed.Result{}, again, "a second run is a no-op")
}
