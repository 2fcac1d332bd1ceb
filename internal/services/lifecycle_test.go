package services_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"smarterd/internal/apperrors"
	"smarterd/internal/database"
	"smarterd/internal/hasher"
	"smarterd/internal/identity"
	"smarterd/internal/models"
	"smarterd/internal/repositories"
	"smarterd/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc   *services.Services
	store repositories.Store
	admin *models.User
	alice *models.User
	bob   *models.User
}

func userFixture(id uint, name string, admin bool) *models.User {
	return &models.User{ID: id, Slug: "u-" + name, Username: name, Email: name + "@smarterd.io", IsAdmin: admin}
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)

	store := repositories.NewGORMStore(db)
	f := &fixture{
		svc:   services.New(services.Dependencies{Store: store, Hasher: hasher.NewBcryptHasher(bcrypt.MinCost)}),
		store: store,
	}
	f.admin = f.bootstrap(t, "admin", true)
	f.alice = f.bootstrap(t, "alice", false)
	f.bob = f.bootstrap(t, "bob", false)
	return f
}

func (f *fixture) bootstrap(t *testing.T, name string, admin bool) *models.User {
	t.Helper()
	password := "SmartERD"
	user, err := f.svc.Users.Bootstrap(context.Background(), services.UserInput{
		Username: name,
		Email:    name + "@smarterd.io",
		Password: &password,
		IsAdmin:  admin,
	})
	require.NoError(t, err)
	return user
}

func as(user *models.User) context.Context {
	return identity.WithCaller(context.Background(), services.CallerFor(user))
}

// letters returns a letters-only name unique for i.
func letters(prefix string, i int) string {
	return fmt.Sprintf("%s%c%c", prefix, 'a'+i/26, 'a'+i%26)
}

func (f *fixture) project(t *testing.T, owner *models.User, name string) *models.Project {
	t.Helper()
	project, err := f.svc.Projects.CreateProject(as(owner), services.ProjectInput{Name: name})
	require.NoError(t, err)
	return project
}

func (f *fixture) entity(t *testing.T, owner *models.User, project *models.Project, name string) *models.Entity {
	t.Helper()
	entity, err := f.svc.Entities.CreateEntity(as(owner), services.EntityInput{Name: name, Project: project.Slug})
	require.NoError(t, err)
	return entity
}

func (f *fixture) attribute(t *testing.T, owner *models.User, entity *models.Entity, name string, pos *int) *models.Attribute {
	t.Helper()
	attribute, err := f.svc.Attributes.CreateAttribute(as(owner), services.AttributeInput{Name: name, Entity: entity.Slug, Position: pos})
	require.NoError(t, err)
	return attribute
}

func (f *fixture) order(t *testing.T, owner *models.User, entity *models.Entity) []string {
	t.Helper()
	attributes, err := f.svc.Attributes.ListAttributes(as(owner), entity.Slug)
	require.NoError(t, err)
	names := make([]string, 0, len(attributes))
	for i, a := range attributes {
		require.Equal(t, i, a.Position, "positions must be contiguous")
		names = append(names, a.Name)
	}
	return names
}

func intPtr(i int) *int { return &i }

func TestLifecycle_EndToEnd(t *testing.T) {
	f := setup(t)

	p1 := f.project(t, f.alice, "P1")
	assert.Equal(t, f.alice.ID, p1.OwnerID)
	assert.NotEmpty(t, p1.Slug)

	for i := 0; i < models.MaxEntitiesPerProject; i++ {
		f.entity(t, f.alice, p1, letters("Entity", i))
	}

	_, err := f.svc.Entities.CreateEntity(as(f.alice), services.EntityInput{Name: "Overflow", Project: p1.Slug})
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.KindQuotaExceeded, appErr.Kind)
	assert.Contains(t, appErr.Detail, "30")
	assert.Equal(t, 30, appErr.Params["max"])

	p2 := f.project(t, f.alice, "P2")
	entity := f.entity(t, f.alice, p2, "Student")
	a := f.attribute(t, f.alice, entity, "a", nil)
	b := f.attribute(t, f.alice, entity, "b", nil)
	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, b.Position)

	require.NoError(t, f.svc.Attributes.DeleteAttribute(as(f.alice), a.Slug))

	b, err = f.svc.Attributes.GetAttribute(as(f.alice), b.Slug)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Position)
}

func TestProjectService_QuotaPerUser(t *testing.T) {
	f := setup(t)

	for i := 0; i < models.MaxProjectsPerUser; i++ {
		f.project(t, f.alice, fmt.Sprintf("Project %d", i))
	}

	_, err := f.svc.Projects.CreateProject(as(f.alice), services.ProjectInput{Name: "One too many"})
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.KindQuotaExceeded, appErr.Kind)
	assert.Equal(t, "user", appErr.Field)
	assert.Equal(t, 5, appErr.Params["max"])

	// Bob's quota is his own.
	f.project(t, f.bob, "One too many")
}

func TestProjectService_UniqueNamePerOwner(t *testing.T) {
	f := setup(t)
	f.project(t, f.alice, "Shop")
	f.project(t, f.bob, "Shop")

	_, err := f.svc.Projects.CreateProject(as(f.alice), services.ProjectInput{Name: "Shop"})
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, "name", appErr.Field)
}

func TestProjectService_Validation(t *testing.T) {
	f := setup(t)

	for _, name := range []string{"", "   ", "This project name is definitely longer than fifty characters"} {
		_, err := f.svc.Projects.CreateProject(as(f.alice), services.ProjectInput{Name: name})
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), "name %q", name)
	}
}

func TestProjectService_ListIsScoped(t *testing.T) {
	f := setup(t)
	f.project(t, f.alice, "Alpha")
	f.project(t, f.alice, "Beta")
	f.project(t, f.bob, "Gamma")

	page, err := f.svc.Projects.ListProjects(as(f.alice), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	for _, p := range page.Items {
		assert.Equal(t, f.alice.ID, p.OwnerID)
	}

	page, err = f.svc.Projects.ListProjects(as(f.admin), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, repositories.ProjectsPerPage, page.PerPage)
}

func TestProjectService_OwnershipHidesProjects(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "Private")

	_, err := f.svc.Projects.GetProject(as(f.bob), project.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Projects.UpdateProject(as(f.bob), project.Slug, services.ProjectPatch{Name: strPtr("Mine")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, f.svc.Projects.DeleteProject(as(f.bob), project.Slug), apperrors.ErrNotFound)

	details, err := f.svc.Projects.GetProject(as(f.admin), project.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Private", details.Name)
}

func TestProjectService_OwnerIsImmutable(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "Shop")

	_, err := f.svc.Projects.UpdateProject(as(f.alice), project.Slug, services.ProjectPatch{Owner: strPtr(f.bob.Slug)})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	updated, err := f.svc.Projects.UpdateProject(as(f.alice), project.Slug, services.ProjectPatch{Name: strPtr("Store"), Owner: strPtr(f.alice.Slug)})
	require.NoError(t, err)
	assert.Equal(t, "Store", updated.Name)
	assert.Equal(t, f.alice.ID, updated.OwnerID)
}

func TestProjectService_DeleteCascades(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "Doomed")
	entity := f.entity(t, f.alice, project, "Recipe")
	attribute := f.attribute(t, f.alice, entity, "title", nil)

	require.NoError(t, f.svc.Projects.DeleteProject(as(f.alice), project.Slug))

	_, err := f.svc.Entities.GetEntity(as(f.admin), entity.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.svc.Attributes.GetAttribute(as(f.admin), attribute.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEntityService_Ownership(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "School")
	entity := f.entity(t, f.alice, project, "Student")

	_, err := f.svc.Entities.GetEntity(as(f.bob), entity.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrForbidden)

	details, err := f.svc.Entities.GetEntity(as(f.alice), entity.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Student", details.Name)

	_, err = f.svc.Entities.GetEntity(as(f.admin), entity.Slug)
	assert.NoError(t, err)
}

func TestEntityService_ParentReferenceIsNotEnumerable(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "School")

	_, notOwned := f.svc.Entities.CreateEntity(as(f.bob), services.EntityInput{Name: "Course", Project: project.Slug})
	_, missing := f.svc.Entities.CreateEntity(as(f.bob), services.EntityInput{Name: "Course", Project: "does-not-exist"})

	for _, err := range []error{notOwned, missing} {
		var appErr *apperrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.KindNotFound, appErr.Kind)
		assert.Equal(t, "project", appErr.Field)
	}

	// Admins may create in any project.
	_, err := f.svc.Entities.CreateEntity(as(f.admin), services.EntityInput{Name: "Course", Project: project.Slug})
	assert.NoError(t, err)
}

func TestEntityService_ProjectIsImmutable(t *testing.T) {
	f := setup(t)
	school := f.project(t, f.alice, "School")
	shop := f.project(t, f.alice, "Shop")
	entity := f.entity(t, f.alice, school, "Student")

	_, err := f.svc.Entities.UpdateEntity(as(f.alice), entity.Slug, services.EntityPatch{Project: strPtr(shop.Slug)})
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, "The project of an entity cannot be changed.", appErr.Detail)

	reloaded, err := f.svc.Entities.GetEntity(as(f.alice), entity.Slug)
	require.NoError(t, err)
	assert.Equal(t, school.ID, reloaded.ProjectID)

	renamed, err := f.svc.Entities.UpdateEntity(as(f.alice), entity.Slug, services.EntityPatch{Name: strPtr("Pupil"), Project: strPtr(school.Slug)})
	require.NoError(t, err)
	assert.Equal(t, "Pupil", renamed.Name)
}

func TestEntityService_NameMustBeLetters(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "School")

	_, err := f.svc.Entities.CreateEntity(as(f.alice), services.EntityInput{Name: "Student1", Project: project.Slug})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	f.entity(t, f.alice, project, "Student")
	_, err = f.svc.Entities.CreateEntity(as(f.alice), services.EntityInput{Name: "Student", Project: project.Slug})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestAttributeService_ExplicitPositions(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "School")
	student := f.entity(t, f.alice, project, "Student")
	course := f.entity(t, f.alice, project, "Course")

	for _, name := range []string{"a", "b", "c"} {
		f.attribute(t, f.alice, student, name, nil)
		f.attribute(t, f.alice, course, name, nil)
	}

	x := f.attribute(t, f.alice, student, "x", intPtr(1))
	assert.Equal(t, 1, x.Position)
	assert.Equal(t, []string{"a", "x", "b", "c"}, f.order(t, f.alice, student))

	f.attribute(t, f.alice, student, "z", intPtr(4))
	assert.Equal(t, []string{"a", "x", "b", "c", "z"}, f.order(t, f.alice, student))

	_, err := f.svc.Attributes.CreateAttribute(as(f.alice), services.AttributeInput{Name: "hole", Entity: student.Slug, Position: intPtr(6)})
	assert.ErrorIs(t, err, apperrors.ErrPositionHole)

	assert.Equal(t, []string{"a", "b", "c"}, f.order(t, f.alice, course))
}

func TestAttributeService_Move(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "School")
	entity := f.entity(t, f.alice, project, "Student")

	attrs := map[string]*models.Attribute{}
	for _, name := range []string{"a", "b", "c", "d"} {
		attrs[name] = f.attribute(t, f.alice, entity, name, nil)
	}

	_, err := f.svc.Attributes.UpdateAttribute(as(f.alice), attrs["d"].Slug, services.AttributePatch{Position: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "b", "c"}, f.order(t, f.alice, entity))

	_, err = f.svc.Attributes.UpdateAttribute(as(f.alice), attrs["d"].Slug, services.AttributePatch{Position: intPtr(-1), Name: strPtr("last")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "last"}, f.order(t, f.alice, entity))

	_, err = f.svc.Attributes.UpdateAttribute(as(f.alice), attrs["a"].Slug, services.AttributePatch{Position: intPtr(4)})
	assert.ErrorIs(t, err, apperrors.ErrPositionHole)

	other := f.entity(t, f.alice, project, "Course")
	_, err = f.svc.Attributes.UpdateAttribute(as(f.alice), attrs["a"].Slug, services.AttributePatch{Entity: strPtr(other.Slug)})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = f.svc.Attributes.UpdateAttribute(as(f.bob), attrs["a"].Slug, services.AttributePatch{Position: intPtr(0)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAttributeService_DeleteRenumbers(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "School")
	entity := f.entity(t, f.alice, project, "Student")

	attrs := map[string]*models.Attribute{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		attrs[name] = f.attribute(t, f.alice, entity, name, nil)
	}

	require.NoError(t, f.svc.Attributes.DeleteAttribute(as(f.alice), attrs["b"].Slug))
	assert.Equal(t, []string{"a", "c", "d", "e"}, f.order(t, f.alice, entity))

	require.NoError(t, f.svc.Attributes.DeleteAttribute(as(f.alice), attrs["e"].Slug))
	assert.Equal(t, []string{"a", "c", "d"}, f.order(t, f.alice, entity))

	assert.ErrorIs(t, f.svc.Attributes.DeleteAttribute(as(f.bob), attrs["a"].Slug), apperrors.ErrNotFound)
}

func TestAttributeService_FullEntity(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "School")
	entity := f.entity(t, f.alice, project, "Student")

	ctx := context.Background()
	for i := 0; i < models.MaxAttributesPerEntity; i++ {
		require.NoError(t, f.store.Attributes().Create(ctx, &models.Attribute{
			Slug: fmt.Sprintf("attr-%d", i), Name: letters("attr", i), EntityID: entity.ID, Position: i,
		}))
	}

	_, err := f.svc.Attributes.CreateAttribute(as(f.alice), services.AttributeInput{Name: "extra", Entity: entity.Slug})
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)

	_, err = f.svc.Attributes.CreateAttribute(as(f.alice), services.AttributeInput{Name: "extra", Entity: entity.Slug, Position: intPtr(127)})
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
}

func TestAttributeService_ConcurrentAppends(t *testing.T) {
	f := setup(t)
	project := f.project(t, f.alice, "School")
	entity := f.entity(t, f.alice, project, "Student")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Attributes.CreateAttribute(as(f.alice), services.AttributeInput{Name: letters("attr", i), Entity: entity.Slug})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	attributes, err := f.store.Attributes().ListByEntity(context.Background(), entity.ID)
	require.NoError(t, err)
	positions := make([]int, 0, len(attributes))
	for _, a := range attributes {
		positions = append(positions, a.Position)
	}
	sort.Ints(positions)
	for i, p := range positions {
		assert.Equal(t, i, p)
	}
	assert.Len(t, positions, n)
}

func TestUserService_CredentialsAreHashed(t *testing.T) {
	f := setup(t)

	assert.Nil(t, f.alice.PlainPassword)
	assert.NotEmpty(t, f.alice.HashedPassword)
	assert.NotEqual(t, "SmartERD", f.alice.HashedPassword)

	stored, err := f.store.Users().GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.HashedPassword), []byte("SmartERD")))

	updated, err := f.svc.Users.UpdateUser(as(f.alice), f.alice.Slug, services.UserPatch{Password: strPtr("n3wSecret")})
	require.NoError(t, err)
	assert.Nil(t, updated.PlainPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.HashedPassword), []byte("n3wSecret")))
}

func TestUserService_InvalidUpdateIsNotPersisted(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Users.UpdateUser(as(f.alice), f.alice.Slug, services.UserPatch{Password: strPtr("n3wSecret"), Email: strPtr("broken")})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	stored, err := f.store.Users().GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@smarterd.io", stored.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.HashedPassword), []byte("SmartERD")))
}

func TestUserService_ReadAccess(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Users.GetUser(as(f.alice), f.alice.Slug)
	assert.NoError(t, err)
	_, err = f.svc.Users.GetUser(as(f.admin), f.alice.Slug)
	assert.NoError(t, err)
	_, err = f.svc.Users.GetUser(as(f.bob), f.alice.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserService_CreateUser(t *testing.T) {
	f := setup(t)
	password := "SmartERD"

	user, err := f.svc.Users.CreateUser(as(f.admin), services.UserInput{Username: "carol", Email: "carol@smarterd.io", Password: &password})
	require.NoError(t, err)
	assert.Nil(t, user.PlainPassword)

	_, err = f.svc.Users.CreateUser(as(f.admin), services.UserInput{Username: "carol", Email: "other@smarterd.io", Password: &password})
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "username", appErr.Field)

	_, err = f.svc.Users.CreateUser(as(f.alice), services.UserInput{Username: "dave", Email: "dave@smarterd.io", Password: &password})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestServices_RequireCaller(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Projects.ListProjects(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = f.svc.Entities.CreateEntity(ctx, services.EntityInput{Name: "Student", Project: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Attributes.DeleteAttribute(ctx, "x"), apperrors.ErrUnauthorized)
}

func strPtr(s string) *string { return &s }
