// Package seed loads the fixture data used for local development and demos.
package seed

import (
	"context"
	"errors"
	"fmt"

	"smarterd/internal/apperrors"
	"smarterd/internal/identity"
	"smarterd/internal/models"
	"smarterd/internal/repositories"
	"smarterd/internal/services"

	log "github.com/sirupsen/logrus"
)

const (
	AdminUsername = "admin"
	UserUsername  = "user"
	Password      = "SmartERD"

	AdminProjectName = "A simple admin project for testing purpose"
	UserProjectName  = "A simple user project for testing purpose"
)

type projectFixture struct {
	name       string
	entities   []string
	attributes map[string][]string
}

type userFixture struct {
	username string
	admin    bool
	projects []projectFixture
}

var fixtures = []userFixture{
	{
		username: AdminUsername,
		admin:    true,
		projects: []projectFixture{{
			name:     AdminProjectName,
			entities: []string{"Recipe", "Ingredients", "Book"},
		}},
	},
	{
		username: UserUsername,
		projects: []projectFixture{
			{
				name:       UserProjectName,
				entities:   []string{"Student", "Course", "Registration"},
				attributes: map[string][]string{"Student": {"fullName", "birthDate"}},
			},
			{name: "A second user project for testing purpose"},
		},
	},
}

// Result counts what a Run created.
type Result struct {
	Users      int
	Projects   int
	Entities   int
	Attributes int
}

// Run creates the fixture users and their projects through the lifecycle
// services, so every record goes through the same checks as API traffic.
// It does nothing when the administrator fixture already exists.
func Run(ctx context.Context, svc *services.Services, users repositories.UserRepository) (*Result, error) {
	result := &Result{}

	_, err := users.GetByUsername(ctx, AdminUsername)
	if err == nil {
		log.Info("Fixtures already loaded, skipping")
		return result, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up fixture user: %w", err)
	}

	for _, fixture := range fixtures {
		password := Password
		user, err := svc.Users.Bootstrap(ctx, services.UserInput{
			Username: fixture.username,
			Email:    fixture.username + "@smarterd.io",
			Password: &password,
			IsAdmin:  fixture.admin,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", fixture.username, err)
		}
		result.Users++

		if err := seedProjects(identity.WithCaller(ctx, services.CallerFor(user)), svc, fixture.projects, result); err != nil {
			return nil, err
		}
		log.WithField("username", user.Username).Info("Seeded user")
	}

	return result, nil
}

func seedProjects(ctx context.Context, svc *services.Services, projects []projectFixture, result *Result) error {
	for _, p := range projects {
		project, err := svc.Projects.CreateProject(ctx, services.ProjectInput{Name: p.name})
		if err != nil {
			return fmt.Errorf("failed to seed project %q: %w", p.name, err)
		}
		result.Projects++

		for _, name := range p.entities {
			entity, err := svc.Entities.CreateEntity(ctx, services.EntityInput{Name: name, Project: project.Slug})
			if err != nil {
				return fmt.Errorf("failed to seed entity %s: %w", name, err)
			}
			result.Entities++

			if err := seedAttributes(ctx, svc, entity, p.attributes[name], result); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedAttributes(ctx context.Context, svc *services.Services, entity *models.Entity, names []string, result *Result) error {
	for _, name := range names {
		if _, err := svc.Attributes.CreateAttribute(ctx, services.AttributeInput{Name: name, Entity: entity.Slug}); err != nil {
			return fmt.Errorf("failed to seed attribute %s: %w", name, err)
		}
		result.Attributes++
	}
	return nil
}
