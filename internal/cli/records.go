package cli

import (
	"fmt"

	"smarterd/internal/services"

	"github.com/spf13/cobra"
)

// UserCmd returns the user management commands.
func UserCmd(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(userCreateCmd(load))
	return cmd
}

func userCreateCmd(load Loader) *cobra.Command {
	var input services.UserInput
	var password string

	cmd := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create a user",
		Example: `  smarterd user create alice --email alice@smarterd.io --password secret
  smarterd user create root --email root@smarterd.io --password secret --admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(load(), nil, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			input.Username = args[0]
			input.Password = &password
			user, err := rt.svc.Users.Bootstrap(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s created with slug %s\n", user.Username, user.Slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "plain password, hashed before storage")
	cmd.Flags().BoolVar(&input.IsAdmin, "admin", false, "grant the administrator role")
	return cmd
}

// ProjectCmd returns the project commands.
func ProjectCmd(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(projectCreateCmd(load))
	return cmd
}

func projectCreateCmd(load Loader) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:     "create NAME",
		Short:   "Create a project owned by a user",
		Example: `  smarterd project create "Library" --user alice`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(load(), nil, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, err := rt.actingAs(cmd.Context(), username)
			if err != nil {
				return err
			}
			project, err := rt.svc.Projects.CreateProject(ctx, services.ProjectInput{Name: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %q created with slug %s\n", project.Name, project.Slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "username of the owner")
	return cmd
}

// EntityCmd returns the entity commands.
func EntityCmd(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage entities",
	}
	cmd.AddCommand(entityCreateCmd(load))
	return cmd
}

func entityCreateCmd(load Loader) *cobra.Command {
	var username, project string

	cmd := &cobra.Command{
		Use:     "create NAME",
		Short:   "Create an entity in a project",
		Example: `  smarterd entity create Book --user alice --project 3f1c...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(load(), nil, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, err := rt.actingAs(cmd.Context(), username)
			if err != nil {
				return err
			}
			entity, err := rt.svc.Entities.CreateEntity(ctx, services.EntityInput{Name: args[0], Project: project})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entity %s created with slug %s\n", entity.Name, entity.Slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "username acting as the caller")
	cmd.Flags().StringVar(&project, "project", "", "slug of the parent project")
	return cmd
}
