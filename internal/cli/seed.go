package cli

import (
	"smarterd/internal/seed"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// SeedCmd returns the command migrating the database and loading the
// fixtures.
func SeedCmd(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate the database and load the fixtures",
		Long: `Create the schema and load the fixture users "admin" and "user"
(password "SmartERD") with their projects. Does nothing when the fixtures
are already loaded.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(load(), nil, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := seed.Run(cmd.Context(), rt.svc, rt.store.Users())
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"users":      result.Users,
				"projects":   result.Projects,
				"entities":   result.Entities,
				"attributes": result.Attributes,
			}).Info("Fixtures loaded")
			return nil
		},
	}
}
