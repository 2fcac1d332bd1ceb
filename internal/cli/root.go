// Package cli holds the smarterd command tree.
package cli

import (
	"smarterd/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd returns the smarterd command with every subcommand attached. The
// configuration is read from the environment, overridden by flags.
func RootCmd() *cobra.Command {
	v := viper.New()
	var cfg config.Config

	root := &cobra.Command{
		Use:           "smarterd",
		Short:         "Entity-relationship design server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cfg = config.Load(v)
			config.SetupLogger(cfg.LogLevel, cfg.LogFormat)
		},
	}

	flags := root.PersistentFlags()
	flags.String("database-driver", "", "database driver (sqlite or postgres)")
	flags.String("database-dsn", "", "database connection string")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text or json)")
	for key, name := range map[string]string{
		"DATABASE_DRIVER": "database-driver",
		"DATABASE_DSN":    "database-dsn",
		"LOG_LEVEL":       "log-level",
		"LOG_FORMAT":      "log-format",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	loaded := func() config.Config { return cfg }
	root.AddCommand(
		ServeCmd(loaded),
		SeedCmd(loaded),
		UserCmd(loaded),
		ProjectCmd(loaded),
		EntityCmd(loaded),
	)

	return root
}

// Execute runs the root command.
func Execute() error {
	return RootCmd().Execute()
}
