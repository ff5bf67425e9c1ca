package main

import (
	"reminders/internal/config"
	"reminders/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Global flag values.
var flagConfigPath string

// Loaded by PersistentPreRunE so every subcommand shares them.
var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "reminders",
	Short:         "Reminder service: stores timed reminders and fires them when due",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flagConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
		log = logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
		return nil
	},
	// No subcommand means serve
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "path to a YAML config file (environment variables override it)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(triggerOnceCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}
