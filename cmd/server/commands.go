package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"reminders/internal/auth"
	"reminders/internal/database"
	"reminders/internal/services"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the reminder tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(cmd.Context(), cfg.Database, log)
		if err != nil {
			return err
		}
		return database.Close(db)
	},
}

var triggerOnceCmd = &cobra.Command{
	Use:   "trigger-once",
	Short: "Run a single scheduler cycle and print its report",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(cmd.Context(), cfg.Database, log)
		if err != nil {
			return err
		}
		defer database.Close(db)

		store := database.NewReminderStore(db, cfg.Database.OpTimeout)
		report := services.NewReminderWorker(store, cfg.Scheduler.Interval, log).RunCycle(cmd.Context())

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return report.Err
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for AUTH_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	// Hashing needs no config or database
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return errors.New("password must not be empty")
		}
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
