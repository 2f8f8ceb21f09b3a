package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"event-management-api/internal/config"
	"event-management-api/internal/store/postgres"
)

var errSQLiteMigrate = errors.New("sqlite applies its schema on open; migrate is postgres only")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back postgres schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db := config.LoadDatabase()
		if db.IsSQLite() {
			return errSQLiteMigrate
		}
		if err := postgres.MigrateUp(db.URL); err != nil {
			return err
		}
		cmd.Println("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid steps %q", args[0])
			}
			steps = n
		}
		db := config.LoadDatabase()
		if db.IsSQLite() {
			return errSQLiteMigrate
		}
		if err := postgres.MigrateDown(db.URL, steps); err != nil {
			return err
		}
		cmd.Printf("rolled back %d migration(s)\n", steps)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
