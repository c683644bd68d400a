package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/taskpulse/internal/database"
)

func migrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, _, err := open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func checkDBCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "check-db",
		Short: "Verify the database is reachable and migrated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, _, err := open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			var users int
			if err := db.GetContext(ctx, &users, "SELECT COUNT(*) FROM users"); err != nil {
				return fmt.Errorf("database reachable but schema missing, run migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database OK (%s, %d users)\n", db.DriverName(), users)
			return nil
		},
	}
}
