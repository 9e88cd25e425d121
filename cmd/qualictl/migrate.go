package main

import (
	"fmt"
	"io"

	"github.com/dangerclosesec/qualitrack/internal/config"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Runs the schema migration for every table: indicators, documents,
actions, tasks, audits, BPF reports, statistics, invitations and accounts.

Safe to run multiple times (idempotent).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, cmd.OutOrStdout())
		},
	}
}

func runMigrate(cmd *cobra.Command, out io.Writer) error {
	db, err := openDB(config.Load())
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := repository.Migrate(cmd.Context(), db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(out, "Migrated %d tables.\n", len(repository.Models()))
	return nil
}
