package main

import (
	"fmt"
	"io"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newBootstrapCmd() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the Qualiopi catalog for an organization",
		Long: `Creates the 32 Qualiopi indicators, the default action categories and
the system task categories for one organization.

Fails with a conflict when the organization already has indicators.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(orgID)
			if err != nil {
				return fmt.Errorf("bootstrap: invalid --org %q: %w", orgID, err)
			}
			return runBootstrap(cmd, cmd.OutOrStdout(), id)
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "organization id to initialize")
	cmd.MarkFlagRequired("org")
	return cmd
}

func runBootstrap(cmd *cobra.Command, out io.Writer, orgID uuid.UUID) error {
	a, err := loadApp()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	res, err := a.Bootstrap.Initialize(cmd.Context(), domain.Tenant{OrganizationID: orgID})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	fmt.Fprintf(out, "Organization %s initialized: %d indicators, %d action categories, %d task categories.\n",
		orgID, res.Indicators, res.ActionCategories, res.TaskCategories)
	return nil
}
