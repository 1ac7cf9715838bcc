package main

import (
	"fmt"

	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/spf13/cobra"
)

func newPortfoliosCommand() *cobra.Command {
	portfoliosCmd := &cobra.Command{
		Use:     "portfolios",
		Aliases: []string{"portfolio"},
		Short:   "Manage portfolios through a running API",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your portfolios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newAPIClient()
			if err != nil {
				return err
			}
			list, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			return printPortfolios(cmd.OutOrStdout(), list)
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty draft portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newAPIClient()
			if err != nil {
				return err
			}
			created, err := client.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printPortfolios(cmd.OutOrStdout(), []portfolios.Portfolio{created})
		},
	}

	publishCmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a portfolio under its slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, appConfig, err := newAPIClient()
			if err != nil {
				return err
			}
			published, err := client.Publish(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s at %s/p/%s\n", published.ID, appConfig.APIBaseURL, published.Slug)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newAPIClient()
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	var duplicateName string
	duplicateCmd := &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a portfolio into a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newAPIClient()
			if err != nil {
				return err
			}
			copied, err := client.Duplicate(cmd.Context(), args[0], duplicateName)
			if err != nil {
				return err
			}
			return printPortfolios(cmd.OutOrStdout(), []portfolios.Portfolio{copied})
		},
	}
	duplicateCmd.Flags().StringVar(&duplicateName, "name", "", "Name of the copy (defaults to \"<name> (Copy)\")")

	portfoliosCmd.AddCommand(listCmd, createCmd, publishCmd, deleteCmd, duplicateCmd)
	return portfoliosCmd
}
