package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/MarcoPoloResearchLab/modulux/internal/editor"
	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"github.com/spf13/cobra"
)

func newSectionsCommand() *cobra.Command {
	sectionsCmd := &cobra.Command{
		Use:     "sections",
		Aliases: []string{"section"},
		Short:   "Edit the sections of a portfolio",
	}

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the section types that can be added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "TYPE\tNAME\tDESCRIPTION")
			for _, descriptor := range sections.Catalog() {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", descriptor.Type, descriptor.Name, descriptor.Description)
			}
			return writer.Flush()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <portfolio-id>",
		Short: "Show the sections of a portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], cmd.OutOrStdout(), nil)
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <portfolio-id> <type>",
		Short: "Append a section built from the type's template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := sections.ParseType(args[1])
			if err != nil {
				return err
			}
			return withEditor(cmd.Context(), args[0], cmd.OutOrStdout(), func(session *editor.Session) (bool, error) {
				_, added := session.AddSection(kind)
				return added, nil
			})
		},
	}

	moveCmd := &cobra.Command{
		Use:   "move <portfolio-id> <section-id> <target-section-id>",
		Short: "Move a section to the position of another",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], cmd.OutOrStdout(), func(session *editor.Session) (bool, error) {
				return session.DragEnd(editor.SectionItem(args[1]), args[2]), nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <portfolio-id> <section-id>",
		Short: "Delete a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], cmd.OutOrStdout(), func(session *editor.Session) (bool, error) {
				return session.DeleteSection(args[1]), nil
			})
		},
	}

	duplicateCmd := &cobra.Command{
		Use:   "duplicate <portfolio-id> <section-id>",
		Short: "Append a copy of a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(cmd.Context(), args[0], cmd.OutOrStdout(), func(session *editor.Session) (bool, error) {
				return session.DuplicateSection(args[1]), nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <portfolio-id> <section-id> field=value...",
		Short: "Replace top-level fields of a section's data",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			return withEditor(cmd.Context(), args[0], cmd.OutOrStdout(), func(session *editor.Session) (bool, error) {
				return session.UpdateField(args[1], patch), nil
			})
		},
	}

	sectionsCmd.AddCommand(catalogCmd, listCmd, addCmd, moveCmd, removeCmd, duplicateCmd, setCmd)
	return sectionsCmd
}
