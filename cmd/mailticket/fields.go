package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ternarybob/mailticket/internal/services/fields"
)

var fieldsOutput string

func newFieldsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Manage the custom fields shown on the ticket form",
		Long: `Manage configured custom fields.

Examples:
  # Search the tracker's fields
  mailticket fields discover --search "story"

  # Configure one, give it a default value, then remove it
  mailticket fields add customfield_10016
  mailticket fields set customfield_10016 3
  mailticket fields remove customfield_10016`,
		Aliases: []string{"field"},
	}

	cmd.PersistentFlags().StringVarP(&fieldsOutput, "output", "o", outputText, "Output format: text, json, yaml")

	cmd.AddCommand(newFieldsListCommand())
	cmd.AddCommand(newFieldsDiscoverCommand())
	cmd.AddCommand(newFieldsAddCommand())
	cmd.AddCommand(newFieldsSetCommand())
	cmd.AddCommand(newFieldsRemoveCommand())
	return cmd
}

func newFieldsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List configured fields",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			list, err := application.FieldService.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), fieldsOutput, list, func(w io.Writer) error {
				if len(list) == 0 {
					fmt.Fprintln(w, "No fields configured.")
					return nil
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tWIDGET\tVALUE")
				for _, f := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Widget.Kind, f.Value)
				}
				return tw.Flush()
			})
		},
	}
}

func newFieldsDiscoverCommand() *cobra.Command {
	var (
		search  string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List the tracker's fields with create metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateJira(); err != nil {
				return err
			}
			application, err := openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.FieldService.Discover(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			result.Fields = fields.Search(result.Fields, search)

			return writeOutput(cmd.OutOrStdout(), fieldsOutput, result, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTYPE\tREQUIRED")
				for _, f := range result.Fields {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", f.ID, f.Name, f.SchemaType, f.Required)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if result.FromCache {
					fmt.Fprintf(w, "\n(cached %s, use --refresh to reload)\n", result.CachedAt.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name or id")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached listing")
	return cmd
}

func newFieldsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <field-id>",
		Short: "Configure a discovered field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateJira(); err != nil {
				return err
			}
			application, err := openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			discovered, err := application.FieldService.Lookup(ctx, args[0])
			if err != nil {
				return fmt.Errorf("field %s: %w", args[0], err)
			}
			d, added, err := application.FieldService.Add(ctx, *discovered)
			if err != nil {
				return err
			}
			configured := fields.ConfiguredField{FieldDescriptor: *d, Widget: fields.InferWidget(*d)}

			return writeOutput(cmd.OutOrStdout(), fieldsOutput, configured, func(w io.Writer) error {
				if !added {
					fmt.Fprintf(w, "%s (%s) is already configured\n", d.ID, d.Name)
					return nil
				}
				fmt.Fprintf(w, "Added %s (%s) as %s\n", d.ID, d.Name, configured.Widget.Kind)
				return nil
			})
		},
	}
}

func newFieldsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <field-id> <value>",
		Short: "Set the value a configured field starts with",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			current, err := application.FieldService.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("field %s: %w", args[0], err)
			}
			d := current.FieldDescriptor
			d.Value = args[1]
			if err := application.FieldService.Save(ctx, &d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", d.ID, d.Value)
			return nil
		},
	}
}

func newFieldsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <field-id>",
		Short:   "Remove a configured field",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.FieldService.Remove(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("field %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
