package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/mailticket/internal/services/jira"
)

func newConnectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connection",
		Short: "Check the Jira connection",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Authenticate against Jira and print the account name",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateJira(); err != nil {
				return err
			}

			// No storage needed, so this works while the server is running
			client := jira.NewClientFromConfig(config.Jira, logger)
			user, err := client.Myself(cmd.Context())
			if err != nil {
				return errors.New(jira.UserMessage(err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s as %s\n", client.BaseURL(), user.DisplayName)
			return nil
		},
	})

	return cmd
}
