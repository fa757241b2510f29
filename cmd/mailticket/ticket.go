package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/mailticket/internal/models"
	"github.com/ternarybob/mailticket/internal/services/jira"
	"github.com/ternarybob/mailticket/internal/services/ticket"
)

// ticketCreateOptions holds flags for 'ticket create'
type ticketCreateOptions struct {
	source      emailSource
	project     string
	issueType   string
	summary     string
	description string
	fields      map[string]string
	output      string
}

func newTicketCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ticket",
		Short:   "Create Jira tickets",
		Aliases: []string{"tickets"},
	}
	cmd.AddCommand(newTicketCreateCommand())
	return cmd
}

func newTicketCreateCommand() *cobra.Command {
	opts := &ticketCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a ticket from flags or from an email",
		Long: `Create a Jira issue. With an email source the draft is built from the email
first and any flag given here overrides the drafted value.

Examples:
  # From flags only
  mailticket ticket create --project OPS --summary "Printer on fire"

  # From a message, setting a custom field
  mailticket ticket create --eml message.eml --field customfield_10016=5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTicketCreate(cmd, opts)
		},
	}

	opts.source.bind(cmd.Flags())
	cmd.Flags().StringVar(&opts.project, "project", "", "Project key (defaults to the last used project)")
	cmd.Flags().StringVar(&opts.issueType, "type", "", "Issue type name")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "Ticket summary")
	cmd.Flags().StringVar(&opts.description, "description", "", "Ticket description")
	cmd.Flags().StringToStringVar(&opts.fields, "field", nil, "Custom field value as id=value (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "Output format: text, json, yaml")

	return cmd
}

func runTicketCreate(cmd *cobra.Command, opts *ticketCreateOptions) error {
	if err := config.ValidateJira(); err != nil {
		return err
	}

	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()

	req := &models.TicketRequest{}
	if opts.source.given() {
		email, err := opts.source.read(ctx, application)
		if err != nil {
			return err
		}
		if !email.Success {
			return fmt.Errorf("extraction failed: %s", email.Error)
		}
		if req, err = application.TicketService.Draft(ctx, email); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("project") {
		req.ProjectKey = opts.project
	}
	if flags.Changed("type") {
		req.IssueType = opts.issueType
	}
	if flags.Changed("summary") {
		req.Summary = opts.summary
	}
	if flags.Changed("description") {
		req.Description = opts.description
	}
	if len(opts.fields) > 0 && req.CustomFields == nil {
		req.CustomFields = make(map[string]string, len(opts.fields))
	}
	for id, v := range opts.fields {
		req.CustomFields[strings.TrimSpace(id)] = v
	}

	issue, err := application.TicketService.Submit(ctx, *req)
	if err != nil {
		var validation *ticket.ValidationError
		if errors.As(err, &validation) {
			return validation
		}
		return errors.New(jira.UserMessage(err))
	}

	return writeOutput(cmd.OutOrStdout(), opts.output, issue, func(w io.Writer) error {
		fmt.Fprintf(w, "Created %s\n%s\n", issue.Key, issue.URL)
		return nil
	})
}
