package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ternarybob/mailticket/internal/app"
	"github.com/ternarybob/mailticket/internal/models"
)

// emailSource selects where an email is read from. Exactly one source must be set.
type emailSource struct {
	htmlFile string
	pageURL  string
	emlFile  string
	useIMAP  bool
	uid      uint32
	browser  bool
	match    string
}

func (s *emailSource) bind(flags *pflag.FlagSet) {
	flags.StringVar(&s.htmlFile, "html", "", "Saved webmail page to extract from (- for stdin)")
	flags.StringVar(&s.pageURL, "url", "", "Address the page was saved from; selects Gmail or Outlook rules")
	flags.StringVar(&s.emlFile, "eml", "", "RFC 822 message file (- for stdin)")
	flags.BoolVar(&s.useIMAP, "imap", false, "Fetch the message from the configured IMAP mailbox")
	flags.Uint32Var(&s.uid, "uid", 0, "IMAP message UID (0 = most recent)")
	flags.BoolVar(&s.browser, "browser", false, "Capture the open webmail tab over the Chrome debugging protocol")
	flags.StringVar(&s.match, "match", "", "Substring the captured tab's URL must contain")
}

func (s *emailSource) count() int {
	n := 0
	for _, set := range []bool{s.htmlFile != "", s.emlFile != "", s.useIMAP, s.browser} {
		if set {
			n++
		}
	}
	return n
}

// given reports whether any source flag was set
func (s *emailSource) given() bool {
	return s.count() > 0
}

// read extracts the email from the selected source
func (s *emailSource) read(ctx context.Context, a *app.App) (models.ExtractedEmail, error) {
	switch {
	case s.count() == 0:
		return models.ExtractedEmail{}, errors.New("no email source given (use --html, --eml, --imap or --browser)")
	case s.count() > 1:
		return models.ExtractedEmail{}, errors.New("use only one of --html, --eml, --imap or --browser")
	}

	switch {
	case s.htmlFile != "":
		if s.pageURL == "" {
			return models.ExtractedEmail{}, errors.New("--url is required with --html")
		}
		data, err := readInput(s.htmlFile)
		if err != nil {
			return models.ExtractedEmail{}, err
		}
		return a.ExtractorService.Extract(s.pageURL, string(data)), nil

	case s.emlFile != "":
		data, err := readInput(s.emlFile)
		if err != nil {
			return models.ExtractedEmail{}, err
		}
		return a.ExtractorService.ExtractMessage(bytes.NewReader(data)), nil

	case s.useIMAP:
		if !a.IMAPService.IsConfigured() {
			return models.ExtractedEmail{}, errors.New("IMAP is not configured (set [imap] host and username)")
		}
		raw, err := a.IMAPService.Fetch(ctx, s.uid)
		if err != nil {
			return models.ExtractedEmail{}, err
		}
		return a.ExtractorService.ExtractMessage(bytes.NewReader(raw)), nil

	default:
		page, err := a.BrowserService.Capture(ctx, s.match)
		if err != nil {
			return models.ExtractedEmail{}, err
		}
		return a.ExtractorService.Extract(page.URL, page.HTML), nil
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

var (
	extractSource emailSource
	extractOutput string
	extractDraft  bool
	extractList   bool
	extractLimit  int
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract subject, sender, recipients, date and body from an email",
	Long: `Extract an email into its normalized fields.

Examples:
  # A Gmail page saved from the browser
  mailticket extract --html thread.html --url https://mail.google.com/mail/u/0/#inbox/abc

  # A message file, printed as the ticket draft
  mailticket extract --eml message.eml --draft -o yaml

  # Recent IMAP messages, then one of them
  mailticket extract --imap --list
  mailticket extract --imap --uid 4182`,
	RunE: runExtract,
}

func init() {
	extractSource.bind(extractCmd.Flags())
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", outputText, "Output format: text, json, yaml")
	extractCmd.Flags().BoolVar(&extractDraft, "draft", false, "Print the ticket draft built from the email")
	extractCmd.Flags().BoolVar(&extractList, "list", false, "List recent IMAP messages instead of extracting (with --imap)")
	extractCmd.Flags().IntVar(&extractLimit, "limit", 10, "Number of messages shown by --list")
}

func runExtract(cmd *cobra.Command, args []string) error {
	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if extractList {
		if !extractSource.useIMAP {
			return errors.New("--list requires --imap")
		}
		messages, err := application.IMAPService.Recent(ctx, extractLimit)
		if err != nil {
			return err
		}
		return writeOutput(out, extractOutput, messages, func(w io.Writer) error {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "UID\tDATE\tFROM\tSUBJECT")
			for _, m := range messages {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.UID, m.Date, m.From, m.Subject)
			}
			return tw.Flush()
		})
	}

	email, err := extractSource.read(ctx, application)
	if err != nil {
		return err
	}
	if !email.Success {
		return fmt.Errorf("extraction failed: %s", email.Error)
	}

	if extractDraft {
		draft, err := application.TicketService.Draft(ctx, email)
		if err != nil {
			return err
		}
		return writeOutput(out, extractOutput, draft, func(w io.Writer) error {
			return printDraft(w, draft)
		})
	}

	return writeOutput(out, extractOutput, email, func(w io.Writer) error {
		fmt.Fprintf(w, "Subject: %s\nFrom:    %s\nTo:      %s\nDate:    %s\n\n%s\n",
			email.Subject, email.From, email.To, email.Date, email.Body)
		return nil
	})
}

func printDraft(w io.Writer, d *models.TicketRequest) error {
	fmt.Fprintf(w, "Project:    %s\nIssue type: %s\nSummary:    %s\n", d.ProjectKey, d.IssueType, d.Summary)
	ids := make([]string, 0, len(d.CustomFields))
	for id := range d.CustomFields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "%s: %s\n", id, d.CustomFields[id])
	}
	fmt.Fprintf(w, "\n%s\n", d.Description)
	return nil
}
