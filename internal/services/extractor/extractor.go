package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/models"
	"github.com/ternarybob/mailticket/internal/services/selectors"
)

// Failure messages shown to the user
const (
	ErrMsgUnsupportedClient = "Unsupported email client. Currently supporting Gmail and Outlook only."
	ErrMsgGmailNoEmail      = "No email found or email content couldn't be accessed. Make sure you have an email open."
	ErrMsgOutlookNoPane     = "No email found. Make sure you have an email open in Outlook."
	ErrMsgOutlookNoContent  = "No email content could be accessed. Make sure you have an email open in Outlook."
	errMsgFailedPrefix      = "Failed to extract email data: "
)

// Service extracts a normalized email record from a webmail page
type Service struct {
	resolver   *selectors.Resolver
	selectors  SelectorSet
	bodyFormat BodyFormat
	logger     arbor.ILogger
}

// Option configures a Service
type Option func(*Service)

// WithSelectors replaces the selector chains
func WithSelectors(set SelectorSet) Option {
	return func(s *Service) {
		s.selectors = set
	}
}

// WithBodyFormat selects plain text or Markdown rendering of the body
func WithBodyFormat(format BodyFormat) Option {
	return func(s *Service) {
		if format == BodyFormatMarkdown {
			s.bodyFormat = BodyFormatMarkdown
		} else {
			s.bodyFormat = BodyFormatText
		}
	}
}

// NewService creates an extractor using the default selector chains unless overridden
func NewService(logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		resolver:   selectors.NewResolver(logger),
		selectors:  DefaultSelectors(),
		bodyFormat: BodyFormatText,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DetectClient maps a page URL to the webmail product it belongs to
func DetectClient(pageURL string) models.EmailClient {
	switch {
	case strings.Contains(pageURL, "mail.google.com"):
		return models.EmailClientGmail
	case strings.Contains(pageURL, "outlook.office.com"), strings.Contains(pageURL, "outlook.live.com"):
		return models.EmailClientOutlook
	default:
		return models.EmailClientUnknown
	}
}

// Extract parses the page HTML and extracts the open email. It never returns an
// error; every failure is reported through ExtractedEmail.Success and Error.
func (s *Service) Extract(pageURL string, pageHTML string) models.ExtractedEmail {
	client := DetectClient(pageURL)
	if client == models.EmailClientUnknown {
		s.logger.Warn().Str("url", pageURL).Msg("Unsupported email client")
		return models.ExtractionFailure(client, ErrMsgUnsupportedClient)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("Failed to parse page HTML")
		return models.ExtractionFailure(client, errMsgFailedPrefix+err.Error())
	}

	return s.ExtractDocument(pageURL, doc)
}

// ExtractDocument extracts the open email from an already parsed page
func (s *Service) ExtractDocument(pageURL string, doc *goquery.Document) (result models.ExtractedEmail) {
	client := DetectClient(pageURL)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("url", pageURL).Str("panic", fmt.Sprint(r)).Msg("Email extraction panicked")
			result = models.ExtractionFailure(client, errMsgFailedPrefix+fmt.Sprint(r))
		}
	}()

	switch client {
	case models.EmailClientGmail:
		result = s.extractGmail(doc.Selection, pageURL)
	case models.EmailClientOutlook:
		result = s.extractOutlook(doc.Selection, pageURL)
	default:
		s.logger.Warn().Str("url", pageURL).Msg("Unsupported email client")
		return models.ExtractionFailure(client, ErrMsgUnsupportedClient)
	}

	if result.Success {
		s.logger.Info().
			Str("client", string(client)).
			Bool("has_subject", result.Subject != "").
			Int("body_length", len(result.Body)).
			Msg("Email extracted")
	} else {
		s.logger.Warn().Str("client", string(client)).Str("reason", result.Error).Msg("Email extraction failed")
	}

	return result
}

// text returns the trimmed text content of an element, or "" for nil
func text(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	return strings.TrimSpace(sel.Text())
}

// body renders the body element in the configured format
func (s *Service) body(sel *goquery.Selection, pageURL string) string {
	if sel == nil {
		return ""
	}
	if s.bodyFormat == BodyFormatMarkdown {
		return markdownText(sel, pageURL, s.logger)
	}
	return renderedText(sel)
}

// FormatAddress joins a display name and an address as "Name <email>".
// Either part alone is returned as is.
func FormatAddress(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case name == "" && email == "":
		return ""
	case email == "" || name == email:
		return name
	case name == "":
		return email
	default:
		return fmt.Sprintf("%s <%s>", name, email)
	}
}
