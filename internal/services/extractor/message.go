package extractor

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/ternarybob/mailticket/internal/models"
)

// ErrMsgMessageNoContent is reported when a raw message has neither subject nor body
const ErrMsgMessageNoContent = "No email content could be found in the message."

// ExtractMessage builds the normalized record from a raw RFC 822 message (.eml file or IMAP fetch).
// Like page extraction it never returns an error.
func (s *Service) ExtractMessage(r io.Reader) (result models.ExtractedEmail) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Str("panic", fmt.Sprint(rec)).Msg("Message extraction panicked")
			result = models.ExtractionFailure(models.EmailClientMessage, errMsgFailedPrefix+fmt.Sprint(rec))
		}
	}()

	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		s.logger.Warn().Err(err).Msg("Failed to create mail reader")
		return models.ExtractionFailure(models.EmailClientMessage, errMsgFailedPrefix+err.Error())
	}
	defer mr.Close()

	subject, err := mr.Header.Subject()
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to decode subject, using raw header")
		subject = mr.Header.Get("Subject")
	}

	from := ""
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		from = FormatAddress(addrs[0].Name, addrs[0].Address)
	} else {
		from = strings.TrimSpace(mr.Header.Get("From"))
	}

	var recipients []string
	if addrs, err := mr.Header.AddressList("To"); err == nil {
		for _, a := range addrs {
			if formatted := FormatAddress(a.Name, a.Address); formatted != "" {
				recipients = append(recipients, formatted)
			}
		}
	} else {
		recipients = append(recipients, strings.TrimSpace(mr.Header.Get("To")))
	}

	body, err := s.messageBody(mr)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read message body")
		return models.ExtractionFailure(models.EmailClientMessage, errMsgFailedPrefix+err.Error())
	}

	result = models.ExtractedEmail{
		Success: true,
		Client:  models.EmailClientMessage,
		Subject: strings.TrimSpace(subject),
		From:    from,
		To:      strings.Join(recipients, ", "),
		Date:    strings.TrimSpace(mr.Header.Get("Date")),
		Body:    body,
	}

	if result.Subject == "" && result.Body == "" {
		return models.ExtractionFailure(models.EmailClientMessage, ErrMsgMessageNoContent)
	}

	s.logger.Info().
		Str("client", string(models.EmailClientMessage)).
		Bool("has_subject", result.Subject != "").
		Int("body_length", len(result.Body)).
		Msg("Email extracted")

	return result
}

// messageBody prefers the first inline text/plain part and falls back to rendering text/html
func (s *Service) messageBody(mr *mail.Reader) (string, error) {
	var plain, htmlBody string

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return "", fmt.Errorf("failed to read next part: %w", err)
		}
		if p == nil {
			continue
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		switch {
		case strings.HasPrefix(contentType, "text/plain") && plain == "":
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return "", fmt.Errorf("failed to read body: %w", err)
			}
			plain = string(b)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return "", fmt.Errorf("failed to read body: %w", err)
			}
			htmlBody = string(b)
		}
	}

	if s.bodyFormat == BodyFormatText && strings.TrimSpace(plain) != "" {
		return strings.TrimSpace(plain), nil
	}

	if htmlBody != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
		if err != nil {
			return "", fmt.Errorf("failed to parse html part: %w", err)
		}
		if rendered := s.body(doc.Find("body"), ""); rendered != "" {
			return rendered, nil
		}
	}

	return strings.TrimSpace(plain), nil
}
