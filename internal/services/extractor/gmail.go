package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/mailticket/internal/models"
)

func (s *Service) extractGmail(root *goquery.Selection, pageURL string) models.ExtractedEmail {
	set := s.selectors.Gmail

	subject := text(s.resolver.Resolve(root, set.Subject, nil))
	if subject == "" {
		s.logger.Debug().Msg("Gmail subject not found; email might not be open or selectors need updating")
	}

	from := ""
	if sender := s.resolver.Resolve(root, set.From, nil); sender != nil {
		from = FormatAddress(text(sender), firstAttr(sender, "email", "data-hovercard-id"))
	}

	body := s.body(s.resolver.Resolve(root, set.Body, nil), pageURL)
	date := text(s.resolver.Resolve(root, set.Date, nil))

	var recipients []string
	if all := s.resolver.ResolveAll(root, set.To, nil); all != nil {
		all.Each(func(_ int, el *goquery.Selection) {
			if r := firstAttr(el, "email", "data-hovercard-id"); r != "" {
				recipients = append(recipients, r)
			} else if r := text(el); r != "" {
				recipients = append(recipients, r)
			}
		})
	}

	if subject == "" && body == "" {
		return models.ExtractionFailure(models.EmailClientGmail, ErrMsgGmailNoEmail)
	}

	return models.ExtractedEmail{
		Success: true,
		Client:  models.EmailClientGmail,
		Subject: subject,
		From:    from,
		To:      strings.Join(recipients, ", "),
		Date:    date,
		Body:    body,
	}
}

// firstAttr returns the first non-empty value among the named attributes
func firstAttr(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := sel.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
