package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/mailticket/internal/models"
)

const (
	// senderLookbehind and senderLookaround bound the sibling scan next to the subject
	senderLookbehind = 5
	senderLookaround = 10
	// bodyHeuristicMinLength is the text length above which a pane element is taken as the body
	bodyHeuristicMinLength = 100
)

func (s *Service) extractOutlook(root *goquery.Selection, pageURL string) models.ExtractedEmail {
	set := s.selectors.Outlook

	pane := s.resolver.Resolve(root, set.ReadingPane, nil)
	if pane == nil {
		s.logger.Debug().Msg("No Outlook reading pane found")
		return models.ExtractionFailure(models.EmailClientOutlook, ErrMsgOutlookNoPane)
	}

	subjectEl := s.resolver.Resolve(root, set.Subject, pane)
	if subjectEl == nil {
		subjectEl = broadHeading(root)
	}
	subject := text(subjectEl)

	fromEl := s.resolver.Resolve(root, set.From, pane)
	if fromEl == nil && subjectEl != nil {
		fromEl = senderNearSubject(subjectEl)
	}
	from := text(fromEl)

	to := text(s.resolver.Resolve(root, set.To, pane))
	date := text(s.resolver.Resolve(root, set.Date, pane))

	bodyEl := s.resolver.Resolve(root, set.Body, pane)
	if bodyEl == nil {
		bodyEl = substantialElement(pane)
		if bodyEl != nil {
			s.logger.Debug().Msg("Outlook body found using content length heuristic")
		}
	}
	body := s.body(bodyEl, pageURL)

	if subject == "" && body == "" {
		return models.ExtractionFailure(models.EmailClientOutlook, ErrMsgOutlookNoContent)
	}

	return models.ExtractedEmail{
		Success: true,
		Client:  models.EmailClientOutlook,
		Subject: subject,
		From:    from,
		To:      to,
		Date:    date,
		Body:    body,
	}
}

// broadHeading picks the first heading at aria level 1 or 2, or one whose class mentions a subject
func broadHeading(root *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	root.Find(`[role="heading"]`).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		level, _ := el.Attr("aria-level")
		class, _ := el.Attr("class")
		if level == "1" || level == "2" || strings.Contains(class, "subject") {
			found = el
			return false
		}
		return true
	})
	return found
}

// senderNearSubject scans the subject's siblings, closest first, for one that looks like a sender
func senderNearSubject(subject *goquery.Selection) *goquery.Selection {
	var candidates []*goquery.Selection

	for prev := subject.Prev(); prev.Length() > 0 && len(candidates) < senderLookbehind; prev = prev.Prev() {
		candidates = append(candidates, prev)
	}
	for next := subject.Next(); next.Length() > 0 && len(candidates) < senderLookaround; next = next.Next() {
		candidates = append(candidates, next)
	}

	for _, el := range candidates {
		content := el.Text()
		if strings.Contains(content, "@") || strings.Contains(strings.ToLower(content), "from") {
			return el
		}
	}
	return nil
}

// substantialElement returns the first pane descendant carrying enough text to be a message body
func substantialElement(pane *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	pane.Find("*").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if goquery.NodeName(el) == "script" || goquery.NodeName(el) == "style" {
			return true
		}
		if utf8.RuneCountInString(el.Text()) <= bodyHeuristicMinLength {
			return true
		}
		if el.Find("input, button, select").Length() > 0 {
			return true
		}
		found = el
		return false
	})
	return found
}
