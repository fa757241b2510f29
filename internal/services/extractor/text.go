package extractor

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/net/html"
)

// BodyFormat selects how the body element is rendered
type BodyFormat string

const (
	BodyFormatText     BodyFormat = "text"
	BodyFormatMarkdown BodyFormat = "markdown"
)

// skippedTags never contribute rendered text
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true, "title": true,
}

// blockTags render on their own line
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "dd": true, "div": true,
	"dl": true, "dt": true, "fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true, "pre": true,
	"section": true, "table": true, "tr": true, "ul": true, "caption": true, "tbody": true,
	"thead": true, "tfoot": true,
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\r\x{00a0}]+`)
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
)

// Break markers written while walking; runs of markers collapse to the largest one
const (
	lineBreak      = '\x01'
	paragraphBreak = '\x02'
)

// renderedText approximates the browser's innerText for a detached element:
// block elements and <br> produce line breaks, paragraphs are separated by a
// blank line, cells by a tab, whitespace inside text runs is collapsed and
// script/style content is dropped.
func renderedText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	var b strings.Builder
	for _, n := range sel.Nodes {
		walkText(&b, n, false)
	}

	var out strings.Builder
	pending := 0
	for _, r := range b.String() {
		switch {
		case r == lineBreak:
			pending = max(pending, 1)
		case r == paragraphBreak:
			pending = 2
		case pending > 0 && r == ' ':
			// whitespace between blocks
		default:
			if pending > 0 && out.Len() > 0 {
				out.WriteString(strings.Repeat("\n", pending))
			}
			pending = 0
			out.WriteRune(r)
		}
	}

	lines := strings.Split(out.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
	}

	text := strings.Join(lines, "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func walkText(b *strings.Builder, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			b.WriteString(n.Data)
			return
		}
		if n.Data == "" {
			return
		}
		if isSpace(n.Data[0]) {
			b.WriteByte(' ')
		}
		b.WriteString(strings.Join(strings.Fields(n.Data), " "))
		if isSpace(n.Data[len(n.Data)-1]) {
			b.WriteByte(' ')
		}
		return
	case html.ElementNode:
		tag := n.Data
		if skippedTags[tag] {
			return
		}
		switch {
		case tag == "br":
			b.WriteByte('\n')
			return
		case tag == "p":
			b.WriteRune(paragraphBreak)
		case tag == "td" || tag == "th":
			b.WriteByte('\t')
		case blockTags[tag]:
			b.WriteRune(lineBreak)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkText(b, c, pre || tag == "pre")
		}
		switch {
		case tag == "p":
			b.WriteRune(paragraphBreak)
		case blockTags[tag]:
			b.WriteRune(lineBreak)
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(b, c, pre)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// markdownText converts the element's HTML to Markdown, falling back to rendered text
func markdownText(sel *goquery.Selection, baseURL string, logger arbor.ILogger) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	content, err := goquery.OuterHtml(sel)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to serialize body element, using rendered text")
		return renderedText(sel)
	}

	converter := md.NewConverter(baseURL, true, nil)
	converted, err := converter.ConvertString(content)
	if err != nil {
		logger.Warn().Err(err).Msg("HTML to markdown conversion failed, using rendered text")
		return renderedText(sel)
	}

	if trimmed := strings.TrimSpace(converted); trimmed != "" {
		return trimmed
	}

	logger.Warn().Int("html_length", len(content)).Msg("HTML to markdown conversion produced empty output, using rendered text")
	return renderedText(sel)
}
