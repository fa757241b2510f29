// -----------------------------------------------------------------------
// Last Modified: Tuesday, 13th October 2026 4:10:00 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// Package common provides the description template formatter.
//
// A template references email fields with {name} placeholders:
//
//	Input:  "From: {from}\n\n{body}"
//	Email:  From="Ann <ann@x.io>", Body="Hello"
//	Output: "From: Ann <ann@x.io>\n\nHello"
//
// Placeholders are substituted one after another, each at its first occurrence
// only; later repeats are left verbatim. Unknown placeholders are left as is.
package common

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/models"
)

// placeholderPattern matches {name} references in a template
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// TemplatePlaceholders lists the placeholders FormatDescription understands, in substitution order
var TemplatePlaceholders = []string{"from", "to", "date", "body", "subject"}

// FormatDescription renders the ticket description template for an extracted email
func FormatDescription(template string, email models.ExtractedEmail, logger arbor.ILogger) string {
	if template == "" {
		template = DefaultDescriptionTemplate
	}

	values := map[string]string{
		"subject": email.Subject,
		"from":    email.From,
		"to":      email.To,
		"date":    email.Date,
		"body":    email.Body,
	}

	if logger != nil {
		logUnknownPlaceholders(template, values, logger)
	}

	result := template
	for _, name := range TemplatePlaceholders {
		result = strings.Replace(result, "{"+name+"}", values[name], 1)
	}

	return result
}

// logUnknownPlaceholders reports {name} references that no email field fills
func logUnknownPlaceholders(template string, values map[string]string, logger arbor.ILogger) {
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := values[match[1]]; !ok {
			logger.Debug().
				Str("placeholder", match[0]).
				Msg("Unknown template placeholder left unchanged")
		}
	}
}
