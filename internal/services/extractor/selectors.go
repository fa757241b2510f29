package extractor

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/mailticket/internal/services/selectors"
)

// GmailSelectors holds the selector chains for Gmail pages
type GmailSelectors struct {
	Subject selectors.Chain `toml:"subject"`
	From    selectors.Chain `toml:"from"`
	To      selectors.Chain `toml:"to"`
	Date    selectors.Chain `toml:"date"`
	Body    selectors.Chain `toml:"body"`
}

// OutlookSelectors holds the selector chains for Outlook pages.
// ReadingPane locates the container the other chains are scoped to.
type OutlookSelectors struct {
	ReadingPane selectors.Chain `toml:"reading_pane"`
	Subject     selectors.Chain `toml:"subject"`
	From        selectors.Chain `toml:"from"`
	To          selectors.Chain `toml:"to"`
	Date        selectors.Chain `toml:"date"`
	Body        selectors.Chain `toml:"body"`
}

// SelectorSet is every chain the extractor uses; it can be overridden from a TOML file
type SelectorSet struct {
	Gmail   GmailSelectors   `toml:"gmail"`
	Outlook OutlookSelectors `toml:"outlook"`
}

// DefaultSelectors returns the built-in selector chains
func DefaultSelectors() SelectorSet {
	return SelectorSet{
		Gmail: GmailSelectors{
			Subject: selectors.Plain(
				"h2[data-thread-perm-id]",
				".ha h2",
				".nH .hP",
				`[role="heading"][tabindex="-1"]`,
				"[data-thread-id] h2",
				"[data-message-id] h2",
			),
			From: gmailSender(
				".gD",
				".gb_vd",
				"[email]",
				".bA4 span",
				"[data-hovercard-id]",
				`[data-tooltip-class="email"]`,
			),
			To: selectors.Plain(
				".g2",
				"[data-thread-id] [data-hovercard-id]",
				".adn [data-hovercard-id]",
				`[data-tooltip-class="email"]:not(.gD)`,
			),
			Date: withMinText(1, selectors.Plain(
				".g3",
				".gH .g3",
				`[data-tooltip="Show details"] + [role="gridcell"]`,
				`.ads [role="gridcell"]`,
				`.ii [role="gridcell"]`,
				"[data-message-id] .utdU2e",
				".aDM span",
			)),
			Body: selectors.Plain(
				".a3s",
				".ii.gt",
				"[data-message-id] .ii.gt",
				".gs .ii.gt",
				`[role="main"] .ii.gt`,
				".adn .gs .ii.gt",
			),
		},
		Outlook: OutlookSelectors{
			ReadingPane: selectors.Plain(
				".ReadingPaneContent",
				`[role="main"] [role="region"]`,
				".ZtMcN",
				".IjzWp",
				"#ReadingPaneContainerId",
			),
			Subject: withinContainer(".allowTextSelection", selectors.Plain(
				`[role="heading"][aria-level="2"]`,
				".rps_5781",
				".FqIVwb",
				".XbIp4d",
				".item-subject",
				".dVbCub",
			).WithScope(selectors.ScopePane)),
			From: selectors.Plain(
				".ReadingPaneContent .from",
				`[role="region"] [role="heading"] + [role="link"]`,
				".hcptT",
				".GNqVo",
				".flexible-sender",
				".uniqueSecondaryText",
				".bidi_text",
			).WithScope(selectors.ScopePaneOrMain),
			To: outlookRecipients(
				".ReadingPaneContent .toRecipients",
				`[aria-label="To"]`,
				".UvtIbe",
				".bidi_text:not(.from)",
				`[role="link"]:not(.from)`,
			),
			Date: selectors.Plain(
				".ReadingPaneContent .sentDate",
				".datetime",
				".xAFpj",
				".eZuwY",
				`[role="main"] time`,
				".rps_4ea3",
			).WithScope(selectors.ScopePaneOrMain),
			Body: withMinText(outlookBodyMinLength, selectors.Plain(
				".ReadingPaneContent .message-body",
				`[role="main"] [role="presentation"]`,
				".allowTextSelection",
				".bMpKBe",
				".aZjzPe",
				".TcKJpc",
			).WithScope(selectors.ScopePaneOrMain)),
		},
	}
}

// outlookBodyMinLength is the shortest text an Outlook body candidate may carry
const outlookBodyMinLength = 51

func gmailSender(list ...string) selectors.Chain {
	chain := selectors.Plain(list...)
	for i := range chain {
		chain[i].AnyAttr = []string{"email", "data-hovercard-id"}
		chain[i].TextContains = "@"
	}
	return chain
}

func outlookRecipients(list ...string) selectors.Chain {
	chain := selectors.Plain(list...).WithScope(selectors.ScopePaneOrMain)
	for i := range chain {
		chain[i].TextContains = "@"
		chain[i].AttrEquals = map[string]string{"aria-label": "To"}
		chain[i].MinTextLength = 1
	}
	return chain
}

func withMinText(n int, chain selectors.Chain) selectors.Chain {
	for i := range chain {
		chain[i].MinTextLength = n
	}
	return chain
}

func withinContainer(container string, chain selectors.Chain) selectors.Chain {
	for i := range chain {
		chain[i].Within = container
	}
	return chain
}

// LoadSelectorOverrides reads a TOML file and replaces every default chain the file sets.
// Chains the file leaves empty keep their defaults.
func LoadSelectorOverrides(base SelectorSet, path string) (SelectorSet, error) {
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read selectors file %s: %w", path, err)
	}

	var overrides SelectorSet
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return base, fmt.Errorf("failed to parse selectors file %s: %w", path, err)
	}

	merged := base
	override(&merged.Gmail.Subject, overrides.Gmail.Subject)
	override(&merged.Gmail.From, overrides.Gmail.From)
	override(&merged.Gmail.To, overrides.Gmail.To)
	override(&merged.Gmail.Date, overrides.Gmail.Date)
	override(&merged.Gmail.Body, overrides.Gmail.Body)
	override(&merged.Outlook.ReadingPane, overrides.Outlook.ReadingPane)
	override(&merged.Outlook.Subject, overrides.Outlook.Subject)
	override(&merged.Outlook.From, overrides.Outlook.From)
	override(&merged.Outlook.To, overrides.Outlook.To)
	override(&merged.Outlook.Date, overrides.Outlook.Date)
	override(&merged.Outlook.Body, overrides.Outlook.Body)

	return merged, nil
}

func override(dst *selectors.Chain, src selectors.Chain) {
	if len(src) > 0 {
		*dst = src
	}
}
