package selectors

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Scope restricts where a matched element may live
type Scope string

const (
	// ScopeAny accepts an element anywhere under the query root
	ScopeAny Scope = ""
	// ScopePane requires the element to be the reading pane or inside it
	ScopePane Scope = "pane"
	// ScopePaneOrMain accepts elements inside the reading pane or under a [role="main"] ancestor
	ScopePaneOrMain Scope = "pane_or_main"
)

// Spec is one candidate matcher for a semantic slot. Selector is a CSS selector;
// the remaining fields are predicates an element must satisfy to qualify.
//
// AnyAttr, AttrEquals and TextContains are alternatives: when any of them is set
// the element qualifies if at least one holds. MinTextLength, Scope and Within
// always apply.
type Spec struct {
	Selector      string            `toml:"selector" json:"selector"`
	AnyAttr       []string          `toml:"any_attr" json:"anyAttr,omitempty"`
	AttrEquals    map[string]string `toml:"attr_equals" json:"attrEquals,omitempty"`
	TextContains  string            `toml:"text_contains" json:"textContains,omitempty"`
	MinTextLength int               `toml:"min_text_length" json:"minTextLength,omitempty"`
	Scope         Scope             `toml:"scope" json:"scope,omitempty"`
	// Within names a container that satisfies the scope check as an alternative to the pane
	Within string `toml:"within" json:"within,omitempty"`
}

// Chain is an ordered list of Specs. Order encodes preference.
type Chain []Spec

// Plain builds a chain of selectors that carry no extra predicates
func Plain(selectors ...string) Chain {
	chain := make(Chain, 0, len(selectors))
	for _, s := range selectors {
		chain = append(chain, Spec{Selector: s})
	}
	return chain
}

// WithScope returns a copy of the chain with the scope applied to every spec
func (c Chain) WithScope(scope Scope) Chain {
	out := make(Chain, len(c))
	for i, s := range c {
		s.Scope = scope
		out[i] = s
	}
	return out
}

// Selectors lists the raw selector strings, mostly for logging
func (c Chain) Selectors() []string {
	out := make([]string, 0, len(c))
	for _, s := range c {
		out = append(out, s.Selector)
	}
	return out
}

func (s Spec) hasQualifiers() bool {
	return len(s.AnyAttr) > 0 || len(s.AttrEquals) > 0 || s.TextContains != ""
}

// qualifies reports whether el satisfies every predicate of the spec
func (s Spec) qualifies(el *goquery.Selection, root *goquery.Selection, pane *goquery.Selection) bool {
	if s.hasQualifiers() && !s.matchesQualifier(el) {
		return false
	}

	if s.MinTextLength > 0 && utf8.RuneCountInString(el.Text()) < s.MinTextLength {
		return false
	}

	return s.inScope(el, root, pane)
}

func (s Spec) matchesQualifier(el *goquery.Selection) bool {
	for _, attr := range s.AnyAttr {
		if v, ok := el.Attr(attr); ok && v != "" {
			return true
		}
	}
	for attr, want := range s.AttrEquals {
		if v, ok := el.Attr(attr); ok && v == want {
			return true
		}
	}
	if s.TextContains != "" && strings.Contains(el.Text(), s.TextContains) {
		return true
	}
	return false
}

func (s Spec) inScope(el *goquery.Selection, root *goquery.Selection, pane *goquery.Selection) bool {
	if s.Scope == ScopeAny && s.Within == "" {
		return true
	}

	if s.Within != "" && root != nil {
		if container := root.Find(s.Within).First(); container.Length() > 0 && Contains(container, el) {
			return true
		}
	}

	switch s.Scope {
	case ScopePane:
		return Contains(pane, el)
	case ScopePaneOrMain:
		return Contains(pane, el) || el.Closest(`[role="main"]`).Length() > 0
	default:
		return false
	}
}

// Contains reports whether el is the container node itself or one of its descendants
func Contains(container *goquery.Selection, el *goquery.Selection) bool {
	if container == nil || container.Length() == 0 || el == nil || el.Length() == 0 {
		return false
	}
	node := el.Get(0)
	for _, c := range container.Nodes {
		if c == node {
			return true
		}
	}
	return container.Contains(node)
}
