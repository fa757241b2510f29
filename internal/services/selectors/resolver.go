package selectors

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// Resolver walks selector chains over a parsed page
type Resolver struct {
	logger arbor.ILogger
}

// NewResolver creates a resolver that logs which selector matched
func NewResolver(logger arbor.ILogger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve returns the first qualifying element for the chain, trying selectors strictly
// in order, or nil when no selector yields one. The first qualifying element wins even
// if its text is empty. pane may be nil.
func (r *Resolver) Resolve(root *goquery.Selection, chain Chain, pane *goquery.Selection) *goquery.Selection {
	if root == nil {
		return nil
	}

	for _, spec := range chain {
		var found *goquery.Selection
		root.Find(spec.Selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if spec.qualifies(el, root, pane) {
				found = el
				return false
			}
			return true
		})
		if found != nil {
			r.logger.Debug().Str("selector", spec.Selector).Msg("Selector matched")
			return found
		}
	}

	r.logger.Debug().Strs("selectors", chain.Selectors()).Msg("No matching selector found")
	return nil
}

// ResolveAll returns every qualifying element of the first selector in the chain that
// yields at least one, or nil when none does.
func (r *Resolver) ResolveAll(root *goquery.Selection, chain Chain, pane *goquery.Selection) *goquery.Selection {
	if root == nil {
		return nil
	}

	for _, spec := range chain {
		matches := root.Find(spec.Selector).FilterFunction(func(_ int, el *goquery.Selection) bool {
			return spec.qualifies(el, root, pane)
		})
		if matches.Length() > 0 {
			r.logger.Debug().Str("selector", spec.Selector).Int("count", matches.Length()).Msg("Selector matched")
			return matches
		}
	}

	r.logger.Debug().Strs("selectors", chain.Selectors()).Msg("No matching selector found")
	return nil
}
