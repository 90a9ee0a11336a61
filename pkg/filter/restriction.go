package filter

import (
	"strings"

	"github.com/joshmeranda/resourcefilter/pkg/expr"
)

const globalRestrictionName = "global"

// restriction is the transform behind a term with no operator. It is true when any leaf value of the subject contains
// the search form of its word.
type restriction struct {
	pattern string
	html    bool
}

func (r restriction) Apply(subject any, _ ...any) (any, error) {
	found := !expr.Walk(subject, func(leaf any) bool {
		return !strings.Contains(expr.NormalizeForSearch(leaf, r.html), r.pattern)
	})

	return found, nil
}

func (p *parser) globalRestriction(word Token) expr.Node {
	html := p.backend.HTMLSearch()

	return p.backend.Global(&expr.Call{
		Name: globalRestrictionName,
		Transform: restriction{
			pattern: expr.NormalizeForSearch(word.Body, false),
			html:    html,
		},
		Args: []any{word.Body},
	})
}
