package expr

import (
	"regexp"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// NormalizeForSearch returns the searchable form of value: its text with accents dropped, compatibility characters
// decomposed and all letters lower cased. When html is true, markup tags are removed first.
func NormalizeForSearch(value any, html bool) string {
	var text string

	switch v := scalar(value).(type) {
	case nil:
		text = "null"
	case bool:
		if v {
			text = "true"
		} else {
			text = "false"
		}
	default:
		text = formatValue(v)
	}

	if html {
		text = htmlTagPattern.ReplaceAllString(text, "")
	}

	// casers carry state so the chain cannot be shared between goroutines
	chain := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), cases.Lower(language.Und))

	normalized, _, err := transform.String(chain, text)
	if err != nil {
		return text
	}

	return normalized
}
