package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/IGLOU-EU/go-wildcard"
)

// matcher searches normalized text.
type matcher interface {
	search(text string) bool
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// isBoundary reports whether position i of text sits between a word and a non word character. Both ends of the text
// count as non word characters.
func isBoundary(text string, i int) bool {
	before, after := false, false

	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = isWordRune(r)
	}

	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = isWordRune(r)
	}

	return before != after
}

// wordMatcher finds literal starting on a word boundary, and when trailing is set also ending on one.
type wordMatcher struct {
	literal  string
	trailing bool
}

func (m wordMatcher) search(text string) bool {
	if m.literal == "" {
		return false
	}

	for offset := 0; offset <= len(text); {
		index := strings.Index(text[offset:], m.literal)
		if index < 0 {
			return false
		}

		start := offset + index
		end := start + len(m.literal)

		if isBoundary(text, start) && (!m.trailing || isBoundary(text, end)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}

	return false
}

// anyMatcher matches any text holding at least one character other than a newline.
type anyMatcher struct{}

func (anyMatcher) search(text string) bool {
	return strings.Trim(text, "\n") != ""
}

// substringMatcher matches text containing literal anywhere.
type substringMatcher struct {
	literal string
}

func (m substringMatcher) search(text string) bool {
	return strings.Contains(text, m.literal)
}

// lineMatcher matches when some line of the text matches a simple '*' wildcard pattern in full.
type lineMatcher struct {
	pattern string
}

func (m lineMatcher) search(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if wildcard.MatchSimple(m.pattern, line) {
			return true
		}
	}

	return false
}

// lineEqualMatcher matches when some line of the text is exactly literal.
type lineEqualMatcher struct {
	literal string
}

func (m lineEqualMatcher) search(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if line == m.literal {
			return true
		}
	}

	return false
}

// wordPattern holds the matchers for a single HAS or EQ operand. The deprecated matcher is nil when the current and
// legacy behaviors agree for every input.
type wordPattern struct {
	operand    *Operand
	standard   matcher
	deprecated matcher
}

// newHasPattern builds the matchers for a ':' operand. A trailing '*' asks for a prefix match and a lone '*' matches
// any non empty value.
func newHasPattern(operand *Operand) (*wordPattern, error) {
	pattern := &wordPattern{operand: operand}

	if operand.text == "*" {
		pattern.standard = anyMatcher{}
		return pattern, nil
	}

	text := NormalizeForSearch(operand.text, false)

	parts := strings.Split(text, "*")
	if len(parts) > 2 {
		return nil, newSyntaxError("At most one * expected in : patterns [%s].", operand.text)
	}

	if strings.HasSuffix(text, "*") {
		pattern.standard = wordMatcher{literal: strings.TrimSuffix(text, "*")}
	} else {
		pattern.standard = wordMatcher{literal: text, trailing: true}
	}

	switch {
	case len(parts) == 1:
		if text != "" {
			pattern.deprecated = substringMatcher{literal: text}
		}
	case parts[0] == "" && parts[1] != "":
		pattern.deprecated = lineMatcher{pattern: "*" + parts[1]}
	case parts[0] != "" && parts[1] == "":
		pattern.deprecated = lineMatcher{pattern: parts[0] + "*"}
	case parts[0] != "" && parts[1] != "":
		pattern.deprecated = lineMatcher{pattern: parts[0] + "*" + parts[1]}
	}

	return pattern, nil
}

// newEqPattern builds the matchers for an '=' operand. The operand is always matched as a whole word and '*' has no
// special meaning.
func newEqPattern(operand *Operand) *wordPattern {
	text := NormalizeForSearch(operand.text, false)

	pattern := &wordPattern{
		operand:  operand,
		standard: wordMatcher{literal: text, trailing: true},
	}

	if text != "" {
		pattern.deprecated = lineEqualMatcher{literal: text}
	}

	return pattern
}
