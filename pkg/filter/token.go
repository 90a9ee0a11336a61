package filter

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joshmeranda/resourcefilter/pkg/expr"
)

type TokenKind int

const (
	Word TokenKind = iota
	Operator

	And
	Or
	Not

	OpenParenthesis
	CloseParenthesis
	Comma

	// EOE is the End Of Expression
	EOE
)

func (kind TokenKind) String() string {
	switch kind {
	case Word:
		return "word"
	case Operator:
		return "operator"
	case And:
		return "AND"
	case Or:
		return "OR"
	case Not:
		return "NOT"
	case OpenParenthesis:
		return "("
	case CloseParenthesis:
		return ")"
	case Comma:
		return ","
	case EOE:
		return "end of expression"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(kind))
	}
}

type Token struct {
	Kind TokenKind
	Body string

	// Position is the offset of the first character of the token and End the offset just past its last.
	Position int
	End      int

	// Quoted is set when any part of a Word was quoted or escaped, such words are never keywords.
	Quoted bool
}

const operatorChars = ":=!<>~"

func isOperatorChar(r rune) bool {
	return strings.ContainsRune(operatorChars, r)
}

// Tokenizer splits a filter expression into tokens. What ends a word depends on where the parser is: keys stop at
// operators, operands do not, and function arguments only stop at ',' and ')'.
type Tokenizer struct {
	s    string
	head int
}

func NewTokenizer(s string) Tokenizer {
	return Tokenizer{
		s: s,
	}
}

func (tokenizer *Tokenizer) errorf(position int, format string, args ...any) error {
	return &expr.SyntaxError{
		Message:    fmt.Sprintf(format, args...),
		Expression: tokenizer.s,
		Position:   position,
	}
}

func (tokenizer *Tokenizer) peekRune() (rune, int) {
	return utf8.DecodeRuneInString(tokenizer.s[tokenizer.head:])
}

func (tokenizer *Tokenizer) skipSpace() {
	for tokenizer.head < len(tokenizer.s) {
		r, size := tokenizer.peekRune()
		if !unicode.IsSpace(r) {
			return
		}

		tokenizer.head += size
	}
}

func (tokenizer *Tokenizer) single(kind TokenKind) Token {
	_, size := tokenizer.peekRune()

	token := Token{
		Kind:     kind,
		Body:     tokenizer.s[tokenizer.head : tokenizer.head+size],
		Position: tokenizer.head,
		End:      tokenizer.head + size,
	}

	tokenizer.head += size

	return token
}

func (tokenizer *Tokenizer) eoe() Token {
	return Token{
		Kind:     EOE,
		Position: len(tokenizer.s),
		End:      len(tokenizer.s),
	}
}

// quote consumes a quoted string starting at the current head and writes its contents to builder.
func (tokenizer *Tokenizer) quote(builder *strings.Builder) error {
	start := tokenizer.head
	quote, size := tokenizer.peekRune()
	tokenizer.head += size

	for tokenizer.head < len(tokenizer.s) {
		r, size := tokenizer.peekRune()
		tokenizer.head += size

		switch {
		case r == quote:
			return nil
		case r == '\\' && tokenizer.head < len(tokenizer.s):
			escaped, escapedSize := tokenizer.peekRune()
			if escaped != quote && escaped != '\\' {
				builder.WriteRune(r)
			}

			builder.WriteRune(escaped)
			tokenizer.head += escapedSize
		default:
			builder.WriteRune(r)
		}
	}

	return tokenizer.errorf(start, "Unterminated [%c] quote", quote)
}

// word reads characters until stop returns true for an unquoted character. Quoted parts and backslash escapes are
// joined with the unquoted parts around them.
func (tokenizer *Tokenizer) word(stop func(r rune) bool) (Token, error) {
	start := tokenizer.head
	quoted := false

	var builder strings.Builder

	for tokenizer.head < len(tokenizer.s) {
		r, size := tokenizer.peekRune()

		switch {
		case r == '"' || r == '\'':
			quoted = true

			if err := tokenizer.quote(&builder); err != nil {
				return Token{}, err
			}
		case r == '\\':
			quoted = true
			tokenizer.head += size

			if tokenizer.head == len(tokenizer.s) {
				builder.WriteRune(r)
				break
			}

			escaped, escapedSize := tokenizer.peekRune()
			if escaped != '"' && escaped != '\'' && escaped != '\\' {
				builder.WriteRune(r)
			}

			builder.WriteRune(escaped)
			tokenizer.head += escapedSize
		case stop(r):
			return tokenizer.wordToken(start, builder.String(), quoted), nil
		default:
			builder.WriteRune(r)
			tokenizer.head += size
		}
	}

	return tokenizer.wordToken(start, builder.String(), quoted), nil
}

func (tokenizer *Tokenizer) wordToken(start int, body string, quoted bool) Token {
	return Token{
		Kind:     Word,
		Body:     body,
		Position: start,
		End:      tokenizer.head,
		Quoted:   quoted,
	}
}

func stopTerm(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || isOperatorChar(r)
}

// Next returns the next token of a term: a keyword, a parenthesis, an operator or a key word.
func (tokenizer *Tokenizer) Next() (Token, error) {
	tokenizer.skipSpace()

	if tokenizer.head == len(tokenizer.s) {
		return tokenizer.eoe(), nil
	}

	r, _ := tokenizer.peekRune()

	switch r {
	case '(':
		return tokenizer.single(OpenParenthesis), nil
	case ')':
		return tokenizer.single(CloseParenthesis), nil
	case '-':
		return tokenizer.single(Not), nil
	case ':', '=', '~':
		return tokenizer.single(Operator), nil
	case '<', '>', '!':
		start := tokenizer.head
		tokenizer.head++

		if tokenizer.head < len(tokenizer.s) {
			next := tokenizer.s[tokenizer.head]
			if next == '=' || (r == '!' && next == '~') {
				tokenizer.head++
			}
		}

		if body := tokenizer.s[start:tokenizer.head]; body != "!" {
			return Token{Kind: Operator, Body: body, Position: start, End: tokenizer.head}, nil
		}

		return Token{}, tokenizer.errorf(start, "Operator expected")
	}

	token, err := tokenizer.word(stopTerm)
	if err != nil {
		return Token{}, err
	}

	if !token.Quoted {
		switch token.Body {
		case "AND":
			token.Kind = And
		case "OR":
			token.Kind = Or
		case "NOT":
			token.Kind = Not
		}
	}

	return token, nil
}

// Operand returns the next operand word. Inside a list operand words are also separated by ',' and an unquoted OR is
// returned as an Or token.
func (tokenizer *Tokenizer) Operand(list bool) (Token, error) {
	tokenizer.skipSpace()

	if tokenizer.head == len(tokenizer.s) {
		return tokenizer.eoe(), nil
	}

	r, _ := tokenizer.peekRune()

	switch {
	case r == '(':
		return tokenizer.single(OpenParenthesis), nil
	case r == ')':
		return tokenizer.single(CloseParenthesis), nil
	case r == ',' && list:
		return tokenizer.single(Comma), nil
	case isOperatorChar(r):
		return Token{}, tokenizer.errorf(tokenizer.head, "Operand expected")
	}

	token, err := tokenizer.word(func(r rune) bool {
		return unicode.IsSpace(r) || r == '(' || r == ')' || (list && r == ',')
	})
	if err != nil {
		return Token{}, err
	}

	if list && !token.Quoted && token.Body == "OR" {
		token.Kind = Or
	}

	return token, nil
}

// Argument returns the next function argument. Arguments may hold spaces and operator characters and end at an
// unquoted ',' or ')'.
func (tokenizer *Tokenizer) Argument() (Token, error) {
	tokenizer.skipSpace()

	if tokenizer.head == len(tokenizer.s) {
		return tokenizer.eoe(), nil
	}

	switch r, _ := tokenizer.peekRune(); r {
	case ')':
		return tokenizer.single(CloseParenthesis), nil
	case ',':
		return tokenizer.single(Comma), nil
	}

	token, err := tokenizer.word(func(r rune) bool {
		return r == ',' || r == ')'
	})
	if err != nil {
		return Token{}, err
	}

	if !token.Quoted {
		token.Body = strings.TrimRightFunc(token.Body, unicode.IsSpace)
	}

	return token, nil
}
