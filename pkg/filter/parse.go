package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshmeranda/resourcefilter/pkg/expr"
	"github.com/joshmeranda/resourcefilter/pkg/transform"
)

type parser struct {
	expression string
	tokenizer  Tokenizer
	peeked     *Token

	backend    *expr.Backend
	transforms *transform.Registry
	aliases    map[string]expr.Key
}

func newParser(expression string) *parser {
	return &parser{
		expression: expression,
		tokenizer:  NewTokenizer(expression),
	}
}

func (p *parser) errorf(position int, format string, args ...any) error {
	return &expr.SyntaxError{
		Message:    fmt.Sprintf(format, args...),
		Expression: p.expression,
		Position:   position,
	}
}

func (p *parser) peek() (Token, error) {
	if p.peeked == nil {
		token, err := p.tokenizer.Next()
		if err != nil {
			return Token{}, err
		}

		p.peeked = &token
	}

	return *p.peeked, nil
}

func (p *parser) next() (Token, error) {
	token, err := p.peek()
	p.peeked = nil

	return token, err
}

func (p *parser) parse() (expr.Node, error) {
	token, err := p.peek()
	if err != nil {
		return nil, err
	}

	if token.Kind == EOE {
		return p.backend.True(), nil
	}

	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if token, err = p.next(); err != nil {
		return nil, err
	}

	switch token.Kind {
	case EOE:
		return node, nil
	case CloseParenthesis:
		return nil, p.errorf(token.Position, "Unmatched ')'")
	default:
		return nil, p.errorf(token.Position, "Unexpected '%s'", token.Body)
	}
}

// parseExpression parses the terms of a single nesting level, joined by AND or by adjacency. OR binds tighter than
// both, so AND and OR may only be combined across parentheses.
func (p *parser) parseExpression() (expr.Node, error) {
	left, orPosition, err := p.parseOrTerm()
	if err != nil {
		return nil, err
	}

	andPosition := -1

	for {
		token, err := p.peek()
		if err != nil {
			return nil, err
		}

		if token.Kind == EOE || token.Kind == CloseParenthesis {
			return left, nil
		}

		if token.Kind == And {
			if _, err := p.next(); err != nil {
				return nil, err
			}

			if andPosition < 0 {
				andPosition = token.Position
			}
		}

		right, rightOrPosition, err := p.parseOrTerm()
		if err != nil {
			return nil, err
		}

		if orPosition < 0 {
			orPosition = rightOrPosition
		}

		if andPosition >= 0 && orPosition >= 0 {
			position := andPosition
			if orPosition > position {
				position = orPosition
			}

			return nil, p.errorf(position, "Parenthesis grouping is required when AND and OR are combined")
		}

		left = p.backend.And(left, right)
	}
}

// parseOrTerm parses terms joined by OR. The returned position is that of the first OR, or -1 if there was none.
func (p *parser) parseOrTerm() (expr.Node, int, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, -1, err
	}

	orPosition := -1

	for {
		token, err := p.peek()
		if err != nil {
			return nil, -1, err
		}

		if token.Kind != Or {
			return left, orPosition, nil
		}

		if _, err := p.next(); err != nil {
			return nil, -1, err
		}

		if orPosition < 0 {
			orPosition = token.Position
		}

		right, err := p.parseTerm()
		if err != nil {
			return nil, -1, err
		}

		left = p.backend.Or(left, right)
	}
}

func (p *parser) parseTerm() (expr.Node, error) {
	token, err := p.next()
	if err != nil {
		return nil, err
	}

	switch token.Kind {
	case Not:
		child, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		return p.backend.Not(child), nil
	case OpenParenthesis:
		node, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		closing, err := p.next()
		if err != nil {
			return nil, err
		}

		if closing.Kind != CloseParenthesis {
			return nil, p.errorf(token.Position, "Unmatched '('")
		}

		return node, nil
	case Word:
		return p.parseRestriction(token)
	default:
		return nil, p.errorf(token.Position, "Term expected")
	}
}

// parseRestriction parses the term beginning with word: a comparison, a function call or a global restriction.
func (p *parser) parseRestriction(word Token) (expr.Node, error) {
	next, err := p.peek()
	if err != nil {
		return nil, err
	}

	if !word.Quoted && next.Kind == OpenParenthesis && next.Position == word.End {
		return p.parseCall(word)
	}

	if next.Kind != Operator {
		return p.globalRestriction(word), nil
	}

	key, err := p.parseKey(word.Body, word.Position)
	if err != nil {
		return nil, err
	}

	return p.parseComparison(key, nil)
}

func (p *parser) parseCall(word Token) (expr.Node, error) {
	if _, err := p.next(); err != nil {
		return nil, err
	}

	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}

	keyText, name, dotted := "", word.Body, false
	if i := strings.LastIndexByte(word.Body, '.'); i >= 0 {
		keyText, name, dotted = word.Body[:i], word.Body[i+1:], true
	}

	call, err := p.call(name, args, word.Position)
	if err != nil {
		return nil, err
	}

	var key expr.Key

	if dotted {
		if keyText == "" {
			return nil, p.errorf(word.Position, "Non-empty key name expected")
		}

		if key, err = p.parseKey(keyText, word.Position); err != nil {
			return nil, err
		}
	}

	next, err := p.peek()
	if err != nil {
		return nil, err
	}

	if next.Kind != Operator {
		if dotted {
			return nil, p.errorf(next.Position, "Operator expected")
		}

		return p.backend.Global(call), nil
	}

	return p.parseComparison(key, call)
}

func (p *parser) parseArguments() ([]any, error) {
	var args []any

	for {
		token, err := p.tokenizer.Argument()
		if err != nil {
			return nil, err
		}

		switch token.Kind {
		case EOE:
			return nil, p.errorf(token.Position, "Closing ')' expected in function call")
		case CloseParenthesis:
			return args, nil
		case Comma:
		default:
			args = append(args, token.Body)
		}
	}
}

func (p *parser) call(name string, args []any, position int) (*expr.Call, error) {
	if name == "" {
		return nil, p.errorf(position, "Function name expected")
	}

	fn, found := p.transforms.Lookup(name)
	if !found {
		return nil, p.errorf(position, "Unknown transform function %s", name)
	}

	return &expr.Call{
		Name:      name,
		Transform: fn,
		Args:      args,
	}, nil
}

// parseKey parses a dotted key and replaces an aliased first component with the key it stands for.
func (p *parser) parseKey(text string, position int) (expr.Key, error) {
	key, err := expr.ParseKey(text)
	if err != nil {
		return nil, p.errorf(position, "Invalid key %s", text)
	}

	if len(key) == 0 {
		return key, nil
	}

	if name, ok := key[0].(string); ok {
		if alias, found := p.aliases[name]; found {
			resolved := make(expr.Key, 0, len(alias)+len(key)-1)
			resolved = append(resolved, alias...)

			return append(resolved, key[1:]...), nil
		}
	}

	return key, nil
}

func (p *parser) parseComparison(key expr.Key, call *expr.Call) (expr.Node, error) {
	op, err := p.next()
	if err != nil {
		return nil, err
	}

	token, err := p.tokenizer.Operand(false)
	if err != nil {
		return nil, err
	}

	var operand *expr.Operand

	switch token.Kind {
	case OpenParenthesis:
		if op.Body != ":" && op.Body != "=" {
			return nil, p.errorf(token.Position, "List operand not supported for %s", op.Body)
		}

		if operand, err = p.parseList(token); err != nil {
			return nil, err
		}
	case Word:
		if !token.Quoted && (token.Body == "AND" || token.Body == "OR" || token.Body == "NOT") {
			return nil, p.errorf(token.Position, "Term operand expected")
		}

		operand = p.backend.Operand(token.Body)
	default:
		return nil, p.errorf(token.Position, "Term operand expected")
	}

	node, err := p.build(op.Body, key, operand, call)
	if err != nil {
		var syntaxErr *expr.SyntaxError
		if errors.As(err, &syntaxErr) && syntaxErr.Position < 0 {
			syntaxErr.Expression = p.expression
			syntaxErr.Position = token.Position
		}

		return nil, err
	}

	return node, nil
}

func (p *parser) parseList(open Token) (*expr.Operand, error) {
	var items []string

	for {
		token, err := p.tokenizer.Operand(true)
		if err != nil {
			return nil, err
		}

		switch token.Kind {
		case EOE:
			return nil, p.errorf(open.Position, "Unmatched '('")
		case CloseParenthesis:
			if len(items) == 0 {
				return nil, p.errorf(token.Position, "Term operand expected")
			}

			return p.backend.Operand(items), nil
		case Comma, Or:
		case Word:
			items = append(items, token.Body)
		default:
			return nil, p.errorf(token.Position, "Unexpected '%s' in list operand", token.Body)
		}
	}
}

func (p *parser) build(op string, key expr.Key, operand *expr.Operand, call *expr.Call) (expr.Node, error) {
	switch op {
	case ":":
		return p.backend.HAS(key, operand, call)
	case "=":
		return p.backend.EQ(key, operand, call), nil
	case "!=":
		return p.backend.NE(key, operand, call), nil
	case "<":
		return p.backend.LT(key, operand, call), nil
	case "<=":
		return p.backend.LE(key, operand, call), nil
	case ">=":
		return p.backend.GE(key, operand, call), nil
	case ">":
		return p.backend.GT(key, operand, call), nil
	case "~":
		return p.backend.RE(key, operand, call)
	case "!~":
		return p.backend.NotRE(key, operand, call)
	default:
		return nil, fmt.Errorf("unsupported operator '%s'", op)
	}
}
