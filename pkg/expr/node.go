package expr

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/atomic"
)

// Node is a compiled filter expression.
type Node interface {
	// Evaluate reports whether record satisfies the expression.
	Evaluate(record any) (bool, error)
}

// Transform computes a value derived from a subject.
type Transform interface {
	Apply(subject any, args ...any) (any, error)
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc func(subject any, args ...any) (any, error)

func (f TransformFunc) Apply(subject any, args ...any) (any, error) {
	return f(subject, args...)
}

// Call is a transform bound to its arguments.
type Call struct {
	Name      string
	Transform Transform
	Args      []any
}

func (call *Call) apply(subject any) (any, error) {
	if call.Transform == nil {
		return nil, &TransformError{Name: call.Name, Err: fmt.Errorf("no such transform")}
	}

	value, err := call.Transform.Apply(subject, call.Args...)
	if err != nil {
		return nil, &TransformError{Name: call.Name, Err: err}
	}

	return value, nil
}

func (call *Call) String() string {
	args := make([]string, len(call.Args))
	for i, arg := range call.Args {
		args[i] = formatValue(arg)
	}

	return call.Name + "(" + strings.Join(args, ",") + ")"
}

type trueNode struct{}

func (trueNode) Evaluate(any) (bool, error) {
	return true, nil
}

type notNode struct {
	child Node
}

func (n notNode) Evaluate(record any) (bool, error) {
	matched, err := n.child.Evaluate(record)
	if err != nil {
		return false, err
	}

	return !matched, nil
}

type andNode struct {
	left, right Node
}

func (n andNode) Evaluate(record any) (bool, error) {
	matched, err := n.left.Evaluate(record)
	if err != nil || !matched {
		return false, err
	}

	return n.right.Evaluate(record)
}

type orNode struct {
	left, right Node
}

func (n orNode) Evaluate(record any) (bool, error) {
	matched, err := n.left.Evaluate(record)
	if err != nil || matched {
		return matched, err
	}

	return n.right.Evaluate(record)
}

// GlobalNode evaluates a transform against the whole record.
type GlobalNode struct {
	call *Call
}

// Value returns the result of applying the node's transform to record.
func (n *GlobalNode) Value(record any) (any, error) {
	return n.call.apply(record)
}

func (n *GlobalNode) Evaluate(record any) (bool, error) {
	value, err := n.Value(record)
	if err != nil {
		return false, err
	}

	return truthy(value), nil
}

// predicate is the operator specific part of a comparison. Each method returns whether the predicate holds and
// whether it could be applied to the value at all.
type predicate interface {
	number(value float64, operand *Operand, index int) (matched bool, applied bool)
	text(value any, operand *Operand, index int) (matched bool, applied bool)
}

// comparisonNode applies a predicate to every pairing of the resolved values with the operands.
type comparisonNode struct {
	key       Key
	operand   *Operand
	transform *Call
	predicate predicate
}

func (n *comparisonNode) Evaluate(record any) (bool, error) {
	value, _ := Resolve(record, n.key)

	if n.transform != nil {
		var err error
		if value, err = n.transform.apply(value); err != nil {
			return false, err
		}
	}

	values := []any{scalar(value)}
	if items, ok := listItems(value); ok && len(items) > 0 {
		values = make([]any, len(items))
		for i := range items {
			values[i] = scalar(items[i])
		}
	}

	operands := n.operand.items()

	for _, v := range values {
		for i, operand := range operands {
			if operand.numeric {
				if f, ok := toFloat(v); ok {
					matched, applied := n.predicate.number(f, operand, i)
					if matched {
						return true, nil
					}

					if applied && !operand.constant {
						continue
					}
				}
			}

			if matched, _ := n.predicate.text(v, operand, i); matched {
				return true, nil
			}
		}
	}

	return false, nil
}

// orderPredicate implements the ordering operators.
type orderPredicate struct {
	backend *Backend
	holds   func(cmp int) bool
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (p orderPredicate) number(value float64, operand *Operand, _ int) (bool, bool) {
	if value != value {
		return false, true
	}

	return p.holds(compareFloats(value, operand.number)), true
}

func (p orderPredicate) text(value any, operand *Operand, _ int) (bool, bool) {
	if t, ok := asDateTime(value, p.backend.location); ok {
		if other, ok := p.backend.parseTime(operand.text); ok {
			return p.holds(compareTimes(t, other)), true
		}
	}

	if value == nil {
		return p.holds(strings.Compare("", operand.text)), true
	}

	if isContainer(value) {
		return false, false
	}

	return p.holds(strings.Compare(formatValue(value), operand.text)), true
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

type nePredicate struct{}

func (nePredicate) number(value float64, operand *Operand, _ int) (bool, bool) {
	return value != operand.number, true
}

func (nePredicate) text(value any, operand *Operand, _ int) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return operand.text != "" && operand.text != "null", true
	case bool:
		return !strings.EqualFold(formatValue(v), operand.text), true
	}

	if isContainer(value) {
		return true, true
	}

	return formatValue(value) != operand.text, true
}

// rePredicate implements the regular expression operators, one compiled pattern per operand.
type rePredicate struct {
	patterns []*regexp.Regexp
	negate   bool
}

func (rePredicate) number(float64, *Operand, int) (bool, bool) {
	return false, false
}

func (p rePredicate) text(value any, _ *Operand, index int) (bool, bool) {
	var text string

	switch {
	case value == nil:
		text = ""
	case isContainer(value):
		return false, false
	default:
		text = formatValue(value)
	}

	return p.patterns[index].MatchString(text) != p.negate, true
}

// wordPredicate implements the ':' and '=' operators.
type wordPredicate struct {
	backend  *Backend
	key      Key
	op       string
	has      bool
	patterns []*wordPattern
	warned   *atomic.Bool
}

func (p *wordPredicate) number(value float64, _ *Operand, index int) (bool, bool) {
	return p.match(value, p.patterns[index]), true
}

func (p *wordPredicate) text(value any, _ *Operand, index int) (bool, bool) {
	return p.match(value, p.patterns[index]), true
}

func (p *wordPredicate) match(value any, pattern *wordPattern) bool {
	operand := pattern.operand.text
	var text string

	if f, ok := isFloat(value); ok {
		if n, ok := parseFloat(operand); ok && f == n {
			return true
		}

		switch strings.ToLower(operand) {
		case "false":
			if f == 0 {
				return true
			}
		case "true":
			if f == 1 {
				return true
			}
		}

		text = formatFloat(f)
		if i := strings.LastIndexByte(text, '.'); i >= 0 && strings.Trim(text[i+1:], "0") == "" {
			text = text[:i]
		}

		return p.search(text, pattern)
	}

	switch v := value.(type) {
	case string:
		if v == operand {
			return true
		}
	case []byte:
		if string(v) == operand {
			return true
		}
	}

	if value == nil {
		if operand == "" {
			return true
		}

		if p.has && operand == "*" {
			return false
		}

		return p.search("null", pattern)
	}

	if entries, ok := mapEntries(value); ok {
		for _, e := range entries {
			if p.match(scalar(e.key), pattern) {
				return true
			}
		}

		for _, e := range entries {
			if p.match(scalar(e.value), pattern) {
				return true
			}
		}

		return false
	}

	if items, ok := listItems(value); ok {
		for _, item := range items {
			if p.match(scalar(item), pattern) {
				return true
			}
		}

		return false
	}

	return p.search(NormalizeForSearch(value, p.backend.htmlSearch), pattern)
}

func (p *wordPredicate) search(text string, pattern *wordPattern) bool {
	matched := pattern.standard.search(text)
	if pattern.deprecated == nil {
		return matched
	}

	old := pattern.deprecated.search(text)
	if old != matched && p.warned.CAS(false, true) {
		p.backend.warn(deprecationMessage(p.op, p.key, pattern.operand, old, matched))
	}

	return old
}

func deprecationMessage(op string, key Key, operand *Operand, old bool, matched bool) string {
	current := "does not match"
	if old {
		current = "matches"
	}

	future := "will not match"
	if matched {
		future = "will match"
	}

	return fmt.Sprintf("--filter %s operator evaluation is changing for consistency across Google APIs.  %s%s%s currently %s but %s in the near future.  Run `gcloud topic filters` for details.",
		op, key, op, operand.text, current, future)
}
