package expr

import (
	"fmt"
	"regexp"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type BackendOption func(*Backend)

// WithLogger sets the logger used for the default warning sink.
func WithLogger(logger *zap.SugaredLogger) BackendOption {
	return func(backend *Backend) {
		backend.logger = logger
	}
}

// WithWarningFunc replaces the warning sink. The function may be called from any goroutine evaluating a node built by
// the backend.
func WithWarningFunc(warn func(string)) BackendOption {
	return func(backend *Backend) {
		backend.warn = warn
	}
}

// WithClock sets the time source for relative datetime operands.
func WithClock(now func() time.Time) BackendOption {
	return func(backend *Backend) {
		backend.now = now
	}
}

// WithLocation sets the location of datetimes which carry no zone.
func WithLocation(location *time.Location) BackendOption {
	return func(backend *Backend) {
		backend.location = location
	}
}

func WithCaseInsensitiveRE(insensitive bool) BackendOption {
	return func(backend *Backend) {
		backend.caseInsensitiveRE = insensitive
	}
}

// WithHTMLSearch toggles removal of markup tags from values before ':' and '=' matching.
func WithHTMLSearch(enabled bool) BackendOption {
	return func(backend *Backend) {
		backend.htmlSearch = enabled
	}
}

// Backend builds expression nodes. Every node it builds shares its options and its deprecation warning state.
type Backend struct {
	logger            *zap.SugaredLogger
	warn              func(string)
	now               func() time.Time
	location          *time.Location
	caseInsensitiveRE bool
	htmlSearch        bool

	hasWarned atomic.Bool
	eqWarned  atomic.Bool
}

func NewBackend(opts ...BackendOption) *Backend {
	backend := &Backend{
		logger:     zap.NewNop().Sugar(),
		now:        time.Now,
		location:   time.Local,
		htmlSearch: true,
	}

	for _, opt := range opts {
		opt(backend)
	}

	if backend.warn == nil {
		logger := backend.logger
		backend.warn = func(message string) {
			logger.Warn(message)
		}
	}

	return backend
}

// ResetWarnings allows each deprecation warning to be emitted once more.
func (backend *Backend) ResetWarnings() {
	backend.hasWarned.Store(false)
	backend.eqWarned.Store(false)
}

// DeprecatedHASWarned reports whether the ':' deprecation warning has been emitted.
func (backend *Backend) DeprecatedHASWarned() bool {
	return backend.hasWarned.Load()
}

// DeprecatedEQWarned reports whether the '=' deprecation warning has been emitted.
func (backend *Backend) DeprecatedEQWarned() bool {
	return backend.eqWarned.Load()
}

// HTMLSearch reports whether markup tags are removed from values before searching them.
func (backend *Backend) HTMLSearch() bool {
	return backend.htmlSearch
}

// Operand wraps value as an operand, see NewOperand.
func (backend *Backend) Operand(value any) *Operand {
	return NewOperand(value)
}

func (backend *Backend) parseTime(text string) (time.Time, bool) {
	if t, ok := parseRelative(text, backend.now()); ok {
		return t, true
	}

	return ParseDateTime(text, backend.location)
}

func (backend *Backend) True() Node {
	return trueNode{}
}

func (backend *Backend) Not(child Node) Node {
	return notNode{child: child}
}

func (backend *Backend) And(left Node, right Node) Node {
	return andNode{left: left, right: right}
}

func (backend *Backend) Or(left Node, right Node) Node {
	return orNode{left: left, right: right}
}

func (backend *Backend) order(key Key, operand *Operand, transform *Call, holds func(int) bool) Node {
	return &comparisonNode{
		key:       key,
		operand:   operand,
		transform: transform,
		predicate: orderPredicate{backend: backend, holds: holds},
	}
}

func (backend *Backend) LT(key Key, operand *Operand, transform *Call) Node {
	return backend.order(key, operand, transform, func(cmp int) bool { return cmp < 0 })
}

func (backend *Backend) LE(key Key, operand *Operand, transform *Call) Node {
	return backend.order(key, operand, transform, func(cmp int) bool { return cmp <= 0 })
}

func (backend *Backend) GE(key Key, operand *Operand, transform *Call) Node {
	return backend.order(key, operand, transform, func(cmp int) bool { return cmp >= 0 })
}

func (backend *Backend) GT(key Key, operand *Operand, transform *Call) Node {
	return backend.order(key, operand, transform, func(cmp int) bool { return cmp > 0 })
}

func (backend *Backend) NE(key Key, operand *Operand, transform *Call) Node {
	return &comparisonNode{
		key:       key,
		operand:   operand,
		transform: transform,
		predicate: nePredicate{},
	}
}

// HAS builds a ':' node. It fails when an operand holds more than one '*'.
func (backend *Backend) HAS(key Key, operand *Operand, transform *Call) (Node, error) {
	items := operand.items()
	patterns := make([]*wordPattern, len(items))

	for i, item := range items {
		pattern, err := newHasPattern(item)
		if err != nil {
			return nil, err
		}

		patterns[i] = pattern
	}

	return &comparisonNode{
		key:       key,
		operand:   operand,
		transform: transform,
		predicate: &wordPredicate{
			backend:  backend,
			key:      key,
			op:       ":",
			has:      true,
			patterns: patterns,
			warned:   &backend.hasWarned,
		},
	}, nil
}

func (backend *Backend) EQ(key Key, operand *Operand, transform *Call) Node {
	items := operand.items()
	patterns := make([]*wordPattern, len(items))

	for i, item := range items {
		patterns[i] = newEqPattern(item)
	}

	return &comparisonNode{
		key:       key,
		operand:   operand,
		transform: transform,
		predicate: &wordPredicate{
			backend:  backend,
			key:      key,
			op:       "=",
			patterns: patterns,
			warned:   &backend.eqWarned,
		},
	}
}

func (backend *Backend) compile(operand *Operand) ([]*regexp.Regexp, error) {
	items := operand.items()
	patterns := make([]*regexp.Regexp, len(items))

	for i, item := range items {
		expression := item.text
		if backend.caseInsensitiveRE {
			expression = "(?i)" + expression
		}

		pattern, err := regexp.Compile(expression)
		if err != nil {
			return nil, &SyntaxError{
				Message:  fmt.Sprintf("could not compile regular expression [%s]: %s", item.text, err),
				Position: -1,
			}
		}

		patterns[i] = pattern
	}

	return patterns, nil
}

// RE builds a '~' node which holds when any value matches the operand's regular expression.
func (backend *Backend) RE(key Key, operand *Operand, transform *Call) (Node, error) {
	patterns, err := backend.compile(operand)
	if err != nil {
		return nil, err
	}

	return &comparisonNode{
		key:       key,
		operand:   operand,
		transform: transform,
		predicate: rePredicate{patterns: patterns},
	}, nil
}

// NotRE builds a '!~' node which holds when any value does not match the operand's regular expression.
func (backend *Backend) NotRE(key Key, operand *Operand, transform *Call) (Node, error) {
	patterns, err := backend.compile(operand)
	if err != nil {
		return nil, err
	}

	return &comparisonNode{
		key:       key,
		operand:   operand,
		transform: transform,
		predicate: rePredicate{patterns: patterns, negate: true},
	}, nil
}

// Global builds a node applying call to the whole record.
func (backend *Backend) Global(call *Call) *GlobalNode {
	return &GlobalNode{call: call}
}
