package filter

import (
	"github.com/joshmeranda/resourcefilter/pkg/expr"
	"github.com/joshmeranda/resourcefilter/pkg/transform"
)

type Option func(*parser)

// WithBackend sets the backend which builds the expression nodes. A new backend with default options is used
// otherwise.
func WithBackend(backend *expr.Backend) Option {
	return func(p *parser) {
		p.backend = backend
	}
}

// WithTransforms sets the functions available to the expression, transform.Default otherwise.
func WithTransforms(transforms *transform.Registry) Option {
	return func(p *parser) {
		p.transforms = transforms
	}
}

// WithAliases maps short names to the keys they stand for. Only the first component of a key is replaced.
func WithAliases(aliases map[string]expr.Key) Option {
	return func(p *parser) {
		p.aliases = aliases
	}
}

// Filter is a compiled filter expression.
type Filter struct {
	expression string
	node       expr.Node
}

// Compile parses expression into a Filter. The empty expression matches every record.
func Compile(expression string, opts ...Option) (*Filter, error) {
	p := newParser(expression)

	for _, opt := range opts {
		opt(p)
	}

	if p.backend == nil {
		p.backend = expr.NewBackend()
	}

	if p.transforms == nil {
		p.transforms = transform.Default()
	}

	node, err := p.parse()
	if err != nil {
		return nil, err
	}

	return &Filter{
		expression: expression,
		node:       node,
	}, nil
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
func MustCompile(expression string, opts ...Option) *Filter {
	f, err := Compile(expression, opts...)
	if err != nil {
		panic(err)
	}

	return f
}

func (f *Filter) Evaluate(record any) (bool, error) {
	return f.node.Evaluate(record)
}

// Value returns the value of a filter consisting of a single function call, such as "len(name)". Any other filter
// evaluates to whether it matches record.
func (f *Filter) Value(record any) (any, error) {
	if global, ok := f.node.(*expr.GlobalNode); ok {
		return global.Value(record)
	}

	return f.node.Evaluate(record)
}

func (f *Filter) Node() expr.Node {
	return f.node
}

func (f *Filter) String() string {
	return f.expression
}
