package transform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joshmeranda/resourcefilter/pkg/expr"
	"github.com/samber/lo"
)

// Registry maps transform names to their implementations. It is safe for concurrent use.
type Registry struct {
	lock       sync.RWMutex
	transforms map[string]expr.Transform
}

func NewRegistry() *Registry {
	return &Registry{
		transforms: make(map[string]expr.Transform),
	}
}

// Default returns a new registry holding every builtin transform.
func Default() *Registry {
	registry := NewRegistry()

	for name, transform := range builtins() {
		registry.MustRegister(name, transform)
	}

	return registry
}

func (registry *Registry) Register(name string, transform expr.Transform) error {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	if _, found := registry.transforms[name]; found {
		return fmt.Errorf("transform '%s' is already registered", name)
	}

	registry.transforms[name] = transform

	return nil
}

// MustRegister is like Register but panics on error.
func (registry *Registry) MustRegister(name string, transform expr.Transform) {
	if err := registry.Register(name, transform); err != nil {
		panic(err)
	}
}

func (registry *Registry) Lookup(name string) (expr.Transform, bool) {
	registry.lock.RLock()
	defer registry.lock.RUnlock()

	transform, found := registry.transforms[name]

	return transform, found
}

// Names returns the sorted names of all registered transforms.
func (registry *Registry) Names() []string {
	registry.lock.RLock()
	names := lo.Keys(registry.transforms)
	registry.lock.RUnlock()

	sort.Strings(names)

	return names
}
