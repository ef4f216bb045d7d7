package values

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
)

// GeneratorFunc is the contract for custom value generators. Implementations
// must consume only the provided stream so generation stays reproducible,
// and return the textual value for one occurrence.
type GeneratorFunc func(rng *rand.Rand, params map[string]any) (string, error)

// Registry maps generator names to callables. Registration happens before a
// run starts; lookups during generation are read-only. A schema referencing
// an unregistered name is a configuration error, never a silent fallback.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]GeneratorFunc
}

// NewRegistry creates a registry pre-populated with the built-in generators.
func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]GeneratorFunc)}
	registerBuiltins(r)
	return r
}

// Register adds or replaces a generator under the given name.
func (r *Registry) Register(name string, fn GeneratorFunc) error {
	if name == "" {
		return fmt.Errorf("generator name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("generator %q: nil function", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = fn
	return nil
}

// Lookup returns the generator registered under name.
func (r *Registry) Lookup(name string) (GeneratorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.generators[name]
	return fn, ok
}

// Names returns all registered generator names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.generators))
	for n := range r.generators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
