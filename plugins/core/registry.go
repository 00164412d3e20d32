// ABOUTME: Registry of bundled plugin definitions.
// ABOUTME: Plugins register themselves in init() functions.

package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry = make(map[string]Definition)
	mu       sync.RWMutex
)

// Register adds a plugin definition to the registry.
func Register(d Definition) {
	mu.Lock()
	defer mu.Unlock()

	name := d.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("plugin %q already registered", name))
	}
	registry[name] = d
}

// Get retrieves a definition by name.
func Get(name string) (Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// All returns all registered definitions, sorted by name.
func All() []Definition {
	mu.RLock()
	defer mu.RUnlock()

	defs := make([]Definition, 0, len(registry))
	for _, d := range registry {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name() < defs[j].Name() })
	return defs
}

// Names returns all registered plugin names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
