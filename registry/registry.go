// Package registry constructs trainer instances by backend type name.
// Backends register a factory under their type string; configuration then
// selects the factory per instance.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/trainops/trainerd/training"
)

// Factory builds a trainer instance from its configured name and the
// backend-specific config mapping.
type Factory func(instanceName string, cfg map[string]any) (training.Trainer, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend constructible under the given type name.
// Registering the same type twice panics: it is a wiring bug, not a
// runtime condition.
func Register(typeName string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := factories[typeName]; ok {
		panic(fmt.Sprintf("trainer type %q registered twice", typeName))
	}
	factories[typeName] = factory
}

// New constructs a trainer instance of the given type.
func New(instanceName, typeName string, cfg map[string]any) (training.Trainer, error) {
	mu.RLock()
	factory, ok := factories[typeName]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown trainer type %q (registered: %v)", typeName, Types())
	}

	trainer, err := factory(instanceName, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to construct trainer %q: %w", instanceName, err)
	}
	return trainer, nil
}

// Types lists the registered backend type names, sorted.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(factories))
	for name := range factories {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
