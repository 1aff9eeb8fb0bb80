// Package module defines the trainable-unit abstraction that trainer
// backends operate on, plus a process-wide registry so modules can be
// resolved by name (for example from an API request or a Kubernetes label).
package module

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Model is a handle to a trained artifact. A Model knows how to persist
// itself into a directory; the layout of that directory is owned by the
// module that produced it.
type Model interface {
	Save(ctx context.Context, dir string) error
}

// Module is one trainable unit. Train produces a new Model from parameters;
// Load reconstructs a Model previously written by Save.
type Module interface {
	Name() string
	Train(ctx context.Context, params map[string]any) (Model, error)
	Load(ctx context.Context, dir string) (Model, error)
}

var (
	mu      sync.RWMutex
	modules = map[string]Module{}
)

// Register makes a module resolvable by name. Registering the same name
// twice is an error.
func Register(m Module) error {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := modules[m.Name()]; ok {
		return fmt.Errorf("module %q already registered", m.Name())
	}
	modules[m.Name()] = m
	return nil
}

// Get resolves a registered module by name.
func Get(name string) (Module, error) {
	mu.RLock()
	defer mu.RUnlock()

	m, ok := modules[name]
	if !ok {
		return nil, fmt.Errorf("unknown module %q", name)
	}
	return m, nil
}

// Names lists the registered module names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
