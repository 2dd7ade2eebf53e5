// ABOUTME: Driver registry and discovery order
// ABOUTME: Drivers register factories at init; the engine walks them by priority
package backend

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Factory creates a Backend. Higher Priority factories are tried first.
type Factory struct {
	Name     string
	Priority int
	Init     func(contextName string, log *zap.Logger) (Backend, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a driver available for discovery. It panics when the name is
// empty, Init is nil, or the name is already taken.
func Register(f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if f.Name == "" || f.Init == nil {
		panic("backend: Register with empty name or nil Init")
	}
	if _, dup := registry[f.Name]; dup {
		panic(fmt.Sprintf("backend: Register called twice for %q", f.Name))
	}
	registry[f.Name] = f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Factories returns every registered factory, highest priority first.
func Factories() []Factory {
	registryMu.RLock()
	out := make([]Factory, 0, len(registry))
	for _, f := range registry {
		out = append(out, f)
	}
	registryMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}
