package bot

import (
	"fmt"
	"sync"
)

// Registry holds the modules the bot runs, in start order.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

// NewRegistry creates a module registry from a static list.
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{modules: make([]Module, 0, len(modules))}
	for _, m := range modules {
		r.Register(m)
	}
	return r
}

// Register adds a module to the registry.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, m)
}

// Modules returns a snapshot of all registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Return a copy to prevent external modification
	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

// LoadConfigs runs LoadConfig on every ConfigurableModule.
func (r *Registry) LoadConfigs() error {
	for _, m := range r.Modules() {
		configurable, ok := m.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return fmt.Errorf("failed to load %s config: %w", m.Name(), err)
		}
	}
	return nil
}
