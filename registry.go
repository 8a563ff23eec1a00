package orgcore

import (
	"sync"
)

// Registry is the process-lifetime catalog of module descriptors. Modules
// announce themselves once during bootstrap; the catalog only grows and is
// never persisted. Iteration order is registration order, which is an
// observable contract: the ActivationManager loads and initializes modules
// in catalog order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	modules map[string]Descriptor
	logger  Logger
}

// NewRegistry creates an empty module catalog.
func NewRegistry(logger Logger) *Registry {
	return &Registry{
		modules: make(map[string]Descriptor),
		logger:  logger,
	}
}

// Register records a module descriptor in the catalog. Registering a
// descriptor under an already-known id overwrites the previous descriptor
// (last writer wins) while keeping the module's original position in the
// catalog order, so load order stays stable across re-registration.
//
// Descriptors with an empty id are rejected and logged; there is nothing to
// key them by.
func (r *Registry) Register(d Descriptor) {
	if d.ID == "" {
		r.logger.Warn("Ignoring module descriptor with empty id", "displayName", d.DisplayName)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[d.ID]; exists {
		r.logger.Debug("Overwriting module descriptor", "module", d.ID)
	} else {
		r.order = append(r.order, d.ID)
		r.logger.Debug("Registered module", "module", d.ID, "dependencies", d.Dependencies)
	}
	r.modules[d.ID] = d
}

// Get returns the descriptor registered under id, and whether one exists.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.modules[id]
	return d, ok
}

// Modules returns all registered descriptors in registration order.
func (r *Registry) Modules() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.modules[id])
	}
	return out
}

// ModuleIDs returns all registered module ids in registration order.
func (r *Registry) ModuleIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Dependencies returns the ids of the modules the given module declares as
// dependencies. Unknown modules, and modules declaring none, yield an empty
// slice.
func (r *Registry) Dependencies(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.modules[id]
	if !ok || len(d.Dependencies) == 0 {
		return nil
	}
	return append([]string(nil), d.Dependencies...)
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
