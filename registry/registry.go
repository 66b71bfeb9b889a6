// Package registry keeps the modules that take part in a simulation.
package registry

import (
	"iter"
	"sync"

	"github.com/blofeld/blofeld/sim"
)

// A Registry holds the active modules in registration order.
//
// Registering makes a module eligible from the next aggregation round on.
// Unregistering a module while an event is being dispatched takes effect when
// the dispatch finishes.
type Registry struct {
	lock    sync.Mutex
	modules []sim.Module
	index   map[sim.ModuleID]int

	dispatching    bool
	pendingRemoval []sim.ModuleID
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		index: make(map[sim.ModuleID]int),
	}
}

// Register adds a module to the active set.
func (r *Registry) Register(m sim.Module) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	id := m.ID()
	if _, ok := r.index[id]; ok {
		return &sim.DuplicateModuleError{Module: id}
	}

	r.modules = append(r.modules, m)
	r.index[id] = len(r.modules) - 1

	return nil
}

// RegisterFrom creates a module from the factory and registers it.
func (r *Registry) RegisterFrom(f sim.Factory, capacity int) (sim.Module, error) {
	m := f.EmptyWithCapacity(capacity)

	if err := r.Register(m); err != nil {
		return nil, err
	}

	return m, nil
}

// Unregister removes a module from the active set.
func (r *Registry) Unregister(id sim.ModuleID) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.index[id]; !ok || r.isPendingRemoval(id) {
		return &sim.UnknownModuleError{Module: id}
	}

	if r.dispatching {
		r.pendingRemoval = append(r.pendingRemoval, id)
		return nil
	}

	r.remove(id)

	return nil
}

func (r *Registry) isPendingRemoval(id sim.ModuleID) bool {
	for _, pending := range r.pendingRemoval {
		if pending == id {
			return true
		}
	}

	return false
}

func (r *Registry) remove(id sim.ModuleID) {
	i := r.index[id]

	r.modules = append(r.modules[:i], r.modules[i+1:]...)
	delete(r.index, id)

	for j := i; j < len(r.modules); j++ {
		r.index[r.modules[j].ID()] = j
	}
}

// Get returns the module registered under the given ID.
func (r *Registry) Get(id sim.ModuleID) (sim.Module, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	i, ok := r.index[id]
	if !ok {
		return nil, &sim.UnknownModuleError{Module: id}
	}

	return r.modules[i], nil
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.modules)
}

// Snapshot returns the registered modules in registration order. Later
// registrations do not affect the returned slice.
func (r *Registry) Snapshot() []sim.Module {
	r.lock.Lock()
	defer r.lock.Unlock()

	modules := make([]sim.Module, len(r.modules))
	copy(modules, r.modules)

	return modules
}

// Modules iterates over a snapshot of the registered modules in registration
// order.
func (r *Registry) Modules() iter.Seq[sim.Module] {
	modules := r.Snapshot()

	return func(yield func(sim.Module) bool) {
		for _, m := range modules {
			if !yield(m) {
				return
			}
		}
	}
}

// Dispatch applies an event to the module that proposed it. A module that is
// no longer registered, or that fails to apply the event, is reported as
// sim.ModuleStateCorruptionError.
func (r *Registry) Dispatch(
	id sim.ModuleID,
	individual sim.Individual,
	outcome sim.Outcome,
) error {
	m, err := r.beginDispatch(id)
	if err == nil {
		defer r.endDispatch()
		err = m.Update(individual, outcome)
	}

	if err == nil || sim.IsFatal(err) {
		return err
	}

	return &sim.ModuleStateCorruptionError{
		Module:     id,
		Individual: individual,
		Outcome:    outcome,
		Err:        err,
	}
}

func (r *Registry) beginDispatch(id sim.ModuleID) (sim.Module, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.dispatching {
		panic("registry: dispatch while another dispatch is in flight")
	}

	i, ok := r.index[id]
	if !ok {
		return nil, &sim.UnknownModuleError{Module: id}
	}

	r.dispatching = true

	return r.modules[i], nil
}

func (r *Registry) endDispatch() {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, id := range r.pendingRemoval {
		r.remove(id)
	}

	r.pendingRemoval = r.pendingRemoval[:0]
	r.dispatching = false
}
