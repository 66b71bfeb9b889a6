package sim

import "iter"

// A Proposal is a weighted event a module offers for one individual.
type Proposal struct {
	Individual Individual
	Outcome    Outcome
	Rate       Rate
}

// A Module owns one category of epidemiological logic. It proposes weighted
// events and applies the ones that are selected.
type Module interface {
	// ID returns the identity the module is registered under.
	ID() ModuleID

	// Weights returns the events the module proposes for the given
	// individuals. The sequence is finite and can be iterated more than once.
	// Weights must not change any observable state, as it may run
	// concurrently with the Weights of other modules.
	Weights(individuals []Individual) iter.Seq[Proposal]

	// Update applies an outcome this module proposed to the individual. It is
	// called once per dispatched event and must report, not ignore, an
	// individual or outcome it cannot apply.
	Update(individual Individual, outcome Outcome) error

	// Reset clears per-round scratch state. Calling Reset more than once has
	// the same effect as calling it once.
	Reset()
}

// A Factory produces modules with fresh state.
type Factory interface {
	// Empty returns a module with no accumulated state.
	Empty() Module

	// EmptyWithCapacity returns a module with no accumulated state whose
	// buffers are sized for the given number of individuals.
	EmptyWithCapacity(capacity int) Module
}

// FactoryFunc adapts a capacity-hinted constructor into a Factory.
type FactoryFunc func(capacity int) Module

// Empty calls f with a zero capacity.
func (f FactoryFunc) Empty() Module {
	return f(0)
}

// EmptyWithCapacity calls f.
func (f FactoryFunc) EmptyWithCapacity(capacity int) Module {
	return f(capacity)
}
