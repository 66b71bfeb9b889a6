package sim

import "strconv"

// An Individual is a handle to an entity in the population, for example an
// animal or a herd. The population owns individuals; the engine only refers
// to them.
type Individual uint64

// String returns the decimal form of the handle.
func (i Individual) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

// An Outcome tags what happens to an individual when its event fires. Only the
// module that proposed it interprets the tag.
type Outcome string

// A ModuleID identifies a registered module.
type ModuleID string

// A Population enumerates the individuals under consideration in a round.
//
// The returned slice must be in a stable order and must not be modified by the
// caller. Its length may change between rounds as individuals are born or
// removed.
type Population interface {
	Individuals() []Individual
}

// PopulationFunc adapts a function into a Population.
type PopulationFunc func() []Individual

// Individuals calls f.
func (f PopulationFunc) Individuals() []Individual {
	return f()
}
