// Package regulation provides authorities that intervene in an outbreak.
package regulation

import (
	"fmt"
	"iter"

	"github.com/blofeld/blofeld/disease"
	"github.com/blofeld/blofeld/registry"
	"github.com/blofeld/blofeld/sim"
)

// CullingID is the ID the culling module registers under.
const CullingID sim.ModuleID = "culling"

// OutcomeCull removes a detected clinical individual.
const OutcomeCull sim.Outcome = "cull"

// Culling detects clinical individuals and removes them. When it culls the
// last clinical individual, the module unregisters itself. If the last one
// leaves through another module, Idle reports it so the Activator can stand
// the module down.
type Culling struct {
	model      *disease.Model
	population disease.Remover
	registry   *registry.Registry
	detection  float64
	culled     int
}

// NewCulling creates a culling module that detects each clinical individual
// at the given rate.
func NewCulling(
	model *disease.Model,
	population disease.Remover,
	reg *registry.Registry,
	detection float64,
) *Culling {
	if detection <= 0 {
		panic("regulation: detection rate must be positive")
	}

	return &Culling{
		model:      model,
		population: population,
		registry:   reg,
		detection:  detection,
	}
}

// CullingFactory creates culling modules.
func CullingFactory(
	model *disease.Model,
	population disease.Remover,
	reg *registry.Registry,
	detection float64,
) sim.Factory {
	return sim.FactoryFunc(func(int) sim.Module {
		return NewCulling(model, population, reg, detection)
	})
}

// ID returns CullingID.
func (c *Culling) ID() sim.ModuleID {
	return CullingID
}

// Culled returns how many individuals this module removed.
func (c *Culling) Culled() int {
	return c.culled
}

// Weights proposes culling for every clinical individual.
func (c *Culling) Weights(
	individuals []sim.Individual,
) iter.Seq[sim.Proposal] {
	return func(yield func(sim.Proposal) bool) {
		for _, i := range individuals {
			s, ok := c.model.Stage(i)
			if !ok || !s.Clinical() {
				continue
			}

			p := sim.Proposal{Individual: i, Outcome: OutcomeCull, Rate: sim.Rate(c.detection)}
			if !yield(p) {
				return
			}
		}
	}
}

// Update culls the individual.
func (c *Culling) Update(i sim.Individual, o sim.Outcome) error {
	if o != OutcomeCull {
		return c.corrupted(i, o, fmt.Errorf("outcome %q is not handled", o))
	}

	s, ok := c.model.Stage(i)
	if !ok || !s.Clinical() {
		return c.corrupted(i, o,
			&disease.StageMismatchError{
				Individual: i,
				Want:       []disease.Stage{disease.I, disease.D},
				Got:        s,
			})
	}

	if _, err := c.model.Remove(i); err != nil {
		return c.corrupted(i, o, err)
	}

	if err := c.population.Remove(i); err != nil {
		return c.corrupted(i, o, err)
	}

	c.culled++

	if c.Idle() {
		return c.registry.Unregister(CullingID)
	}

	return nil
}

// Idle returns true if no clinical individual is left to cull.
func (c *Culling) Idle() bool {
	return c.model.Total(disease.I)+c.model.Total(disease.D) == 0
}

// Reset does nothing; culling keeps no per-round state.
func (c *Culling) Reset() {}

func (c *Culling) corrupted(i sim.Individual, o sim.Outcome, err error) error {
	return &sim.ModuleStateCorruptionError{
		Module:     CullingID,
		Individual: i,
		Outcome:    o,
		Err:        err,
	}
}
