package disease

import (
	"fmt"

	"github.com/blofeld/blofeld/population"
	"github.com/blofeld/blofeld/sim"
)

// A Remover takes individuals out of the population.
type Remover interface {
	Remove(i sim.Individual) error
}

type base struct {
	id    sim.ModuleID
	model *Model
}

func (b *base) ID() sim.ModuleID {
	return b.id
}

func (b *base) corrupted(
	i sim.Individual,
	o sim.Outcome,
	err error,
) error {
	return &sim.ModuleStateCorruptionError{
		Module:     b.id,
		Individual: i,
		Outcome:    o,
		Err:        err,
	}
}

func (b *base) unknownOutcome(i sim.Individual, o sim.Outcome) error {
	return b.corrupted(i, o, fmt.Errorf("outcome %q is not handled", o))
}

// herdCache memoizes one value per herd for one version of the model. Modules
// use it to compute herd-level rates once per round.
type herdCache struct {
	model   *Model
	version uint64
	values  []float64
	valid   []bool
}

func newHerdCache(model *Model, capacity int) herdCache {
	return herdCache{
		model:   model,
		version: model.Version(),
		values:  make([]float64, 0, capacity),
		valid:   make([]bool, 0, capacity),
	}
}

func (c *herdCache) get(
	h population.HerdID,
	compute func(population.HerdID) float64,
) float64 {
	if v := c.model.Version(); v != c.version {
		c.reset()
		c.version = v
	}

	for int(h) >= len(c.values) {
		c.values = append(c.values, 0)
		c.valid = append(c.valid, false)
	}

	if !c.valid[h] {
		c.values[h] = compute(h)
		c.valid[h] = true
	}

	return c.values[h]
}

func (c *herdCache) reset() {
	clear(c.valid)
}
