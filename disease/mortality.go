package disease

import (
	"iter"

	"github.com/blofeld/blofeld/sim"
)

// Mortality kills individuals, either from the disease (E, L, I, D -> M) or
// from other causes. Dead individuals leave the population; individuals dying
// from other causes also leave the model.
type Mortality struct {
	base
	population Remover
}

// NewMortality creates a mortality module.
func NewMortality(model *Model, population Remover) *Mortality {
	return &Mortality{
		base:       base{id: "mortality", model: model},
		population: population,
	}
}

// MortalityFactory creates mortality modules.
func MortalityFactory(model *Model, population Remover) sim.Factory {
	return sim.FactoryFunc(func(int) sim.Module {
		return NewMortality(model, population)
	})
}

// Weights proposes disease death for sick individuals and background death
// for every living individual.
func (m *Mortality) Weights(
	individuals []sim.Individual,
) iter.Seq[sim.Proposal] {
	params := m.model.Params()

	return func(yield func(sim.Proposal) bool) {
		for _, i := range individuals {
			s, ok := m.model.Stage(i)
			if !ok || !s.Living() {
				continue
			}

			if r := params.mortality(s); r > 0 {
				p := sim.Proposal{Individual: i, Outcome: OutcomeSuccumb, Rate: sim.Rate(r)}
				if !yield(p) {
					return
				}
			}

			if params.Death > 0 {
				p := sim.Proposal{Individual: i, Outcome: OutcomeDie, Rate: sim.Rate(params.Death)}
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Update kills the individual.
func (m *Mortality) Update(i sim.Individual, o sim.Outcome) error {
	var err error

	switch o {
	case OutcomeSuccumb:
		err = m.model.Transition(i, M, E, L, I, D)
	case OutcomeDie:
		_, err = m.model.Remove(i)
	default:
		return m.unknownOutcome(i, o)
	}

	if err == nil {
		err = m.population.Remove(i)
	}

	if err != nil {
		return m.corrupted(i, o, err)
	}

	return nil
}

// Reset does nothing; mortality keeps no per-round state.
func (m *Mortality) Reset() {}
