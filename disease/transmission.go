package disease

import (
	"iter"

	"github.com/blofeld/blofeld/sim"
)

// Transmission infects susceptible individuals from within their herd and
// from outside the population.
type Transmission struct {
	base
	rates herdCache
}

// NewTransmission creates a transmission module over the model.
func NewTransmission(model *Model) *Transmission {
	return newTransmission(model, model.NumHerds())
}

func newTransmission(model *Model, capacity int) *Transmission {
	return &Transmission{
		base:  base{id: "transmission", model: model},
		rates: newHerdCache(model, capacity),
	}
}

// TransmissionFactory creates transmission modules over the model. The
// capacity is the number of herds.
func TransmissionFactory(model *Model) sim.Factory {
	return sim.FactoryFunc(func(capacity int) sim.Module {
		return newTransmission(model, capacity)
	})
}

// Weights proposes infection for every susceptible individual.
func (t *Transmission) Weights(
	individuals []sim.Individual,
) iter.Seq[sim.Proposal] {
	return func(yield func(sim.Proposal) bool) {
		for _, i := range individuals {
			if s, ok := t.model.Stage(i); !ok || s != S {
				continue
			}

			h, _ := t.model.HerdOf(i)

			r := t.rates.get(h, t.model.InfectionRate)
			if r <= 0 {
				continue
			}

			p := sim.Proposal{Individual: i, Outcome: OutcomeInfect, Rate: sim.Rate(r)}
			if !yield(p) {
				return
			}
		}
	}
}

// Update exposes the individual.
func (t *Transmission) Update(i sim.Individual, o sim.Outcome) error {
	if o != OutcomeInfect {
		return t.unknownOutcome(i, o)
	}

	if err := t.model.Transition(i, E, S); err != nil {
		return t.corrupted(i, o, err)
	}

	return nil
}

// Reset drops the cached herd rates. The cache follows the model on its own.
func (t *Transmission) Reset() {
	t.rates.reset()
}
