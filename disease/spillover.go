package disease

import (
	"fmt"
	"iter"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/blofeld/blofeld/population"
	"github.com/blofeld/blofeld/sim"
)

// Spillover infects susceptible individuals from other herds. Element (i, j)
// of the contact matrix scales the pressure herd j exerts on herd i.
type Spillover struct {
	base
	contacts *mat.Dense
	pressure *mat.VecDense
	rates    *mat.VecDense
	computed bool
	version  uint64
}

// ValidateContacts checks that the contact matrix is square with one row per
// herd and holds finite, non-negative entries.
func ValidateContacts(contacts mat.Matrix, numHerds int) error {
	r, c := contacts.Dims()
	if r != c || r != numHerds {
		return fmt.Errorf("contact matrix is %dx%d, want %dx%d",
			r, c, numHerds, numHerds)
	}

	for i := range r {
		for j := range c {
			x := contacts.At(i, j)
			if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
				return fmt.Errorf("contact (%d, %d) must be finite and "+
					"not negative, got %v", i, j, x)
			}
		}
	}

	return nil
}

// NewSpillover creates a spillover module. It returns an error if the contact
// matrix does not fit the model.
func NewSpillover(model *Model, contacts mat.Matrix) (*Spillover, error) {
	if err := ValidateContacts(contacts, model.NumHerds()); err != nil {
		return nil, err
	}

	n := model.NumHerds()

	return &Spillover{
		base:     base{id: "spillover", model: model},
		contacts: mat.DenseCopyOf(contacts),
		pressure: mat.NewVecDense(n, nil),
		rates:    mat.NewVecDense(n, nil),
	}, nil
}

// SpilloverFactory creates spillover modules sharing a contact matrix.
func SpilloverFactory(model *Model, contacts mat.Matrix) (sim.Factory, error) {
	if _, err := NewSpillover(model, contacts); err != nil {
		return nil, err
	}

	return sim.FactoryFunc(func(int) sim.Module {
		s, _ := NewSpillover(model, contacts)
		return s
	}), nil
}

// Weights proposes infection for every susceptible individual whose herd is in
// contact with infectious herds.
func (s *Spillover) Weights(
	individuals []sim.Individual,
) iter.Seq[sim.Proposal] {
	return func(yield func(sim.Proposal) bool) {
		for _, i := range individuals {
			if stage, ok := s.model.Stage(i); !ok || stage != S {
				continue
			}

			h, _ := s.model.HerdOf(i)

			r := s.herdRates().AtVec(int(h))
			if r <= 0 {
				continue
			}

			p := sim.Proposal{Individual: i, Outcome: OutcomeSpillover, Rate: sim.Rate(r)}
			if !yield(p) {
				return
			}
		}
	}
}

func (s *Spillover) herdRates() *mat.VecDense {
	if s.computed && s.version == s.model.Version() {
		return s.rates
	}

	for h := range s.model.NumHerds() {
		s.pressure.SetVec(h, s.model.Pressure(population.HerdID(h)))
	}

	s.rates.MulVec(s.contacts, s.pressure)
	s.computed = true
	s.version = s.model.Version()

	return s.rates
}

// Update exposes the individual.
func (s *Spillover) Update(i sim.Individual, o sim.Outcome) error {
	if o != OutcomeSpillover {
		return s.unknownOutcome(i, o)
	}

	if err := s.model.Transition(i, E, S); err != nil {
		return s.corrupted(i, o, err)
	}

	return nil
}

// Reset drops the cached herd rates. The cache follows the model on its own.
func (s *Spillover) Reset() {
	s.computed = false
}
