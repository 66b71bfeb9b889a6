// Package disease implements the SEIDRVM compartment model as a set of event
// modules that share one Model.
package disease

import (
	"fmt"
	"math"
	"slices"

	"github.com/blofeld/blofeld/population"
	"github.com/blofeld/blofeld/sim"
)

// A StageMismatchError is returned when an individual is not in the stage a
// transition starts from.
type StageMismatchError struct {
	Individual sim.Individual
	Want       []Stage
	Got        Stage
}

func (e *StageMismatchError) Error() string {
	return fmt.Sprintf("individual %d is in stage %s, want one of %v",
		e.Individual, e.Got, e.Want)
}

// An UntrackedIndividualError is returned for an individual the model does
// not know.
type UntrackedIndividualError struct {
	Individual sim.Individual
}

func (e *UntrackedIndividualError) Error() string {
	return fmt.Sprintf("individual %d is not tracked by the disease model",
		e.Individual)
}

// Model holds the disease stage of every tracked individual and the stage
// counts per herd. Reads may happen concurrently; writes must not overlap with
// anything else.
type Model struct {
	params Params
	stages map[sim.Individual]Stage
	herdOf map[sim.Individual]population.HerdID
	counts [][NumStages]int

	// version changes whenever a stage count changes.
	version uint64
}

// NewModel creates a model for the given number of herds.
func NewModel(params Params, numHerds int) *Model {
	if err := params.Validate(); err != nil {
		panic(err)
	}

	return &Model{
		params: params,
		stages: make(map[sim.Individual]Stage),
		herdOf: make(map[sim.Individual]population.HerdID),
		counts: make([][NumStages]int, numHerds),
	}
}

// Params returns the parameters of the model.
func (m *Model) Params() Params {
	return m.params
}

// NumHerds returns the number of herds.
func (m *Model) NumHerds() int {
	return len(m.counts)
}

// Add starts tracking an individual in the given stage.
func (m *Model) Add(i sim.Individual, h population.HerdID, s Stage) error {
	if _, ok := m.stages[i]; ok {
		return fmt.Errorf("individual %d is already tracked", i)
	}

	if h < 0 || int(h) >= len(m.counts) {
		return &population.UnknownHerdError{Herd: h}
	}

	if int(s) >= NumStages {
		return fmt.Errorf("stage %d does not exist", s)
	}

	m.stages[i] = s
	m.herdOf[i] = h
	m.counts[h][s]++
	m.version++

	return nil
}

// Seed tracks the members of a herd. The first members are put into the
// stages given in initial, in compartment order; all others are susceptible.
func (m *Model) Seed(
	h population.HerdID,
	members []sim.Individual,
	initial map[Stage]int,
) error {
	stages := make([]Stage, 0, len(members))
	for s := range Stage(NumStages) {
		if s == S {
			continue
		}

		for range initial[s] {
			stages = append(stages, s)
		}
	}

	if len(stages) > len(members) {
		return fmt.Errorf("herd %d has %d members, cannot seed %d",
			h, len(members), len(stages))
	}

	for k, i := range members {
		s := S
		if k < len(stages) {
			s = stages[k]
		}

		if err := m.Add(i, h, s); err != nil {
			return err
		}
	}

	return nil
}

// Stage returns the stage of an individual.
func (m *Model) Stage(i sim.Individual) (Stage, bool) {
	s, ok := m.stages[i]
	return s, ok
}

// HerdOf returns the herd of an individual.
func (m *Model) HerdOf(i sim.Individual) (population.HerdID, bool) {
	h, ok := m.herdOf[i]
	return h, ok
}

// Transition moves an individual from one of the given stages into another.
func (m *Model) Transition(i sim.Individual, to Stage, from ...Stage) error {
	s, ok := m.stages[i]
	if !ok {
		return &UntrackedIndividualError{Individual: i}
	}

	if !slices.Contains(from, s) {
		return &StageMismatchError{Individual: i, Want: from, Got: s}
	}

	h := m.herdOf[i]
	m.counts[h][s]--
	m.counts[h][to]++
	m.stages[i] = to
	m.version++

	return nil
}

// Remove stops tracking an individual and returns the stage it was in.
func (m *Model) Remove(i sim.Individual) (Stage, error) {
	s, ok := m.stages[i]
	if !ok {
		return 0, &UntrackedIndividualError{Individual: i}
	}

	h := m.herdOf[i]
	m.counts[h][s]--
	delete(m.stages, i)
	delete(m.herdOf, i)
	m.version++

	return s, nil
}

// Version identifies the current stage counts. It changes with every Add,
// Transition and Remove, so herd-level values computed at one version are
// stale at any other.
func (m *Model) Version() uint64 {
	return m.version
}

// Count returns the number of individuals of a herd in a stage.
func (m *Model) Count(h population.HerdID, s Stage) int {
	return m.counts[h][s]
}

// Counts returns the stage counts of a herd.
func (m *Model) Counts(h population.HerdID) [NumStages]int {
	return m.counts[h]
}

// Total returns the number of individuals in a stage over all herds.
func (m *Model) Total(s Stage) int {
	n := 0
	for _, c := range m.counts {
		n += c[s]
	}

	return n
}

// Living returns the number of individuals of a herd that did not die from
// the disease.
func (m *Model) Living(h population.HerdID) int {
	n := 0
	for s, c := range m.counts[h] {
		if Stage(s).Living() {
			n += c
		}
	}

	return n
}

// Pressure returns the infection pressure a herd exerts on its susceptible
// members, (bL*L + bI*I) / N^power.
func (m *Model) Pressure(h population.HerdID) float64 {
	n := m.Living(h)
	if n == 0 {
		return 0
	}

	c := m.counts[h]
	infectious := m.params.BetaSubclin*float64(c[L]) +
		m.params.BetaClinical*float64(c[I])

	return infectious / math.Pow(float64(n), m.params.ContactPower)
}

// InfectionRate returns the rate at which a susceptible member of the herd
// becomes exposed from within the herd and from outside the population.
func (m *Model) InfectionRate(h population.HerdID) float64 {
	return m.params.ExternalInfection + m.Pressure(h)
}
