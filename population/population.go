// Package population keeps track of herds and the individuals living in them.
package population

import (
	"fmt"
	"slices"

	"github.com/blofeld/blofeld/sim"
)

// A HerdID identifies a herd. Herds are numbered from 0 in creation order.
type HerdID int

// A Herd is a group of individuals that share contacts.
type Herd struct {
	ID   HerdID
	Name string
}

// UnknownIndividualError is returned when an individual is not a member of the
// population.
type UnknownIndividualError struct {
	Individual sim.Individual
}

func (e *UnknownIndividualError) Error() string {
	return fmt.Sprintf("individual %d is not in the population", e.Individual)
}

// UnknownHerdError is returned when a herd does not exist.
type UnknownHerdError struct {
	Herd HerdID
}

func (e *UnknownHerdError) Error() string {
	return fmt.Sprintf("herd %d does not exist", e.Herd)
}

// Population is the set of living individuals, grouped into herds. It
// implements sim.Population. Population is not safe for concurrent use.
type Population struct {
	ids     idGenerator
	herds   []Herd
	members [][]sim.Individual
	all     []sim.Individual
	herdOf  map[sim.Individual]HerdID
}

// New creates an empty population.
func New() *Population {
	return &Population{
		herdOf: make(map[sim.Individual]HerdID),
	}
}

// AddHerd creates a herd with the given number of individuals and returns its
// ID.
func (p *Population) AddHerd(name string, size int) HerdID {
	if size < 0 {
		panic("population: herd size must not be negative")
	}

	id := HerdID(len(p.herds))
	p.herds = append(p.herds, Herd{ID: id, Name: name})
	p.members = append(p.members, make([]sim.Individual, 0, size))

	for range size {
		p.add(id)
	}

	return id
}

// AddIndividual adds a newborn individual to a herd.
func (p *Population) AddIndividual(h HerdID) (sim.Individual, error) {
	if !p.hasHerd(h) {
		return 0, &UnknownHerdError{Herd: h}
	}

	return p.add(h), nil
}

func (p *Population) add(h HerdID) sim.Individual {
	i := sim.Individual(p.ids.generate())

	p.members[h] = append(p.members[h], i)
	p.all = append(p.all, i)
	p.herdOf[i] = h

	return i
}

// Remove takes an individual out of the population, for example because it
// died or was culled.
func (p *Population) Remove(i sim.Individual) error {
	h, ok := p.herdOf[i]
	if !ok {
		return &UnknownIndividualError{Individual: i}
	}

	delete(p.herdOf, i)
	p.members[h] = removeSorted(p.members[h], i)
	p.all = removeSorted(p.all, i)

	return nil
}

// removeSorted relies on handles being appended in increasing order.
func removeSorted(s []sim.Individual, i sim.Individual) []sim.Individual {
	idx, found := slices.BinarySearch(s, i)
	if !found {
		panic(fmt.Sprintf("population: member list lost individual %d", i))
	}

	return slices.Delete(s, idx, idx+1)
}

// Individuals returns all living individuals in increasing handle order. The
// slice is owned by the population and changes when individuals are added or
// removed.
func (p *Population) Individuals() []sim.Individual {
	return p.all
}

// Contains returns true if the individual is alive.
func (p *Population) Contains(i sim.Individual) bool {
	_, ok := p.herdOf[i]
	return ok
}

// HerdOf returns the herd an individual lives in.
func (p *Population) HerdOf(i sim.Individual) (HerdID, error) {
	h, ok := p.herdOf[i]
	if !ok {
		return 0, &UnknownIndividualError{Individual: i}
	}

	return h, nil
}

// Members returns the living individuals of a herd.
func (p *Population) Members(h HerdID) []sim.Individual {
	if !p.hasHerd(h) {
		panic(fmt.Sprintf("population: herd %d does not exist", h))
	}

	return p.members[h]
}

// Herds returns all herds in creation order.
func (p *Population) Herds() []Herd {
	return slices.Clone(p.herds)
}

// NumHerds returns the number of herds.
func (p *Population) NumHerds() int {
	return len(p.herds)
}

// Len returns the number of living individuals.
func (p *Population) Len() int {
	return len(p.all)
}

func (p *Population) hasHerd(h HerdID) bool {
	return h >= 0 && int(h) < len(p.herds)
}

var _ sim.Population = (*Population)(nil)
