// Package random provides seeded, reproducible random streams.
//
// A run is reproducible bit for bit from its seed: every consumer of
// randomness draws from a Source derived from the run seed, never from global
// state.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// streamIncrement is the second PCG word used for root streams.
const streamIncrement = 0x9e3779b97f4a7c15

// A Source is a seeded PCG stream. It implements rand.Source, so it can drive
// gonum distributions and rand.Rand.
//
// A Source is not safe for concurrent use.
type Source struct {
	seed uint64
	name string
	pcg  *rand.PCG
	rng  *rand.Rand
}

// New creates a root stream for the seed.
func New(seed uint64) *Source {
	return newSource(seed, "", streamIncrement)
}

func newSource(seed uint64, name string, increment uint64) *Source {
	pcg := rand.NewPCG(seed, increment)

	return &Source{
		seed: seed,
		name: name,
		pcg:  pcg,
		rng:  rand.New(pcg),
	}
}

// NewSeed draws a high-entropy seed from the operating system, for runs that
// are not given one.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}

// Seed returns the seed the stream was created with.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Name returns the name of a derived stream, or an empty string for a root
// stream.
func (s *Source) Name() string {
	return s.name
}

// Stream derives an independent stream identified by name. The same seed and
// name always give the same stream, regardless of how much the parent stream
// has been consumed.
func (s *Source) Stream(name string) *Source {
	full := name
	if s.name != "" {
		full = s.name + "/" + name
	}

	return newSource(s.seed, full, xxhash.Sum64String(full)|1)
}

// Uint64 returns a uniformly distributed 64-bit value.
func (s *Source) Uint64() uint64 {
	return s.pcg.Uint64()
}

// Float64 returns a uniform draw in [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// ExpFloat64 returns an exponentially distributed draw with rate 1.
func (s *Source) ExpFloat64() float64 {
	return s.rng.ExpFloat64()
}

// IntN returns a uniform draw in [0, n).
func (s *Source) IntN(n int) int {
	return s.rng.IntN(n)
}

var _ rand.Source = (*Source)(nil)
