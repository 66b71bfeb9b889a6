// Package sampling draws the next event from an aggregated candidate pool.
package sampling

import (
	"fmt"
	"math"

	"github.com/blofeld/blofeld/sim"
)

// A RandomSource provides uniform draws in [0, 1).
type RandomSource interface {
	Float64() float64
}

// A Selection is the candidate chosen in a round.
type Selection struct {
	Candidate sim.Candidate

	// Index is the position of the candidate in the pool.
	Index int

	// TotalWeight is the total weight of the pool the candidate was drawn
	// from. Drivers use it to draw the time until the event.
	TotalWeight sim.Rate
}

// A Sampler selects candidates with probability proportional to their rate.
//
// Selection walks the pool in order and returns the first candidate whose
// running prefix sum exceeds the draw. The walk is linear, which costs no more
// than the aggregation that built the pool and is exact.
type Sampler struct{}

// NewSampler creates a Sampler.
func NewSampler() *Sampler {
	return &Sampler{}
}

// Sample draws one candidate using the random source. The source is consumed
// exactly once per call.
func (s *Sampler) Sample(pool *sim.Pool, src RandomSource) (Selection, error) {
	if err := poolMustBeEligible(pool); err != nil {
		return Selection{}, err
	}

	u := src.Float64() * float64(pool.TotalWeight)

	return s.SelectAt(pool, u)
}

// SelectAt returns the candidate that a draw of u, in [0, total weight),
// selects. A draw at or past the end of the pool, which only happens through
// rounding, selects the last candidate.
func (s *Sampler) SelectAt(pool *sim.Pool, u float64) (Selection, error) {
	if err := poolMustBeEligible(pool); err != nil {
		return Selection{}, err
	}

	if u < 0 || math.IsNaN(u) {
		return Selection{}, fmt.Errorf("sampling: draw %v is not in [0, %v)",
			u, float64(pool.TotalWeight))
	}

	var prefix float64
	for i, c := range pool.Candidates {
		prefix += float64(c.Rate)
		if u < prefix {
			return s.selection(pool, i), nil
		}
	}

	return s.selection(pool, pool.Len()-1), nil
}

func (s *Sampler) selection(pool *sim.Pool, i int) Selection {
	return Selection{
		Candidate:   pool.Candidates[i],
		Index:       i,
		TotalWeight: pool.TotalWeight,
	}
}

func poolMustBeEligible(pool *sim.Pool) error {
	if pool == nil || pool.Len() == 0 || pool.TotalWeight <= 0 {
		dropped := 0
		if pool != nil {
			dropped = len(pool.Warnings)
		}

		return &sim.NoEligibleEventsError{Dropped: dropped}
	}

	if pool.TotalWeight.Validate() != nil {
		return &sim.TotalWeightOverflowError{
			Candidates: pool.Len(),
			Total:      pool.TotalWeight,
		}
	}

	return nil
}
