package sim

import (
	"fmt"
	"math"
)

// VTimeInSec defines the time in the simulated space in the unit of second.
type VTimeInSec float64

// A Rate is the instantaneous propensity of an event, in events per unit of
// simulated time. Rates are used as sampling weights.
type Rate float64

// IsCandidate returns true if an event with this rate may be sampled. Only
// finite, strictly positive rates qualify.
func (r Rate) IsCandidate() bool {
	return r.Validate() == nil
}

// Validate returns an error describing why the rate cannot be sampled.
func (r Rate) Validate() error {
	f := float64(r)

	switch {
	case math.IsNaN(f):
		return fmt.Errorf("rate is NaN")
	case math.IsInf(f, 0):
		return fmt.Errorf("rate %v is not finite", f)
	case f < 0:
		return fmt.Errorf("rate %v is negative", f)
	case f == 0:
		return fmt.Errorf("rate is zero")
	}

	return nil
}
