package aggregation

import (
	"runtime"

	"github.com/blofeld/blofeld/sim"
)

// Builder can build Aggregators.
type Builder struct {
	parallelism int
	capacity    int
}

// MakeBuilder creates a builder with default parameters. By default the
// aggregator collects weights serially.
func MakeBuilder() Builder {
	return Builder{
		parallelism: 1,
	}
}

// WithParallelism sets how many modules may propose weights at the same time.
// A value of zero or less uses one worker per CPU.
func (b Builder) WithParallelism(n int) Builder {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	b.parallelism = n

	return b
}

// WithCapacity sets the expected number of individuals per round, so that the
// scratch buffers do not need to grow.
func (b Builder) WithCapacity(n int) Builder {
	b.capacity = n
	return b
}

// Build creates an Aggregator.
func (b Builder) Build() *Aggregator {
	if b.capacity < 0 {
		panic("aggregation: capacity must not be negative")
	}

	return &Aggregator{
		parallelism: b.parallelism,
		members:     make(map[sim.Individual]struct{}, b.capacity),
		capacity:    b.capacity,
	}
}
