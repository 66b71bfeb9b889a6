package engine

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/blofeld/blofeld/aggregation"
	"github.com/blofeld/blofeld/random"
	"github.com/blofeld/blofeld/registry"
	"github.com/blofeld/blofeld/sampling"
	"github.com/blofeld/blofeld/sim"
)

// Builder can build Engines.
type Builder struct {
	registry    *registry.Registry
	population  sim.Population
	source      *random.Source
	parallelism int
	capacity    int
	logger      *log.Logger
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		parallelism: 1,
	}
}

// WithRegistry sets the registry that holds the modules.
func (b Builder) WithRegistry(r *registry.Registry) Builder {
	b.registry = r
	return b
}

// WithPopulation sets the population that is enumerated every round.
func (b Builder) WithPopulation(p sim.Population) Builder {
	b.population = p
	return b
}

// WithRandomSource sets the root random stream of the run.
func (b Builder) WithRandomSource(s *random.Source) Builder {
	b.source = s
	return b
}

// WithSeed sets the root random stream of the run to a stream for the seed.
func (b Builder) WithSeed(seed uint64) Builder {
	b.source = random.New(seed)
	return b
}

// WithParallelism sets how many modules may propose weights at the same time.
func (b Builder) WithParallelism(n int) Builder {
	b.parallelism = n
	return b
}

// WithCapacity sets the expected number of candidates per round.
func (b Builder) WithCapacity(n int) Builder {
	b.capacity = n
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.registry == nil {
		panic("engine: registry is not set")
	}

	if b.population == nil {
		panic("engine: population is not set")
	}
}

// Build creates an Engine. If no random source is given, a seed is drawn from
// the operating system and logged.
func (b Builder) Build() *Engine {
	b.parametersMustBeValid()

	logger := b.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	source := b.source
	if source == nil {
		seed, err := random.NewSeed()
		if err != nil {
			panic(err)
		}

		source = random.New(seed)
		logger.Info("no seed configured, drew one", "seed", seed)
	}

	return &Engine{
		HookableBase: sim.NewHookableBase(),
		registry:     b.registry,
		population:   b.population,
		aggregator: aggregation.MakeBuilder().
			WithParallelism(b.parallelism).
			WithCapacity(b.capacity).
			Build(),
		sampler:         sampling.NewSampler(),
		seed:            source.Seed(),
		selectionSource: source.Stream("selection"),
		timeSource:      source.Stream("time"),
		pool:            sim.NewPoolWithCapacity(b.capacity),
		logger:          logger,
	}
}
