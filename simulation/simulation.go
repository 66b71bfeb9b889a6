// Package simulation assembles a complete outbreak simulation from a
// configuration.
package simulation

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blofeld/blofeld/config"
	"github.com/blofeld/blofeld/datarecording"
	"github.com/blofeld/blofeld/disease"
	"github.com/blofeld/blofeld/engine"
	"github.com/blofeld/blofeld/metrics"
	"github.com/blofeld/blofeld/monitoring"
	"github.com/blofeld/blofeld/population"
	"github.com/blofeld/blofeld/regulation"
	"github.com/blofeld/blofeld/registry"
	"github.com/blofeld/blofeld/sim"
	"github.com/blofeld/blofeld/tracing"
)

// A Simulation owns everything a run needs.
type Simulation struct {
	id     string
	cfg    *config.Config
	logger *log.Logger
	stop   engine.StopCondition

	population *population.Population
	model      *disease.Model
	registry   *registry.Registry
	engine     *engine.Engine

	counter       *tracing.OutcomeCounter
	metrics       *metrics.Collector
	dataRecorder  datarecording.DataRecorder
	eventRecorder *tracing.EventRecorder
	activator     *regulation.Activator
	monitor       *monitoring.Monitor
	progress      *monitoring.ProgressBar
}

// A Summary describes the state at the end of a run.
type Summary struct {
	Seed     uint64
	Reason   engine.StopReason
	Rounds   uint64
	Time     sim.VTimeInSec
	Alive    int
	Stages   [disease.NumStages]int
	Outcomes map[sim.Outcome]uint64
	Dropped  uint64
	Culls    int

	// Activations counts how many times culling was switched on.
	Activations int
}

// ID returns the unique identifier of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Engine returns the engine.
func (s *Simulation) Engine() *engine.Engine {
	return s.engine
}

// Registry returns the module registry.
func (s *Simulation) Registry() *registry.Registry {
	return s.registry
}

// Population returns the population.
func (s *Simulation) Population() *population.Population {
	return s.population
}

// Model returns the disease model.
func (s *Simulation) Model() *disease.Model {
	return s.model
}

// Metrics returns the metrics collector.
func (s *Simulation) Metrics() *metrics.Collector {
	return s.metrics
}

// DataRecorder returns the result database, or nil if recording is off.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Run runs the simulation until its stop condition. Cancelling the context
// stops the run between rounds and is not reported as an error.
func (s *Simulation) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	reason, err := s.engine.Run(ctx, s.stop)

	if s.progress != nil {
		s.monitor.CompleteProgressBar(s.progress)
	}

	summary := s.Summary(reason)

	s.logger.Info("simulation finished",
		"reason", reason,
		"rounds", summary.Rounds,
		"time", float64(summary.Time),
		"alive", summary.Alive,
		"wall", time.Since(start))

	if reason == engine.StopReasonCancelled &&
		(errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded)) {
		return summary, nil
	}

	return summary, err
}

// Summary reports the current state.
func (s *Simulation) Summary(reason engine.StopReason) Summary {
	summary := Summary{
		Seed:     s.engine.Seed(),
		Reason:   reason,
		Rounds:   s.engine.CurrentRound(),
		Time:     s.engine.CurrentTime(),
		Alive:    s.population.Len(),
		Outcomes: make(map[sim.Outcome]uint64),
		Dropped:  s.counter.Dropped(),
	}

	for st := range disease.Stage(disease.NumStages) {
		summary.Stages[st] = s.model.Total(st)
	}

	for _, o := range s.counter.OutcomeNames() {
		summary.Outcomes[o] = s.counter.Count(o)
	}

	summary.Culls = int(s.counter.Count(regulation.OutcomeCull))
	if s.activator != nil {
		summary.Activations = s.activator.Activations()
	}

	return summary
}

// Terminate flushes recorded results and stops the monitor.
func (s *Simulation) Terminate() {
	if s.dataRecorder != nil {
		if err := s.dataRecorder.Close(); err != nil {
			s.logger.Error("cannot close data recorder", "err", err)
		}
	}

	if s.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := s.monitor.Shutdown(ctx); err != nil {
			s.logger.Error("cannot stop monitor", "err", err)
		}
	}
}
