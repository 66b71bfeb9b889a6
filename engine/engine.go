// Package engine drives a simulation round by round: it aggregates the
// proposals of all modules, samples the next event, advances simulated time
// and dispatches the event to the module that proposed it.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/blofeld/blofeld/aggregation"
	"github.com/blofeld/blofeld/random"
	"github.com/blofeld/blofeld/registry"
	"github.com/blofeld/blofeld/sampling"
	"github.com/blofeld/blofeld/sim"
)

// An Engine runs rounds one after another. A round either dispatches exactly
// one event or leaves all state untouched.
type Engine struct {
	*sim.HookableBase

	registry   *registry.Registry
	population sim.Population
	aggregator *aggregation.Aggregator
	sampler    *sampling.Sampler
	pool       *sim.Pool
	logger     *log.Logger

	seed            uint64
	selectionSource *random.Source
	timeSource      *random.Source

	timeLock sync.RWMutex
	now      sim.VTimeInSec
	round    uint64

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// Seed returns the seed of the run.
func (e *Engine) Seed() uint64 {
	return e.seed
}

// Registry returns the registry the engine dispatches to.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// CurrentTime returns the time of the most recently dispatched event.
func (e *Engine) CurrentTime() sim.VTimeInSec {
	e.timeLock.RLock()
	defer e.timeLock.RUnlock()

	return e.now
}

// CurrentRound returns the number of dispatched rounds.
func (e *Engine) CurrentRound() uint64 {
	e.timeLock.RLock()
	defer e.timeLock.RUnlock()

	return e.round
}

func (e *Engine) advance(t sim.VTimeInSec, countRound bool) {
	e.timeLock.Lock()
	defer e.timeLock.Unlock()

	e.now = t
	if countRound {
		e.round++
	}
}

// Step runs a single round.
//
// If no module proposes an event, a *sim.NoEligibleEventsError is returned and
// nothing changes. A *sim.ModuleStateCorruptionError means the run must not
// continue.
func (e *Engine) Step(ctx context.Context) (Round, error) {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	r, err := e.plan(ctx)
	if err != nil {
		return r, err
	}

	return r, e.commit(r)
}

// plan aggregates and samples the next event without changing any state.
func (e *Engine) plan(ctx context.Context) (Round, error) {
	now := e.CurrentTime()
	r := Round{Number: e.CurrentRound() + 1}

	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    sim.HookPosRoundStart,
		Item:   r.Number,
	})

	err := e.aggregator.AggregateInto(
		ctx,
		e.pool,
		e.registry.Snapshot(),
		e.population.Individuals(),
	)

	r.Candidates = e.pool.Len()
	r.Warnings = append([]error(nil), e.pool.Warnings...)
	e.reportWarnings(r)

	if err != nil {
		if sim.IsNoEligibleEvents(err) {
			e.InvokeHook(sim.HookCtx{
				Domain: e,
				Pos:    sim.HookPosNoEligibleEvents,
				Item:   err,
			})
		}

		return r, err
	}

	r.Selection, err = e.sampler.Sample(e.pool, e.selectionSource)
	if err != nil {
		return r, err
	}

	r.Increment = e.drawIncrement(r.Selection.TotalWeight)
	r.Time = now + r.Increment

	return r, nil
}

func (e *Engine) reportWarnings(r Round) {
	for _, w := range r.Warnings {
		e.logger.Warn("proposal dropped", "round", r.Number, "err", w)
		e.InvokeHook(sim.HookCtx{
			Domain: e,
			Pos:    sim.HookPosCandidateDropped,
			Item:   w,
			Detail: r.Number,
		})
	}
}

// drawIncrement draws the waiting time until the next event, which is
// exponentially distributed with the total weight as its rate.
func (e *Engine) drawIncrement(total sim.Rate) sim.VTimeInSec {
	d := distuv.Exponential{
		Rate: float64(total),
		Src:  e.timeSource,
	}

	return sim.VTimeInSec(d.Rand())
}

// commit dispatches a planned round and advances time.
func (e *Engine) commit(r Round) error {
	if r.Time < e.CurrentTime() {
		panic(fmt.Sprintf(
			"engine: cannot dispatch round %d in the past, @ %.10f, now %.10f",
			r.Number, r.Time, e.CurrentTime(),
		))
	}

	hookCtx := sim.HookCtx{
		Domain: e,
		Pos:    sim.HookPosBeforeDispatch,
		Item:   r,
	}
	e.InvokeHook(hookCtx)

	c := r.Selection.Candidate
	err := e.registry.Dispatch(c.Module, c.Individual, c.Outcome)
	if err != nil {
		e.logger.Error("dispatch failed",
			"round", r.Number, "module", c.Module,
			"individual", c.Individual, "outcome", c.Outcome, "err", err)
		return err
	}

	e.advance(r.Time, true)

	hookCtx.Pos = sim.HookPosAfterDispatch
	e.InvokeHook(hookCtx)

	e.resetModules()

	return nil
}

func (e *Engine) resetModules() {
	for m := range e.registry.Modules() {
		m.Reset()
	}
}

// Run executes rounds until the stop condition is met, no event is eligible,
// the context is cancelled, or a module reports corrupted state.
//
// Running out of eligible events ends the run without an error. An event that
// would happen after MaxTime is not dispatched; time is moved to MaxTime
// instead.
func (e *Engine) Run(ctx context.Context, stop StopCondition) (StopReason, error) {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	if stop.MaxTime < 0 {
		panic("engine: max time must not be negative")
	}

	e.logger.Info("run started",
		"seed", e.seed, "modules", e.registry.Len(),
		"max_time", float64(stop.MaxTime), "max_rounds", stop.MaxRounds)

	reason, err := e.runRounds(ctx, stop)

	e.logger.Info("run stopped",
		"reason", reason, "round", e.CurrentRound(),
		"time", float64(e.CurrentTime()))

	return reason, err
}

func (e *Engine) runRounds(
	ctx context.Context,
	stop StopCondition,
) (StopReason, error) {
	for {
		if err := ctx.Err(); err != nil {
			return StopReasonCancelled, err
		}

		if stop.MaxRounds > 0 && e.CurrentRound() >= stop.MaxRounds {
			return StopReasonMaxRounds, nil
		}

		reason, err := e.runOneRound(ctx, stop)
		if reason != StopReasonNone || err != nil {
			return reason, err
		}
	}
}

func (e *Engine) runOneRound(
	ctx context.Context,
	stop StopCondition,
) (StopReason, error) {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	r, err := e.plan(ctx)

	switch {
	case err == nil:
	case sim.IsNoEligibleEvents(err):
		return StopReasonNoEligibleEvents, nil
	case ctx.Err() != nil:
		return StopReasonCancelled, err
	default:
		return StopReasonFatal, err
	}

	if stop.MaxTime > 0 && r.Time > stop.MaxTime {
		e.advance(stop.MaxTime, false)
		return StopReasonMaxTime, nil
	}

	if err := e.commit(r); err != nil {
		return StopReasonFatal, err
	}

	return StopReasonNone, nil
}

// Pause prevents the engine from starting more rounds until Continue is
// called. A round that is in progress completes first.
func (e *Engine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the engine to run rounds again.
func (e *Engine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// IsPaused returns true if the engine is paused.
func (e *Engine) IsPaused() bool {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	return e.isPaused
}
