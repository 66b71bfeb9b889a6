package regulation

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/blofeld/blofeld/disease"
	"github.com/blofeld/blofeld/engine"
	"github.com/blofeld/blofeld/registry"
	"github.com/blofeld/blofeld/sim"
)

// An Idler is an authority that can tell when it has nothing left to do.
type Idler interface {
	Idle() bool
}

// An Activator is a hook that registers an authority once enough clinical
// onsets have been observed. While the authority is registered, onsets are
// not counted. An authority that implements Idler is unregistered after the
// first dispatch that leaves it idle; counting then starts over.
type Activator struct {
	registry  *registry.Registry
	factory   sim.Factory
	id        sim.ModuleID
	threshold int
	onsets    int
	times     int
	logger    *log.Logger
}

// NewActivator creates an activator that registers modules created by the
// factory after threshold clinical onsets.
func NewActivator(
	reg *registry.Registry,
	factory sim.Factory,
	threshold int,
) *Activator {
	if threshold < 1 {
		panic("regulation: activation threshold must be at least 1")
	}

	return &Activator{
		registry:  reg,
		factory:   factory,
		id:        factory.Empty().ID(),
		threshold: threshold,
		logger:    log.New(io.Discard),
	}
}

// WithLogger sets the logger that reports activations.
func (a *Activator) WithLogger(l *log.Logger) *Activator {
	a.logger = l
	return a
}

// Activations returns how many times the authority was registered.
func (a *Activator) Activations() int {
	return a.times
}

// Func counts clinical onsets after each dispatch.
func (a *Activator) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterDispatch {
		return
	}

	round, ok := ctx.Item.(engine.Round)
	if !ok {
		return
	}

	if m, err := a.registry.Get(a.id); err == nil {
		a.standDownIfIdle(m, round)
		return
	}

	if round.Selection.Candidate.Outcome != disease.OutcomeProgress {
		return
	}

	a.onsets++
	if a.onsets < a.threshold {
		return
	}

	m := a.factory.EmptyWithCapacity(round.Candidates)
	if err := a.registry.Register(m); err != nil {
		panic(err)
	}

	a.onsets = 0
	a.times++

	a.logger.Info("authority activated",
		"module", a.id, "round", round.Number, "time", float64(round.Time))
}

func (a *Activator) standDownIfIdle(m sim.Module, round engine.Round) {
	idler, ok := m.(Idler)
	if !ok || !idler.Idle() {
		return
	}

	if err := a.registry.Unregister(a.id); err != nil {
		panic(err)
	}

	a.logger.Info("authority stood down",
		"module", a.id, "round", round.Number, "time", float64(round.Time))
}
