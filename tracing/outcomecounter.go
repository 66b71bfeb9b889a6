package tracing

import (
	"sync"

	"github.com/blofeld/blofeld/engine"
	"github.com/blofeld/blofeld/sim"
)

// OutcomeCounter is a hook that counts the dispatched events by outcome and by
// module. It is safe to read while the simulation runs.
type OutcomeCounter struct {
	lock         sync.Mutex
	outcomeNames []sim.Outcome
	outcomes     map[sim.Outcome]uint64
	modules      map[sim.ModuleID]uint64
	dropped      uint64
	total        uint64
}

// NewOutcomeCounter creates a new OutcomeCounter.
func NewOutcomeCounter() *OutcomeCounter {
	return &OutcomeCounter{
		outcomes: make(map[sim.Outcome]uint64),
		modules:  make(map[sim.ModuleID]uint64),
	}
}

// Func counts one event after it was dispatched.
func (c *OutcomeCounter) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosAfterDispatch:
		r, ok := ctx.Item.(engine.Round)
		if !ok {
			return
		}

		c.count(r.Selection.Candidate)
	case sim.HookPosCandidateDropped:
		c.lock.Lock()
		c.dropped++
		c.lock.Unlock()
	}
}

func (c *OutcomeCounter) count(candidate sim.Candidate) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, ok := c.outcomes[candidate.Outcome]; !ok {
		c.outcomeNames = append(c.outcomeNames, candidate.Outcome)
	}

	c.outcomes[candidate.Outcome]++
	c.modules[candidate.Module]++
	c.total++
}

// OutcomeNames returns the outcomes seen so far, in the order they first
// happened.
func (c *OutcomeCounter) OutcomeNames() []sim.Outcome {
	c.lock.Lock()
	defer c.lock.Unlock()

	names := make([]sim.Outcome, len(c.outcomeNames))
	copy(names, c.outcomeNames)

	return names
}

// Count returns how often an outcome was dispatched.
func (c *OutcomeCounter) Count(o sim.Outcome) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.outcomes[o]
}

// ModuleCount returns how many events a module applied.
func (c *OutcomeCounter) ModuleCount(m sim.ModuleID) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.modules[m]
}

// Dropped returns the number of dropped proposals.
func (c *OutcomeCounter) Dropped() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.dropped
}

// Total returns the number of dispatched events.
func (c *OutcomeCounter) Total() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.total
}
