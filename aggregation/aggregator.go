// Package aggregation merges the weighted proposals of all modules into a
// single candidate pool.
package aggregation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/blofeld/blofeld/sim"
)

// An Aggregator collects the proposals of modules for one population
// snapshot.
//
// Aggregating does not change module or population state and can be repeated.
// An Aggregator reuses its scratch buffers between rounds and must not be used
// by two rounds at the same time.
type Aggregator struct {
	parallelism int
	capacity    int

	members  map[sim.Individual]struct{}
	proposed [][]sim.Proposal
}

// Aggregate collects the proposals into a newly allocated pool.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	modules []sim.Module,
	individuals []sim.Individual,
) (*sim.Pool, error) {
	pool := sim.NewPoolWithCapacity(a.capacity)
	err := a.AggregateInto(ctx, pool, modules, individuals)

	return pool, err
}

// AggregateInto resets the pool and fills it with the proposals of the modules
// for the given individuals.
//
// Proposals with a rate that cannot be sampled, or for individuals outside the
// snapshot, are dropped and recorded in the pool's warnings. Candidates are
// added, and the total weight is summed, in module order and then in the order
// each module yields them. If the total weight is zero a
// *sim.NoEligibleEventsError is returned; if it overflows a
// *sim.TotalWeightOverflowError is returned. If ctx is cancelled the round is
// abandoned and the context error is returned.
func (a *Aggregator) AggregateInto(
	ctx context.Context,
	pool *sim.Pool,
	modules []sim.Module,
	individuals []sim.Individual,
) error {
	pool.Reset()
	a.indexMembers(individuals)

	var err error
	if a.parallelism > 1 && len(modules) > 1 {
		err = a.collectParallel(ctx, pool, modules, individuals)
	} else {
		err = a.collectSerial(ctx, pool, modules, individuals)
	}

	if err != nil {
		return err
	}

	if pool.TotalWeight <= 0 {
		return &sim.NoEligibleEventsError{Dropped: len(pool.Warnings)}
	}

	if err := pool.TotalWeight.Validate(); err != nil {
		return &sim.TotalWeightOverflowError{
			Candidates: pool.Len(),
			Total:      pool.TotalWeight,
		}
	}

	return nil
}

func (a *Aggregator) indexMembers(individuals []sim.Individual) {
	clear(a.members)

	for _, i := range individuals {
		a.members[i] = struct{}{}
	}
}

func (a *Aggregator) collectSerial(
	ctx context.Context,
	pool *sim.Pool,
	modules []sim.Module,
	individuals []sim.Individual,
) error {
	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := m.ID()
		for p := range m.Weights(individuals) {
			a.accept(pool, id, p)
		}
	}

	return nil
}

// collectParallel lets modules propose concurrently, but merges the results in
// module order so that the floating-point sum is the same as in a serial
// round.
func (a *Aggregator) collectParallel(
	ctx context.Context,
	pool *sim.Pool,
	modules []sim.Module,
	individuals []sim.Individual,
) error {
	a.prepareProposalBuffers(len(modules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)

	for i, m := range modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			buf := a.proposed[i]
			for p := range m.Weights(individuals) {
				buf = append(buf, p)
			}
			a.proposed[i] = buf

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, m := range modules {
		id := m.ID()
		for _, p := range a.proposed[i] {
			a.accept(pool, id, p)
		}
	}

	return nil
}

func (a *Aggregator) prepareProposalBuffers(n int) {
	for len(a.proposed) < n {
		a.proposed = append(a.proposed, nil)
	}

	for i := range a.proposed {
		clear(a.proposed[i])
		a.proposed[i] = a.proposed[i][:0]
	}
}

func (a *Aggregator) accept(pool *sim.Pool, id sim.ModuleID, p sim.Proposal) {
	if err := p.Rate.Validate(); err != nil {
		pool.Warn(&sim.InvalidRateError{
			Module:     id,
			Individual: p.Individual,
			Outcome:    p.Outcome,
			Rate:       p.Rate,
			Reason:     err,
		})

		return
	}

	if _, ok := a.members[p.Individual]; !ok {
		pool.Warn(&sim.StaleIndividualError{
			Module:     id,
			Individual: p.Individual,
			Outcome:    p.Outcome,
		})

		return
	}

	pool.Add(sim.Candidate{
		Module:     id,
		Individual: p.Individual,
		Outcome:    p.Outcome,
		Rate:       p.Rate,
	})
}
