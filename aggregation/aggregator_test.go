package aggregation

import (
	"context"
	"errors"
	"iter"
	"math"
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/blofeld/blofeld/sim"
)

// tableModule proposes a fixed rate per individual it knows.
type tableModule struct {
	id      sim.ModuleID
	outcome sim.Outcome
	rates   map[sim.Individual]sim.Rate
	calls   int
}

func (m *tableModule) ID() sim.ModuleID { return m.id }

func (m *tableModule) Weights(individuals []sim.Individual) iter.Seq[sim.Proposal] {
	m.calls++

	return func(yield func(sim.Proposal) bool) {
		for _, i := range individuals {
			r, ok := m.rates[i]
			if !ok {
				continue
			}

			if !yield(sim.Proposal{Individual: i, Outcome: m.outcome, Rate: r}) {
				return
			}
		}
	}
}

func (m *tableModule) Update(sim.Individual, sim.Outcome) error { return nil }

func (m *tableModule) Reset() {}

func proposalsOf(ps ...sim.Proposal) iter.Seq[sim.Proposal] {
	return slices.Values(ps)
}

var _ = Describe("Aggregator", func() {
	var (
		mockCtrl *gomock.Controller
		ctx      context.Context
		agg      *Aggregator
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		ctx = context.Background()
		agg = MakeBuilder().Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should tag candidates with their module in module order", func() {
		a := &tableModule{id: "A", outcome: "infect",
			rates: map[sim.Individual]sim.Rate{1: 2.0}}
		b := &tableModule{id: "B", outcome: "recover",
			rates: map[sim.Individual]sim.Rate{1: 1.0, 2: 1.0}}

		pool, err := agg.Aggregate(ctx, []sim.Module{a, b}, []sim.Individual{1, 2})

		Expect(err).NotTo(HaveOccurred())
		Expect(pool.TotalWeight).To(Equal(sim.Rate(4.0)))
		Expect(pool.Candidates).To(Equal([]sim.Candidate{
			{Module: "A", Individual: 1, Outcome: "infect", Rate: 2.0},
			{Module: "B", Individual: 1, Outcome: "recover", Rate: 1.0},
			{Module: "B", Individual: 2, Outcome: "recover", Rate: 1.0},
		}))
		Expect(pool.Warnings).To(BeEmpty())
	})

	It("should report no eligible events when no module is registered", func() {
		_, err := agg.Aggregate(ctx, nil, []sim.Individual{1, 2})

		var noEvents *sim.NoEligibleEventsError
		Expect(errors.As(err, &noEvents)).To(BeTrue())
	})

	It("should drop and report a negative rate", func() {
		m := NewMockModule(mockCtrl)
		m.EXPECT().ID().Return(sim.ModuleID("bad")).AnyTimes()
		m.EXPECT().Weights(gomock.Any()).Return(proposalsOf(
			sim.Proposal{Individual: 1, Outcome: "x", Rate: -1.0},
			sim.Proposal{Individual: 2, Outcome: "x", Rate: 3.0},
		))

		pool, err := agg.Aggregate(ctx, []sim.Module{m}, []sim.Individual{1, 2})

		Expect(err).NotTo(HaveOccurred())
		Expect(pool.TotalWeight).To(Equal(sim.Rate(3.0)))
		Expect(pool.Candidates).To(HaveLen(1))
		Expect(pool.Warnings).To(HaveLen(1))

		var invalid *sim.InvalidRateError
		Expect(errors.As(pool.Warnings[0], &invalid)).To(BeTrue())
		Expect(invalid.Module).To(Equal(sim.ModuleID("bad")))
		Expect(invalid.Individual).To(Equal(sim.Individual(1)))
		Expect(invalid.Rate).To(Equal(sim.Rate(-1.0)))
	})

	It("should never keep zero or non-finite rates", func() {
		m := NewMockModule(mockCtrl)
		m.EXPECT().ID().Return(sim.ModuleID("m")).AnyTimes()
		m.EXPECT().Weights(gomock.Any()).Return(proposalsOf(
			sim.Proposal{Individual: 1, Rate: 0},
			sim.Proposal{Individual: 1, Rate: sim.Rate(math.NaN())},
			sim.Proposal{Individual: 1, Rate: sim.Rate(math.Inf(1))},
		))

		pool, err := agg.Aggregate(ctx, []sim.Module{m}, []sim.Individual{1})

		Expect(sim.IsNoEligibleEvents(err)).To(BeTrue())
		Expect(pool.Candidates).To(BeEmpty())
		Expect(pool.Warnings).To(HaveLen(3))
		Expect(err.(*sim.NoEligibleEventsError).Dropped).To(Equal(3))
	})

	It("should drop proposals for individuals outside the snapshot", func() {
		m := NewMockModule(mockCtrl)
		m.EXPECT().ID().Return(sim.ModuleID("m")).AnyTimes()
		m.EXPECT().Weights([]sim.Individual{1}).Return(proposalsOf(
			sim.Proposal{Individual: 1, Outcome: "x", Rate: 1},
			sim.Proposal{Individual: 9, Outcome: "x", Rate: 5},
		))

		pool, err := agg.Aggregate(ctx, []sim.Module{m}, []sim.Individual{1})

		Expect(err).NotTo(HaveOccurred())
		Expect(pool.TotalWeight).To(Equal(sim.Rate(1)))

		var stale *sim.StaleIndividualError
		Expect(pool.Warnings).To(HaveLen(1))
		Expect(errors.As(pool.Warnings[0], &stale)).To(BeTrue())
		Expect(stale.Individual).To(Equal(sim.Individual(9)))
	})

	It("should sum every proposed rate", func() {
		var modules []sim.Module
		var individuals []sim.Individual
		var rates []float64

		for i := sim.Individual(1); i <= 50; i++ {
			individuals = append(individuals, i)
		}

		for k := 0; k < 5; k++ {
			m := &tableModule{
				id:    sim.ModuleID(string(rune('a' + k))),
				rates: make(map[sim.Individual]sim.Rate),
			}
			for _, i := range individuals {
				r := 0.1*float64(k+1) + 0.013*float64(i)
				m.rates[i] = sim.Rate(r)
				rates = append(rates, r)
			}
			modules = append(modules, m)
		}

		pool, err := agg.Aggregate(ctx, modules, individuals)

		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Len()).To(Equal(len(rates)))
		Expect(scalar.EqualWithinAbsOrRel(
			float64(pool.TotalWeight), floats.Sum(rates), 1e-12, 1e-12,
		)).To(BeTrue())
	})

	It("should refuse a pool whose total weight overflows", func() {
		a := &tableModule{id: "A", rates: map[sim.Individual]sim.Rate{
			1: 1e308, 2: 1e308, 3: 1,
		}}

		_, err := agg.Aggregate(ctx, []sim.Module{a}, []sim.Individual{1, 2, 3})

		var overflow *sim.TotalWeightOverflowError
		Expect(errors.As(err, &overflow)).To(BeTrue())
		Expect(overflow.Candidates).To(Equal(3))
		Expect(math.IsInf(float64(overflow.Total), 1)).To(BeTrue())
		Expect(sim.IsFatal(err)).To(BeTrue())
		Expect(sim.IsNoEligibleEvents(err)).To(BeFalse())
	})

	It("should give the same result when repeated", func() {
		a := &tableModule{id: "A", rates: map[sim.Individual]sim.Rate{1: 0.1, 2: 0.2}}
		b := &tableModule{id: "B", rates: map[sim.Individual]sim.Rate{2: 0.3}}
		modules := []sim.Module{a, b}

		first, err := agg.Aggregate(ctx, modules, []sim.Individual{1, 2})
		Expect(err).NotTo(HaveOccurred())
		second, err := agg.Aggregate(ctx, modules, []sim.Individual{1, 2})
		Expect(err).NotTo(HaveOccurred())

		Expect(second.Candidates).To(Equal(first.Candidates))
		Expect(second.TotalWeight).To(Equal(first.TotalWeight))
	})

	It("should reuse the pool it is given", func() {
		a := &tableModule{id: "A", rates: map[sim.Individual]sim.Rate{1: 1, 2: 1}}
		pool := sim.NewPoolWithCapacity(4)

		Expect(agg.AggregateInto(ctx, pool, []sim.Module{a}, []sim.Individual{1, 2})).
			To(Succeed())
		Expect(agg.AggregateInto(ctx, pool, []sim.Module{a}, []sim.Individual{2})).
			To(Succeed())

		Expect(pool.Candidates).To(HaveLen(1))
		Expect(pool.TotalWeight).To(Equal(sim.Rate(1)))
		Expect(cap(pool.Candidates)).To(Equal(4))
	})

	It("should abandon a cancelled round", func() {
		a := &tableModule{id: "A", rates: map[sim.Individual]sim.Rate{1: 1}}
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := agg.Aggregate(cancelled, []sim.Module{a}, []sim.Individual{1})

		Expect(err).To(MatchError(context.Canceled))
		Expect(a.calls).To(Equal(0))
	})

	Context("in parallel", func() {
		It("should match the serial result exactly", func() {
			var modules []sim.Module
			var individuals []sim.Individual

			for i := sim.Individual(1); i <= 200; i++ {
				individuals = append(individuals, i)
			}

			for k := 0; k < 16; k++ {
				m := &tableModule{
					id:    sim.ModuleID(string(rune('A' + k))),
					rates: make(map[sim.Individual]sim.Rate),
				}
				for _, i := range individuals {
					if (int(i)+k)%3 == 0 {
						continue
					}
					m.rates[i] = sim.Rate(1.0 / float64(int(i)*(k+3)))
				}
				modules = append(modules, m)
			}

			serial, err := MakeBuilder().Build().
				Aggregate(ctx, modules, individuals)
			Expect(err).NotTo(HaveOccurred())

			parallel := MakeBuilder().WithParallelism(4).WithCapacity(200).Build()
			for round := 0; round < 3; round++ {
				pool, err := parallel.Aggregate(ctx, modules, individuals)
				Expect(err).NotTo(HaveOccurred())
				Expect(pool.Candidates).To(Equal(serial.Candidates))
				Expect(pool.TotalWeight).To(Equal(serial.TotalWeight))
			}
		})

		It("should report invalid rates in module order", func() {
			a := &tableModule{id: "A", rates: map[sim.Individual]sim.Rate{1: -1}}
			b := &tableModule{id: "B", rates: map[sim.Individual]sim.Rate{1: -2}}
			c := &tableModule{id: "C", rates: map[sim.Individual]sim.Rate{1: 1}}

			agg = MakeBuilder().WithParallelism(3).Build()
			pool, err := agg.Aggregate(ctx, []sim.Module{a, b, c}, []sim.Individual{1})

			Expect(err).NotTo(HaveOccurred())
			Expect(pool.Warnings).To(HaveLen(2))
			Expect(pool.Warnings[0].(*sim.InvalidRateError).Module).
				To(Equal(sim.ModuleID("A")))
			Expect(pool.Warnings[1].(*sim.InvalidRateError).Module).
				To(Equal(sim.ModuleID("B")))
		})
	})
})
