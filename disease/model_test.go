package disease

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/blofeld/blofeld/population"
	"github.com/blofeld/blofeld/sim"
)

var _ = Describe("Params", func() {
	It("should accept the defaults", func() {
		Expect(DefaultParams().Validate()).To(Succeed())
	})

	DescribeTable("should reject",
		func(p Params) {
			Expect(p.Validate()).To(HaveOccurred())
		},
		Entry("negative rates", Params{Recovery: -1}),
		Entry("NaN", Params{BetaClinical: math.NaN()}),
		Entry("infinity", Params{Death: math.Inf(1)}),
	)

	It("should name the parameter", func() {
		err := Params{MortalityD: -0.1}.Validate()
		Expect(err).To(MatchError(ContainSubstring("mortality_d")))
	})
})

var _ = Describe("Stage", func() {
	It("should parse compartment letters", func() {
		for s := range Stage(NumStages) {
			parsed, ok := ParseStage(s.String())
			Expect(ok).To(BeTrue())
			Expect(parsed).To(Equal(s))
		}

		_, ok := ParseStage("Z")
		Expect(ok).To(BeFalse())
	})

	It("should classify stages", func() {
		Expect(L.Infectious()).To(BeTrue())
		Expect(D.Infectious()).To(BeFalse())
		Expect(D.Clinical()).To(BeTrue())
		Expect(M.Living()).To(BeFalse())
	})
})

var _ = Describe("Model", func() {
	var (
		pop   *population.Population
		model *Model
		herd  population.HerdID
	)

	BeforeEach(func() {
		pop = population.New()
		herd = pop.AddHerd("a", 10)
		model = NewModel(Params{
			BetaSubclin:  0.5,
			BetaClinical: 1,
			ContactPower: 1,
		}, 1)

		Expect(model.Seed(herd, pop.Members(herd),
			map[Stage]int{L: 1, I: 2})).To(Succeed())
	})

	It("should seed stages in compartment order", func() {
		s, _ := model.Stage(1)
		Expect(s).To(Equal(L))
		s, _ = model.Stage(3)
		Expect(s).To(Equal(I))
		s, _ = model.Stage(4)
		Expect(s).To(Equal(S))

		Expect(model.Count(herd, S)).To(Equal(7))
		Expect(model.Living(herd)).To(Equal(10))
	})

	It("should refuse to seed more than the herd holds", func() {
		other := NewModel(DefaultParams(), 1)
		err := other.Seed(herd, pop.Members(herd)[:2], map[Stage]int{E: 3})
		Expect(err).To(HaveOccurred())
	})

	It("should change version with every count change", func() {
		v := model.Version()

		Expect(model.Transition(1, I, L)).To(Succeed())
		Expect(model.Version()).NotTo(Equal(v))
		v = model.Version()

		Expect(model.Transition(1, D, L)).NotTo(Succeed())
		Expect(model.Version()).To(Equal(v))

		_, err := model.Remove(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Version()).NotTo(Equal(v))
	})

	It("should compute frequency dependent pressure", func() {
		Expect(model.Pressure(herd)).To(BeNumerically("~", 0.25, 1e-12))
	})

	It("should compute density dependent pressure", func() {
		dense := NewModel(Params{BetaSubclin: 0.5, BetaClinical: 1}, 1)
		Expect(dense.Seed(herd, pop.Members(herd),
			map[Stage]int{L: 1, I: 2})).To(Succeed())

		Expect(dense.Pressure(herd)).To(BeNumerically("~", 2.5, 1e-12))
	})

	It("should exclude disease deaths from the herd size", func() {
		Expect(model.Transition(3, M, I)).To(Succeed())

		Expect(model.Living(herd)).To(Equal(9))
		Expect(model.Pressure(herd)).To(BeNumerically("~", 1.5/9, 1e-12))
	})

	It("should refuse transitions from the wrong stage", func() {
		err := model.Transition(5, L, E)

		var mismatch *StageMismatchError
		Expect(err).To(BeAssignableToTypeOf(mismatch))
		Expect(model.Count(herd, S)).To(Equal(7))
	})

	It("should forget removed individuals", func() {
		s, err := model.Remove(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(I))
		Expect(model.Total(I)).To(Equal(1))

		_, err = model.Remove(2)
		Expect(err).To(BeAssignableToTypeOf(&UntrackedIndividualError{}))
	})

	It("should refuse to track an individual twice", func() {
		Expect(model.Add(sim.Individual(1), herd, S)).NotTo(Succeed())
	})
})
