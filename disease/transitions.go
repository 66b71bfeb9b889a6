package disease

import (
	"iter"

	"github.com/blofeld/blofeld/sim"
)

// A Rule moves individuals from one stage to another at a constant rate.
type Rule struct {
	From    Stage
	To      Stage
	Outcome sim.Outcome
	Rate    float64
}

// Transitions applies constant-rate rules to individuals by stage. Rules with
// a zero rate are left out.
type Transitions struct {
	base
	byStage [NumStages][]Rule
}

// NewTransitions creates a module that applies the given rules.
func NewTransitions(id sim.ModuleID, model *Model, rules ...Rule) *Transitions {
	t := &Transitions{base: base{id: id, model: model}}

	for _, r := range rules {
		if r.Rate > 0 {
			t.byStage[r.From] = append(t.byStage[r.From], r)
		}
	}

	return t
}

// NewProgression moves individuals through the course of the disease,
// E -> L -> I -> D -> R.
func NewProgression(model *Model) *Transitions {
	p := model.Params()

	return NewTransitions("progression", model,
		Rule{From: E, To: L, Outcome: OutcomeIncubate, Rate: p.Incubation},
		Rule{From: L, To: I, Outcome: OutcomeProgress, Rate: p.Progression},
		Rule{From: I, To: D, Outcome: OutcomeRecover, Rate: p.Recovery},
		Rule{From: D, To: R, Outcome: OutcomeHeal, Rate: p.Healing},
	)
}

// NewImmunity makes recovered and vaccinated individuals susceptible again.
func NewImmunity(model *Model) *Transitions {
	p := model.Params()

	return NewTransitions("immunity", model,
		Rule{From: R, To: S, Outcome: OutcomeRevert, Rate: p.Reversion},
		Rule{From: V, To: S, Outcome: OutcomeWane, Rate: p.Waning},
	)
}

// NewVaccination vaccinates susceptible individuals.
func NewVaccination(model *Model) *Transitions {
	return NewTransitions("vaccination", model,
		Rule{From: S, To: V, Outcome: OutcomeVaccinate,
			Rate: model.Params().Vaccination},
	)
}

// TransitionsFactory adapts a constructor into a factory. Transitions keep no
// per-round state, so the capacity is ignored.
func TransitionsFactory(
	model *Model,
	build func(*Model) *Transitions,
) sim.Factory {
	return sim.FactoryFunc(func(int) sim.Module {
		return build(model)
	})
}

// Weights proposes the rules that apply to the stage of each individual.
func (t *Transitions) Weights(
	individuals []sim.Individual,
) iter.Seq[sim.Proposal] {
	return func(yield func(sim.Proposal) bool) {
		for _, i := range individuals {
			s, ok := t.model.Stage(i)
			if !ok {
				continue
			}

			for _, r := range t.byStage[s] {
				p := sim.Proposal{Individual: i, Outcome: r.Outcome, Rate: sim.Rate(r.Rate)}
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Update applies the rule with the given outcome.
func (t *Transitions) Update(i sim.Individual, o sim.Outcome) error {
	var from []Stage

	to, found := S, false

	for s, rules := range t.byStage {
		for _, r := range rules {
			if r.Outcome == o {
				from = append(from, Stage(s))
				to, found = r.To, true
			}
		}
	}

	if !found {
		return t.unknownOutcome(i, o)
	}

	if err := t.model.Transition(i, to, from...); err != nil {
		return t.corrupted(i, o, err)
	}

	return nil
}

// Reset does nothing; rules are fixed.
func (t *Transitions) Reset() {}
