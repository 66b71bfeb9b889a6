package disease

import "github.com/blofeld/blofeld/sim"

// Outcomes proposed by the disease modules.
const (
	OutcomeInfect    sim.Outcome = "infect"
	OutcomeSpillover sim.Outcome = "spillover"
	OutcomeIncubate  sim.Outcome = "incubate"
	OutcomeProgress  sim.Outcome = "progress"
	OutcomeRecover   sim.Outcome = "recover"
	OutcomeHeal      sim.Outcome = "heal"
	OutcomeRevert    sim.Outcome = "revert"
	OutcomeWane      sim.Outcome = "wane"
	OutcomeVaccinate sim.Outcome = "vaccinate"
	OutcomeSuccumb   sim.Outcome = "succumb"
	OutcomeDie       sim.Outcome = "die"
)
