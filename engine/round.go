package engine

import (
	"github.com/blofeld/blofeld/sampling"
	"github.com/blofeld/blofeld/sim"
)

// A Round describes one aggregate, sample and dispatch cycle.
type Round struct {
	// Number counts dispatched rounds, starting at 1.
	Number uint64

	Selection sampling.Selection

	// Candidates is the size of the pool the selection was drawn from.
	Candidates int

	// Warnings lists the proposals dropped while aggregating.
	Warnings []error

	// Increment is the simulated time between the previous event and this one.
	Increment sim.VTimeInSec

	// Time is when the event happens.
	Time sim.VTimeInSec
}

// A StopCondition bounds a run. Zero fields impose no bound.
type StopCondition struct {
	MaxTime   sim.VTimeInSec
	MaxRounds uint64
}

// A StopReason tells why a run ended.
type StopReason int

// Enumeration of the reasons a run can end.
const (
	StopReasonNone StopReason = iota
	StopReasonNoEligibleEvents
	StopReasonMaxTime
	StopReasonMaxRounds
	StopReasonCancelled
	StopReasonFatal
)

func (r StopReason) String() string {
	switch r {
	case StopReasonNoEligibleEvents:
		return "no eligible events"
	case StopReasonMaxTime:
		return "max time reached"
	case StopReasonMaxRounds:
		return "max rounds reached"
	case StopReasonCancelled:
		return "cancelled"
	case StopReasonFatal:
		return "fatal error"
	default:
		return "none"
	}
}
