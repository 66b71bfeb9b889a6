package sim

import (
	"errors"
	"fmt"
)

// DuplicateModuleError is returned when registering a module whose ID is
// already taken.
type DuplicateModuleError struct {
	Module ModuleID
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module %q is already registered", e.Module)
}

// UnknownModuleError is returned when a module ID is not registered.
type UnknownModuleError struct {
	Module ModuleID
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("module %q is not registered", e.Module)
}

// InvalidRateError reports a proposal whose rate is zero, negative or not
// finite. The proposal is dropped and the round continues.
type InvalidRateError struct {
	Module     ModuleID
	Individual Individual
	Outcome    Outcome
	Rate       Rate
	Reason     error
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("module %q proposed invalid rate for individual %d (%s): %v",
		e.Module, e.Individual, e.Outcome, e.Reason)
}

func (e *InvalidRateError) Unwrap() error {
	return e.Reason
}

// StaleIndividualError reports a proposal for an individual that is not part
// of the current population snapshot. The proposal is dropped.
type StaleIndividualError struct {
	Module     ModuleID
	Individual Individual
	Outcome    Outcome
}

func (e *StaleIndividualError) Error() string {
	return fmt.Sprintf("module %q proposed %s for individual %d, "+
		"which is not in the population", e.Module, e.Outcome, e.Individual)
}

// NoEligibleEventsError is returned when a round has no candidate with a
// positive rate. It is the expected end of a simulation in which no further
// transition can happen.
type NoEligibleEventsError struct {
	// Dropped counts the proposals that were discarded in the round.
	Dropped int
}

func (e *NoEligibleEventsError) Error() string {
	if e.Dropped > 0 {
		return fmt.Sprintf("no eligible events (%d proposals dropped)",
			e.Dropped)
	}

	return "no eligible events"
}

// TotalWeightOverflowError is returned when the rates of a round are finite
// but their sum is not. No candidate can be drawn in proportion to its rate
// from such a pool.
type TotalWeightOverflowError struct {
	Candidates int
	Total      Rate
}

func (e *TotalWeightOverflowError) Error() string {
	return fmt.Sprintf("total weight of %d candidates is %v",
		e.Candidates, float64(e.Total))
}

// ModuleStateCorruptionError is returned when a module cannot apply an event
// it proposed. The run must stop, because the module's weights and its state
// no longer agree.
type ModuleStateCorruptionError struct {
	Module     ModuleID
	Individual Individual
	Outcome    Outcome
	Err        error
}

func (e *ModuleStateCorruptionError) Error() string {
	return fmt.Sprintf("module %q cannot apply %s to individual %d: %v",
		e.Module, e.Outcome, e.Individual, e.Err)
}

func (e *ModuleStateCorruptionError) Unwrap() error {
	return e.Err
}

// IsNoEligibleEvents returns true if err reports an empty round.
func IsNoEligibleEvents(err error) bool {
	var target *NoEligibleEventsError
	return errors.As(err, &target)
}

// IsFatal returns true if err means the run must be aborted.
func IsFatal(err error) bool {
	var corruption *ModuleStateCorruptionError
	if errors.As(err, &corruption) {
		return true
	}

	var overflow *TotalWeightOverflowError
	return errors.As(err, &overflow)
}
