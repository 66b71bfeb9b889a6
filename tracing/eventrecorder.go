package tracing

import (
	"strconv"

	"github.com/rs/xid"

	"github.com/blofeld/blofeld/datarecording"
	"github.com/blofeld/blofeld/engine"
	"github.com/blofeld/blofeld/sim"
)

// Table names used by the EventRecorder.
const (
	RunTable     = "blofeld_runs"
	RoundTable   = "blofeld_rounds"
	WarningTable = "blofeld_warnings"
)

// RunEntry describes one run.
type RunEntry struct {
	RunID string
	Seed  string
}

// RoundEntry is one dispatched event.
type RoundEntry struct {
	RunID       string
	Round       uint64
	Time        float64
	Increment   float64
	Module      string
	Individual  uint64
	Outcome     string
	Rate        float64
	TotalWeight float64
	Candidates  int
}

// WarningEntry is one dropped proposal.
type WarningEntry struct {
	RunID   string
	Round   uint64
	Message string
}

// EventRecorder is a hook that stores every dispatched event and dropped
// proposal in a DataRecorder.
type EventRecorder struct {
	recorder datarecording.DataRecorder
	runID    string
}

// NewEventRecorder creates the tables and records the run.
func NewEventRecorder(
	recorder datarecording.DataRecorder,
	seed uint64,
) *EventRecorder {
	r := &EventRecorder{
		recorder: recorder,
		runID:    xid.New().String(),
	}

	recorder.CreateTable(RunTable, RunEntry{})
	recorder.CreateTable(RoundTable, RoundEntry{})
	recorder.CreateTable(WarningTable, WarningEntry{})

	recorder.InsertData(RunTable, RunEntry{
		RunID: r.runID,
		Seed:  formatSeed(seed),
	})

	return r
}

// RunID returns the identifier of the recorded run.
func (r *EventRecorder) RunID() string {
	return r.runID
}

// Func records the event or warning carried by the hook context.
func (r *EventRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosAfterDispatch:
		round, ok := ctx.Item.(engine.Round)
		if !ok {
			return
		}

		r.recordRound(round)
	case sim.HookPosCandidateDropped:
		err, ok := ctx.Item.(error)
		if !ok {
			return
		}

		number, _ := ctx.Detail.(uint64)
		r.recorder.InsertData(WarningTable, WarningEntry{
			RunID:   r.runID,
			Round:   number,
			Message: err.Error(),
		})
	}
}

func (r *EventRecorder) recordRound(round engine.Round) {
	c := round.Selection.Candidate

	r.recorder.InsertData(RoundTable, RoundEntry{
		RunID:       r.runID,
		Round:       round.Number,
		Time:        float64(round.Time),
		Increment:   float64(round.Increment),
		Module:      string(c.Module),
		Individual:  uint64(c.Individual),
		Outcome:     string(c.Outcome),
		Rate:        float64(c.Rate),
		TotalWeight: float64(round.Selection.TotalWeight),
		Candidates:  round.Candidates,
	})
}

// formatSeed keeps seeds above the signed 64-bit range readable in SQLite.
func formatSeed(seed uint64) string {
	return strconv.FormatUint(seed, 10)
}
