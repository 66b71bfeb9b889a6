package tracing

import (
	"github.com/charmbracelet/log"

	"github.com/blofeld/blofeld/engine"
	"github.com/blofeld/blofeld/sim"
)

// EventLogger is a hook that logs every dispatched event at debug level and
// every dropped proposal at warn level.
type EventLogger struct {
	logger *log.Logger
}

// NewEventLogger returns an EventLogger that writes into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosAfterDispatch:
		r, ok := ctx.Item.(engine.Round)
		if !ok {
			return
		}

		c := r.Selection.Candidate
		h.logger.Debug("dispatched",
			"round", r.Number,
			"time", float64(r.Time),
			"module", c.Module,
			"individual", c.Individual,
			"outcome", c.Outcome,
			"rate", float64(c.Rate),
			"total", float64(r.Selection.TotalWeight))
	case sim.HookPosCandidateDropped:
		h.logger.Warn("dropped", "round", ctx.Detail, "err", ctx.Item)
	case sim.HookPosNoEligibleEvents:
		h.logger.Info("no eligible events", "err", ctx.Item)
	}
}
