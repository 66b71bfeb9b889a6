package monitoring

import (
	"sync"
	"time"

	"github.com/blofeld/blofeld/engine"
	"github.com/blofeld/blofeld/sim"
)

// A ProgressBar is a tracker of the progress.
type ProgressBar struct {
	sync.Mutex
	ID        string
	Name      string
	StartTime time.Time
	Total     uint64
	Finished  uint64
}

type progressRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished adds a certain amount to the finished elements.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// SetFinished sets the number of finished elements, capped at the total.
func (b *ProgressBar) SetFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished = min(amount, b.Total)
}

func (b *ProgressBar) snapshot() progressRsp {
	b.Lock()
	defer b.Unlock()

	return progressRsp{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}

// A ProgressHook moves a progress bar as rounds are dispatched. With a time
// horizon, the bar tracks simulated time in permille of the horizon;
// otherwise it counts rounds.
type ProgressHook struct {
	bar     *ProgressBar
	maxTime sim.VTimeInSec
}

// NewProgressHook creates a hook that drives the bar.
func NewProgressHook(bar *ProgressBar, maxTime sim.VTimeInSec) *ProgressHook {
	return &ProgressHook{bar: bar, maxTime: maxTime}
}

// Func updates the bar after each dispatch.
func (h *ProgressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterDispatch {
		return
	}

	r, ok := ctx.Item.(engine.Round)
	if !ok {
		return
	}

	if h.maxTime <= 0 {
		h.bar.SetFinished(r.Number)
		return
	}

	h.bar.SetFinished(uint64(float64(r.Time / h.maxTime * 1000)))
}
