package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/fdprefetch/sim"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	lock sync.Mutex

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

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.Finished += amount
}

// GetFinished returns the number of finished elements.
func (b *ProgressBar) GetFinished() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.Finished
}

func (b *ProgressBar) snapshot() progressRsp {
	b.lock.Lock()
	defer b.lock.Unlock()

	return progressRsp{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}

// ProgressHook moves a progress bar forward every time a hook position is
// reached.
type ProgressHook struct {
	bar *ProgressBar
	pos *sim.HookPos
}

// NewProgressHook creates a hook that counts pos on bar.
func NewProgressHook(bar *ProgressBar, pos *sim.HookPos) *ProgressHook {
	return &ProgressHook{bar: bar, pos: pos}
}

// Func increments the bar if the hook is triggered at the position.
func (h *ProgressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == h.pos {
		h.bar.IncrementFinished(1)
	}
}
