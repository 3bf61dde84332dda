package prefetcher

import (
	"log"

	"github.com/sarchlab/fdprefetch/datarecording"
	"github.com/sarchlab/fdprefetch/sim"
)

// FeedbackLogger prints one line for every fold of an engine.
type FeedbackLogger struct {
	sim.LogHookBase
}

// NewFeedbackLogger creates a FeedbackLogger that writes to logger.
func NewFeedbackLogger(logger *log.Logger) *FeedbackLogger {
	h := new(FeedbackLogger)
	h.Logger = logger

	return h
}

// Func writes the fold record if the hook is triggered by a fold.
func (h *FeedbackLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosFeedbackFold {
		return
	}

	rec := ctx.Item.(FoldRecord)

	h.Printf(
		"%s fold %d: level %d -> %d, acc %.4f, late %.4f, poll %.4f\n",
		domainName(ctx), rec.Index, rec.LevelBefore, rec.LevelAfter,
		rec.Ratios.Accuracy, rec.Ratios.Lateness, rec.Ratios.Pollution,
	)
}

const foldTableName = "prefetcher_folds"

type foldEntry struct {
	Engine      string
	Fold        uint64
	LevelBefore int
	LevelAfter  int
	Window      int
	Degree      int
	Accuracy    float64
	Lateness    float64
	Pollution   float64
	Issued      uint64
	Used        uint64
	Late        uint64
	Polluting   uint64
	Demand      uint64
}

// FeedbackRecorder stores every fold of the engines it is attached to in a
// data recorder table.
type FeedbackRecorder struct {
	recorder datarecording.DataRecorder
}

// NewFeedbackRecorder creates the fold table in recorder and returns a hook
// that fills it.
func NewFeedbackRecorder(
	recorder datarecording.DataRecorder,
) *FeedbackRecorder {
	recorder.CreateTable(foldTableName, foldEntry{})

	return &FeedbackRecorder{recorder: recorder}
}

// Func inserts the fold record if the hook is triggered by a fold.
func (h *FeedbackRecorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosFeedbackFold {
		return
	}

	rec := ctx.Item.(FoldRecord)

	h.recorder.InsertData(foldTableName, foldEntry{
		Engine:      domainName(ctx),
		Fold:        rec.Index,
		LevelBefore: int(rec.LevelBefore),
		LevelAfter:  int(rec.LevelAfter),
		Window:      rec.LevelAfter.StreamWindow(),
		Degree:      rec.LevelAfter.PrefetchDegree(),
		Accuracy:    rec.Ratios.Accuracy,
		Lateness:    rec.Ratios.Lateness,
		Pollution:   rec.Ratios.Pollution,
		Issued:      rec.Total.Issued,
		Used:        rec.Total.Used,
		Late:        rec.Total.Late,
		Polluting:   rec.Total.Polluting,
		Demand:      rec.Total.Demand,
	})
}

func domainName(ctx sim.HookCtx) string {
	if e, ok := ctx.Domain.(*Engine); ok {
		return e.Name()
	}

	return ""
}
