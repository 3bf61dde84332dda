package prefetcher

import (
	"fmt"

	"github.com/sarchlab/fdprefetch/sim"
	"github.com/sarchlab/fdprefetch/tracing"
)

// Hook positions of the engine.
var (
	// HookPosPrefetchIssued is triggered for every prefetch handed to the
	// host. Item is a Request.
	HookPosPrefetchIssued = &sim.HookPos{Name: "PrefetchIssued"}

	// HookPosFeedbackFold is triggered after every fold. Item is a
	// FoldRecord.
	HookPosFeedbackFold = &sim.HookPos{Name: "FeedbackFold"}

	// HookPosDetectorAllocated is triggered when a page takes a detector.
	// Item is the page number.
	HookPosDetectorAllocated = &sim.HookPos{Name: "DetectorAllocated"}
)

// Engine is the prefetcher of one core. It is not safe for concurrent use;
// the host must deliver accesses and fills one at a time, in simulated time
// order.
type Engine struct {
	sim.HookableBase

	name          string
	cpu           int
	host          Host
	mshrThreshold int

	streams   *StreamTable
	lateness  LatenessTracker
	pollution PollutionFilter
	ownership *OwnershipTable
	feedback  *FeedbackState

	stats   Stats
	targets []uint64
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// CPU returns the core that the engine serves.
func (e *Engine) CPU() int {
	return e.cpu
}

// Initialize resets every table and counter and brings the controller back
// to the default level.
func (e *Engine) Initialize(cpu int) {
	e.cpu = cpu
	e.streams.Reset()
	e.lateness.Reset()
	e.pollution.Reset()
	e.ownership.Reset()
	e.feedback.Reset()
	e.stats = Stats{}
}

// OnAccess handles a demand access to the near cache.
func (e *Engine) OnAccess(cpu int, addr, ip uint64, hit bool) {
	e.stats.Accesses++

	block := blockAddress(addr)
	if hit {
		e.stats.Hits++
		set := e.host.SetIndex(block)
		e.onDemandHit(set, e.host.WayIndex(cpu, block, set))
	} else {
		e.stats.Misses++
		e.onDemandMiss(block)
	}

	targets, allocated := e.streams.Classify(addr, e.targets[:0])
	e.targets = targets

	if allocated {
		e.stats.Allocated++
		e.invokeHook(HookPosDetectorAllocated, pageOf(addr))
	}

	for _, target := range targets {
		e.place(cpu, addr, target)
	}
}

func (e *Engine) onDemandHit(set, way int) {
	if !e.ownership.IsPrefetched(set, way) {
		return
	}

	e.feedback.RecordUsed()
	e.stats.Useful++
	e.ownership.Clear(set, way)
}

func (e *Engine) onDemandMiss(block uint64) {
	e.feedback.RecordDemand()

	if e.pollution.Query(block) {
		e.feedback.RecordPolluting()
		e.stats.Polluting++
	}

	if e.lateness.CheckDemand(block) {
		e.feedback.RecordLate()
		e.stats.Late++
		e.tagLate(block)
	}
}

func (e *Engine) place(cpu int, trigger, target uint64) {
	e.stats.Emitted++

	req := Request{Trigger: trigger, Target: target, Level: FillNear}

	if e.host.MSHROccupancy(cpu) > e.mshrThreshold {
		req.Level = FillFar
		req.Accepted = e.host.IssuePrefetch(cpu, trigger, target, FillFar)
		e.stats.FarIssued++
		e.invokeHook(HookPosPrefetchIssued, req)

		return
	}

	req.Accepted = e.host.IssuePrefetch(cpu, trigger, target, FillNear)
	if !req.Accepted {
		e.stats.NearDenied++
		e.invokeHook(HookPosPrefetchIssued, req)

		return
	}

	e.stats.NearIssued++
	e.feedback.RecordIssued()

	if !e.lateness.RecordIssued(target) {
		e.stats.Untracked++
	}

	e.invokeHook(HookPosPrefetchIssued, req)
	e.startPrefetchTask(req)
}

// Task kinds and steps of the prefetches traced by the engine. A near
// prefetch is a task from its issue to the fill of its line.
const (
	PrefetchTaskKind = "prefetch"
	PrefetchTaskLate = "late"
)

func (e *Engine) prefetchTaskID(block uint64) string {
	return fmt.Sprintf("%s@%#x", e.name, block)
}

func (e *Engine) startPrefetchTask(req Request) {
	if e.NumHooks() == 0 {
		return
	}

	tracing.StartTask(
		e.prefetchTaskID(req.Target), e, PrefetchTaskKind, req.Level.String(), req)
}

func (e *Engine) tagLate(block uint64) {
	if e.NumHooks() == 0 {
		return
	}

	tracing.AddTaskStep(e.prefetchTaskID(block), e, PrefetchTaskLate)
}

func (e *Engine) endPrefetchTask(block uint64) {
	if e.NumHooks() == 0 {
		return
	}

	tracing.EndTask(e.prefetchTaskID(block), e)
}

// OnFill handles a line being installed in the near cache at (set, way),
// replacing evicted, or NoEviction if the way was empty.
func (e *Engine) OnFill(
	cpu int,
	addr uint64,
	set, way int,
	isPrefetch bool,
	evicted uint64,
) {
	e.stats.Fills++

	block := blockAddress(addr)
	e.lateness.InvalidateOnFill(block)
	e.endPrefetchTask(block)

	if isPrefetch {
		if evicted != NoEviction && !e.ownership.IsPrefetched(set, way) {
			e.pollution.MarkPolluting(blockAddress(evicted))
		}

		e.ownership.MarkPrefetched(set, way)
		e.pollution.Clear(block)
	} else {
		e.ownership.Clear(set, way)
	}

	rec, folded := e.feedback.RecordEviction()
	if !folded {
		return
	}

	e.stats.Folds++
	e.stats.FoldsAtLevel[rec.LevelAfter]++
	e.invokeHook(HookPosFeedbackFold, rec)
}

func (e *Engine) invokeHook(pos *sim.HookPos, item interface{}) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    pos,
		Item:   item,
	})
}

// Level returns the current aggressiveness level.
func (e *Engine) Level() Level {
	return e.feedback.Level()
}

// Stats returns the lifetime counts.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Feedback returns a copy of the controller state.
func (e *Engine) Feedback() FeedbackSnapshot {
	f := e.feedback

	return FeedbackSnapshot{
		Level:         f.Level(),
		StreamWindow:  f.StreamWindow(),
		Degree:        f.PrefetchDegree(),
		Ratios:        f.Ratios(),
		Interval:      f.Interval(),
		Total:         f.Total(),
		Evictions:     f.Evictions(),
		FoldThreshold: f.FoldThreshold(),
	}
}

// StreamTable exposes the detectors for inspection.
func (e *Engine) StreamTable() *StreamTable {
	return e.streams
}

// LatenessTracker exposes the pending-prefetch table for inspection.
func (e *Engine) LatenessTracker() *LatenessTracker {
	return &e.lateness
}

// PollutionFilter exposes the pollution filter for inspection.
func (e *Engine) PollutionFilter() *PollutionFilter {
	return &e.pollution
}

// OwnershipTable exposes the prefetched-line bits for inspection.
func (e *Engine) OwnershipTable() *OwnershipTable {
	return e.ownership
}
