// Package cachesim models the cache hierarchy that a prefetcher serves: an L2
// with an MSHR, a last-level cache, and memory, driven by a memory-access
// trace on a serial event engine.
package cachesim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"

	"github.com/sarchlab/fdprefetch/prefetcher"
	"github.com/sarchlab/fdprefetch/sim"
	"github.com/sarchlab/fdprefetch/trace"
)

// HookPosAccessDone is triggered after every demand access is looked up in
// the L2. Item is the trace.Record.
var HookPosAccessDone = &sim.HookPos{Name: "AccessDone"}

// A Prefetcher observes the L2 demand accesses and fills. A fill into an
// empty way reports prefetcher.NoEviction as the evicted line.
type Prefetcher interface {
	OnAccess(cpu int, addr, ip uint64, hit bool)
	OnFill(cpu int, addr uint64, set, way int, isPrefetch bool, evicted uint64)
}

var _ prefetcher.Host = (*Hierarchy)(nil)

// Hierarchy is an L2 + LLC + memory model. It is the host of a prefetcher:
// it reports every demand access and every L2 fill, in simulated time order.
type Hierarchy struct {
	sim.HookableBase

	name       string
	cpu        int
	engine     sim.Engine
	l2         *TagArray
	llc        *TagArray
	mshr       *MSHR
	prefetcher Prefetcher

	l2Latency     sim.VTimeInCycle
	llcLatency    sim.VTimeInCycle
	memLatency    sim.VTimeInCycle
	issueInterval sim.VTimeInCycle

	farInFlight map[uint64]bool

	ctx    context.Context
	source trace.Reader
	stats  Stats
}

type accessEvent struct {
	*sim.EventBase
	record trace.Record
}

type fillEvent struct {
	*sim.EventBase
	addr uint64
}

type farFillEvent struct {
	*sim.EventBase
	addr uint64
}

// Name returns the name of the hierarchy.
func (h *Hierarchy) Name() string {
	return h.name
}

// SetPrefetcher attaches the prefetcher that observes the L2.
func (h *Hierarchy) SetPrefetcher(p Prefetcher) {
	h.prefetcher = p
}

// L2 returns the tags of the near cache.
func (h *Hierarchy) L2() *TagArray {
	return h.l2
}

// LLC returns the tags of the far cache.
func (h *Hierarchy) LLC() *TagArray {
	return h.llc
}

// MSHR returns the L2 MSHR.
func (h *Hierarchy) MSHR() *MSHR {
	return h.mshr
}

// Stats returns the counts so far.
func (h *Hierarchy) Stats() Stats {
	return h.stats
}

// Run issues the records of source one after another and returns when the
// last fill has completed, the source fails, or ctx is done.
func (h *Hierarchy) Run(ctx context.Context, source trace.Reader) error {
	h.ctx = ctx
	h.source = source

	if err := h.scheduleNextAccess(h.engine.CurrentTime()); err != nil {
		return err
	}

	err := h.engine.Run()
	h.stats.Cycles = uint64(h.engine.CurrentTime())
	h.engine.Finished()

	return err
}

func (h *Hierarchy) scheduleNextAccess(earliest sim.VTimeInCycle) error {
	rec, err := h.source.Next()
	if errors.Is(err, io.EOF) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("read trace: %w", err)
	}

	t := earliest
	if sim.VTimeInCycle(rec.Cycle) > t {
		t = sim.VTimeInCycle(rec.Cycle)
	}

	h.engine.Schedule(&accessEvent{
		EventBase: sim.NewEventBase(t, h),
		record:    rec,
	})

	return nil
}

// Handle processes the events of the hierarchy.
func (h *Hierarchy) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *accessEvent:
		return h.handleAccess(e)
	case *fillEvent:
		h.handleFill(e)
	case *farFillEvent:
		h.handleFarFill(e)
	default:
		log.Panicf("cannot handle event of type %s", reflect.TypeOf(e))
	}

	return nil
}

func (h *Hierarchy) handleAccess(e *accessEvent) error {
	if err := h.ctx.Err(); err != nil {
		return err
	}

	now := e.Time()
	addr := e.record.Address
	blockAddr := h.l2.BlockAddress(addr)

	block, hit := h.l2.Lookup(addr)

	switch {
	case hit:
		h.stats.L2Hits++
		h.stats.DemandLatency += uint64(h.l2Latency)
		h.l2.Visit(block)

		if block.IsPrefetch {
			h.stats.PrefetchHits++
			block.IsPrefetch = false
			h.l2.Update(block)
		}
	case h.mshr.Lookup(blockAddr):
		h.stats.L2Misses++
		h.stats.MSHRMerges++
		h.mustAddDemand(blockAddr, now)
	case h.mshr.IsFull():
		h.stats.MSHRStalls++
		h.engine.Schedule(&accessEvent{
			EventBase: sim.NewEventBase(now+1, h),
			record:    e.record,
		})

		return nil
	default:
		h.stats.L2Misses++
		h.fetch(blockAddr, false, now)
		h.mustAddDemand(blockAddr, now)
	}

	h.stats.Accesses++

	if h.prefetcher != nil {
		h.prefetcher.OnAccess(h.cpu, addr, e.record.IP, hit)
	}

	if h.NumHooks() > 0 {
		h.InvokeHook(sim.HookCtx{
			Domain: h,
			Pos:    HookPosAccessDone,
			Item:   e.record,
		})
	}

	return h.scheduleNextAccess(now + h.issueInterval)
}

func (h *Hierarchy) mustAddDemand(blockAddr uint64, now sim.VTimeInCycle) {
	if err := h.mshr.AddDemandToEntry(blockAddr, now); err != nil {
		log.Panic(err)
	}
}

// fetch allocates an MSHR entry for blockAddr and schedules its fill.
func (h *Hierarchy) fetch(blockAddr uint64, isPrefetch bool, now sim.VTimeInCycle) {
	if err := h.mshr.AddEntry(blockAddr, isPrefetch); err != nil {
		log.Panic(err)
	}

	latency := h.l2Latency + h.llcLatency

	if block, hit := h.llc.Lookup(blockAddr); hit {
		h.stats.LLCHits++
		h.llc.Visit(block)
	} else {
		h.stats.LLCMisses++
		latency += h.memLatency
	}

	h.engine.Schedule(&fillEvent{
		EventBase: sim.NewEventBase(now+latency, h),
		addr:      blockAddr,
	})
}

func (h *Hierarchy) handleFill(e *fillEvent) {
	entry, err := h.mshr.RemoveEntry(e.addr)
	if err != nil {
		log.Panic(err)
	}

	now := e.Time()
	for _, t := range entry.Demands {
		h.stats.DemandLatency += uint64(now - t)
	}

	victim := h.l2.FindVictim(e.addr)

	evicted := prefetcher.NoEviction
	if victim.IsValid {
		evicted = victim.Tag
		h.stats.Evictions++

		if victim.IsPrefetch {
			h.stats.UselessPrefetches++
		}
	}

	block := Block{
		Tag:        e.addr,
		SetID:      victim.SetID,
		WayID:      victim.WayID,
		IsValid:    true,
		IsPrefetch: entry.IsPrefetch,
	}
	h.l2.Update(block)
	h.l2.Visit(block)
	h.installLLC(e.addr)
	h.stats.Fills++

	if h.prefetcher != nil {
		h.prefetcher.OnFill(
			h.cpu, e.addr, block.SetID, block.WayID, entry.IsPrefetch, evicted)
	}
}

func (h *Hierarchy) handleFarFill(e *farFillEvent) {
	delete(h.farInFlight, e.addr)
	h.installLLC(e.addr)
}

func (h *Hierarchy) installLLC(blockAddr uint64) {
	if _, hit := h.llc.Lookup(blockAddr); hit {
		return
	}

	victim := h.llc.FindVictim(blockAddr)
	block := Block{
		Tag:     blockAddr,
		SetID:   victim.SetID,
		WayID:   victim.WayID,
		IsValid: true,
	}
	h.llc.Update(block)
	h.llc.Visit(block)
}

// SetIndex returns the L2 set of addr.
func (h *Hierarchy) SetIndex(addr uint64) int {
	return h.l2.SetIndex(addr)
}

// WayIndex returns the L2 way of set that holds addr, or -1.
func (h *Hierarchy) WayIndex(_ int, addr uint64, set int) int {
	return h.l2.WayIndex(addr, set)
}

// MSHROccupancy returns the number of L2 MSHR entries in use.
func (h *Hierarchy) MSHROccupancy(_ int) int {
	return h.mshr.Occupancy()
}

// IssuePrefetch starts a prefetch of target into the L2 or the LLC. L2
// prefetches are rejected when the line is already present or in flight, or
// when the MSHR is full.
func (h *Hierarchy) IssuePrefetch(
	_ int,
	_, target uint64,
	level prefetcher.FillLevel,
) bool {
	blockAddr := h.l2.BlockAddress(target)
	now := h.engine.CurrentTime()

	if level == prefetcher.FillFar {
		return h.prefetchFar(blockAddr, now)
	}

	_, hit := h.l2.Lookup(blockAddr)
	if hit || h.mshr.Lookup(blockAddr) {
		h.stats.RedundantPrefetches++
		return false
	}

	if h.mshr.IsFull() {
		h.stats.DroppedPrefetches++
		return false
	}

	h.stats.NearPrefetches++
	h.fetch(blockAddr, true, now)

	return true
}

func (h *Hierarchy) prefetchFar(blockAddr uint64, now sim.VTimeInCycle) bool {
	h.stats.FarPrefetches++

	if block, hit := h.llc.Lookup(blockAddr); hit {
		h.llc.Visit(block)
		return true
	}

	if h.farInFlight[blockAddr] {
		return true
	}

	h.farInFlight[blockAddr] = true
	h.engine.Schedule(&farFillEvent{
		EventBase: sim.NewEventBase(now+h.llcLatency+h.memLatency, h),
		addr:      blockAddr,
	})

	return true
}
