package cachesim

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/fdprefetch/prefetcher"
	"github.com/sarchlab/fdprefetch/sim"
	"github.com/sarchlab/fdprefetch/trace"
)

type failingReader struct{}

func (failingReader) Next() (trace.Record, error) {
	return trace.Record{}, errors.New("disk on fire")
}

type accessCounter struct {
	n int
}

func (c *accessCounter) Func(ctx sim.HookCtx) {
	if ctx.Pos == HookPosAccessDone {
		c.n++
	}
}

var _ = Describe("Hierarchy", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *sim.SerialEngine
		pf       *MockPrefetcher
		h        *Hierarchy
	)

	records := func(recs ...trace.Record) trace.Reader {
		return trace.NewSliceReader(recs)
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		pf = NewMockPrefetcher(mockCtrl)
		h = MakeBuilder().
			WithEngine(engine).
			WithL2(256, 2).
			WithLLC(1024, 4).
			WithMSHRCapacity(2).
			WithLatencies(10, 20, 100).
			Build("Cache")
		h.SetPrefetcher(pf)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic without an engine", func() {
		Expect(func() { MakeBuilder().Build("Cache") }).To(Panic())
	})

	It("should panic on partial sets", func() {
		Expect(func() {
			MakeBuilder().WithEngine(engine).WithL2(100, 2).Build("Cache")
		}).To(Panic())
	})

	It("should report a miss and its fill", func() {
		gomock.InOrder(
			pf.EXPECT().OnAccess(0, uint64(0x1000), uint64(0x40), false),
			pf.EXPECT().OnFill(0, uint64(0x1000), 0, 0, false, prefetcher.NoEviction),
		)

		err := h.Run(context.Background(),
			records(trace.Record{Address: 0x1000, IP: 0x40}))

		Expect(err).To(BeNil())
		stats := h.Stats()
		Expect(stats.Accesses).To(Equal(uint64(1)))
		Expect(stats.L2Misses).To(Equal(uint64(1)))
		Expect(stats.LLCMisses).To(Equal(uint64(1)))
		Expect(stats.Fills).To(Equal(uint64(1)))
		Expect(stats.DemandLatency).To(Equal(uint64(130)))
		Expect(stats.Cycles).To(Equal(uint64(130)))
		Expect(h.MSHR().Occupancy()).To(Equal(0))
	})

	It("should hit after the fill", func() {
		gomock.InOrder(
			pf.EXPECT().OnAccess(0, uint64(0x1000), uint64(0), false),
			pf.EXPECT().OnFill(0, uint64(0x1000), 0, 0, false, prefetcher.NoEviction),
			pf.EXPECT().OnAccess(0, uint64(0x1010), uint64(0), true),
		)

		err := h.Run(context.Background(), records(
			trace.Record{Address: 0x1000},
			trace.Record{Cycle: 200, Address: 0x1010},
		))

		Expect(err).To(BeNil())
		Expect(h.Stats().L2Hits).To(Equal(uint64(1)))
		Expect(h.Stats().DemandLatency).To(Equal(uint64(140)))
		Expect(h.Stats().AverageDemandLatency()).To(Equal(70.0))
		Expect(h.Stats().L2MissRate()).To(Equal(0.5))
	})

	It("should merge a demand into an in-flight entry", func() {
		pf.EXPECT().OnAccess(0, gomock.Any(), gomock.Any(), false).Times(2)
		pf.EXPECT().OnFill(0, uint64(0x1000), 0, 0, false, prefetcher.NoEviction)

		err := h.Run(context.Background(), records(
			trace.Record{Address: 0x1000},
			trace.Record{Address: 0x1008},
		))

		Expect(err).To(BeNil())
		Expect(h.Stats().MSHRMerges).To(Equal(uint64(1)))
		Expect(h.Stats().Fills).To(Equal(uint64(1)))
		Expect(h.Stats().DemandLatency).To(Equal(uint64(130 + 129)))
	})

	It("should stall demand accesses while the MSHR is full", func() {
		h.SetPrefetcher(nil)

		err := h.Run(context.Background(), records(
			trace.Record{Address: 0x1000},
			trace.Record{Address: 0x2000},
			trace.Record{Address: 0x3000},
		))

		Expect(err).To(BeNil())
		Expect(h.Stats().MSHRStalls).To(Equal(uint64(128)))
		Expect(h.Stats().Accesses).To(Equal(uint64(3)))
		Expect(h.Stats().Fills).To(Equal(uint64(3)))
	})

	It("should fill near prefetches as prefetches", func() {
		pf.EXPECT().
			OnAccess(0, uint64(0x1000), gomock.Any(), false).
			Do(func(cpu int, addr, ip uint64, hit bool) {
				Expect(h.MSHROccupancy(cpu)).To(Equal(1))
				Expect(h.IssuePrefetch(cpu, addr, 0x1000, prefetcher.FillNear)).
					To(BeFalse())
				Expect(h.IssuePrefetch(cpu, addr, 0x1040, prefetcher.FillNear)).
					To(BeTrue())
				Expect(h.IssuePrefetch(cpu, addr, 0x1080, prefetcher.FillNear)).
					To(BeFalse())
			})
		gomock.InOrder(
			pf.EXPECT().OnFill(0, uint64(0x1000), 0, 0, false, prefetcher.NoEviction),
			pf.EXPECT().OnFill(0, uint64(0x1040), 1, 0, true, prefetcher.NoEviction),
		)

		err := h.Run(context.Background(), records(trace.Record{Address: 0x1000}))

		Expect(err).To(BeNil())
		Expect(h.Stats().NearPrefetches).To(Equal(uint64(1)))
		Expect(h.Stats().RedundantPrefetches).To(Equal(uint64(1)))
		Expect(h.Stats().DroppedPrefetches).To(Equal(uint64(1)))

		block, found := h.L2().Lookup(0x1040)
		Expect(found).To(BeTrue())
		Expect(block.IsPrefetch).To(BeTrue())
	})

	It("should count the first hit on a prefetched line", func() {
		pf.EXPECT().
			OnAccess(0, uint64(0x1000), gomock.Any(), false).
			Do(func(cpu int, addr, ip uint64, hit bool) {
				h.IssuePrefetch(cpu, addr, 0x1040, prefetcher.FillNear)
			})
		pf.EXPECT().OnFill(0, gomock.Any(), gomock.Any(), 0, gomock.Any(),
			prefetcher.NoEviction).Times(2)
		pf.EXPECT().OnAccess(0, uint64(0x1040), gomock.Any(), true)
		pf.EXPECT().OnAccess(0, uint64(0x1044), gomock.Any(), true)

		err := h.Run(context.Background(), records(
			trace.Record{Address: 0x1000},
			trace.Record{Cycle: 300, Address: 0x1040},
			trace.Record{Address: 0x1044},
		))

		Expect(err).To(BeNil())
		Expect(h.Stats().PrefetchHits).To(Equal(uint64(1)))
	})

	It("should keep far prefetches out of the L2", func() {
		pf.EXPECT().
			OnAccess(0, uint64(0x1000), gomock.Any(), false).
			Do(func(cpu int, addr, ip uint64, hit bool) {
				Expect(h.IssuePrefetch(cpu, addr, 0x1040, prefetcher.FillFar)).
					To(BeTrue())
				Expect(h.IssuePrefetch(cpu, addr, 0x1040, prefetcher.FillFar)).
					To(BeTrue())
				Expect(h.MSHROccupancy(cpu)).To(Equal(1))
			})
		pf.EXPECT().OnFill(0, uint64(0x1000), 0, 0, false, prefetcher.NoEviction)

		err := h.Run(context.Background(), records(trace.Record{Address: 0x1000}))

		Expect(err).To(BeNil())
		Expect(h.Stats().FarPrefetches).To(Equal(uint64(2)))

		_, inL2 := h.L2().Lookup(0x1040)
		Expect(inL2).To(BeFalse())
		_, inLLC := h.LLC().Lookup(0x1040)
		Expect(inLLC).To(BeTrue())
	})

	It("should report the evicted line", func() {
		pf.EXPECT().OnAccess(0, gomock.Any(), gomock.Any(), false).Times(3)
		gomock.InOrder(
			pf.EXPECT().OnFill(0, uint64(0x1000), 0, 0, false, prefetcher.NoEviction),
			pf.EXPECT().OnFill(0, uint64(0x1080), 0, 1, false, prefetcher.NoEviction),
			pf.EXPECT().OnFill(0, uint64(0x1100), 0, 0, false, uint64(0x1000)),
		)

		err := h.Run(context.Background(), records(
			trace.Record{Address: 0x1000},
			trace.Record{Cycle: 200, Address: 0x1080},
			trace.Record{Cycle: 400, Address: 0x1100},
		))

		Expect(err).To(BeNil())
		Expect(h.Stats().Evictions).To(Equal(uint64(1)))
		Expect(h.SetIndex(0x1080)).To(Equal(0))
		Expect(h.WayIndex(0, 0x1080, 0)).To(Equal(1))
		Expect(h.WayIndex(0, 0x1000, 0)).To(Equal(-1))
	})

	It("should invoke hooks after every access", func() {
		h.SetPrefetcher(nil)
		counter := &accessCounter{}
		h.AcceptHook(counter)

		err := h.Run(context.Background(), records(
			trace.Record{Address: 0x1000},
			trace.Record{Address: 0x1040},
		))

		Expect(err).To(BeNil())
		Expect(counter.n).To(Equal(2))
	})

	It("should stop when the context is canceled", func() {
		h.SetPrefetcher(nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := h.Run(ctx, records(trace.Record{Address: 0x1000}))

		Expect(err).To(MatchError(context.Canceled))
		Expect(h.Stats().Accesses).To(Equal(uint64(0)))
	})

	It("should return trace errors", func() {
		err := h.Run(context.Background(), failingReader{})

		Expect(err).To(MatchError(ContainSubstring("read trace")))
	})
})
