package prefetcher

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func record(s *FeedbackState, c Counters) {
	for i := uint64(0); i < c.Issued; i++ {
		s.RecordIssued()
	}
	for i := uint64(0); i < c.Used; i++ {
		s.RecordUsed()
	}
	for i := uint64(0); i < c.Late; i++ {
		s.RecordLate()
	}
	for i := uint64(0); i < c.Polluting; i++ {
		s.RecordPolluting()
	}
	for i := uint64(0); i < c.Demand; i++ {
		s.RecordDemand()
	}
}

func evict(s *FeedbackState, n int) (recs []FoldRecord) {
	for i := 0; i < n; i++ {
		if rec, folded := s.RecordEviction(); folded {
			recs = append(recs, rec)
		}
	}

	return recs
}

var _ = Describe("Level", func() {
	DescribeTable("operating points",
		func(l Level, window, degree int) {
			Expect(l.StreamWindow()).To(Equal(window))
			Expect(l.PrefetchDegree()).To(Equal(degree))
		},
		Entry("very conservative", Level(1), 4, 1),
		Entry("conservative", Level(2), 8, 1),
		Entry("middle", Level(3), 16, 2),
		Entry("aggressive", Level(4), 32, 4),
		Entry("very aggressive", Level(5), 64, 4),
	)
})

var _ = Describe("Decide", func() {
	th := DefaultThresholds()

	DescribeTable("decision table",
		func(acc, late, poll float64, step int) {
			r := Ratios{Accuracy: acc, Lateness: late, Pollution: poll}
			Expect(Decide(r, th)).To(Equal(step))
		},
		Entry("high, late", 0.80, 0.02, 0.5, +1),
		Entry("high, on time, polluting", 0.80, 0.01, 0.006, -1),
		Entry("high, on time, clean", 0.80, 0.0, 0.005, 0),
		Entry("high at the boundary", 0.75, 0.02, 0.0, +1),
		Entry("mid, late, polluting", 0.50, 0.02, 0.006, -1),
		Entry("mid, late, clean", 0.50, 0.02, 0.001, +1),
		Entry("mid, on time, polluting", 0.50, 0.001, 0.006, -1),
		Entry("mid, on time, clean", 0.50, 0.001, 0.001, 0),
		Entry("mid at the boundary", 0.40, 0.02, 0.0, +1),
		Entry("low, late", 0.30, 0.02, 0.0, -1),
		Entry("low, on time, polluting", 0.30, 0.0, 0.006, -1),
		Entry("low, on time, clean", 0.30, 0.0, 0.0, 0),
	)
})

var _ = Describe("FeedbackState", func() {
	var s *FeedbackState

	BeforeEach(func() {
		s = NewFeedbackState(2048, DefaultThresholds())
	})

	It("should start at the default level", func() {
		Expect(s.Level()).To(Equal(DefaultLevel))
		Expect(s.StreamWindow()).To(Equal(16))
		Expect(s.PrefetchDegree()).To(Equal(2))
	})

	It("should fold only when evictions exceed the threshold", func() {
		Expect(evict(s, 2048)).To(BeEmpty())
		Expect(s.Evictions()).To(Equal(uint64(2048)))

		recs := evict(s, 1)
		Expect(recs).To(HaveLen(1))
		Expect(s.Evictions()).To(Equal(uint64(0)))
		Expect(s.Folds()).To(Equal(uint64(1)))
	})

	It("should step up on accurate but late prefetching", func() {
		record(s, Counters{
			Issued: 1000, Used: 800, Late: 16, Polluting: 1, Demand: 1000,
		})

		recs := evict(s, 2049)

		Expect(recs).To(HaveLen(1))
		rec := recs[0]
		Expect(rec.Ratios.Accuracy).To(BeNumerically("~", 0.80, 1e-9))
		Expect(rec.Ratios.Lateness).To(BeNumerically("~", 0.02, 1e-9))
		Expect(rec.Ratios.Pollution).To(BeNumerically("<=", 0.001))
		Expect(rec.LevelBefore).To(Equal(Level(3)))
		Expect(rec.LevelAfter).To(Equal(Level(4)))
		Expect(s.StreamWindow()).To(Equal(32))
		Expect(s.PrefetchDegree()).To(Equal(4))
	})

	It("should decay totals and clear the interval", func() {
		record(s, Counters{Issued: 101, Used: 51, Late: 3, Polluting: 7, Demand: 9})
		evict(s, 2049)

		Expect(s.Total()).To(Equal(Counters{
			Issued: 50, Used: 25, Late: 1, Polluting: 3, Demand: 4,
		}))
		Expect(s.Interval()).To(Equal(Counters{}))

		record(s, Counters{Issued: 10, Used: 10, Late: 0, Polluting: 1, Demand: 2})
		evict(s, 2049)

		Expect(s.Total()).To(Equal(Counters{
			Issued: 30, Used: 17, Late: 0, Polluting: 1, Demand: 3,
		}))
	})

	It("should keep ratios whose denominator is zero", func() {
		record(s, Counters{Issued: 2, Used: 2, Demand: 2})
		evict(s, 2049)
		before := s.Ratios()
		Expect(before.Accuracy).To(Equal(1.0))

		evict(s, 2049)

		Expect(s.Total()).To(Equal(Counters{}))
		Expect(s.Ratios()).To(Equal(before))
		Expect(s.Level()).To(Equal(DefaultLevel))
	})

	It("should not go above the highest level", func() {
		for i := 0; i < 5; i++ {
			record(s, Counters{Issued: 100, Used: 100, Late: 50, Demand: 100})
			evict(s, 2049)
		}

		Expect(s.Level()).To(Equal(MaxLevel))
		Expect(s.StreamWindow()).To(Equal(64))
	})

	It("should not go below the lowest level", func() {
		for i := 0; i < 5; i++ {
			record(s, Counters{Issued: 100, Used: 10, Late: 10, Demand: 100})
			evict(s, 2049)
		}

		Expect(s.Level()).To(Equal(MinLevel))
		Expect(s.StreamWindow()).To(Equal(4))
		Expect(s.PrefetchDegree()).To(Equal(1))
	})

	It("should reset", func() {
		record(s, Counters{Issued: 100, Used: 100, Late: 50, Demand: 100})
		evict(s, 2100)
		s.Reset()

		Expect(s.Level()).To(Equal(DefaultLevel))
		Expect(s.Total()).To(Equal(Counters{}))
		Expect(s.Evictions()).To(Equal(uint64(0)))
		Expect(s.Ratios()).To(Equal(Ratios{}))
	})
})
