package prefetcher

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LatenessTracker", func() {
	var t *LatenessTracker

	BeforeEach(func() {
		t = &LatenessTracker{}
	})

	It("should report a demand on a pending prefetch as late once", func() {
		Expect(t.RecordIssued(0x1000)).To(BeTrue())

		Expect(t.CheckDemand(0x1000)).To(BeTrue())
		Expect(t.CheckDemand(0x1000)).To(BeFalse())
	})

	It("should not report other addresses", func() {
		t.RecordIssued(0x1000)

		Expect(t.CheckDemand(0x1040)).To(BeFalse())
		Expect(t.CheckDemand(0x1000)).To(BeTrue())
	})

	It("should keep a consumed entry until the fill", func() {
		t.RecordIssued(0x1000)
		t.CheckDemand(0x1000)
		Expect(t.Occupancy()).To(Equal(1))

		t.InvalidateOnFill(0x1000)
		Expect(t.Occupancy()).To(Equal(0))
	})

	It("should not report a prefetch that was already filled", func() {
		t.RecordIssued(0x1000)
		t.InvalidateOnFill(0x1000)

		Expect(t.CheckDemand(0x1000)).To(BeFalse())
	})

	It("should drop prefetches when full", func() {
		for i := 0; i < latenessTrackerCapacity; i++ {
			Expect(t.RecordIssued(uint64(i) << 6)).To(BeTrue())
		}

		Expect(t.RecordIssued(0x10000)).To(BeFalse())
		Expect(t.CheckDemand(0x10000)).To(BeFalse())
		Expect(t.Occupancy()).To(Equal(latenessTrackerCapacity))
	})

	It("should reuse the first free slot", func() {
		for i := 0; i < latenessTrackerCapacity; i++ {
			t.RecordIssued(uint64(i) << 6)
		}

		t.InvalidateOnFill(3 << 6)
		Expect(t.RecordIssued(0x10000)).To(BeTrue())
		Expect(t.entries[3].address).To(Equal(uint64(0x10000)))
	})

	It("should reset", func() {
		t.RecordIssued(0x1000)
		t.Reset()

		Expect(t.Occupancy()).To(Equal(0))
		Expect(t.CheckDemand(0x1000)).To(BeFalse())
	})
})
