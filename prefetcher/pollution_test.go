package prefetcher

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PollutionFilter", func() {
	var f *PollutionFilter

	BeforeEach(func() {
		f = &PollutionFilter{}
	})

	It("should fold the two low 12-bit halves", func() {
		Expect(Fingerprint(0x0)).To(Equal(uint16(0)))
		Expect(Fingerprint(0xabc)).To(Equal(uint16(0xabc)))
		Expect(Fingerprint(0x123456)).To(Equal(uint16(0x456 ^ 0x123)))
		Expect(Fingerprint(0xff_f000_0000)).To(Equal(uint16(0)))
	})

	It("should answer queries after marking and clearing", func() {
		Expect(f.Query(0x4_0040)).To(BeFalse())

		f.MarkPolluting(0x4_0040)
		Expect(f.Query(0x4_0040)).To(BeTrue())
		Expect(f.Count()).To(Equal(1))

		f.Clear(0x4_0040)
		Expect(f.Query(0x4_0040)).To(BeFalse())
		Expect(f.Count()).To(Equal(0))
	})

	It("should treat addresses with the same fingerprint as one", func() {
		a := uint64(0x1001)
		b := uint64(0x0)
		Expect(Fingerprint(a)).To(Equal(Fingerprint(b)))

		f.MarkPolluting(a)
		Expect(f.Query(b)).To(BeTrue())

		f.Clear(b)
		Expect(f.Query(a)).To(BeFalse())
	})

	It("should cover every fingerprint", func() {
		for i := uint64(0); i < pollutionFilterSize; i++ {
			f.MarkPolluting(i)
		}

		Expect(f.Count()).To(Equal(pollutionFilterSize))

		f.Reset()
		Expect(f.Count()).To(Equal(0))
	})
})
