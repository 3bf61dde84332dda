package prefetcher

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OwnershipTable", func() {
	var t *OwnershipTable

	BeforeEach(func() {
		t = NewOwnershipTable(4, 2)
	})

	It("should track each line separately", func() {
		Expect(t.NumLines()).To(Equal(8))

		t.MarkPrefetched(1, 1)
		Expect(t.IsPrefetched(1, 1)).To(BeTrue())
		Expect(t.IsPrefetched(1, 0)).To(BeFalse())
		Expect(t.IsPrefetched(2, 1)).To(BeFalse())
		Expect(t.Count()).To(Equal(1))

		t.Clear(1, 1)
		Expect(t.IsPrefetched(1, 1)).To(BeFalse())
	})

	It("should ignore positions outside the cache", func() {
		t.MarkPrefetched(4, 0)
		t.MarkPrefetched(0, -1)

		Expect(t.Count()).To(Equal(0))
		Expect(t.IsPrefetched(-1, 0)).To(BeFalse())
	})

	It("should reset", func() {
		t.MarkPrefetched(0, 0)
		t.MarkPrefetched(3, 1)
		t.Reset()

		Expect(t.Count()).To(Equal(0))
	})
})
