package cachesim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TagArray", func() {
	var (
		tags *TagArray
	)

	BeforeEach(func() {
		tags = NewTagArray(1024, 4, 64)
	})

	It("should be able to get total size", func() {
		Expect(tags.TotalSize()).To(Equal(uint64(262144)))
		Expect(tags.NumLines()).To(Equal(4096))
	})

	It("should map addresses to sets", func() {
		Expect(tags.SetIndex(0x100)).To(Equal(4))
		Expect(tags.SetIndex(0x13f)).To(Equal(4))
		Expect(tags.SetIndex(0x10100)).To(Equal(4))
		Expect(tags.BlockAddress(0x13f)).To(Equal(uint64(0x100)))
	})

	It("should lookup", func() {
		set, setID := tags.GetSet(0x100)
		set.Blocks[2] = Block{
			Tag:     0x100,
			SetID:   setID,
			WayID:   2,
			IsValid: true,
		}

		block, ok := tags.Lookup(0x120)
		Expect(ok).To(BeTrue())
		Expect(block.WayID).To(Equal(2))
		Expect(tags.WayIndex(0x120, setID)).To(Equal(2))
	})

	It("should not find invalid blocks", func() {
		set, setID := tags.GetSet(0x100)
		set.Blocks[0] = Block{Tag: 0x100, SetID: setID}

		block, ok := tags.Lookup(0x100)
		Expect(ok).To(BeFalse())
		Expect(block).To(BeZero())
		Expect(tags.WayIndex(0x100, setID)).To(Equal(-1))
		Expect(tags.WayIndex(0x100, -1)).To(Equal(-1))
	})

	It("should update LRU queue when visiting a block", func() {
		set, _ := tags.GetSet(0x100)

		tags.Visit(set.Blocks[1])

		Expect(set.LRUQueue).To(Equal([]int{0, 2, 3, 1}))
	})

	It("should pick an invalid block as victim first", func() {
		set, setID := tags.GetSet(0x100)
		for way := 0; way < 4; way++ {
			if way == 2 {
				continue
			}

			tags.Update(Block{
				Tag: uint64(0x100 + way*0x10000), SetID: setID, WayID: way,
				IsValid: true,
			})
		}

		Expect(tags.FindVictim(0x100).WayID).To(Equal(2))
		Expect(set.Blocks[2].IsValid).To(BeFalse())
	})

	It("should pick the least recently used block as victim", func() {
		set, setID := tags.GetSet(0x100)
		for way := 0; way < 4; way++ {
			tags.Update(Block{
				Tag: uint64(0x100 + way*0x10000), SetID: setID, WayID: way,
				IsValid: true,
			})
		}

		tags.Visit(set.Blocks[0])
		tags.Visit(set.Blocks[1])

		Expect(tags.FindVictim(0x100).WayID).To(Equal(2))
	})

	It("should reset", func() {
		set, setID := tags.GetSet(0x100)
		tags.Update(Block{Tag: 0x100, SetID: setID, WayID: 1, IsValid: true})
		tags.Visit(set.Blocks[1])

		tags.Reset()

		_, ok := tags.Lookup(0x100)
		Expect(ok).To(BeFalse())
		set, _ = tags.GetSet(0x100)
		Expect(set.LRUQueue).To(Equal([]int{0, 1, 2, 3}))
	})
})
