package cachesim

// A Block of a cache is the information that is associated with a cache line.
type Block struct {
	Tag        uint64
	SetID      int
	WayID      int
	IsValid    bool
	IsPrefetch bool
}

// A Set is a list of blocks where a certain piece of memory can be stored at.
type Set struct {
	Blocks   []Block
	LRUQueue []int
}

// TagArray keeps the tags of a set-associative cache. Tags are line-aligned
// addresses.
type TagArray struct {
	NumSets   int
	NumWays   int
	BlockSize int
	Sets      []Set
}

// NewTagArray creates an empty tag array.
func NewTagArray(numSets, numWays, blockSize int) *TagArray {
	t := &TagArray{
		NumSets:   numSets,
		NumWays:   numWays,
		BlockSize: blockSize,
	}

	t.Reset()

	return t
}

// TotalSize returns the maximum number of bytes can be stored in the cache.
func (t *TagArray) TotalSize() uint64 {
	return uint64(t.NumSets) * uint64(t.NumWays) * uint64(t.BlockSize)
}

// NumLines returns the number of blocks of the cache.
func (t *TagArray) NumLines() int {
	return t.NumSets * t.NumWays
}

// BlockAddress aligns addr to the block size.
func (t *TagArray) BlockAddress(addr uint64) uint64 {
	return addr / uint64(t.BlockSize) * uint64(t.BlockSize)
}

// SetIndex returns the set that addr maps to.
func (t *TagArray) SetIndex(addr uint64) int {
	return int(addr / uint64(t.BlockSize) % uint64(t.NumSets))
}

// GetSet returns the set that addr maps to.
func (t *TagArray) GetSet(addr uint64) (set *Set, setID int) {
	setID = t.SetIndex(addr)
	set = &t.Sets[setID]

	return set, setID
}

// Lookup finds the valid block that holds addr.
func (t *TagArray) Lookup(addr uint64) (Block, bool) {
	tag := t.BlockAddress(addr)
	set, _ := t.GetSet(addr)

	for _, block := range set.Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

// WayIndex returns the way of set that holds addr, or -1.
func (t *TagArray) WayIndex(addr uint64, set int) int {
	if set < 0 || set >= t.NumSets {
		return -1
	}

	tag := t.BlockAddress(addr)
	for _, block := range t.Sets[set].Blocks {
		if block.IsValid && block.Tag == tag {
			return block.WayID
		}
	}

	return -1
}

// Update stores the block information.
func (t *TagArray) Update(block Block) {
	t.Sets[block.SetID].Blocks[block.WayID] = block
}

// Visit moves the block to the end of the LRU queue.
func (t *TagArray) Visit(block Block) {
	set := &t.Sets[block.SetID]
	newLRUQueue := make([]int, 0, len(set.LRUQueue))

	for _, b := range set.LRUQueue {
		if b != block.WayID {
			newLRUQueue = append(newLRUQueue, b)
		}
	}

	newLRUQueue = append(newLRUQueue, block.WayID)

	set.LRUQueue = newLRUQueue
}

// FindVictim returns the block that a fill of addr replaces: an invalid block
// if there is one, otherwise the least recently used block.
func (t *TagArray) FindVictim(addr uint64) Block {
	set, _ := t.GetSet(addr)

	for _, blockIndex := range set.LRUQueue {
		block := set.Blocks[blockIndex]
		if !block.IsValid {
			return block
		}
	}

	return set.Blocks[set.LRUQueue[0]]
}

// Reset marks all the blocks invalid.
func (t *TagArray) Reset() {
	t.Sets = make([]Set, t.NumSets)
	for i := 0; i < t.NumSets; i++ {
		for j := 0; j < t.NumWays; j++ {
			block := Block{
				IsValid: false,
				SetID:   i,
				WayID:   j,
			}

			t.Sets[i].Blocks = append(t.Sets[i].Blocks, block)
			t.Sets[i].LRUQueue = append(t.Sets[i].LRUQueue, j)
		}
	}
}
