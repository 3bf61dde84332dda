package prefetcher

// OwnershipTable has one bit per line of the near cache. A set bit means the
// line was installed by a prefetch and no demand access has touched it yet.
type OwnershipTable struct {
	numSets int
	numWays int
	bits    []bool
}

// NewOwnershipTable creates a table shaped like a numSets x numWays cache.
func NewOwnershipTable(numSets, numWays int) *OwnershipTable {
	return &OwnershipTable{
		numSets: numSets,
		numWays: numWays,
		bits:    make([]bool, numSets*numWays),
	}
}

// NumLines returns the number of lines the table covers.
func (t *OwnershipTable) NumLines() int {
	return t.numSets * t.numWays
}

func (t *OwnershipTable) index(set, way int) (int, bool) {
	if set < 0 || set >= t.numSets || way < 0 || way >= t.numWays {
		return 0, false
	}

	return set*t.numWays + way, true
}

// IsPrefetched returns the bit of a line. Out-of-range positions read as
// false.
func (t *OwnershipTable) IsPrefetched(set, way int) bool {
	i, ok := t.index(set, way)
	return ok && t.bits[i]
}

// MarkPrefetched sets the bit of a line.
func (t *OwnershipTable) MarkPrefetched(set, way int) {
	if i, ok := t.index(set, way); ok {
		t.bits[i] = true
	}
}

// Clear resets the bit of a line.
func (t *OwnershipTable) Clear(set, way int) {
	if i, ok := t.index(set, way); ok {
		t.bits[i] = false
	}
}

// Count returns the number of set bits.
func (t *OwnershipTable) Count() int {
	n := 0
	for _, b := range t.bits {
		if b {
			n++
		}
	}

	return n
}

// Reset clears all the bits.
func (t *OwnershipTable) Reset() {
	clear(t.bits)
}
