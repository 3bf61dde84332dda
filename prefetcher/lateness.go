package prefetcher

const latenessTrackerCapacity = 16

type pendingPrefetch struct {
	address    uint64
	isPrefetch bool
	valid      bool
}

// LatenessTracker follows the prefetches that were placed in the near cache
// until they are filled, so that a demand miss on a still-pending prefetch
// can be recognized as late.
//
// The table has a fixed capacity. Prefetches that arrive when it is full are
// not tracked.
type LatenessTracker struct {
	entries [latenessTrackerCapacity]pendingPrefetch
}

// RecordIssued stores addr in the first free slot. It returns false if the
// table is full and the prefetch is not tracked.
func (t *LatenessTracker) RecordIssued(addr uint64) bool {
	for i := range t.entries {
		e := &t.entries[i]
		if e.valid {
			continue
		}

		e.address = addr
		e.isPrefetch = true
		e.valid = true

		return true
	}

	return false
}

// CheckDemand is called on a demand miss. It consumes every pending
// prefetch of addr and reports whether there was any.
func (t *LatenessTracker) CheckDemand(addr uint64) bool {
	late := false

	for i := range t.entries {
		e := &t.entries[i]
		if e.valid && e.isPrefetch && e.address == addr {
			e.isPrefetch = false
			late = true
		}
	}

	return late
}

// InvalidateOnFill frees all the slots of addr.
func (t *LatenessTracker) InvalidateOnFill(addr uint64) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.valid && e.address == addr {
			e.valid = false
			e.isPrefetch = false
		}
	}
}

// Occupancy returns the number of valid slots.
func (t *LatenessTracker) Occupancy() int {
	n := 0
	for _, e := range t.entries {
		if e.valid {
			n++
		}
	}

	return n
}

// Reset empties the table.
func (t *LatenessTracker) Reset() {
	t.entries = [latenessTrackerCapacity]pendingPrefetch{}
}
