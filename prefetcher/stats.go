package prefetcher

// Stats are lifetime counts of an engine. Unlike the feedback counters they
// are never decayed.
type Stats struct {
	Accesses   uint64
	Hits       uint64
	Misses     uint64
	Allocated  uint64
	Emitted    uint64
	NearIssued uint64
	NearDenied uint64
	FarIssued  uint64
	Untracked  uint64
	Useful     uint64
	Late       uint64
	Polluting  uint64
	Fills      uint64
	Folds      uint64

	// FoldsAtLevel counts folds by the level they ended at. Index 0 is unused.
	FoldsAtLevel [MaxLevel + 1]uint64
}

// Accuracy returns the lifetime fraction of near prefetches that were used.
func (s Stats) Accuracy() float64 {
	if s.NearIssued == 0 {
		return 0
	}

	return float64(s.Useful) / float64(s.NearIssued)
}

// Coverage returns the fraction of would-be misses that prefetches removed.
func (s Stats) Coverage() float64 {
	if s.Useful+s.Misses == 0 {
		return 0
	}

	return float64(s.Useful) / float64(s.Useful+s.Misses)
}

// FeedbackSnapshot is a copy of the controller state.
type FeedbackSnapshot struct {
	Level         Level
	StreamWindow  int
	Degree        int
	Ratios        Ratios
	Interval      Counters
	Total         Counters
	Evictions     uint64
	FoldThreshold uint64
}
