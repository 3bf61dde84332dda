package cachesim

// Stats are the counts of a hierarchy run.
type Stats struct {
	Accesses   uint64
	L2Hits     uint64
	L2Misses   uint64
	MSHRMerges uint64
	MSHRStalls uint64
	LLCHits    uint64
	LLCMisses  uint64
	Fills      uint64
	Evictions  uint64

	NearPrefetches      uint64
	FarPrefetches       uint64
	RedundantPrefetches uint64
	DroppedPrefetches   uint64

	// PrefetchHits counts first demand hits on prefetched L2 lines;
	// UselessPrefetches counts prefetched lines evicted before any.
	PrefetchHits      uint64
	UselessPrefetches uint64

	// DemandLatency is the sum of the demand latencies in cycles.
	DemandLatency uint64
	Cycles        uint64
}

// L2MissRate returns the fraction of demand accesses that missed the L2.
func (s Stats) L2MissRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.L2Misses) / float64(s.Accesses)
}

// AverageDemandLatency returns the mean demand latency in cycles.
func (s Stats) AverageDemandLatency() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.DemandLatency) / float64(s.Accesses)
}
