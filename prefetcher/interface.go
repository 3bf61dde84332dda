// Package prefetcher implements a feedback-directed stream prefetcher.
//
// The prefetcher watches the demand accesses that reach a mid-level cache,
// detects linear access streams within 4 KB pages, and requests the lines
// ahead of each stream. Eviction events feed an accuracy / lateness /
// pollution controller that picks one of five aggressiveness levels.
package prefetcher

// FillLevel tells the host which cache a prefetched line should be placed in.
type FillLevel int

// The two placement options. FillNear is the cache the prefetcher is attached
// to; FillFar is the last-level cache behind it.
const (
	FillNear FillLevel = iota
	FillFar
)

func (l FillLevel) String() string {
	switch l {
	case FillNear:
		return "near"
	case FillFar:
		return "far"
	default:
		return "unknown"
	}
}

// NoEviction is passed to OnFill as the evicted line when the fill took an
// empty way. It is not line aligned, so it never names a real line.
const NoEviction = ^uint64(0)

// Host is the cache hierarchy that the prefetcher is attached to.
type Host interface {
	// SetIndex returns the set that addr maps to in the near cache.
	SetIndex(addr uint64) int

	// WayIndex returns the way that holds addr in the given set, or -1 if the
	// line is not resident.
	WayIndex(cpu int, addr uint64, set int) int

	// MSHROccupancy returns the number of in-flight misses of the near cache.
	MSHROccupancy(cpu int) int

	// IssuePrefetch asks the host to bring target into the given level. It
	// returns false if the request is dropped.
	IssuePrefetch(cpu int, trigger, target uint64, level FillLevel) bool
}

// Request describes a prefetch that the engine handed to the host.
type Request struct {
	Trigger  uint64
	Target   uint64
	Level    FillLevel
	Accepted bool
}
