package prefetcher

import (
	"log"
)

// Builder can build prefetcher engines.
type Builder struct {
	cpu           int
	host          Host
	numSets       int
	numWays       int
	mshrThreshold int
	foldThreshold uint64
	thresholds    Thresholds
}

// MakeBuilder creates a builder with the default parameters: a 512-set,
// 8-way near cache (fold every 2048 evictions) and an MSHR threshold of 8.
func MakeBuilder() Builder {
	return Builder{
		numSets:       512,
		numWays:       8,
		mshrThreshold: 8,
		thresholds:    DefaultThresholds(),
	}
}

// WithCPU sets the core that the engine serves.
func (b Builder) WithCPU(cpu int) Builder {
	b.cpu = cpu
	return b
}

// WithHost sets the cache hierarchy that the engine talks to.
func (b Builder) WithHost(host Host) Builder {
	b.host = host
	return b
}

// WithNumSets sets the number of sets of the near cache.
func (b Builder) WithNumSets(n int) Builder {
	b.numSets = n
	return b
}

// WithNumWays sets the associativity of the near cache.
func (b Builder) WithNumWays(n int) Builder {
	b.numWays = n
	return b
}

// WithMSHRThreshold sets the MSHR occupancy above which prefetches go to the
// far cache.
func (b Builder) WithMSHRThreshold(n int) Builder {
	b.mshrThreshold = n
	return b
}

// WithFoldThreshold overrides the number of evictions per interval. By
// default it is half the number of lines in the near cache.
func (b Builder) WithFoldThreshold(n uint64) Builder {
	b.foldThreshold = n
	return b
}

// WithThresholds sets the controller thresholds.
func (b Builder) WithThresholds(th Thresholds) Builder {
	b.thresholds = th
	return b
}

// Build creates an initialized engine.
func (b Builder) Build(name string) *Engine {
	b.mustHaveHost()
	b.mustHaveValidGeometry()
	b.mustHaveValidThresholds()

	foldThreshold := b.foldThreshold
	if foldThreshold == 0 {
		foldThreshold = uint64(b.numSets*b.numWays) / 2
	}

	e := &Engine{
		name:          name,
		host:          b.host,
		mshrThreshold: b.mshrThreshold,
		ownership:     NewOwnershipTable(b.numSets, b.numWays),
		feedback:      NewFeedbackState(foldThreshold, b.thresholds),
	}
	e.streams = NewStreamTable(e.feedback)
	e.Initialize(b.cpu)

	return e
}

func (b Builder) mustHaveHost() {
	if b.host == nil {
		log.Panic("prefetcher requires a host")
	}
}

func (b Builder) mustHaveValidGeometry() {
	if b.numSets <= 0 || b.numWays <= 0 {
		log.Panicf("invalid cache geometry %d x %d", b.numSets, b.numWays)
	}
}

func (b Builder) mustHaveValidThresholds() {
	th := b.thresholds
	if th.AccuracyLow > th.AccuracyHigh {
		log.Panicf(
			"low accuracy threshold %.3f above high threshold %.3f",
			th.AccuracyLow, th.AccuracyHigh,
		)
	}
}
