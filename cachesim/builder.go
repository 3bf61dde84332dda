package cachesim

import (
	"github.com/sarchlab/fdprefetch/sim"
)

// Builder can build cache hierarchies.
type Builder struct {
	engine sim.Engine
	cpu    int

	log2CacheLineSize int
	l2ByteSize        uint64
	l2Ways            int
	llcByteSize       uint64
	llcWays           int
	mshrCapacity      int

	l2Latency     sim.VTimeInCycle
	llcLatency    sim.VTimeInCycle
	memLatency    sim.VTimeInCycle
	issueInterval sim.VTimeInCycle
}

// MakeBuilder creates a builder with a 256 KB 8-way L2 (512 sets), a 2 MB
// 16-way LLC and a 16-entry L2 MSHR.
func MakeBuilder() Builder {
	return Builder{
		log2CacheLineSize: 6,
		l2ByteSize:        256 * 1024,
		l2Ways:            8,
		llcByteSize:       2 * 1024 * 1024,
		llcWays:           16,
		mshrCapacity:      16,
		l2Latency:         10,
		llcLatency:        20,
		memLatency:        200,
		issueInterval:     1,
	}
}

// WithEngine sets the engine that the hierarchy schedules its events on.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithCPU sets the core that issues the demand accesses.
func (b Builder) WithCPU(cpu int) Builder {
	b.cpu = cpu
	return b
}

// WithLog2CacheLineSize sets the log2 of the cache line size.
func (b Builder) WithLog2CacheLineSize(n int) Builder {
	b.log2CacheLineSize = n
	return b
}

// WithL2 sets the size and the associativity of the near cache.
func (b Builder) WithL2(byteSize uint64, ways int) Builder {
	b.l2ByteSize = byteSize
	b.l2Ways = ways

	return b
}

// WithLLC sets the size and the associativity of the far cache.
func (b Builder) WithLLC(byteSize uint64, ways int) Builder {
	b.llcByteSize = byteSize
	b.llcWays = ways

	return b
}

// WithMSHRCapacity sets the number of L2 MSHR entries.
func (b Builder) WithMSHRCapacity(n int) Builder {
	b.mshrCapacity = n
	return b
}

// WithLatencies sets the access latencies of the L2, the LLC and the memory.
func (b Builder) WithLatencies(l2, llc, mem sim.VTimeInCycle) Builder {
	b.l2Latency = l2
	b.llcLatency = llc
	b.memLatency = mem

	return b
}

// WithIssueInterval sets the number of cycles between two demand accesses.
func (b Builder) WithIssueInterval(n sim.VTimeInCycle) Builder {
	b.issueInterval = n
	return b
}

// Build creates a hierarchy without a prefetcher.
func (b Builder) Build(name string) *Hierarchy {
	b.mustHaveEngine()
	b.mustHaveMSHR()

	blockSize := 1 << b.log2CacheLineSize
	b.mustBeFullSets(b.l2ByteSize, blockSize, b.l2Ways)
	b.mustBeFullSets(b.llcByteSize, blockSize, b.llcWays)

	h := &Hierarchy{
		name:          name,
		cpu:           b.cpu,
		engine:        b.engine,
		l2:            b.newTags(b.l2ByteSize, b.l2Ways, blockSize),
		llc:           b.newTags(b.llcByteSize, b.llcWays, blockSize),
		mshr:          NewMSHR(b.mshrCapacity),
		l2Latency:     b.l2Latency,
		llcLatency:    b.llcLatency,
		memLatency:    b.memLatency,
		issueInterval: b.issueInterval,
		farInFlight:   make(map[uint64]bool),
	}

	return h
}

func (b Builder) newTags(byteSize uint64, ways, blockSize int) *TagArray {
	numSets := int(byteSize / uint64(blockSize*ways))
	return NewTagArray(numSets, ways, blockSize)
}

func (b Builder) mustHaveEngine() {
	if b.engine == nil {
		panic("cache hierarchy requires an engine")
	}
}

func (b Builder) mustHaveMSHR() {
	if b.mshrCapacity <= 0 {
		panic("cache hierarchy requires at least one MSHR entry")
	}
}

func (b Builder) mustBeFullSets(cacheByteSize uint64, blockSize, numWays int) {
	if numWays <= 0 {
		panic("cache must have at least one way")
	}

	setSize := uint64(blockSize * numWays)
	if cacheByteSize == 0 || cacheByteSize%setSize != 0 {
		panic("cache must have a integer number of sets")
	}
}
