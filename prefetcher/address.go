package prefetcher

const (
	log2LineSize  = 6
	log2PageSize  = 12
	linesPerPage  = 1 << (log2PageSize - log2LineSize)
	inPageMask    = linesPerPage - 1
	lineAlignMask = ^uint64(1<<log2LineSize - 1)
)

func pageOf(addr uint64) uint64 {
	return addr >> log2PageSize
}

func lineInPage(addr uint64) int {
	return int((addr >> log2LineSize) & inPageMask)
}

func lineAddress(page uint64, line int) uint64 {
	return page<<log2PageSize | uint64(line)<<log2LineSize
}

func blockAddress(addr uint64) uint64 {
	return addr & lineAlignMask
}
