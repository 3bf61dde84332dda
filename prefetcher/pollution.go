package prefetcher

const pollutionFilterSize = 4096

// Fingerprint folds an address into a pollution-filter index by XOR-ing its
// low 12 bits with the next 12 bits. Different addresses may share a
// fingerprint.
func Fingerprint(addr uint64) uint16 {
	return uint16((addr & 0xfff) ^ ((addr >> 12) & 0xfff))
}

// PollutionFilter remembers, approximately, which lines were evicted from
// the cache to make room for a prefetch.
type PollutionFilter struct {
	bits [pollutionFilterSize / 64]uint64
}

// MarkPolluting records that addr was evicted by a prefetch.
func (f *PollutionFilter) MarkPolluting(addr uint64) {
	fp := Fingerprint(addr)
	f.bits[fp/64] |= 1 << (fp % 64)
}

// Clear forgets addr.
func (f *PollutionFilter) Clear(addr uint64) {
	fp := Fingerprint(addr)
	f.bits[fp/64] &^= 1 << (fp % 64)
}

// Query tells if addr, or an address sharing its fingerprint, is marked.
func (f *PollutionFilter) Query(addr uint64) bool {
	fp := Fingerprint(addr)
	return f.bits[fp/64]&(1<<(fp%64)) != 0
}

// Count returns the number of marked fingerprints.
func (f *PollutionFilter) Count() int {
	n := 0
	for _, w := range f.bits {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}

	return n
}

// Reset clears all the bits.
func (f *PollutionFilter) Reset() {
	f.bits = [pollutionFilterSize / 64]uint64{}
}
