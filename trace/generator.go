package trace

import (
	"io"
	"math/rand"
)

const (
	streamIP = 0x400000
	randomIP = 0x500000

	// regionSize separates the streams of a Mixed generator.
	regionSize = 1 << 24
	lineSize   = 64
)

// SliceReader returns the records of a slice in order.
type SliceReader struct {
	records []Record
	next    int
}

// NewSliceReader creates a reader over records.
func NewSliceReader(records []Record) *SliceReader {
	return &SliceReader{records: records}
}

// Next returns the next record.
func (r *SliceReader) Next() (Record, error) {
	if r.next >= len(r.records) {
		return Record{}, io.EOF
	}

	rec := r.records[r.next]
	r.next++

	return rec, nil
}

type limited struct {
	reader Reader
	left   uint64
}

// Limit stops r after n records. A zero n leaves r unlimited.
func Limit(r Reader, n uint64) Reader {
	if n == 0 {
		return r
	}

	return &limited{reader: r, left: n}
}

func (l *limited) Next() (Record, error) {
	if l.left == 0 {
		return Record{}, io.EOF
	}

	l.left--

	return l.reader.Next()
}

// Stream generates a single strided stream starting at Start. A negative
// Stride walks backward.
type Stream struct {
	Start  uint64
	Stride int64
	Count  uint64

	n uint64
}

// Next returns the next record.
func (s *Stream) Next() (Record, error) {
	if s.n >= s.Count {
		return Record{}, io.EOF
	}

	addr := s.Start + uint64(int64(s.n)*s.Stride)
	s.n++

	return Record{Address: addr, IP: streamIP}, nil
}

// MixedParams configures a Mixed generator.
type MixedParams struct {
	// Streams is the number of interleaved streams. Odd streams walk
	// backward.
	Streams int

	// Stride is the distance in bytes between two accesses of a stream.
	Stride int64

	// RandomFraction is the share of accesses that go to uniformly random
	// lines of the footprint.
	RandomFraction float64

	// Footprint bounds the random accesses.
	Footprint uint64

	Count uint64
	Seed  int64
}

// Mixed interleaves several strided streams with random accesses. The same
// seed always produces the same records.
type Mixed struct {
	params  MixedParams
	rand    *rand.Rand
	cursors []uint64
	turn    int
	n       uint64
}

// NewMixed creates a Mixed generator.
func NewMixed(params MixedParams) *Mixed {
	if params.Streams <= 0 {
		params.Streams = 1
	}

	if params.Stride == 0 {
		params.Stride = lineSize
	}

	if params.Footprint < lineSize {
		params.Footprint = regionSize
	}

	m := &Mixed{
		params:  params,
		rand:    rand.New(rand.NewSource(params.Seed)),
		cursors: make([]uint64, params.Streams),
	}

	for i := range m.cursors {
		base := uint64(i+1) * regionSize
		if i%2 == 1 {
			base += regionSize - lineSize
		}

		m.cursors[i] = base
	}

	return m
}

// Next returns the next record.
func (m *Mixed) Next() (Record, error) {
	if m.n >= m.params.Count {
		return Record{}, io.EOF
	}

	m.n++

	if m.rand.Float64() < m.params.RandomFraction {
		line := m.rand.Uint64() % (m.params.Footprint / lineSize)
		return Record{Address: line * lineSize, IP: randomIP}, nil
	}

	i := m.turn
	m.turn = (m.turn + 1) % len(m.cursors)

	addr := m.cursors[i]

	stride := m.params.Stride
	if i%2 == 1 {
		stride = -stride
	}

	m.cursors[i] = addr + uint64(stride)

	return Record{Address: addr, IP: streamIP + uint64(i)*lineSize}, nil
}
