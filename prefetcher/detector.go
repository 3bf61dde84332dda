package prefetcher

const (
	numStreamDetectors = 64
	confidenceToIssue  = 2
)

// Direction is the direction of a stream inside a page.
type Direction int8

// Stream directions.
const (
	DirectionUnset    Direction = 0
	DirectionForward  Direction = 1
	DirectionBackward Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "unset"
	}
}

// StreamDetector tracks one candidate stream in one page.
type StreamDetector struct {
	Page       uint64
	Direction  Direction
	Confidence int

	// Cursor is the line in the page that was last prefetched, or the line
	// of the first access if nothing was prefetched yet.
	Cursor int

	Valid bool
}

// Aggressiveness provides the operating point of the stream table. It is
// read on every access so that a change applies immediately.
type Aggressiveness interface {
	StreamWindow() int
	PrefetchDegree() int
}

// StreamTable is a fixed set of stream detectors replaced in round-robin
// order.
type StreamTable struct {
	detectors        [numStreamDetectors]StreamDetector
	replacementIndex int
	aggressiveness   Aggressiveness
}

// NewStreamTable creates an empty table.
func NewStreamTable(a Aggressiveness) *StreamTable {
	return &StreamTable{aggressiveness: a}
}

// Classify trains the detector of addr's page and appends the addresses to
// prefetch to out. The second return value tells whether a detector was
// allocated for a new page.
func (t *StreamTable) Classify(addr uint64, out []uint64) ([]uint64, bool) {
	page := pageOf(addr)
	offset := lineInPage(addr)

	index := t.lookup(page)
	if index < 0 {
		t.allocate(page, offset)
		return out, true
	}

	d := &t.detectors[index]
	t.train(d, offset)

	if d.Confidence < confidenceToIssue {
		return out, false
	}

	return t.issue(d, out), false
}

// Detector returns a copy of the detector of the page that addr belongs to.
func (t *StreamTable) Detector(addr uint64) (StreamDetector, bool) {
	index := t.lookup(pageOf(addr))
	if index < 0 {
		return StreamDetector{}, false
	}

	return t.detectors[index], true
}

// Detectors returns a copy of all the detector slots.
func (t *StreamTable) Detectors() []StreamDetector {
	out := make([]StreamDetector, len(t.detectors))
	copy(out, t.detectors[:])

	return out
}

// ReplacementIndex returns the slot that the next new page will take.
func (t *StreamTable) ReplacementIndex() int {
	return t.replacementIndex
}

// Reset empties all the detectors.
func (t *StreamTable) Reset() {
	t.detectors = [numStreamDetectors]StreamDetector{}
	t.replacementIndex = 0
}

func (t *StreamTable) lookup(page uint64) int {
	for i := range t.detectors {
		if t.detectors[i].Valid && t.detectors[i].Page == page {
			return i
		}
	}

	return -1
}

func (t *StreamTable) allocate(page uint64, offset int) {
	t.detectors[t.replacementIndex] = StreamDetector{
		Page:      page,
		Direction: DirectionUnset,
		Cursor:    offset,
		Valid:     true,
	}

	t.replacementIndex = (t.replacementIndex + 1) % numStreamDetectors
}

// train compares the access with the cursor, not with the previous access.
func (t *StreamTable) train(d *StreamDetector, offset int) {
	window := t.aggressiveness.StreamWindow()
	delta := offset - d.Cursor

	var dir Direction

	switch {
	case delta > 0 && delta < window:
		dir = DirectionForward
	case delta < 0 && -delta < window:
		dir = DirectionBackward
	default:
		return
	}

	if d.Direction == -dir {
		d.Confidence = 0
	} else {
		d.Confidence++
	}

	d.Direction = dir
}

func (t *StreamTable) issue(d *StreamDetector, out []uint64) []uint64 {
	degree := t.aggressiveness.PrefetchDegree()

	for i := 0; i < degree; i++ {
		next := d.Cursor + int(d.Direction)
		if next < 0 || next >= linesPerPage {
			break
		}

		d.Cursor = next
		out = append(out, lineAddress(d.Page, next))
	}

	return out
}
