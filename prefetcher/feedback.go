package prefetcher

// Level is an aggressiveness level of the prefetcher.
type Level int

// The range of levels and the level that a fresh engine starts at.
const (
	MinLevel     Level = 1
	MaxLevel     Level = 5
	DefaultLevel Level = 3
)

type operatingPoint struct {
	window int
	degree int
}

var operatingPoints = [...]operatingPoint{
	1: {window: 4, degree: 1},
	2: {window: 8, degree: 1},
	3: {window: 16, degree: 2},
	4: {window: 32, degree: 4},
	5: {window: 64, degree: 4},
}

// StreamWindow returns the training window of the level.
func (l Level) StreamWindow() int {
	return operatingPoints[l.clamp()].window
}

// PrefetchDegree returns the number of lines issued per trigger at the level.
func (l Level) PrefetchDegree() int {
	return operatingPoints[l.clamp()].degree
}

func (l Level) clamp() Level {
	if l < MinLevel {
		return MinLevel
	}

	if l > MaxLevel {
		return MaxLevel
	}

	return l
}

// Thresholds are the bands used by the controller.
type Thresholds struct {
	AccuracyHigh float64
	AccuracyLow  float64
	Lateness     float64
	Pollution    float64
}

// DefaultThresholds returns the thresholds the controller is tuned for.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AccuracyHigh: 0.75,
		AccuracyLow:  0.40,
		Lateness:     0.01,
		Pollution:    0.005,
	}
}

// Counters are the five event counts that feed the controller.
type Counters struct {
	Issued    uint64
	Used      uint64
	Late      uint64
	Polluting uint64
	Demand    uint64
}

// decay folds an interval into a running total, giving the interval and the
// history equal weight.
func (c Counters) decay(interval Counters) Counters {
	return Counters{
		Issued:    c.Issued/2 + interval.Issued/2,
		Used:      c.Used/2 + interval.Used/2,
		Late:      c.Late/2 + interval.Late/2,
		Polluting: c.Polluting/2 + interval.Polluting/2,
		Demand:    c.Demand/2 + interval.Demand/2,
	}
}

// Ratios are the feedback signals derived from the decayed counters.
type Ratios struct {
	Accuracy  float64
	Lateness  float64
	Pollution float64
}

// update recomputes the ratios whose denominator is not zero. The others keep
// their previous value.
func (r Ratios) update(total Counters) Ratios {
	if total.Issued > 0 {
		r.Accuracy = float64(total.Used) / float64(total.Issued)
	}

	if total.Used > 0 {
		r.Lateness = float64(total.Late) / float64(total.Used)
	}

	if total.Demand > 0 {
		r.Pollution = float64(total.Polluting) / float64(total.Demand)
	}

	return r
}

// Decide returns the level step (-1, 0 or +1) for the given ratios.
func Decide(r Ratios, th Thresholds) int {
	late := r.Lateness > th.Lateness
	polluting := r.Pollution > th.Pollution

	switch {
	case r.Accuracy >= th.AccuracyHigh:
		if late {
			return +1
		}

		if polluting {
			return -1
		}

		return 0
	case r.Accuracy >= th.AccuracyLow:
		if late && polluting {
			return -1
		}

		if late {
			return +1
		}

		if polluting {
			return -1
		}

		return 0
	default:
		if late {
			return -1
		}

		if polluting {
			return -1
		}

		return 0
	}
}

// FoldRecord describes one fold of the interval counters.
type FoldRecord struct {
	Index       uint64
	LevelBefore Level
	LevelAfter  Level
	Interval    Counters
	Total       Counters
	Ratios      Ratios
}

// FeedbackState accumulates the feedback counters and owns the current
// aggressiveness level.
type FeedbackState struct {
	thresholds    Thresholds
	foldThreshold uint64

	level     Level
	interval  Counters
	total     Counters
	ratios    Ratios
	evictions uint64
	folds     uint64
}

// NewFeedbackState creates a state at the default level. The counters fold
// once more than foldThreshold evictions have been seen.
func NewFeedbackState(
	foldThreshold uint64,
	thresholds Thresholds,
) *FeedbackState {
	s := &FeedbackState{
		thresholds:    thresholds,
		foldThreshold: foldThreshold,
	}
	s.Reset()

	return s
}

// Reset brings the state back to the default level with zero counters.
func (s *FeedbackState) Reset() {
	s.level = DefaultLevel
	s.interval = Counters{}
	s.total = Counters{}
	s.ratios = Ratios{}
	s.evictions = 0
	s.folds = 0
}

// Level returns the current level.
func (s *FeedbackState) Level() Level {
	return s.level
}

// StreamWindow returns the training window of the current level.
func (s *FeedbackState) StreamWindow() int {
	return s.level.StreamWindow()
}

// PrefetchDegree returns the prefetch degree of the current level.
func (s *FeedbackState) PrefetchDegree() int {
	return s.level.PrefetchDegree()
}

// Ratios returns the ratios computed at the last fold.
func (s *FeedbackState) Ratios() Ratios {
	return s.ratios
}

// Interval returns the counts of the current interval.
func (s *FeedbackState) Interval() Counters {
	return s.interval
}

// Total returns the decayed totals.
func (s *FeedbackState) Total() Counters {
	return s.total
}

// Evictions returns the number of evictions seen in the current interval.
func (s *FeedbackState) Evictions() uint64 {
	return s.evictions
}

// FoldThreshold returns the number of evictions an interval lasts.
func (s *FeedbackState) FoldThreshold() uint64 {
	return s.foldThreshold
}

// Folds returns the number of folds so far.
func (s *FeedbackState) Folds() uint64 {
	return s.folds
}

// RecordIssued counts a prefetch accepted by the near cache.
func (s *FeedbackState) RecordIssued() { s.interval.Issued++ }

// RecordUsed counts the first demand hit on a prefetched line.
func (s *FeedbackState) RecordUsed() { s.interval.Used++ }

// RecordLate counts a demand miss on a prefetch still in flight.
func (s *FeedbackState) RecordLate() { s.interval.Late++ }

// RecordPolluting counts a demand miss on a line evicted by a prefetch.
func (s *FeedbackState) RecordPolluting() { s.interval.Polluting++ }

// RecordDemand counts a demand miss.
func (s *FeedbackState) RecordDemand() { s.interval.Demand++ }

// RecordEviction counts an eviction. When the count goes above the fold
// threshold, the interval is folded and the level is adjusted; the record of
// that fold is returned together with true.
func (s *FeedbackState) RecordEviction() (FoldRecord, bool) {
	s.evictions++
	if s.evictions <= s.foldThreshold {
		return FoldRecord{}, false
	}

	return s.fold(), true
}

func (s *FeedbackState) fold() FoldRecord {
	rec := FoldRecord{
		Index:       s.folds,
		LevelBefore: s.level,
		Interval:    s.interval,
	}

	s.total = s.total.decay(s.interval)
	s.interval = Counters{}
	s.evictions = 0
	s.folds++

	s.ratios = s.ratios.update(s.total)
	s.level = (s.level + Level(Decide(s.ratios, s.thresholds))).clamp()

	rec.LevelAfter = s.level
	rec.Total = s.total
	rec.Ratios = s.ratios

	return rec
}
