package prefilter

// Tracker retires a prefilter that keeps producing candidates the matcher
// rejects.
//
// Each Find that yields a candidate counts once; ConfirmMatch counts a
// candidate the matcher accepted. After a warmup, the ratio of the two is
// checked at fixed intervals and the tracker goes inactive for the rest of
// the search once it falls below the threshold. The caller then tries every
// offset instead.
//
// A Tracker belongs to one search and is not safe for concurrent use.
//
//	tr := prefilter.NewTracker(pf)
//	for at := 0; at <= len(input); at++ {
//	    if tr.IsActive() {
//	        if at = tr.Find(input, at); at < 0 {
//	            break
//	        }
//	    }
//	    if matchAt(input, at) {
//	        tr.ConfirmMatch()
//	    }
//	}
type Tracker struct {
	inner  Prefilter
	config TrackerConfig

	candidates     uint64
	confirms       uint64
	lastCheckpoint uint64
	active         bool
}

// TrackerConfig holds configuration for the effectiveness tracker.
type TrackerConfig struct {
	// CheckInterval is how often to check effectiveness, in candidates.
	// Default: 64
	CheckInterval uint64

	// MinEfficiency is the minimum acceptable ratio of confirms to
	// candidates. Default: 0.1
	MinEfficiency float64

	// WarmupPeriod is the number of candidates before the first check.
	// Default: 128
	WarmupPeriod uint64
}

// DefaultTrackerConfig returns the default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		CheckInterval: 64,
		MinEfficiency: 0.1,
		WarmupPeriod:  128,
	}
}

// TrackerStats is a snapshot of a tracker's counters.
type TrackerStats struct {
	Candidates uint64
	Confirms   uint64
	Active     bool
}

// Efficiency returns Confirms/Candidates, or 0 before the first candidate.
func (s TrackerStats) Efficiency() float64 {
	if s.Candidates == 0 {
		return 0
	}
	return float64(s.Confirms) / float64(s.Candidates)
}

// NewTracker creates a tracker with the default configuration.
// Returns nil if inner is nil.
func NewTracker(inner Prefilter) *Tracker {
	return NewTrackerWithConfig(inner, DefaultTrackerConfig())
}

// NewTrackerWithConfig creates a tracker with a custom configuration.
// Returns nil if inner is nil.
func NewTrackerWithConfig(inner Prefilter, config TrackerConfig) *Tracker {
	if inner == nil {
		return nil
	}
	if config.CheckInterval == 0 {
		config.CheckInterval = 1
	}
	return &Tracker{inner: inner, config: config, active: true}
}

// Find returns the next candidate at or after start, or -1.
//
// Unlike the inner prefilter, Find returns -1 once the tracker is inactive
// even when candidates exist. Check IsActive to tell the two apart.
func (t *Tracker) Find(haystack []byte, start int) int {
	if !t.active {
		return -1
	}
	pos := t.inner.Find(haystack, start)
	if pos >= 0 {
		t.candidates++
		t.checkEffectiveness()
	}
	return pos
}

// ConfirmMatch records that the last candidate was a real match.
func (t *Tracker) ConfirmMatch() {
	t.confirms++
}

// IsActive returns true while the prefilter is still in use.
func (t *Tracker) IsActive() bool {
	return t.active
}

// Stats returns the current counters.
func (t *Tracker) Stats() TrackerStats {
	return TrackerStats{Candidates: t.candidates, Confirms: t.confirms, Active: t.active}
}

// Reset clears the counters and re-enables the prefilter.
func (t *Tracker) Reset() {
	t.candidates = 0
	t.confirms = 0
	t.lastCheckpoint = 0
	t.active = true
}

// Inner returns the underlying prefilter.
func (t *Tracker) Inner() Prefilter {
	return t.inner
}

func (t *Tracker) checkEffectiveness() {
	if t.candidates < t.config.WarmupPeriod {
		return
	}
	if t.candidates-t.lastCheckpoint < t.config.CheckInterval {
		return
	}
	t.lastCheckpoint = t.candidates

	if float64(t.confirms)/float64(t.candidates) < t.config.MinEfficiency {
		t.active = false
	}
}
