package patc

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Stats tracks matcher activity.
//
// Counters are cumulative since compilation or the last ResetStats.
type Stats struct {
	// Searches counts Find and FindAll calls.
	Searches uint64

	// Runs counts machine runs, anchored (Match, MatchAt) or at a search
	// position.
	Runs uint64

	// Matches counts successful runs plus matches reported directly by a
	// complete prefilter.
	Matches uint64

	// Faults counts runs that stopped with a machine fault.
	Faults uint64

	// PrefilterCandidates counts positions reported by the prefilter.
	PrefilterCandidates uint64

	// PrefilterHits counts candidates that started a match.
	PrefilterHits uint64

	// PrefilterMisses counts candidates the machine rejected.
	PrefilterMisses uint64

	// PrefilterAbandoned counts searches whose prefilter was retired for
	// a low hit rate.
	PrefilterAbandoned uint64
}

// counters holds the live Stats. Each counter sits on its own cache line
// since concurrent searches update them from different cores.
type counters struct {
	searches   atomic.Uint64
	_          cpu.CacheLinePad
	runs       atomic.Uint64
	_          cpu.CacheLinePad
	matches    atomic.Uint64
	_          cpu.CacheLinePad
	faults     atomic.Uint64
	_          cpu.CacheLinePad
	candidates atomic.Uint64
	_          cpu.CacheLinePad
	hits       atomic.Uint64
	_          cpu.CacheLinePad
	misses     atomic.Uint64
	_          cpu.CacheLinePad
	abandoned  atomic.Uint64
}

// Stats returns a snapshot of the matcher's counters.
func (m *Matcher) Stats() Stats {
	return Stats{
		Searches:            m.stats.searches.Load(),
		Runs:                m.stats.runs.Load(),
		Matches:             m.stats.matches.Load(),
		Faults:              m.stats.faults.Load(),
		PrefilterCandidates: m.stats.candidates.Load(),
		PrefilterHits:       m.stats.hits.Load(),
		PrefilterMisses:     m.stats.misses.Load(),
		PrefilterAbandoned:  m.stats.abandoned.Load(),
	}
}

// ResetStats zeroes every counter.
func (m *Matcher) ResetStats() {
	m.stats.searches.Store(0)
	m.stats.runs.Store(0)
	m.stats.matches.Store(0)
	m.stats.faults.Store(0)
	m.stats.candidates.Store(0)
	m.stats.hits.Store(0)
	m.stats.misses.Store(0)
	m.stats.abandoned.Store(0)
}
