// Package patc compiles pattern trees into flat state graphs and matches
// them with an explicit-stack machine.
//
// A pattern is built from four combinators (Literal, Sequence, Choice and
// Any) in package pattern. The compiler turns every node into a unit of
// states with one start, one success and one failure exit; the machine in
// package vm walks the graph with a cursor and a frame stack instead of
// recursion, reporting one span per matched sub-pattern.
//
// The Matcher in this package ties the pieces together and adds
// unanchored search: literal prefixes are extracted from the pattern and a
// prefilter skips to the offsets where a match can start.
//
// Basic usage:
//
//	greeting := pattern.Choice(pattern.Literal("hello"), pattern.Literal("world"))
//	m, err := patc.Compile(greeting)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ok, spans, err := m.Match("hello")      // whole input
//	start, end, found := m.Find("a world!") // leftmost occurrence
//
// Semantics follow recursive-descent parsing: Choice commits to the first
// alternative that succeeds, Sequence fails as soon as one element fails,
// and Any is possessive. Match requires the whole input to be consumed;
// Find and FindAll report the prefix matched at each start position.
package patc

import (
	"sync"

	"github.com/coregx/patc/automaton"
	"github.com/coregx/patc/internal/conv"
	"github.com/coregx/patc/internal/trace"
	"github.com/coregx/patc/literal"
	"github.com/coregx/patc/pattern"
	"github.com/coregx/patc/prefilter"
	"github.com/coregx/patc/vm"
)

// Matcher is a compiled pattern.
//
// A Matcher is safe for concurrent use by multiple goroutines. Machines are
// taken from a pool per call, so concurrent searches do not share buffers.
//
// Example:
//
//	m := patc.MustCompile(pattern.Literal("hello"))
//	if m.MatchString("hello") {
//	    println("matched!")
//	}
type Matcher struct {
	root   *pattern.Node
	config Config

	// full requires the match to end at end of input; partial accepts
	// as soon as the root succeeds.
	full    *automaton.Graph
	partial *automaton.Graph

	prefilter prefilter.Prefilter

	fullPool    sync.Pool
	partialPool sync.Pool

	stats counters
}

// Compile compiles root with the default configuration.
func Compile(root *pattern.Node) (*Matcher, error) {
	return CompileWithConfig(root, DefaultConfig())
}

// MustCompile compiles root and panics if it fails.
//
// This is useful for patterns built from constants at init time.
func MustCompile(root *pattern.Node) *Matcher {
	m, err := Compile(root)
	if err != nil {
		panic("patc: Compile(" + root.String() + "): " + err.Error())
	}
	return m
}

// CompileWithConfig compiles root with a custom configuration.
//
// Example:
//
//	config := patc.DefaultConfig()
//	config.EnablePrefilter = false // try every offset
//	m, err := patc.CompileWithConfig(root, config)
func CompileWithConfig(root *pattern.Node, config Config) (*Matcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := automaton.NewCompiler(config.Compiler)
	full, err := c.Compile(root, automaton.WithName(config.Name))
	if err != nil {
		return nil, err
	}
	partial, err := c.Compile(root, automaton.WithName(config.Name), automaton.WithPartial(true))
	if err != nil {
		return nil, err
	}

	m := &Matcher{
		root:    root,
		config:  config,
		full:    full,
		partial: partial,
	}
	m.fullPool.New = m.newMachine(full)
	m.partialPool.New = m.newMachine(partial)

	log := trace.NewLogger(config.Compiler.Log)
	if config.EnablePrefilter {
		extractor := literal.New(literal.ExtractorConfig{
			MaxLiterals:   config.MaxLiterals,
			MaxLiteralLen: config.MaxLiteralLen,
		})
		prefixes := extractor.ExtractPrefixes(root)
		m.prefilter = prefilter.NewBuilder(prefixes).Build()

		log.Section("Prefilter")
		log.Log("prefixes: %d (complete: %v, min length %d, common prefix %q)",
			prefixes.Len(), prefixes.AllComplete(), prefixes.MinLen(), prefixes.LongestCommonPrefix())
		if m.prefilter != nil {
			log.Log("strategy: %s, %d heap bytes", m.prefilter, m.prefilter.HeapBytes())
		} else {
			log.Log("strategy: none (every offset is a candidate)")
		}
	}
	return m, nil
}

// newMachine returns a pool constructor for g. The machine config was
// validated by CompileWithConfig, so vm.New cannot fail here.
func (m *Matcher) newMachine(g *automaton.Graph) func() any {
	return func() any {
		mach, err := vm.New(g, m.config.Machine)
		if err != nil {
			panic("patc: machine config changed after validation: " + err.Error())
		}
		return mach
	}
}

// Pattern returns the pattern tree the matcher was compiled from.
func (m *Matcher) Pattern() *pattern.Node {
	return m.root
}

// Graph returns the compiled graph used by Match. It requires the whole
// input to be consumed.
func (m *Matcher) Graph() *automaton.Graph {
	return m.full
}

// SearchGraph returns the compiled graph used by Find and MatchAt. It
// accepts as soon as the pattern has matched a prefix.
func (m *Matcher) SearchGraph() *automaton.Graph {
	return m.partial
}

// Prefilter returns the prefilter used by unanchored search, or nil.
func (m *Matcher) Prefilter() prefilter.Prefilter {
	return m.prefilter
}

// String returns the pattern the matcher was compiled from.
func (m *Matcher) String() string {
	return m.root.String()
}

// Match reports whether the whole input matches, and the spans of every
// sub-pattern that completed on the way. A non-match is not an error;
// errors report machine faults.
func (m *Matcher) Match(input string) (bool, []vm.Span, error) {
	mach := m.fullPool.Get().(*vm.Machine)
	defer m.fullPool.Put(mach)

	m.stats.runs.Add(1)
	res, err := mach.Run(input)
	if err != nil {
		m.stats.faults.Add(1)
		return false, nil, err
	}
	if res.Matched {
		m.stats.matches.Add(1)
	}
	return res.Matched, res.Spans, nil
}

// MatchString reports whether the whole input matches. Faults count as a
// non-match.
func (m *Matcher) MatchString(input string) bool {
	ok, _, _ := m.Match(input)
	return ok
}

// MatchAt matches a prefix of input[at:] anchored at at. Span positions in
// the result are offsets into input.
func (m *Matcher) MatchAt(input string, at int) (vm.Result, error) {
	mach := m.partialPool.Get().(*vm.Machine)
	defer m.partialPool.Put(mach)
	return m.runAt(mach, input, at)
}

func (m *Matcher) runAt(mach *vm.Machine, input string, at int) (vm.Result, error) {
	m.stats.runs.Add(1)
	res, err := mach.RunAt(input, at)
	if err != nil {
		m.stats.faults.Add(1)
		return vm.Result{}, err
	}
	if res.Matched {
		m.stats.matches.Add(1)
	}
	return res, nil
}

// Find returns the leftmost match in input as input[start:end].
//
// Start positions are tried left to right; at each one the pattern
// matches a prefix of the rest of the input. Positions where the machine
// faults are skipped.
func (m *Matcher) Find(input string) (start, end int, ok bool) {
	s := m.newSearch(input)
	defer s.release()
	return s.next(0)
}

// FindAll returns up to n successive non-overlapping matches as
// [start, end) pairs. n < 0 means all matches. Returns nil if there is no
// match.
//
// After an empty match the search resumes one byte further. An empty match
// adjacent to the previous match is not reported.
func (m *Matcher) FindAll(input string, n int) [][2]int {
	if n == 0 {
		return nil
	}
	s := m.newSearch(input)
	defer s.release()

	var out [][2]int
	for at := 0; at <= len(input) && (n < 0 || len(out) < n); {
		start, end, ok := s.next(at)
		if !ok {
			break
		}
		// An empty match right where the previous match ended is skipped.
		if end > start || len(out) == 0 || out[len(out)-1][1] != start {
			out = append(out, [2]int{start, end})
		}
		if end > start {
			at = end
		} else {
			at = end + 1
		}
	}
	return out
}

// search is the state of one unanchored search over an input.
type search struct {
	m        *Matcher
	input    string
	haystack []byte
	mach     *vm.Machine
	tracker  *prefilter.Tracker
}

func (m *Matcher) newSearch(input string) *search {
	m.stats.searches.Add(1)
	s := &search{
		m:     m,
		input: input,
		mach:  m.partialPool.Get().(*vm.Machine),
	}
	if m.prefilter != nil {
		// The prefilter only reads the haystack.
		s.haystack = conv.StringBytes(input)
		s.tracker = prefilter.NewTracker(m.prefilter)
	}
	return s
}

func (s *search) release() {
	s.m.partialPool.Put(s.mach)
}

// next returns the leftmost match starting at or after at.
func (s *search) next(at int) (start, end int, ok bool) {
	m := s.m
	for pos := at; pos <= len(s.input); pos++ {
		candidate := false
		if s.tracker != nil && s.tracker.IsActive() {
			c := s.tracker.Find(s.haystack, pos)
			if c < 0 {
				// Every prefix literal is non-empty, so no match can start
				// where the prefilter finds nothing.
				return 0, 0, false
			}
			m.stats.candidates.Add(1)
			if !s.tracker.IsActive() {
				m.stats.abandoned.Add(1)
			}
			pos, candidate = c, true

			if pf := s.tracker.Inner(); pf.IsComplete() {
				s.tracker.ConfirmMatch()
				m.stats.hits.Add(1)
				m.stats.matches.Add(1)
				return pos, pos + pf.LiteralLen(), true
			}
		}

		res, err := m.runAt(s.mach, s.input, pos)
		if err != nil || !res.Matched {
			if candidate {
				m.stats.misses.Add(1)
			}
			continue
		}
		if candidate {
			s.tracker.ConfirmMatch()
			m.stats.hits.Add(1)
		}
		return pos, res.End, true
	}
	return 0, 0, false
}
