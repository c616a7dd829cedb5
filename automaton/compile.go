package automaton

import (
	"fmt"
	"io"
	"strconv"

	"github.com/coregx/patc/internal/trace"
	"github.com/coregx/patc/pattern"
)

// CompilerConfig configures pattern compilation
type CompilerConfig struct {
	// MaxDepth limits pattern nesting during compilation.
	// Default: 1000
	MaxDepth int

	// Log receives a summary of every compilation when non-nil.
	Log io.Writer
}

// DefaultCompilerConfig returns a compiler configuration with sensible defaults
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		MaxDepth: 1000,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxDepth: 1 to 100,000
func (c CompilerConfig) Validate() error {
	if c.MaxDepth < 1 || c.MaxDepth > 100_000 {
		return &ConfigError{
			Field:   "MaxDepth",
			Message: "must be between 1 and 100,000",
		}
	}
	return nil
}

// Compiler compiles pattern trees into graphs.
//
// Compiled graphs are cached per root node and build options: compiling the
// same root twice returns the same *Graph. Within one compilation each node
// is compiled once, however many parents reference it.
//
// A Compiler is not safe for concurrent use; use one per goroutine. The
// graphs it returns are.
type Compiler struct {
	config CompilerConfig
	log    *trace.Logger
	cache  map[cacheKey]*Graph

	builder *Builder
	unwind  StateID
	depth   int
	reused  int
}

type cacheKey struct {
	root    *pattern.Node
	partial bool
	name    string
}

// NewCompiler creates a new compiler with the given configuration
func NewCompiler(config CompilerConfig) *Compiler {
	if config.MaxDepth == 0 {
		config.MaxDepth = DefaultCompilerConfig().MaxDepth
	}
	return &Compiler{
		config: config,
		log:    trace.NewLogger(config.Log),
		cache:  make(map[cacheKey]*Graph),
	}
}

// NewDefaultCompiler creates a new compiler with default configuration
func NewDefaultCompiler() *Compiler {
	return NewCompiler(DefaultCompilerConfig())
}

// Compile compiles a pattern tree with a fresh default compiler.
func Compile(root *pattern.Node, opts ...BuildOption) (*Graph, error) {
	return NewDefaultCompiler().Compile(root, opts...)
}

// MustCompile is like Compile but panics on error.
func MustCompile(root *pattern.Node, opts ...BuildOption) *Graph {
	g, err := Compile(root, opts...)
	if err != nil {
		panic("automaton: Compile(" + root.String() + "): " + err.Error())
	}
	return g
}

// Compile compiles root into a graph.
//
// The graph's start state pushes the root frame and enters the root unit.
// The root's success leads to the accept state (at end of input only,
// unless WithPartial(true) is given) and its failure to the reject state.
func (c *Compiler) Compile(root *pattern.Node, opts ...BuildOption) (*Graph, error) {
	if err := c.config.Validate(); err != nil {
		return nil, err
	}
	if root == nil {
		return nil, &CompileError{Err: ErrNilPattern}
	}

	var flags Graph
	for _, opt := range opts {
		opt(&flags)
	}
	key := cacheKey{root: root, partial: flags.partial, name: flags.name}
	if g, ok := c.cache[key]; ok {
		c.log.Log("reusing compiled graph for %s", root)
		return g, nil
	}

	c.builder = NewBuilder()
	c.unwind = InvalidState
	c.depth = 0
	c.reused = 0

	g, err := c.compileRoot(root, flags.partial, opts)
	c.builder = nil
	if err != nil {
		return nil, &CompileError{Pattern: root.String(), Err: err}
	}

	c.log.Section("Compile")
	c.log.Log("pattern: %s", root)
	c.log.Log("units: %d, states: %d, shared reuses: %d", g.Units(), g.States(), c.reused)
	if g.IsPartial() {
		c.log.Log("mode: partial (prefix match)")
	} else {
		c.log.Log("mode: full (end of input required)")
	}

	c.cache[key] = g
	return g, nil
}

func (c *Compiler) compileRoot(root *pattern.Node, partial bool, opts []BuildOption) (*Graph, error) {
	b := c.builder

	// The root is wrapped like a single-alternative choice: one frame for
	// the whole match, popped (and emitted) on accept.
	wrap := b.AddUnit(nil, "root")
	start, accept, reject := b.UnitStates(wrap)
	if err := b.SetAction(start, Action{Context: ContextPush}); err != nil {
		return nil, err
	}
	if err := b.SetAction(accept, Action{Context: ContextPopEmit}); err != nil {
		return nil, err
	}
	if err := b.SetAction(reject, Action{Context: ContextPop}); err != nil {
		return nil, err
	}

	ru, err := c.compile(root)
	if err != nil {
		return nil, err
	}
	rs, rsucc, rfail := b.UnitStates(ru)

	if err := b.SetFrame(start, ru); err != nil {
		return nil, err
	}
	if err := b.AddTransition(start, Default(), rs); err != nil {
		return nil, err
	}
	if partial {
		if err := b.AddTransition(rsucc, In(start), accept); err != nil {
			return nil, err
		}
	} else {
		if err := b.AddTransition(rsucc, Key{Context: start, Symbol: EndOfInput}, accept); err != nil {
			return nil, err
		}
		if err := b.AddTransition(rsucc, In(start), reject); err != nil {
			return nil, err
		}
	}
	if err := b.AddTransition(rfail, In(start), reject); err != nil {
		return nil, err
	}

	b.SetRoot(ru, start, accept, reject)
	return b.Build(opts...)
}

// compile returns the unit of n, compiling it on first use.
func (c *Compiler) compile(n *pattern.Node) (UnitID, error) {
	if n == nil {
		return InvalidUnit, ErrNilPattern
	}
	if id, ok := c.builder.UnitOf(n); ok {
		c.reused++
		return id, nil
	}

	c.depth++
	defer func() { c.depth-- }()
	if c.depth > c.config.MaxDepth {
		return InvalidUnit, fmt.Errorf("%w: depth %d exceeds %d", ErrTooDeep, c.depth, c.config.MaxDepth)
	}

	switch n.Op() {
	case pattern.OpLiteral:
		return c.compileLiteral(n)
	case pattern.OpSequence:
		return c.compileSequence(n)
	case pattern.OpChoice:
		return c.compileChoice(n)
	case pattern.OpAny:
		return c.compileAny(n)
	default:
		return InvalidUnit, fmt.Errorf("%w: %s", ErrUnknownOp, n.Op())
	}
}

// compileLiteral chains one advancing state per byte. Every state falls
// back to the literal's failure, so the first mismatch rejects.
func (c *Compiler) compileLiteral(n *pattern.Node) (UnitID, error) {
	b := c.builder
	u := b.AddUnit(n, labelOf(n))
	start, success, failure := b.UnitStates(u)

	prev := start
	v := n.Value()
	for i := 0; i < len(v); i++ {
		s := b.AddState(u, Action{Input: InputAdvance})
		if err := b.AddTransition(prev, OnByte(v[i]), s); err != nil {
			return InvalidUnit, err
		}
		if err := b.AddTransition(prev, Default(), failure); err != nil {
			return InvalidUnit, err
		}
		prev = s
	}
	if err := b.AddTransition(prev, Default(), success); err != nil {
		return InvalidUnit, err
	}
	return u, nil
}

// compileSequence chains the elements. Each element runs under its own
// frame: the sequence start pushes the first, a PopPush continuation
// retires element i-1 and installs element i, and a PopEmit finish retires
// the last. Element failures unwind to the sequence's failure.
func (c *Compiler) compileSequence(n *pattern.Node) (UnitID, error) {
	b := c.builder
	u := b.AddUnit(n, labelOf(n))
	start, success, _ := b.UnitStates(u)

	if n.Len() == 0 {
		return u, b.AddTransition(start, Default(), success)
	}
	if err := b.SetAction(start, Action{Context: ContextPush}); err != nil {
		return InvalidUnit, err
	}

	tag := start
	prevSucc := InvalidState
	for i := 0; i < n.Len(); i++ {
		cu, err := c.compile(n.Sub(i))
		if err != nil {
			return InvalidUnit, err
		}
		cs, csucc, cfail := b.UnitStates(cu)

		if i > 0 {
			cont := b.AddState(u, Action{Context: ContextPopPush})
			if err := b.AddTransition(prevSucc, In(tag), cont); err != nil {
				return InvalidUnit, err
			}
			tag = cont
		}
		if err := c.chain(tag, cu, cs, cfail); err != nil {
			return InvalidUnit, err
		}
		prevSucc = csucc
	}

	finish := b.AddState(u, Action{Context: ContextPopEmit})
	if err := b.AddTransition(prevSucc, In(tag), finish); err != nil {
		return InvalidUnit, err
	}
	return u, b.AddTransition(finish, Default(), success)
}

// chain enters element unit cu from tag and routes the element's failure,
// seen under tag, to the unwind state.
func (c *Compiler) chain(tag StateID, cu UnitID, cs, cfail StateID) error {
	b := c.builder
	if err := b.SetFrame(tag, cu); err != nil {
		return err
	}
	if err := b.AddTransition(tag, Default(), cs); err != nil {
		return err
	}
	return b.AddTransition(cfail, In(tag), c.unwindState())
}

// unwindState returns the graph-wide PopJumpFailure state, creating it on
// first use. It belongs to the root wrapper unit (unit 0).
func (c *Compiler) unwindState() StateID {
	if c.unwind == InvalidState {
		c.unwind = c.builder.AddState(0, Action{Context: ContextPopJumpFailure})
	}
	return c.unwind
}

// compileChoice gives every alternative a wrapper unit: its start pushes a
// frame and enters the alternative, its success emits the alternative's
// span, and its failure rewinds the cursor and moves on to the next
// alternative.
func (c *Compiler) compileChoice(n *pattern.Node) (UnitID, error) {
	b := c.builder
	u := b.AddUnit(n, labelOf(n))
	start, success, failure := b.UnitStates(u)

	if n.Len() == 0 {
		return u, b.AddTransition(start, Default(), failure)
	}

	prev := start
	for i := 0; i < n.Len(); i++ {
		cu, err := c.compile(n.Sub(i))
		if err != nil {
			return InvalidUnit, err
		}
		w, err := c.branch(u, i, cu, success)
		if err != nil {
			return InvalidUnit, err
		}
		ws, _, wf := b.UnitStates(w)
		if err := b.AddTransition(prev, Default(), ws); err != nil {
			return InvalidUnit, err
		}
		prev = wf
	}
	return u, b.AddTransition(prev, Default(), failure)
}

// branch builds the wrapper unit for alternative i (unit cu) of choice u.
func (c *Compiler) branch(u UnitID, i int, cu UnitID, success StateID) (UnitID, error) {
	b := c.builder
	cs, csucc, cfail := b.UnitStates(cu)

	w := b.AddUnit(nil, fmt.Sprintf("alt %d of unit %d", i, u))
	ws, wk, wf := b.UnitStates(w)

	steps := []func() error{
		func() error { return b.SetAction(ws, Action{Context: ContextPush}) },
		func() error { return b.SetFrame(ws, cu) },
		func() error { return b.SetAction(wk, Action{Context: ContextPopEmit}) },
		func() error { return b.SetAction(wf, Action{Input: InputSeek, Context: ContextPop}) },
		func() error { return b.AddTransition(ws, Default(), cs) },
		func() error { return b.AddTransition(csucc, In(ws), wk) },
		func() error { return b.AddTransition(cfail, In(ws), wf) },
		func() error { return b.AddTransition(wk, Default(), success) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return InvalidUnit, err
		}
	}
	return w, nil
}

// compileAny builds a start state and one self-looping EmitAdvance state.
// Both test for a terminator before consuming (check-then-advance).
func (c *Compiler) compileAny(n *pattern.Node) (UnitID, error) {
	b := c.builder

	var seen [0x101]bool
	terms := make([]Symbol, 0, len(n.Terminators()))
	eoi := false
	for _, t := range n.Terminators() {
		switch {
		case t == EndOfInput:
			if !eoi {
				terms = append(terms, t)
			}
			eoi = true
		case t.IsByte():
			if !seen[t] {
				terms = append(terms, t)
			}
			seen[t] = true
		default:
			return InvalidUnit, fmt.Errorf("%w: terminator %s", ErrInvalidSymbol, t)
		}
	}

	u := b.AddUnit(n, labelOf(n))
	start, success, failure := b.UnitStates(u)
	step := b.AddState(u, Action{Input: InputEmitAdvance})

	for _, s := range []StateID{start, step} {
		for _, t := range terms {
			if err := b.AddTransition(s, On(t), success); err != nil {
				return InvalidUnit, err
			}
		}
		if !eoi {
			if err := b.AddTransition(s, On(EndOfInput), failure); err != nil {
				return InvalidUnit, err
			}
		}
		if err := b.AddTransition(s, Default(), step); err != nil {
			return InvalidUnit, err
		}
	}
	return u, nil
}

func labelOf(n *pattern.Node) string {
	switch n.Op() {
	case pattern.OpLiteral:
		v := n.Value()
		if len(v) > 32 {
			return strconv.Quote(v[:32]) + "..."
		}
		return strconv.Quote(v)
	case pattern.OpSequence, pattern.OpChoice:
		return fmt.Sprintf("%s/%d", n.Op(), n.Len())
	default:
		return n.String()
	}
}
