package jit

import (
	"github.com/go-logr/logr"

	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/regcache"
)

// Scratch is the host register used to materialize constants. Its value
// never survives the instruction that set it.
const Scratch = regcache.Scratch1

// Stats counts compiled instructions per family.
type Stats struct {
	Native   map[ir.Family]int
	Deferred map[ir.Family]int
}

func newStats() Stats {
	return Stats{
		Native:   make(map[ir.Family]int),
		Deferred: make(map[ir.Family]int),
	}
}

// Total returns the number of instructions compiled.
func (s Stats) Total() int {
	n := 0
	for _, v := range s.Native {
		n += v
	}
	for _, v := range s.Deferred {
		n += v
	}
	return n
}

// Compiler translates IR instructions one at a time. It is not safe for
// concurrent use.
type Compiler struct {
	regs RegCache
	emit Emitter
	fb   Fallback
	caps Caps

	gate  *Gate
	debug bool
	log   logr.Logger

	deferred bool
	stats    Stats
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithLogger sets the logger. Routing errors are logged at error level;
// per-instruction tracing uses V(2).
func WithLogger(log logr.Logger) CompilerOption {
	return func(c *Compiler) {
		c.log = log
	}
}

// WithDebug makes routing errors panic instead of deferring to the fallback.
func WithDebug(debug bool) CompilerOption {
	return func(c *Compiler) {
		c.debug = debug
	}
}

// WithGate sets the family gate.
func WithGate(g *Gate) CompilerOption {
	return func(c *Compiler) {
		c.gate = g
	}
}

// NewCompiler creates a compiler over the given collaborators.
func NewCompiler(regs RegCache, emit Emitter, fb Fallback, caps Caps, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		regs:  regs,
		emit:  emit,
		fb:    fb,
		caps:  caps,
		log:   logr.Discard(),
		stats: newStats(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Caps returns the capabilities the compiler was created with.
func (c *Compiler) Caps() Caps {
	return c.caps
}

// Gate returns the family gate, which may be nil.
func (c *Compiler) Gate() *Gate {
	return c.gate
}

// Stats returns the per-family instruction counts.
func (c *Compiler) Stats() Stats {
	return c.stats
}

// ResetStats clears the per-family instruction counts.
func (c *Compiler) ResetStats() {
	c.stats = newStats()
}

// CompileInst compiles one instruction through the handler of its family.
func (c *Compiler) CompileInst(inst ir.Inst) {
	c.deferred = false
	family := inst.Op.Family()

	switch family {
	case ir.FamilyArith:
		c.CompArith(inst)
	case ir.FamilyLogic:
		c.CompLogic(inst)
	case ir.FamilyAssign:
		c.CompAssign(inst)
	case ir.FamilyBits:
		c.CompBits(inst)
	case ir.FamilyShift:
		c.CompShift(inst)
	case ir.FamilyCompare:
		c.CompCompare(inst)
	case ir.FamilyCondAssign:
		c.CompCondAssign(inst)
	case ir.FamilyHiLo:
		c.CompHiLo(inst)
	case ir.FamilyMult:
		c.CompMult(inst)
	case ir.FamilyDiv:
		c.CompDiv(inst)
	default:
		c.invalidOp(ir.FamilyUnknown, inst)
	}

	if c.deferred {
		c.stats.Deferred[family]++
	} else {
		c.stats.Native[family]++
	}
	c.log.V(2).Info("compiled", "inst", inst.String(), "deferred", c.deferred)
}

// generic defers inst to the fallback.
func (c *Compiler) generic(inst ir.Inst) {
	c.deferred = true
	c.fb.CompileGeneric(inst)
}

// disabled defers inst to the fallback when its family is gated off, and
// reports whether it did.
func (c *Compiler) disabled(f ir.Family, inst ir.Inst) bool {
	if !c.gate.Disabled(f) {
		return false
	}
	c.generic(inst)
	return true
}

// invalidOp handles an opcode that reached the wrong handler.
func (c *Compiler) invalidOp(f ir.Family, inst ir.Inst) {
	err := &RoutingError{Family: f, Op: inst.Op}
	if c.debug {
		panic(err)
	}
	c.log.Error(err, "deferring to fallback", "inst", inst.String())
	c.generic(inst)
}
