// Package fallback compiles any IR instruction as a call into the IR
// interpreter.
//
// The emitted thunk flushes the register cache, loads the thunk index into
// t0 and executes ECALL. Handler, installed as the emulator's syscall
// handler, then runs the recorded instruction against the guest context in
// memory.
package fallback

import (
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/regcache"
	"github.com/sarchlab/rvjit/rv"
)

// IndexReg carries the thunk index into the ECALL.
const IndexReg = regcache.Scratch1

// Flusher writes every cached guest register back to the context.
type Flusher interface {
	FlushAll()
}

// Generic emits interpreter thunks and records the instructions they run.
type Generic struct {
	asm    *rv.Assembler
	regs   Flusher
	thunks []ir.Inst
}

// NewGeneric creates a fallback compiler emitting into asm. regs is flushed
// before every thunk.
func NewGeneric(asm *rv.Assembler, regs Flusher) *Generic {
	return &Generic{asm: asm, regs: regs}
}

// CompileGeneric emits a thunk that runs inst on the interpreter.
func (g *Generic) CompileGeneric(inst ir.Inst) {
	g.regs.FlushAll()
	g.asm.LI(IndexReg, int32(len(g.thunks)))
	g.asm.ECALL()
	g.thunks = append(g.thunks, inst)
}

// Thunks returns the instructions recorded since the last Reset, indexed by
// thunk number.
func (g *Generic) Thunks() []ir.Inst {
	return g.thunks
}

// Reset forgets all recorded thunks. The returned slices of earlier calls to
// Thunks stay valid.
func (g *Generic) Reset() {
	g.thunks = nil
}
