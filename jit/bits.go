package jit

import (
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/regcache"
	"github.com/sarchlab/rvjit/rv"
)

// CompBits compiles BSwap32 natively when Zbb is present. ReverseBits,
// BSwap16 and Clz always use the fallback.
func (c *Compiler) CompBits(inst ir.Inst) {
	if c.disabled(ir.FamilyBits, inst) {
		return
	}

	switch inst.Op {
	case ir.OpReverseBits, ir.OpBSwap16, ir.OpClz:
		c.generic(inst)

	case ir.OpBSwap32:
		if !c.caps.Zbb {
			c.generic(inst)
			return
		}
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoad)
		c.emit.REV8(c.regs.R(inst.Dest), c.regs.R(inst.Src1))
		if rv.XLEN >= 64 {
			// REV8 swaps the whole register; the wanted bytes end up on top.
			c.emit.SRAI(c.regs.R(inst.Dest), c.regs.R(inst.Dest), rv.XLEN-32)
			c.regs.MarkDirty(c.regs.R(inst.Dest), true)
		}

	default:
		c.invalidOp(ir.FamilyBits, inst)
	}
}
