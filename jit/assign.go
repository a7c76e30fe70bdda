package jit

import (
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/regcache"
)

// CompAssign compiles Mov, Ext8to32 and Ext16to32.
func (c *Compiler) CompAssign(inst ir.Inst) {
	if c.disabled(ir.FamilyAssign, inst) {
		return
	}

	switch inst.Op {
	case ir.OpMov:
		srcNorm := c.regs.IsNormalized32(inst.Src1)
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoad)
		c.emit.MV(c.regs.R(inst.Dest), c.regs.R(inst.Src1))
		c.regs.MarkDirty(c.regs.R(inst.Dest), srcNorm)

	case ir.OpExt8to32:
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoadMarkNorm32)
		if c.caps.Zbb {
			c.emit.SEXTB(c.regs.R(inst.Dest), c.regs.R(inst.Src1))
		} else {
			c.emit.SLLI(c.regs.R(inst.Dest), c.regs.R(inst.Src1), 24)
			c.emit.SRAIW(c.regs.R(inst.Dest), c.regs.R(inst.Dest), 24)
		}

	case ir.OpExt16to32:
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoadMarkNorm32)
		if c.caps.Zbb {
			c.emit.SEXTH(c.regs.R(inst.Dest), c.regs.R(inst.Src1))
		} else {
			c.emit.SLLI(c.regs.R(inst.Dest), c.regs.R(inst.Src1), 16)
			c.emit.SRAIW(c.regs.R(inst.Dest), c.regs.R(inst.Dest), 16)
		}

	default:
		c.invalidOp(ir.FamilyAssign, inst)
	}
}
