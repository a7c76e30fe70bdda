package jit

import (
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/regcache"
	"github.com/sarchlab/rvjit/rv"
)

// CompLogic compiles And, Or, Xor, Not and the constant forms.
//
// Normalization flags are read before any mapping, so a destination that
// aliases a source does not lose the source's state.
func (c *Compiler) CompLogic(inst ir.Inst) {
	if c.disabled(ir.FamilyLogic, inst) {
		return
	}

	k := int32(inst.Constant)
	src1Norm := c.regs.IsNormalized32(inst.Src1)

	switch inst.Op {
	case ir.OpAnd:
		c.regs.MapDirtyInIn(inst.Dest, inst.Src1, inst.Src2, regcache.MapAvoidLoad)
		c.emit.AND(c.regs.R(inst.Dest), c.regs.R(inst.Src1), c.regs.R(inst.Src2))

	case ir.OpOr:
		bothNorm := src1Norm && c.regs.IsNormalized32(inst.Src2)
		c.regs.MapDirtyInIn(inst.Dest, inst.Src1, inst.Src2, regcache.MapAvoidLoad)
		c.emit.OR(c.regs.R(inst.Dest), c.regs.R(inst.Src1), c.regs.R(inst.Src2))
		if bothNorm {
			c.regs.MarkDirty(c.regs.R(inst.Dest), true)
		}

	case ir.OpXor:
		c.regs.MapDirtyInIn(inst.Dest, inst.Src1, inst.Src2, regcache.MapAvoidLoad)
		c.emit.XOR(c.regs.R(inst.Dest), c.regs.R(inst.Src1), c.regs.R(inst.Src2))

	case ir.OpAndConst:
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoad)
		if rv.FitsImm12(k) {
			c.emit.ANDI(c.regs.R(inst.Dest), c.regs.R(inst.Src1), k)
		} else {
			c.emit.LI(Scratch, k)
			c.emit.AND(c.regs.R(inst.Dest), c.regs.R(inst.Src1), Scratch)
		}
		signKept := inst.Constant&0x80000000 != 0
		// Keeping the sign bit keeps a normalized source normalized; clearing
		// it always yields a normalized result.
		if signKept && src1Norm {
			c.regs.MarkDirty(c.regs.R(inst.Dest), true)
		} else if !signKept {
			c.regs.MarkDirty(c.regs.R(inst.Dest), true)
		}

	case ir.OpOrConst:
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoad)
		if rv.FitsImm12(k) {
			c.emit.ORI(c.regs.R(inst.Dest), c.regs.R(inst.Src1), k)
		} else {
			c.emit.LI(Scratch, k)
			c.emit.OR(c.regs.R(inst.Dest), c.regs.R(inst.Src1), Scratch)
		}
		// The constant is sign-extended, so it cannot break normalization.
		if src1Norm {
			c.regs.MarkDirty(c.regs.R(inst.Dest), true)
		}

	case ir.OpXorConst:
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoad)
		if rv.FitsImm12(k) {
			c.emit.XORI(c.regs.R(inst.Dest), c.regs.R(inst.Src1), k)
		} else {
			c.emit.LI(Scratch, k)
			c.emit.XOR(c.regs.R(inst.Dest), c.regs.R(inst.Src1), Scratch)
		}

	case ir.OpNot:
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoad)
		c.emit.NOT(c.regs.R(inst.Dest), c.regs.R(inst.Src1))

	default:
		c.invalidOp(ir.FamilyLogic, inst)
	}
}
