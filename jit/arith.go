package jit

import (
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/regcache"
	"github.com/sarchlab/rvjit/rv"
)

// CompArith compiles Add, Sub, Neg, AddConst and SubConst.
func (c *Compiler) CompArith(inst ir.Inst) {
	if c.disabled(ir.FamilyArith, inst) {
		return
	}

	// Only signed immediates can be added, so small subtractions become
	// additions. -2048 negates out of range, hence the shifted window.
	if inst.Op == ir.OpSubConst {
		if k := int32(inst.Constant); k >= -2047 && k <= 2048 {
			inst.Op = ir.OpAddConst
			inst.Constant = uint32(-k)
		}
	}

	k := int32(inst.Constant)

	switch inst.Op {
	case ir.OpAdd:
		c.regs.MapDirtyInIn(inst.Dest, inst.Src1, inst.Src2, regcache.MapAvoidLoadMarkNorm32)
		c.emit.ADDW(c.regs.R(inst.Dest), c.regs.R(inst.Src1), c.regs.R(inst.Src2))

	case ir.OpSub:
		c.regs.MapDirtyInIn(inst.Dest, inst.Src1, inst.Src2, regcache.MapAvoidLoadMarkNorm32)
		c.emit.SUBW(c.regs.R(inst.Dest), c.regs.R(inst.Src1), c.regs.R(inst.Src2))

	case ir.OpAddConst:
		switch {
		case !rv.FitsImm12(k):
			c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoadMarkNorm32)
			c.emit.LI(Scratch, k)
			c.emit.ADDW(c.regs.R(inst.Dest), c.regs.R(inst.Src1), Scratch)
		case c.caps.AllowPointerMath && inst.Dest == inst.Src1 && c.regs.IsMappedAsPointer(inst.Src1):
			// Typical of stack pointer updates.
			ptr := c.regs.RPtr(inst.Dest)
			c.regs.MarkPtrDirty(ptr)
			c.emit.ADDI(ptr, ptr, k)
		default:
			c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoadMarkNorm32)
			c.emit.ADDIW(c.regs.R(inst.Dest), c.regs.R(inst.Src1), k)
		}

	case ir.OpSubConst:
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoadMarkNorm32)
		c.emit.LI(Scratch, k)
		c.emit.SUBW(c.regs.R(inst.Dest), c.regs.R(inst.Src1), Scratch)

	case ir.OpNeg:
		c.regs.MapDirtyIn(inst.Dest, inst.Src1, regcache.MapAvoidLoadMarkNorm32)
		c.emit.SUBW(c.regs.R(inst.Dest), rv.Zero, c.regs.R(inst.Src1))

	default:
		c.invalidOp(ir.FamilyArith, inst)
	}
}
