package jit

import "github.com/sarchlab/rvjit/ir"

// The handlers below recognize their whole family but always use the
// fallback. Native cases can be added one opcode at a time.

// CompShift compiles the register and immediate shifts and rotates.
func (c *Compiler) CompShift(inst ir.Inst) {
	if c.disabled(ir.FamilyShift, inst) {
		return
	}

	switch inst.Op {
	case ir.OpShl, ir.OpShr, ir.OpSar, ir.OpRor,
		ir.OpShlImm, ir.OpShrImm, ir.OpSarImm, ir.OpRorImm:
		c.generic(inst)
	default:
		c.invalidOp(ir.FamilyShift, inst)
	}
}

// CompCompare compiles the set-on-less-than forms.
func (c *Compiler) CompCompare(inst ir.Inst) {
	if c.disabled(ir.FamilyCompare, inst) {
		return
	}

	switch inst.Op {
	case ir.OpSlt, ir.OpSltConst, ir.OpSltU, ir.OpSltUConst:
		c.generic(inst)
	default:
		c.invalidOp(ir.FamilyCompare, inst)
	}
}

// CompCondAssign compiles MovZ, MovNZ, Max and Min.
func (c *Compiler) CompCondAssign(inst ir.Inst) {
	if c.disabled(ir.FamilyCondAssign, inst) {
		return
	}

	switch inst.Op {
	case ir.OpMovZ, ir.OpMovNZ, ir.OpMax, ir.OpMin:
		c.generic(inst)
	default:
		c.invalidOp(ir.FamilyCondAssign, inst)
	}
}

// CompHiLo compiles transfers to and from LO and HI.
func (c *Compiler) CompHiLo(inst ir.Inst) {
	if c.disabled(ir.FamilyHiLo, inst) {
		return
	}

	switch inst.Op {
	case ir.OpMtLo, ir.OpMtHi, ir.OpMfLo, ir.OpMfHi:
		c.generic(inst)
	default:
		c.invalidOp(ir.FamilyHiLo, inst)
	}
}

// CompMult compiles the multiplies and multiply-accumulates.
func (c *Compiler) CompMult(inst ir.Inst) {
	if c.disabled(ir.FamilyMult, inst) {
		return
	}

	switch inst.Op {
	case ir.OpMult, ir.OpMultU, ir.OpMadd, ir.OpMaddU, ir.OpMsub, ir.OpMsubU:
		c.generic(inst)
	default:
		c.invalidOp(ir.FamilyMult, inst)
	}
}

// CompDiv compiles signed and unsigned division.
func (c *Compiler) CompDiv(inst ir.Inst) {
	if c.disabled(ir.FamilyDiv, inst) {
		return
	}

	switch inst.Op {
	case ir.OpDiv, ir.OpDivU:
		c.generic(inst)
	default:
		c.invalidOp(ir.FamilyDiv, inst)
	}
}
