// Package jit compiles IR instructions into RV64 machine code.
//
// A Compiler translates one instruction at a time through ten family
// handlers. Each handler either emits native code, using the register cache
// to find the host registers of its operands, or defers the instruction to
// the fallback compiler. Translator drives a Compiler over whole blocks.
package jit

import (
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/regcache"
	"github.com/sarchlab/rvjit/rv"
)

// RegCache is the register cache used by the handlers. Mapping calls make the
// named guest registers resident for the current instruction; R and RPtr
// return their host registers afterwards.
type RegCache interface {
	MapDirtyIn(rd, rs ir.Reg, mt regcache.MapType)
	MapDirtyInIn(rd, rs, rt ir.Reg, mt regcache.MapType)
	R(vreg ir.Reg) rv.Reg
	RPtr(vreg ir.Reg) rv.Reg
	IsMappedAsPointer(vreg ir.Reg) bool
	IsNormalized32(vreg ir.Reg) bool
	MarkDirty(hr rv.Reg, norm32 bool)
	MarkPtrDirty(hr rv.Reg)
}

// Emitter encodes RV64 instructions.
type Emitter interface {
	ADDW(rd, rs1, rs2 rv.Reg)
	SUBW(rd, rs1, rs2 rv.Reg)
	AND(rd, rs1, rs2 rv.Reg)
	OR(rd, rs1, rs2 rv.Reg)
	XOR(rd, rs1, rs2 rv.Reg)
	ADDI(rd, rs1 rv.Reg, imm int32)
	ADDIW(rd, rs1 rv.Reg, imm int32)
	ANDI(rd, rs1 rv.Reg, imm int32)
	ORI(rd, rs1 rv.Reg, imm int32)
	XORI(rd, rs1 rv.Reg, imm int32)
	MV(rd, rs rv.Reg)
	NOT(rd, rs rv.Reg)
	SLLI(rd, rs1 rv.Reg, shamt uint8)
	SRAI(rd, rs1 rv.Reg, shamt uint8)
	SRAIW(rd, rs1 rv.Reg, shamt uint8)
	LI(rd rv.Reg, imm int32)
	SEXTB(rd, rs rv.Reg)
	SEXTH(rd, rs rv.Reg)
	REV8(rd, rs rv.Reg)
}

// Fallback compiles any instruction correctly, usually by calling into the
// interpreter.
type Fallback interface {
	CompileGeneric(inst ir.Inst)
}

// Caps are the host capabilities, fixed before translation starts.
type Caps struct {
	// Zbb reports the basic bit-manipulation extension.
	Zbb bool
	// AllowPointerMath permits arithmetic directly on registers cached in
	// pointer mode. It is off when guest and host addresses must stay
	// distinguishable.
	AllowPointerMath bool
}

var _ Emitter = (*rv.Assembler)(nil)
var _ RegCache = (*regcache.Cache)(nil)
