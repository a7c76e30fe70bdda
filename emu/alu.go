// Package emu provides functional RV64 emulation.
package emu

import "math/bits"

// ALU implements RV64 integer arithmetic and logic operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

func (a *ALU) binary64(rd, rs1, rs2 uint8, f func(x, y uint64) uint64) {
	a.regFile.WriteReg(rd, f(a.regFile.ReadReg(rs1), a.regFile.ReadReg(rs2)))
}

func (a *ALU) binary32(rd, rs1, rs2 uint8, f func(x, y uint32) uint32) {
	a.regFile.WriteReg32(rd, f(a.regFile.ReadReg32(rs1), a.regFile.ReadReg32(rs2)))
}

// ADD64 performs xd = xs1 + xs2.
func (a *ALU) ADD64(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return x + y })
}

// SUB64 performs xd = xs1 - xs2.
func (a *ALU) SUB64(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return x - y })
}

// AND64 performs xd = xs1 & xs2.
func (a *ALU) AND64(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return x & y })
}

// OR64 performs xd = xs1 | xs2.
func (a *ALU) OR64(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return x | y })
}

// XOR64 performs xd = xs1 ^ xs2.
func (a *ALU) XOR64(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return x ^ y })
}

// SLL64 performs xd = xs1 << (xs2 & 63).
func (a *ALU) SLL64(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return x << (y & 63) })
}

// SRL64 performs a logical xd = xs1 >> (xs2 & 63).
func (a *ALU) SRL64(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return x >> (y & 63) })
}

// SRA64 performs an arithmetic xd = xs1 >> (xs2 & 63).
func (a *ALU) SRA64(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return uint64(int64(x) >> (y & 63)) })
}

// SLT sets xd to 1 if xs1 < xs2 (signed).
func (a *ALU) SLT(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return boolToU64(int64(x) < int64(y)) })
}

// SLTU sets xd to 1 if xs1 < xs2 (unsigned).
func (a *ALU) SLTU(rd, rs1, rs2 uint8) {
	a.binary64(rd, rs1, rs2, func(x, y uint64) uint64 { return boolToU64(x < y) })
}

// ADD32 performs xd = sext32(xs1 + xs2).
func (a *ALU) ADD32(rd, rs1, rs2 uint8) {
	a.binary32(rd, rs1, rs2, func(x, y uint32) uint32 { return x + y })
}

// SUB32 performs xd = sext32(xs1 - xs2).
func (a *ALU) SUB32(rd, rs1, rs2 uint8) {
	a.binary32(rd, rs1, rs2, func(x, y uint32) uint32 { return x - y })
}

// SLL32 performs xd = sext32(xs1 << (xs2 & 31)).
func (a *ALU) SLL32(rd, rs1, rs2 uint8) {
	a.binary32(rd, rs1, rs2, func(x, y uint32) uint32 { return x << (y & 31) })
}

// SRL32 performs xd = sext32(uint32(xs1) >> (xs2 & 31)).
func (a *ALU) SRL32(rd, rs1, rs2 uint8) {
	a.binary32(rd, rs1, rs2, func(x, y uint32) uint32 { return x >> (y & 31) })
}

// SRA32 performs xd = sext32(int32(xs1) >> (xs2 & 31)).
func (a *ALU) SRA32(rd, rs1, rs2 uint8) {
	a.binary32(rd, rs1, rs2, func(x, y uint32) uint32 { return uint32(int32(x) >> (y & 31)) })
}

// ADD64Imm performs xd = xs1 + imm.
func (a *ALU) ADD64Imm(rd, rs1 uint8, imm int64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)+uint64(imm))
}

// AND64Imm performs xd = xs1 & imm.
func (a *ALU) AND64Imm(rd, rs1 uint8, imm int64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)&uint64(imm))
}

// OR64Imm performs xd = xs1 | imm.
func (a *ALU) OR64Imm(rd, rs1 uint8, imm int64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)|uint64(imm))
}

// XOR64Imm performs xd = xs1 ^ imm.
func (a *ALU) XOR64Imm(rd, rs1 uint8, imm int64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)^uint64(imm))
}

// SLTImm sets xd to 1 if xs1 < imm (signed).
func (a *ALU) SLTImm(rd, rs1 uint8, imm int64) {
	a.regFile.WriteReg(rd, boolToU64(int64(a.regFile.ReadReg(rs1)) < imm))
}

// SLTUImm sets xd to 1 if xs1 < uint64(imm) (unsigned).
func (a *ALU) SLTUImm(rd, rs1 uint8, imm int64) {
	a.regFile.WriteReg(rd, boolToU64(a.regFile.ReadReg(rs1) < uint64(imm)))
}

// SLL64Imm performs xd = xs1 << shamt.
func (a *ALU) SLL64Imm(rd, rs1 uint8, shamt int64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)<<(shamt&63))
}

// SRL64Imm performs a logical xd = xs1 >> shamt.
func (a *ALU) SRL64Imm(rd, rs1 uint8, shamt int64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)>>(shamt&63))
}

// SRA64Imm performs an arithmetic xd = xs1 >> shamt.
func (a *ALU) SRA64Imm(rd, rs1 uint8, shamt int64) {
	a.regFile.WriteReg(rd, uint64(int64(a.regFile.ReadReg(rs1))>>(shamt&63)))
}

// ADD32Imm performs xd = sext32(xs1 + imm).
func (a *ALU) ADD32Imm(rd, rs1 uint8, imm int64) {
	a.regFile.WriteReg32(rd, a.regFile.ReadReg32(rs1)+uint32(imm))
}

// SLL32Imm performs xd = sext32(xs1 << shamt).
func (a *ALU) SLL32Imm(rd, rs1 uint8, shamt int64) {
	a.regFile.WriteReg32(rd, a.regFile.ReadReg32(rs1)<<(shamt&31))
}

// SRL32Imm performs xd = sext32(uint32(xs1) >> shamt).
func (a *ALU) SRL32Imm(rd, rs1 uint8, shamt int64) {
	a.regFile.WriteReg32(rd, a.regFile.ReadReg32(rs1)>>(shamt&31))
}

// SRA32Imm performs xd = sext32(int32(xs1) >> shamt).
func (a *ALU) SRA32Imm(rd, rs1 uint8, shamt int64) {
	a.regFile.WriteReg32(rd, uint32(int32(a.regFile.ReadReg32(rs1))>>(shamt&31)))
}

// LUI performs xd = imm, where imm is the already shifted, sign-extended value.
func (a *ALU) LUI(rd uint8, imm int64) {
	a.regFile.WriteReg(rd, uint64(imm))
}

// SEXTB performs xd = sext8(xs1).
func (a *ALU) SEXTB(rd, rs1 uint8) {
	a.regFile.WriteReg(rd, uint64(int64(int8(a.regFile.ReadReg(rs1)))))
}

// SEXTH performs xd = sext16(xs1).
func (a *ALU) SEXTH(rd, rs1 uint8) {
	a.regFile.WriteReg(rd, uint64(int64(int16(a.regFile.ReadReg(rs1)))))
}

// REV8 reverses the bytes of the full 64-bit register.
func (a *ALU) REV8(rd, rs1 uint8) {
	a.regFile.WriteReg(rd, bits.ReverseBytes64(a.regFile.ReadReg(rs1)))
}

// CLZ counts leading zeros of the full 64-bit register.
func (a *ALU) CLZ(rd, rs1 uint8) {
	a.regFile.WriteReg(rd, uint64(bits.LeadingZeros64(a.regFile.ReadReg(rs1))))
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
