package rv

import (
	"encoding/binary"
	"fmt"
)

// Major opcodes.
const (
	opLoad     = 0x03
	opOpImm    = 0x13
	opOpImm32  = 0x1B
	opStore    = 0x23
	opOp       = 0x33
	opLUI      = 0x37
	opOp32     = 0x3B
	opJALR     = 0x67
	opSystem   = 0x73
	funct7Sub  = 0x20
	funct7Zbb  = 0x30
	rev8Imm    = 0x6B8
	sraiFlag   = 0x400
	ecallWord  = 0x00000073
	ebreakWord = 0x00100073
)

// Immediate limits of the I-type and S-type formats.
const (
	MinImm12 = -2048
	MaxImm12 = 2047
)

// FitsImm12 reports whether v is encodable as a 12-bit signed immediate.
func FitsImm12(v int32) bool {
	return v >= MinImm12 && v <= MaxImm12
}

// Assembler accumulates encoded RV64 instructions.
//
// Encoding errors (out-of-range immediates or shift amounts) are programming
// errors in the caller and panic.
type Assembler struct {
	words []uint32
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Len returns the number of instructions emitted so far.
func (a *Assembler) Len() int {
	return len(a.words)
}

// Words returns the emitted instruction words.
func (a *Assembler) Words() []uint32 {
	return a.words
}

// Bytes returns the emitted code in little-endian byte order.
func (a *Assembler) Bytes() []byte {
	buf := make([]byte, 4*len(a.words))
	for i, w := range a.words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

// Reset discards all emitted instructions.
func (a *Assembler) Reset() {
	a.words = a.words[:0]
}

// Emit appends a raw instruction word.
func (a *Assembler) Emit(word uint32) {
	a.words = append(a.words, word)
}

// R-type: funct7 | rs2 | rs1 | funct3 | rd | opcode
func encodeR(opcode, funct3, funct7 uint32, rd, rs1, rs2 Reg) uint32 {
	return opcode | uint32(rd)<<7 | funct3<<12 | uint32(rs1)<<15 | uint32(rs2)<<20 | funct7<<25
}

// I-type: imm[11:0] | rs1 | funct3 | rd | opcode
func encodeI(opcode, funct3 uint32, rd, rs1 Reg, imm int32) uint32 {
	return opcode | uint32(rd)<<7 | funct3<<12 | uint32(rs1)<<15 | uint32(imm&0xFFF)<<20
}

// S-type: imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | opcode
func encodeS(opcode, funct3 uint32, rs1, rs2 Reg, imm int32) uint32 {
	lo := uint32(imm & 0x1F)
	hi := uint32((imm >> 5) & 0x7F)
	return opcode | lo<<7 | funct3<<12 | uint32(rs1)<<15 | uint32(rs2)<<20 | hi<<25
}

// U-type: imm[31:12] | rd | opcode
func encodeU(opcode uint32, rd Reg, imm20 uint32) uint32 {
	return opcode | uint32(rd)<<7 | (imm20&0xFFFFF)<<12
}

func checkImm12(mnemonic string, imm int32) {
	if !FitsImm12(imm) {
		panic(fmt.Sprintf("rv: %s immediate %d out of range", mnemonic, imm))
	}
}

func checkShamt(mnemonic string, shamt, limit uint8) {
	if shamt >= limit {
		panic(fmt.Sprintf("rv: %s shift amount %d out of range", mnemonic, shamt))
	}
}

func (a *Assembler) rType(opcode, funct3, funct7 uint32, rd, rs1, rs2 Reg) {
	a.Emit(encodeR(opcode, funct3, funct7, rd, rs1, rs2))
}

func (a *Assembler) iType(mnemonic string, opcode, funct3 uint32, rd, rs1 Reg, imm int32) {
	checkImm12(mnemonic, imm)
	a.Emit(encodeI(opcode, funct3, rd, rs1, imm))
}

// ADD emits rd = rs1 + rs2 (64-bit).
func (a *Assembler) ADD(rd, rs1, rs2 Reg) { a.rType(opOp, 0, 0, rd, rs1, rs2) }

// SUB emits rd = rs1 - rs2 (64-bit).
func (a *Assembler) SUB(rd, rs1, rs2 Reg) { a.rType(opOp, 0, funct7Sub, rd, rs1, rs2) }

// ADDW emits rd = sext32(rs1 + rs2).
func (a *Assembler) ADDW(rd, rs1, rs2 Reg) { a.rType(opOp32, 0, 0, rd, rs1, rs2) }

// SUBW emits rd = sext32(rs1 - rs2).
func (a *Assembler) SUBW(rd, rs1, rs2 Reg) { a.rType(opOp32, 0, funct7Sub, rd, rs1, rs2) }

// AND emits rd = rs1 & rs2.
func (a *Assembler) AND(rd, rs1, rs2 Reg) { a.rType(opOp, 7, 0, rd, rs1, rs2) }

// OR emits rd = rs1 | rs2.
func (a *Assembler) OR(rd, rs1, rs2 Reg) { a.rType(opOp, 6, 0, rd, rs1, rs2) }

// XOR emits rd = rs1 ^ rs2.
func (a *Assembler) XOR(rd, rs1, rs2 Reg) { a.rType(opOp, 4, 0, rd, rs1, rs2) }

// ADDI emits rd = rs1 + imm (64-bit).
func (a *Assembler) ADDI(rd, rs1 Reg, imm int32) { a.iType("addi", opOpImm, 0, rd, rs1, imm) }

// ADDIW emits rd = sext32(rs1 + imm).
func (a *Assembler) ADDIW(rd, rs1 Reg, imm int32) { a.iType("addiw", opOpImm32, 0, rd, rs1, imm) }

// ANDI emits rd = rs1 & sext(imm).
func (a *Assembler) ANDI(rd, rs1 Reg, imm int32) { a.iType("andi", opOpImm, 7, rd, rs1, imm) }

// ORI emits rd = rs1 | sext(imm).
func (a *Assembler) ORI(rd, rs1 Reg, imm int32) { a.iType("ori", opOpImm, 6, rd, rs1, imm) }

// XORI emits rd = rs1 ^ sext(imm).
func (a *Assembler) XORI(rd, rs1 Reg, imm int32) { a.iType("xori", opOpImm, 4, rd, rs1, imm) }

// MV emits rd = rs.
func (a *Assembler) MV(rd, rs Reg) { a.ADDI(rd, rs, 0) }

// NOT emits rd = ^rs.
func (a *Assembler) NOT(rd, rs Reg) { a.XORI(rd, rs, -1) }

// SLLI emits rd = rs1 << shamt (64-bit).
func (a *Assembler) SLLI(rd, rs1 Reg, shamt uint8) {
	checkShamt("slli", shamt, 64)
	a.Emit(encodeI(opOpImm, 1, rd, rs1, int32(shamt)))
}

// SRLI emits rd = rs1 >> shamt, logical (64-bit).
func (a *Assembler) SRLI(rd, rs1 Reg, shamt uint8) {
	checkShamt("srli", shamt, 64)
	a.Emit(encodeI(opOpImm, 5, rd, rs1, int32(shamt)))
}

// SRAI emits rd = rs1 >> shamt, arithmetic (64-bit).
func (a *Assembler) SRAI(rd, rs1 Reg, shamt uint8) {
	checkShamt("srai", shamt, 64)
	a.Emit(encodeI(opOpImm, 5, rd, rs1, sraiFlag|int32(shamt)))
}

// SRAIW emits rd = sext32(int32(rs1) >> shamt).
func (a *Assembler) SRAIW(rd, rs1 Reg, shamt uint8) {
	checkShamt("sraiw", shamt, 32)
	a.Emit(encodeI(opOpImm32, 5, rd, rs1, sraiFlag|int32(shamt)))
}

// LUI emits rd = sext32(imm20 << 12).
func (a *Assembler) LUI(rd Reg, imm20 uint32) {
	a.Emit(encodeU(opLUI, rd, imm20))
}

// LI loads a sign-extended 32-bit constant into rd using ADDI, or LUI
// followed by ADDIW. The result is always normalized.
func (a *Assembler) LI(rd Reg, imm int32) {
	if FitsImm12(imm) {
		a.ADDI(rd, Zero, imm)
		return
	}
	hi := uint32((int64(imm) + 0x800) >> 12)
	lo := imm - int32(hi<<12)
	a.LUI(rd, hi)
	if lo != 0 {
		a.ADDIW(rd, rd, lo)
	}
}

// LW emits rd = sext32(mem32[rs1+off]).
func (a *Assembler) LW(rd, rs1 Reg, off int32) { a.iType("lw", opLoad, 2, rd, rs1, off) }

// LWU emits rd = zext32(mem32[rs1+off]).
func (a *Assembler) LWU(rd, rs1 Reg, off int32) { a.iType("lwu", opLoad, 6, rd, rs1, off) }

// LD emits rd = mem64[rs1+off].
func (a *Assembler) LD(rd, rs1 Reg, off int32) { a.iType("ld", opLoad, 3, rd, rs1, off) }

// SW emits mem32[rs1+off] = rs2.
func (a *Assembler) SW(rs2, rs1 Reg, off int32) {
	checkImm12("sw", off)
	a.Emit(encodeS(opStore, 2, rs1, rs2, off))
}

// SD emits mem64[rs1+off] = rs2.
func (a *Assembler) SD(rs2, rs1 Reg, off int32) {
	checkImm12("sd", off)
	a.Emit(encodeS(opStore, 3, rs1, rs2, off))
}

// JALR emits rd = pc+4; pc = rs1+off.
func (a *Assembler) JALR(rd, rs1 Reg, off int32) { a.iType("jalr", opJALR, 0, rd, rs1, off) }

// RET emits a return through ra.
func (a *Assembler) RET() { a.JALR(Zero, RA, 0) }

// ECALL emits an environment call.
func (a *Assembler) ECALL() { a.Emit(ecallWord) }

// EBREAK emits a breakpoint.
func (a *Assembler) EBREAK() { a.Emit(ebreakWord) }

// SEXTB emits rd = sext8(rs) (Zbb).
func (a *Assembler) SEXTB(rd, rs Reg) { a.rType(opOpImm, 1, funct7Zbb, rd, rs, 4) }

// SEXTH emits rd = sext16(rs) (Zbb).
func (a *Assembler) SEXTH(rd, rs Reg) { a.rType(opOpImm, 1, funct7Zbb, rd, rs, 5) }

// CLZ emits rd = count of leading zeros in the 64-bit rs (Zbb).
func (a *Assembler) CLZ(rd, rs Reg) { a.rType(opOpImm, 1, funct7Zbb, rd, rs, 0) }

// REV8 emits rd = byte-reversed 64-bit rs (Zbb).
func (a *Assembler) REV8(rd, rs Reg) { a.Emit(encodeI(opOpImm, 5, rd, rs, rev8Imm)) }
