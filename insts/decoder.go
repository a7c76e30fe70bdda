// Package insts provides RV64 instruction definitions and decoding.
package insts

import "fmt"

// Op represents an RV64 opcode.
type Op uint16

// RV64 opcodes.
const (
	OpUnknown Op = iota
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpLUI
	OpLW
	OpLWU
	OpLD
	OpSW
	OpSD
	OpJALR
	OpECALL
	OpEBREAK
	OpSEXTB
	OpSEXTH
	OpREV8
	OpCLZ
)

var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpADD:     "add", OpSUB: "sub", OpSLL: "sll", OpSLT: "slt", OpSLTU: "sltu",
	OpXOR: "xor", OpSRL: "srl", OpSRA: "sra", OpOR: "or", OpAND: "and",
	OpADDW: "addw", OpSUBW: "subw", OpSLLW: "sllw", OpSRLW: "srlw", OpSRAW: "sraw",
	OpADDI: "addi", OpSLTI: "slti", OpSLTIU: "sltiu", OpXORI: "xori", OpORI: "ori",
	OpANDI: "andi", OpSLLI: "slli", OpSRLI: "srli", OpSRAI: "srai",
	OpADDIW: "addiw", OpSLLIW: "slliw", OpSRLIW: "srliw", OpSRAIW: "sraiw",
	OpLUI: "lui", OpLW: "lw", OpLWU: "lwu", OpLD: "ld", OpSW: "sw", OpSD: "sd",
	OpJALR: "jalr", OpECALL: "ecall", OpEBREAK: "ebreak",
	OpSEXTB: "sext.b", OpSEXTH: "sext.h", OpREV8: "rev8", OpCLZ: "clz",
}

// String returns the assembler mnemonic.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint16(op))
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR           // register-register
	FormatI           // register-immediate, loads, JALR
	FormatS           // stores
	FormatU           // LUI
	FormatSystem      // ECALL, EBREAK
)

// Instruction represents a decoded RV64 instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format

	Rd  uint8 // Destination register
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register (R and S formats)

	// Imm is the sign-extended immediate. For shifts it holds the shift
	// amount; for LUI it holds the already shifted 32-bit value.
	Imm int64
}

// Major opcodes.
const (
	majorLoad    = 0x03
	majorOpImm   = 0x13
	majorOpImm32 = 0x1B
	majorStore   = 0x23
	majorOp      = 0x33
	majorLUI     = 0x37
	majorOp32    = 0x3B
	majorJALR    = 0x67
	majorSystem  = 0x73
)

// Decoder decodes RV64 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV64 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV64 instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown}

	inst.Rd = uint8((word >> 7) & 0x1F)   // bits [11:7]
	inst.Rs1 = uint8((word >> 15) & 0x1F) // bits [19:15]
	inst.Rs2 = uint8((word >> 20) & 0x1F) // bits [24:20]

	switch word & 0x7F {
	case majorOp:
		d.decodeOp(word, inst)
	case majorOp32:
		d.decodeOp32(word, inst)
	case majorOpImm:
		d.decodeOpImm(word, inst)
	case majorOpImm32:
		d.decodeOpImm32(word, inst)
	case majorLUI:
		inst.Format = FormatU
		inst.Op = OpLUI
		inst.Imm = int64(int32(word & 0xFFFFF000))
	case majorLoad:
		d.decodeLoad(word, inst)
	case majorStore:
		d.decodeStore(word, inst)
	case majorJALR:
		if funct3(word) == 0 {
			inst.Format = FormatI
			inst.Op = OpJALR
			inst.Imm = immI(word)
		}
	case majorSystem:
		d.decodeSystem(word, inst)
	}

	return inst
}

func funct3(word uint32) uint32 {
	return (word >> 12) & 0x7 // bits [14:12]
}

func funct7(word uint32) uint32 {
	return word >> 25 // bits [31:25]
}

// immI extracts the sign-extended I-type immediate, bits [31:20].
func immI(word uint32) int64 {
	return int64(int32(word) >> 20)
}

// immS extracts the sign-extended S-type immediate, bits [31:25] and [11:7].
func immS(word uint32) int64 {
	hi := int32(word) >> 25
	lo := int32((word >> 7) & 0x1F)
	return int64(hi<<5 | lo)
}

// decodeOp decodes OP register-register instructions.
// Format: funct7 | rs2 | rs1 | funct3 | rd | 0110011
func (d *Decoder) decodeOp(word uint32, inst *Instruction) {
	inst.Format = FormatR

	switch f3, f7 := funct3(word), funct7(word); {
	case f7 == 0x00:
		inst.Op = [8]Op{OpADD, OpSLL, OpSLT, OpSLTU, OpXOR, OpSRL, OpOR, OpAND}[f3]
	case f7 == 0x20 && f3 == 0:
		inst.Op = OpSUB
	case f7 == 0x20 && f3 == 5:
		inst.Op = OpSRA
	default:
		inst.Format = FormatUnknown
	}
}

// decodeOp32 decodes OP-32 register-register instructions (W forms).
func (d *Decoder) decodeOp32(word uint32, inst *Instruction) {
	inst.Format = FormatR

	switch f3, f7 := funct3(word), funct7(word); {
	case f7 == 0x00 && f3 == 0:
		inst.Op = OpADDW
	case f7 == 0x20 && f3 == 0:
		inst.Op = OpSUBW
	case f7 == 0x00 && f3 == 1:
		inst.Op = OpSLLW
	case f7 == 0x00 && f3 == 5:
		inst.Op = OpSRLW
	case f7 == 0x20 && f3 == 5:
		inst.Op = OpSRAW
	default:
		inst.Format = FormatUnknown
	}
}

// decodeOpImm decodes OP-IMM instructions, including the Zbb unary ops that
// share its funct3=1 and funct3=5 encodings.
// Format: imm[11:0] | rs1 | funct3 | rd | 0010011
func (d *Decoder) decodeOpImm(word uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Imm = immI(word)
	imm12 := (word >> 20) & 0xFFF
	shamt := int64((word >> 20) & 0x3F)
	funct6 := word >> 26

	switch funct3(word) {
	case 0:
		inst.Op = OpADDI
	case 2:
		inst.Op = OpSLTI
	case 3:
		inst.Op = OpSLTIU
	case 4:
		inst.Op = OpXORI
	case 6:
		inst.Op = OpORI
	case 7:
		inst.Op = OpANDI
	case 1:
		switch {
		case funct6 == 0:
			inst.Op = OpSLLI
			inst.Imm = shamt
		case funct7(word) == 0x30:
			inst.Format = FormatR
			inst.Imm = 0
			switch inst.Rs2 {
			case 0:
				inst.Op = OpCLZ
			case 4:
				inst.Op = OpSEXTB
			case 5:
				inst.Op = OpSEXTH
			}
		}
	case 5:
		switch {
		case imm12 == 0x6B8:
			inst.Format = FormatR
			inst.Op = OpREV8
			inst.Imm = 0
		case funct6 == 0x00:
			inst.Op = OpSRLI
			inst.Imm = shamt
		case funct6 == 0x10:
			inst.Op = OpSRAI
			inst.Imm = shamt
		}
	}

	if inst.Op == OpUnknown {
		inst.Format = FormatUnknown
	}
}

// decodeOpImm32 decodes OP-IMM-32 instructions (W forms).
func (d *Decoder) decodeOpImm32(word uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Imm = immI(word)
	shamt := int64((word >> 20) & 0x1F)

	switch f3, f7 := funct3(word), funct7(word); {
	case f3 == 0:
		inst.Op = OpADDIW
	case f3 == 1 && f7 == 0x00:
		inst.Op = OpSLLIW
		inst.Imm = shamt
	case f3 == 5 && f7 == 0x00:
		inst.Op = OpSRLIW
		inst.Imm = shamt
	case f3 == 5 && f7 == 0x20:
		inst.Op = OpSRAIW
		inst.Imm = shamt
	default:
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeLoad(word uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Imm = immI(word)

	switch funct3(word) {
	case 2:
		inst.Op = OpLW
	case 3:
		inst.Op = OpLD
	case 6:
		inst.Op = OpLWU
	default:
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeStore(word uint32, inst *Instruction) {
	inst.Format = FormatS
	inst.Imm = immS(word)
	inst.Rd = 0

	switch funct3(word) {
	case 2:
		inst.Op = OpSW
	case 3:
		inst.Op = OpSD
	default:
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeSystem(word uint32, inst *Instruction) {
	switch word {
	case 0x00000073:
		inst.Format = FormatSystem
		inst.Op = OpECALL
	case 0x00100073:
		inst.Format = FormatSystem
		inst.Op = OpEBREAK
	}
}
