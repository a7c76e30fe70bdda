package ir

import "fmt"

// Reg identifies a guest general-purpose register (0-31).
type Reg uint8

// NumGPRs is the number of guest general-purpose registers.
const NumGPRs = 32

// Guest context layout. GPRs are 32-bit little-endian slots followed by LO
// and HI.
const (
	LoOffset    = 4 * NumGPRs
	HiOffset    = LoOffset + 4
	ContextSize = HiOffset + 4
)

// Offset returns the byte offset of the register's slot in the guest context.
func (r Reg) Offset() int32 {
	return int32(r) * 4
}

// Valid reports whether r names a guest GPR.
func (r Reg) Valid() bool {
	return r < NumGPRs
}

// String returns the register name.
func (r Reg) String() string {
	return fmt.Sprintf("r%d", uint8(r))
}

// Inst is a single IR instruction.
type Inst struct {
	Op       Op
	Dest     Reg
	Src1     Reg
	Src2     Reg
	Constant uint32
}

// Instruction constructors used by front ends and tests.

// DSS builds a dest, src1, src2 instruction.
func DSS(op Op, dest, src1, src2 Reg) Inst {
	return Inst{Op: op, Dest: dest, Src1: src1, Src2: src2}
}

// DS builds a dest, src1 instruction.
func DS(op Op, dest, src1 Reg) Inst {
	return Inst{Op: op, Dest: dest, Src1: src1}
}

// DSC builds a dest, src1, constant instruction.
func DSC(op Op, dest, src1 Reg, c uint32) Inst {
	return Inst{Op: op, Dest: dest, Src1: src1, Constant: c}
}

// SS builds an instruction reading two sources into LO/HI.
func SS(op Op, src1, src2 Reg) Inst {
	return Inst{Op: op, Src1: src1, Src2: src2}
}

// S builds an instruction reading one source into LO or HI.
func S(op Op, src1 Reg) Inst {
	return Inst{Op: op, Src1: src1}
}

// D builds an instruction writing dest from LO or HI.
func D(op Op, dest Reg) Inst {
	return Inst{Op: op, Dest: dest}
}

// Validate checks that the opcode is known and every register operand used
// by its form is a valid GPR.
func (inst Inst) Validate() error {
	if !inst.Op.Valid() {
		return fmt.Errorf("invalid opcode %d", uint8(inst.Op))
	}

	var regs []Reg
	switch inst.Op.Form() {
	case FormDSS:
		regs = []Reg{inst.Dest, inst.Src1, inst.Src2}
	case FormDS, FormDSC:
		regs = []Reg{inst.Dest, inst.Src1}
	case FormSS:
		regs = []Reg{inst.Src1, inst.Src2}
	case FormS:
		regs = []Reg{inst.Src1}
	case FormD:
		regs = []Reg{inst.Dest}
	}

	for _, r := range regs {
		if !r.Valid() {
			return fmt.Errorf("%s: register %d out of range", inst.Op, uint8(r))
		}
	}
	return nil
}

// String formats the instruction in the listing syntax accepted by the loader.
func (inst Inst) String() string {
	switch inst.Op.Form() {
	case FormDSS:
		return fmt.Sprintf("%s %s, %s, %s", inst.Op, inst.Dest, inst.Src1, inst.Src2)
	case FormDS:
		return fmt.Sprintf("%s %s, %s", inst.Op, inst.Dest, inst.Src1)
	case FormDSC:
		return fmt.Sprintf("%s %s, %s, 0x%x", inst.Op, inst.Dest, inst.Src1, inst.Constant)
	case FormSS:
		return fmt.Sprintf("%s %s, %s", inst.Op, inst.Src1, inst.Src2)
	case FormS:
		return fmt.Sprintf("%s %s", inst.Op, inst.Src1)
	case FormD:
		return fmt.Sprintf("%s %s", inst.Op, inst.Dest)
	default:
		return inst.Op.String()
	}
}
