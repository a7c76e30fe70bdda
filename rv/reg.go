// Package rv provides RV64 instruction encoding.
//
// The assembler covers the integer subset used by the code generator: base
// RV64I arithmetic, logic, shifts, loads/stores, LUI, JALR and ECALL, plus the
// Zbb sign-extension, byte-reverse and count-leading-zeros instructions.
package rv

import "fmt"

// Reg is an RV64 integer register number (x0-x31).
type Reg uint8

// Integer registers by ABI name.
const (
	Zero Reg = iota
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6
)

// XLEN is the host register width in bits.
const XLEN = 64

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// String returns the ABI name of the register.
func (r Reg) String() string {
	if r >= 32 {
		return fmt.Sprintf("x%d?", uint8(r))
	}
	return regNames[r]
}
