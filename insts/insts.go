// Package insts provides RV64 instruction definitions and decoding.
//
// This package decodes RV64 machine code into structured instruction
// representations. It supports the subset emitted by the code generator:
//   - OP / OP-32: ADD, SUB, SLL, SLT, SLTU, XOR, SRL, SRA, OR, AND and W forms
//   - OP-IMM / OP-IMM-32: ADDI, SLTI, SLTIU, XORI, ORI, ANDI, shifts, W forms
//   - Zbb: SEXT.B, SEXT.H, REV8, CLZ
//   - LUI, LW, LWU, LD, SW, SD, JALR, ECALL, EBREAK
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00150513) // addi a0, a0, 1
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts
