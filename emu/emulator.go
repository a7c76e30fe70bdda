// Package emu provides functional RV64 emulation.
package emu

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/rvjit/insts"
)

// Errors reported through StepResult.Err.
var (
	// ErrMaxInstructions is returned once the instruction limit is reached.
	ErrMaxInstructions = errors.New("max instructions reached")

	// ErrUnknownInstruction is returned for words outside the decoded subset.
	ErrUnknownInstruction = errors.New("unknown instruction")

	// ErrTrap is returned when an EBREAK executes.
	ErrTrap = errors.New("ebreak trap")
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via exit syscall or a
	// return to the halt address).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes RV64 instructions functionally.
type Emulator struct {
	regFile        *RegFile
	memory         *Memory
	decoder        *insts.Decoder
	syscallHandler SyscallHandler

	// Execution units
	alu *ALU
	lsu *LoadStoreUnit

	// I/O
	stdout io.Writer
	stderr io.Writer

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	haltAddress      uint64
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithHaltAddress sets the address whose execution ends the program. A jump
// to it (normally through ra) exits with the value of a0 as exit code.
func WithHaltAddress(addr uint64) EmulatorOption {
	return func(e *Emulator) {
		e.haltAddress = addr
	}
}

// DefaultHaltAddress is the halt address used when none is configured.
const DefaultHaltAddress uint64 = 0xFFFF_FFFF_FFFF_F000

// NewEmulator creates a new RV64 emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	regFile := &RegFile{}
	memory := NewMemory()

	e := &Emulator{
		regFile:     regFile,
		memory:      memory,
		decoder:     insts.NewDecoder(),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		haltAddress: DefaultHaltAddress,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.alu = NewALU(regFile)
	e.lsu = NewLoadStoreUnit(regFile, memory)

	if e.syscallHandler == nil {
		e.syscallHandler = NewDefaultSyscallHandler(regFile, memory, e.stdout, e.stderr)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// HaltAddress returns the address that terminates execution.
func (e *Emulator) HaltAddress() uint64 {
	return e.haltAddress
}

// SetSyscallHandler replaces the handler invoked on ECALL. Handlers usually
// need the emulator's register file and memory, so they are often attached
// after construction.
func (e *Emulator) SetSyscallHandler(handler SyscallHandler) {
	e.syscallHandler = handler
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram copies program into memory at entry and sets the PC to it.
func (e *Emulator) LoadProgram(entry uint64, program []byte) {
	e.memory.LoadProgram(entry, program)
	e.regFile.PC = entry
}

// Call prepares a call to entry: the PC is set to entry and ra to the halt
// address, so that a RET from the callee ends the run.
func (e *Emulator) Call(entry uint64) {
	e.regFile.PC = entry
	e.regFile.WriteReg(1, e.haltAddress)
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	if e.regFile.PC == e.haltAddress {
		return StepResult{Exited: true, ExitCode: int64(e.regFile.ReadReg(10))}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	word := e.memory.Read32(e.regFile.PC)
	inst := e.decoder.Decode(word)
	result := e.execute(inst, word)

	e.instructionCount++

	return result
}

// Run executes instructions until the program exits or an error occurs.
// Returns the exit code (-1 if error).
func (e *Emulator) Run() int64 {
	for {
		result := e.Step()
		if result.Err != nil {
			_, _ = fmt.Fprintf(e.stderr, "Emulation error: %v\n", result.Err)
			return -1
		}
		if result.Exited {
			return result.ExitCode
		}
	}
}

// RunUntil executes instructions until the PC reaches stop, the program exits,
// or an error occurs. The instruction at stop is not executed.
func (e *Emulator) RunUntil(stop uint64) StepResult {
	for e.regFile.PC != stop {
		result := e.Step()
		if result.Exited || result.Err != nil {
			return result
		}
	}
	return StepResult{}
}

// execute dispatches and executes a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction, word uint32) StepResult {
	switch inst.Op {
	case insts.OpUnknown:
		return StepResult{
			Err: fmt.Errorf("%w 0x%08X at PC=0x%X", ErrUnknownInstruction, word, e.regFile.PC),
		}
	case insts.OpECALL:
		return e.executeECALL()
	case insts.OpEBREAK:
		return StepResult{
			Exited:   true,
			ExitCode: -1,
			Err:      fmt.Errorf("%w at PC=0x%X", ErrTrap, e.regFile.PC),
		}
	case insts.OpJALR:
		e.executeJALR(inst)
		return StepResult{}
	}

	switch inst.Format {
	case insts.FormatR:
		e.executeRegReg(inst)
	case insts.FormatI:
		if !e.executeLoad(inst) {
			e.executeRegImm(inst)
		}
	case insts.FormatS:
		e.executeStore(inst)
	case insts.FormatU:
		e.alu.LUI(inst.Rd, inst.Imm)
	default:
		return StepResult{
			Err: fmt.Errorf("unimplemented format %d at PC=0x%X", inst.Format, e.regFile.PC),
		}
	}

	e.regFile.PC += 4

	return StepResult{}
}

// executeECALL invokes the syscall handler.
func (e *Emulator) executeECALL() StepResult {
	// Advance PC first (syscall return address is next instruction)
	e.regFile.PC += 4

	syscallResult := e.syscallHandler.Handle()

	return StepResult{
		Exited:   syscallResult.Exited,
		ExitCode: syscallResult.ExitCode,
		Err:      syscallResult.Err,
	}
}

func (e *Emulator) executeJALR(inst *insts.Instruction) {
	target := (e.regFile.ReadReg(inst.Rs1) + uint64(inst.Imm)) &^ 1
	e.regFile.WriteReg(inst.Rd, e.regFile.PC+4)
	e.regFile.PC = target
}

func (e *Emulator) executeRegReg(inst *insts.Instruction) {
	rd, rs1, rs2 := inst.Rd, inst.Rs1, inst.Rs2

	switch inst.Op {
	case insts.OpADD:
		e.alu.ADD64(rd, rs1, rs2)
	case insts.OpSUB:
		e.alu.SUB64(rd, rs1, rs2)
	case insts.OpSLL:
		e.alu.SLL64(rd, rs1, rs2)
	case insts.OpSLT:
		e.alu.SLT(rd, rs1, rs2)
	case insts.OpSLTU:
		e.alu.SLTU(rd, rs1, rs2)
	case insts.OpXOR:
		e.alu.XOR64(rd, rs1, rs2)
	case insts.OpSRL:
		e.alu.SRL64(rd, rs1, rs2)
	case insts.OpSRA:
		e.alu.SRA64(rd, rs1, rs2)
	case insts.OpOR:
		e.alu.OR64(rd, rs1, rs2)
	case insts.OpAND:
		e.alu.AND64(rd, rs1, rs2)
	case insts.OpADDW:
		e.alu.ADD32(rd, rs1, rs2)
	case insts.OpSUBW:
		e.alu.SUB32(rd, rs1, rs2)
	case insts.OpSLLW:
		e.alu.SLL32(rd, rs1, rs2)
	case insts.OpSRLW:
		e.alu.SRL32(rd, rs1, rs2)
	case insts.OpSRAW:
		e.alu.SRA32(rd, rs1, rs2)
	case insts.OpSEXTB:
		e.alu.SEXTB(rd, rs1)
	case insts.OpSEXTH:
		e.alu.SEXTH(rd, rs1)
	case insts.OpREV8:
		e.alu.REV8(rd, rs1)
	case insts.OpCLZ:
		e.alu.CLZ(rd, rs1)
	}
}

func (e *Emulator) executeRegImm(inst *insts.Instruction) {
	rd, rs1, imm := inst.Rd, inst.Rs1, inst.Imm

	switch inst.Op {
	case insts.OpADDI:
		e.alu.ADD64Imm(rd, rs1, imm)
	case insts.OpSLTI:
		e.alu.SLTImm(rd, rs1, imm)
	case insts.OpSLTIU:
		e.alu.SLTUImm(rd, rs1, imm)
	case insts.OpXORI:
		e.alu.XOR64Imm(rd, rs1, imm)
	case insts.OpORI:
		e.alu.OR64Imm(rd, rs1, imm)
	case insts.OpANDI:
		e.alu.AND64Imm(rd, rs1, imm)
	case insts.OpSLLI:
		e.alu.SLL64Imm(rd, rs1, imm)
	case insts.OpSRLI:
		e.alu.SRL64Imm(rd, rs1, imm)
	case insts.OpSRAI:
		e.alu.SRA64Imm(rd, rs1, imm)
	case insts.OpADDIW:
		e.alu.ADD32Imm(rd, rs1, imm)
	case insts.OpSLLIW:
		e.alu.SLL32Imm(rd, rs1, imm)
	case insts.OpSRLIW:
		e.alu.SRL32Imm(rd, rs1, imm)
	case insts.OpSRAIW:
		e.alu.SRA32Imm(rd, rs1, imm)
	}
}

// executeLoad executes the load instructions and reports whether inst was one.
func (e *Emulator) executeLoad(inst *insts.Instruction) bool {
	switch inst.Op {
	case insts.OpLW:
		e.lsu.LW(inst.Rd, inst.Rs1, inst.Imm)
	case insts.OpLWU:
		e.lsu.LWU(inst.Rd, inst.Rs1, inst.Imm)
	case insts.OpLD:
		e.lsu.LD(inst.Rd, inst.Rs1, inst.Imm)
	default:
		return false
	}
	return true
}

func (e *Emulator) executeStore(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpSW:
		e.lsu.SW(inst.Rs2, inst.Rs1, inst.Imm)
	case insts.OpSD:
		e.lsu.SD(inst.Rs2, inst.Rs1, inst.Imm)
	}
}
