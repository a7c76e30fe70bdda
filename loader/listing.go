// Package loader reads IR programs from textual listings.
//
// A listing is a sequence of blocks. Each block starts with a header line
// giving its guest address and is followed by one instruction per line in
// the syntax printed by ir.Inst.String:
//
//	# initial guest state
//	set r5, 0x7fffffff
//
//	block 0x1000
//	    AddConst r1, r5, 1
//	    Ext8to32 r2, r1
//	    Mult r1, r2
//
// Registers are written r0..r31, constants in decimal or 0x hex and may be
// negative. Everything after '#' is a comment.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/rvjit/interp"
	"github.com/sarchlab/rvjit/ir"
)

// Block is a straight-line run of IR instructions at a guest address.
type Block struct {
	Addr  uint32
	Insts []ir.Inst
}

// Program is a parsed listing.
type Program struct {
	// Init is the guest state before the first block, set by "set" lines.
	Init interp.Context

	// Blocks are in listing order.
	Blocks []Block
}

// Block returns the block at addr.
func (p *Program) Block(addr uint32) (*Block, bool) {
	for i := range p.Blocks {
		if p.Blocks[i].Addr == addr {
			return &p.Blocks[i], true
		}
	}
	return nil, false
}

// NumInsts returns the total instruction count.
func (p *Program) NumInsts() int {
	n := 0
	for _, b := range p.Blocks {
		n += len(b.Insts)
	}
	return n
}

// Load parses the listing file at path.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open listing: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// Parse reads a listing.
func Parse(r io.Reader) (*Program, error) {
	p := &parser{prog: &Program{}, seen: make(map[uint32]bool)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	return p.prog, nil
}

// Write prints prog in the syntax Parse accepts.
func Write(w io.Writer, prog *Program) error {
	bw := bufio.NewWriter(w)

	for i, v := range prog.Init.GPR {
		if v != 0 {
			fmt.Fprintf(bw, "set %s, %#x\n", ir.Reg(i), v)
		}
	}
	if prog.Init.Lo != 0 {
		fmt.Fprintf(bw, "set lo, %#x\n", prog.Init.Lo)
	}
	if prog.Init.Hi != 0 {
		fmt.Fprintf(bw, "set hi, %#x\n", prog.Init.Hi)
	}

	for _, b := range prog.Blocks {
		fmt.Fprintf(bw, "\nblock %#x\n", b.Addr)
		for _, inst := range b.Insts {
			fmt.Fprintf(bw, "    %s\n", inst)
		}
	}

	return bw.Flush()
}

type parser struct {
	prog *Program
	cur  *Block
	seen map[uint32]bool
	line int
}

func (p *parser) parseLine(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	mnemonic, rest := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		mnemonic, rest = text[:i], text[i+1:]
	}
	operands := splitOperands(rest)

	switch strings.ToLower(mnemonic) {
	case "block":
		return p.parseBlock(operands)
	case "set":
		return p.parseSet(operands)
	}

	if p.cur == nil {
		return fmt.Errorf("instruction outside a block")
	}

	inst, err := ParseInst(mnemonic, operands)
	if err != nil {
		return err
	}
	p.cur.Insts = append(p.cur.Insts, inst)
	return nil
}

func (p *parser) parseBlock(operands []string) error {
	if len(operands) != 1 {
		return fmt.Errorf("block takes one address")
	}
	addr, err := strconv.ParseUint(operands[0], 0, 32)
	if err != nil {
		return fmt.Errorf("bad block address %q", operands[0])
	}
	if p.seen[uint32(addr)] {
		return fmt.Errorf("duplicate block %#x", addr)
	}
	p.seen[uint32(addr)] = true

	p.prog.Blocks = append(p.prog.Blocks, Block{Addr: uint32(addr)})
	p.cur = &p.prog.Blocks[len(p.prog.Blocks)-1]
	return nil
}

func (p *parser) parseSet(operands []string) error {
	if len(operands) != 2 {
		return fmt.Errorf("set takes a register and a value")
	}
	return Assign(&p.prog.Init, operands[0], operands[1])
}

// Assign parses value and stores it in the register of ctx named by name:
// r0..r31, lo or hi.
func Assign(ctx *interp.Context, name, value string) error {
	v, err := ParseConst(value)
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lo":
		ctx.Lo = v
	case "hi":
		ctx.Hi = v
	default:
		r, err := ParseReg(name)
		if err != nil {
			return err
		}
		ctx.GPR[r] = v
	}
	return nil
}

// ParseInst builds an instruction from a mnemonic and its operands, checking
// the operand count against the opcode's form.
func ParseInst(mnemonic string, operands []string) (ir.Inst, error) {
	op, err := ir.ParseOp(mnemonic)
	if err != nil {
		return ir.Inst{}, err
	}

	var fields []*ir.Reg
	inst := ir.Inst{Op: op}
	switch op.Form() {
	case ir.FormDSS:
		fields = []*ir.Reg{&inst.Dest, &inst.Src1, &inst.Src2}
	case ir.FormDS, ir.FormDSC:
		fields = []*ir.Reg{&inst.Dest, &inst.Src1}
	case ir.FormSS:
		fields = []*ir.Reg{&inst.Src1, &inst.Src2}
	case ir.FormS:
		fields = []*ir.Reg{&inst.Src1}
	case ir.FormD:
		fields = []*ir.Reg{&inst.Dest}
	}

	want := len(fields)
	if op.Form() == ir.FormDSC {
		want++
	}
	if len(operands) != want {
		return ir.Inst{}, fmt.Errorf("%s takes %d operands, got %d", op, want, len(operands))
	}

	for i, field := range fields {
		if *field, err = ParseReg(operands[i]); err != nil {
			return ir.Inst{}, err
		}
	}
	if op.Form() == ir.FormDSC {
		if inst.Constant, err = ParseConst(operands[want-1]); err != nil {
			return ir.Inst{}, err
		}
	}

	return inst, nil
}

// ParseReg parses a register name r0..r31.
func ParseReg(s string) (ir.Reg, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || (s[0] != 'r' && s[0] != 'R') {
		return 0, fmt.Errorf("bad register %q", s)
	}
	n, err := strconv.ParseUint(s[1:], 10, 8)
	if err != nil || !ir.Reg(n).Valid() {
		return 0, fmt.Errorf("bad register %q", s)
	}
	return ir.Reg(n), nil
}

// ParseConst accepts any value representable as int32 or uint32 and returns
// its 32-bit pattern.
func ParseConst(s string) (uint32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
	if err != nil || v < -1<<31 || v > 1<<32-1 {
		return 0, fmt.Errorf("bad constant %q", s)
	}
	return uint32(v), nil
}

func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
