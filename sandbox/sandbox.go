// Package sandbox runs compiled blocks on the RV64 emulator.
//
// A Machine owns a translator and the guest context. Each block runs as a
// leaf call on a fresh emulator: the context is copied into emulator memory,
// the block's thunk table is installed in the fallback handler, and the
// context is copied back once the block returns.
package sandbox

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rvjit/config"
	"github.com/sarchlab/rvjit/emu"
	"github.com/sarchlab/rvjit/fallback"
	"github.com/sarchlab/rvjit/interp"
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/jit"
	"github.com/sarchlab/rvjit/loader"
	"github.com/sarchlab/rvjit/regcache"
)

// ErrNormalization is returned when a host register claimed to be
// normalized holds a value that is not a 32-bit sign extension.
var ErrNormalization = errors.New("normalized claim violated")

// Violation is one broken normalized claim.
type Violation struct {
	Mapping regcache.Mapping
	Value   uint64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s = %#x", v.Mapping, v.Value)
}

// BlockResult describes one executed block.
type BlockResult struct {
	Block *jit.CompiledBlock

	// Instructions is the number of host instructions executed.
	Instructions uint64

	// ThunksRun is the number of fallback thunks executed.
	ThunksRun uint64

	// Violations lists broken normalized claims. It is only filled when
	// verification is enabled.
	Violations []Violation
}

// Report summarizes a program run.
type Report struct {
	Final  interp.Context
	Blocks []*BlockResult
}

// Stats sums the compiler statistics of every executed block.
func (r *Report) Stats() jit.Stats {
	total := jit.Stats{
		Native:   make(map[ir.Family]int),
		Deferred: make(map[ir.Family]int),
	}
	for _, b := range r.Blocks {
		for f, n := range b.Block.Stats.Native {
			total.Native[f] += n
		}
		for f, n := range b.Block.Stats.Deferred {
			total.Deferred[f] += n
		}
	}
	return total
}

// Machine executes IR blocks through the code generator.
type Machine struct {
	cfg    *config.Config
	trans  *jit.Translator
	ctx    interp.Context
	log    logr.Logger
	verify bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger of the machine and its translator.
func WithLogger(log logr.Logger) Option {
	return func(m *Machine) {
		m.log = log
	}
}

// WithVerify enables checking every normalized claim the register cache
// holds when a block reaches its closing flush.
func WithVerify(verify bool) Option {
	return func(m *Machine) {
		m.verify = verify
	}
}

// New creates a machine for the given configuration.
func New(cfg *config.Config, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m := &Machine{
		cfg: cfg.Clone(),
		log: logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}

	compOpts, err := m.cfg.CompilerOptions()
	if err != nil {
		return nil, err
	}
	compOpts = append(compOpts, jit.WithLogger(m.log.WithName("jit")))
	m.trans = jit.NewTranslator(m.cfg.Caps(), m.cfg.BlockCache, compOpts...)

	return m, nil
}

// Translator returns the machine's translator.
func (m *Machine) Translator() *jit.Translator {
	return m.trans
}

// Context returns the current guest context.
func (m *Machine) Context() interp.Context {
	return m.ctx
}

// SetContext replaces the guest context.
func (m *Machine) SetContext(ctx interp.Context) {
	m.ctx = ctx
}

// RunBlock translates the block at addr, or reuses its cached translation,
// and executes it on the current context.
func (m *Machine) RunBlock(addr uint32, block []ir.Inst) (*BlockResult, error) {
	b, err := m.trans.Translate(addr, block)
	if err != nil {
		return nil, err
	}

	e := emu.NewEmulator(emu.WithMaxInstructions(m.cfg.MaxInstructions))
	h := fallback.NewHandler(e.RegFile(), e.Memory(),
		fallback.WithLogger(m.log.WithName("fallback")))
	h.SetThunks(b.Thunks)
	e.SetSyscallHandler(h)

	e.RegFile().WriteReg(uint8(regcache.CtxReg), m.cfg.ContextBase)
	e.RegFile().WriteReg(uint8(regcache.MemBaseReg), m.cfg.MemoryBase)
	e.Memory().WriteBytes(m.cfg.ContextBase, m.ctx.Bytes())
	e.LoadProgram(m.cfg.CodeBase, b.Code)
	e.Call(m.cfg.CodeBase)

	result := &BlockResult{Block: b}

	if m.verify {
		flushAt := m.cfg.CodeBase + uint64(b.FlushOffset)
		if err := checkStep(e.RunUntil(flushAt), addr, false); err != nil {
			return nil, err
		}
		result.Violations = violations(e.RegFile(), b.Final)
	}

	if err := checkStep(e.RunUntil(e.HaltAddress()), addr, true); err != nil {
		return nil, err
	}

	if err := m.ctx.Load(e.Memory().ReadBytes(m.cfg.ContextBase, ir.ContextSize)); err != nil {
		return nil, err
	}

	result.Instructions = e.InstructionCount()
	result.ThunksRun = h.Executed()

	m.log.V(1).Info("ran block",
		"addr", fmt.Sprintf("%#x", addr),
		"instructions", result.Instructions,
		"thunks", result.ThunksRun)

	if len(result.Violations) > 0 {
		return result, fmt.Errorf("%w in block %#x: %v", ErrNormalization, addr, result.Violations)
	}
	return result, nil
}

// Run starts from the program's initial state and executes its blocks in
// listing order.
func (m *Machine) Run(prog *loader.Program) (*Report, error) {
	m.ctx = prog.Init

	report := &Report{}
	for _, blk := range prog.Blocks {
		result, err := m.RunBlock(blk.Addr, blk.Insts)
		if result != nil {
			report.Blocks = append(report.Blocks, result)
		}
		if err != nil {
			return report, err
		}
	}

	report.Final = m.ctx
	return report, nil
}

// Interpret runs prog on the interpreter alone.
func Interpret(prog *loader.Program) (interp.Context, error) {
	ctx := prog.Init
	for _, blk := range prog.Blocks {
		if err := interp.Run(&ctx, blk.Insts); err != nil {
			return ctx, fmt.Errorf("block %#x: %w", blk.Addr, err)
		}
	}
	return ctx, nil
}

// Diff lists the registers that differ between two contexts, as
// "name: want -> got" lines.
func Diff(want, got interp.Context) []string {
	var diffs []string
	for i := range want.GPR {
		if want.GPR[i] != got.GPR[i] {
			diffs = append(diffs, fmt.Sprintf("%s: %#x -> %#x", ir.Reg(i), want.GPR[i], got.GPR[i]))
		}
	}
	if want.Lo != got.Lo {
		diffs = append(diffs, fmt.Sprintf("lo: %#x -> %#x", want.Lo, got.Lo))
	}
	if want.Hi != got.Hi {
		diffs = append(diffs, fmt.Sprintf("hi: %#x -> %#x", want.Hi, got.Hi))
	}
	return diffs
}

// checkStep turns an emulator stop into an error. exitOK tells whether
// reaching the halt address is expected.
func checkStep(res emu.StepResult, addr uint32, exitOK bool) error {
	if res.Err != nil {
		return fmt.Errorf("block %#x: %w", addr, res.Err)
	}
	if res.Exited && !exitOK {
		return fmt.Errorf("block %#x returned before its closing flush", addr)
	}
	return nil
}

func violations(regs *emu.RegFile, final []regcache.Mapping) []Violation {
	var out []Violation
	for _, m := range final {
		if !m.Normalized32 {
			continue
		}
		v := regs.ReadReg(uint8(m.Host))
		if v != uint64(int64(int32(v))) {
			out = append(out, Violation{Mapping: m, Value: v})
		}
	}
	return out
}
