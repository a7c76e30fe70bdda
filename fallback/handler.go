package fallback

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rvjit/emu"
	"github.com/sarchlab/rvjit/interp"
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/regcache"
)

// ErrBadThunk is returned when an ECALL names a thunk that does not exist.
var ErrBadThunk = errors.New("fallback: bad thunk index")

// Handler is the emulator syscall handler that executes thunks.
type Handler struct {
	regFile *emu.RegFile
	memory  *emu.Memory
	thunks  []ir.Inst
	log     logr.Logger

	executed uint64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the logger used to trace executed thunks at V(2).
func WithLogger(log logr.Logger) HandlerOption {
	return func(h *Handler) {
		h.log = log
	}
}

// NewHandler creates a handler reading and writing the emulator state.
func NewHandler(regFile *emu.RegFile, memory *emu.Memory, opts ...HandlerOption) *Handler {
	h := &Handler{
		regFile: regFile,
		memory:  memory,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetThunks installs the thunk table of the block about to run.
func (h *Handler) SetThunks(thunks []ir.Inst) {
	h.thunks = thunks
}

// Executed returns the number of thunks run so far.
func (h *Handler) Executed() uint64 {
	return h.executed
}

// Handle runs the thunk whose index is in IndexReg.
func (h *Handler) Handle() emu.SyscallResult {
	idx := h.regFile.ReadReg(uint8(IndexReg))
	if idx >= uint64(len(h.thunks)) {
		return emu.SyscallResult{Err: fmt.Errorf("%w %d (have %d)", ErrBadThunk, idx, len(h.thunks))}
	}
	inst := h.thunks[idx]

	base := h.regFile.ReadReg(uint8(regcache.CtxReg))
	var ctx interp.Context
	if err := ctx.Load(h.memory.ReadBytes(base, ir.ContextSize)); err != nil {
		return emu.SyscallResult{Err: err}
	}
	if err := interp.Exec(&ctx, inst); err != nil {
		return emu.SyscallResult{Err: fmt.Errorf("thunk %d: %w", idx, err)}
	}
	h.memory.WriteBytes(base, ctx.Bytes())

	h.executed++
	h.log.V(2).Info("thunk", "index", idx, "inst", inst.String())
	return emu.SyscallResult{}
}
