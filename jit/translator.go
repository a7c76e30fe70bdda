package jit

import (
	"fmt"
	"slices"

	"github.com/sarchlab/rvjit/blockcache"
	"github.com/sarchlab/rvjit/fallback"
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/regcache"
	"github.com/sarchlab/rvjit/rv"
)

// CompiledBlock is the translation of one IR block. The code is a leaf
// function: it expects the guest context address in regcache.CtxReg and the
// memory base in regcache.MemBaseReg, and returns through ra.
type CompiledBlock struct {
	Addr  uint32
	Insts []ir.Inst
	Code  []byte

	// Thunks are the instructions deferred to the fallback, indexed by the
	// value each ECALL site loads into fallback.IndexReg.
	Thunks []ir.Inst

	// FlushOffset is the byte offset of the closing flush. Final lists the
	// register cache mappings live at that point.
	FlushOffset int
	Final       []regcache.Mapping

	Stats Stats
}

// Disassemble renders the block's code addressed from base.
func (b *CompiledBlock) Disassemble(base uint64) []string {
	return rv.Disassemble(b.Code, base)
}

// Translator compiles whole blocks and caches the results by guest address.
// Each goroutine needs its own Translator.
type Translator struct {
	asm   *rv.Assembler
	regs  *regcache.Cache
	fb    *fallback.Generic
	comp  *Compiler
	cache *blockcache.Cache[*CompiledBlock]
}

// NewTranslator creates a translator with its own assembler, register cache,
// fallback compiler and block cache.
func NewTranslator(caps Caps, cacheConfig blockcache.Config, opts ...CompilerOption) *Translator {
	asm := rv.NewAssembler()
	regs := regcache.New(asm)
	fb := fallback.NewGeneric(asm, regs)

	return &Translator{
		asm:   asm,
		regs:  regs,
		fb:    fb,
		comp:  NewCompiler(regs, asm, fb, caps, opts...),
		cache: blockcache.New[*CompiledBlock](cacheConfig),
	}
}

// Compiler returns the underlying compiler.
func (t *Translator) Compiler() *Compiler {
	return t.comp
}

// Cache returns the block cache.
func (t *Translator) Cache() *blockcache.Cache[*CompiledBlock] {
	return t.cache
}

// Translate returns the translation of the block at addr, compiling it if it
// is not cached yet.
func (t *Translator) Translate(addr uint32, block []ir.Inst) (*CompiledBlock, error) {
	if b, ok := t.cache.Lookup(addr); ok {
		return b, nil
	}

	b, err := t.compile(addr, block)
	if err != nil {
		return nil, err
	}

	if evicted, ok := t.cache.Insert(addr, b); ok {
		t.comp.log.V(1).Info("evicted block", "addr", fmt.Sprintf("%#x", evicted))
	}
	return b, nil
}

// Invalidate drops the cached translation of the block at addr.
func (t *Translator) Invalidate(addr uint32) bool {
	return t.cache.Invalidate(addr)
}

func (t *Translator) compile(addr uint32, block []ir.Inst) (*CompiledBlock, error) {
	for i, inst := range block {
		if err := inst.Validate(); err != nil {
			return nil, fmt.Errorf("block %#x instruction %d: %w", addr, i, err)
		}
	}

	t.asm.Reset()
	t.regs.Reset()
	t.fb.Reset()
	t.comp.ResetStats()

	for _, inst := range block {
		t.comp.CompileInst(inst)
	}

	final := t.regs.Snapshot()
	flushOffset := 4 * t.asm.Len()
	t.regs.FlushAll()
	t.asm.RET()

	b := &CompiledBlock{
		Addr:        addr,
		Insts:       slices.Clone(block),
		Code:        t.asm.Bytes(),
		Thunks:      t.fb.Thunks(),
		FlushOffset: flushOffset,
		Final:       final,
		Stats:       t.comp.Stats(),
	}

	t.comp.log.V(1).Info("translated block",
		"addr", fmt.Sprintf("%#x", addr),
		"insts", len(block),
		"bytes", len(b.Code),
		"thunks", len(b.Thunks))

	return b, nil
}
