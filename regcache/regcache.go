// Package regcache maps guest registers onto RV64 host registers for the
// duration of one block translation.
package regcache

import (
	"fmt"

	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/rv"
)

// Reserved host registers.
const (
	// CtxReg holds the address of the guest context.
	CtxReg = rv.S11
	// MemBaseReg holds the host address of guest address zero.
	MemBaseReg = rv.S10
	// Scratch1 and Scratch2 never carry a value across instructions.
	Scratch1 = rv.T0
	Scratch2 = rv.T1
)

// Allocatable lists the host registers that may back guest registers, in
// allocation order.
var Allocatable = []rv.Reg{
	rv.T2, rv.S0, rv.S1,
	rv.A0, rv.A1, rv.A2, rv.A3, rv.A4, rv.A5, rv.A6, rv.A7,
	rv.S2, rv.S3, rv.S4, rv.S5, rv.S6, rv.S7, rv.S8, rv.S9,
	rv.T3, rv.T4, rv.T5, rv.T6,
}

// MapType selects how a destination is mapped for writing.
type MapType uint8

const (
	// MapAvoidLoad maps the destination without loading its old value. The
	// result is not claimed to be normalized.
	MapAvoidLoad MapType = iota
	// MapAvoidLoadMarkNorm32 is MapAvoidLoad and additionally marks the
	// result normalized.
	MapAvoidLoadMarkNorm32
)

// Mapping describes one resident guest register.
type Mapping struct {
	VReg         ir.Reg
	Host         rv.Reg
	Dirty        bool
	Pointer      bool
	Normalized32 bool
}

func (m Mapping) String() string {
	s := fmt.Sprintf("%s->%s", m.VReg, m.Host)
	if m.Dirty {
		s += " dirty"
	}
	if m.Pointer {
		s += " ptr"
	}
	if m.Normalized32 {
		s += " norm32"
	}
	return s
}

type slot struct {
	resident   bool
	host       rv.Reg
	dirty      bool
	pointer    bool
	normalized bool
	lastUse    uint64
}

// Cache is the register cache of one translator. It emits its loads, stores
// and conversions into the assembler it was created with. A Cache must not be
// shared between goroutines.
type Cache struct {
	asm    *rv.Assembler
	slots  [ir.NumGPRs]slot
	owner  map[rv.Reg]ir.Reg
	locked map[ir.Reg]bool
	clock  uint64
}

// New creates an empty register cache emitting into asm.
func New(asm *rv.Assembler) *Cache {
	return &Cache{
		asm:    asm,
		owner:  make(map[rv.Reg]ir.Reg),
		locked: make(map[ir.Reg]bool),
	}
}

// Reset forgets every mapping without emitting code. It is called at block
// boundaries, when the guest context is known to be up to date.
func (c *Cache) Reset() {
	c.slots = [ir.NumGPRs]slot{}
	clear(c.owner)
	clear(c.locked)
	c.clock = 0
}

// MapIn makes vreg resident as a plain value for reading.
func (c *Cache) MapIn(vreg ir.Reg) {
	c.beginInst()
	c.mapRead(vreg)
}

// MapDirtyIn maps rs for reading and rd for writing, marking rd dirty.
func (c *Cache) MapDirtyIn(rd, rs ir.Reg, mt MapType) {
	c.beginInst()
	c.lock(rd, rs)
	c.mapRead(rs)
	c.mapWrite(rd, mt)
}

// MapDirtyInIn maps rs and rt for reading and rd for writing, marking rd
// dirty.
func (c *Cache) MapDirtyInIn(rd, rs, rt ir.Reg, mt MapType) {
	c.beginInst()
	c.lock(rd, rs, rt)
	c.mapRead(rs)
	c.mapRead(rt)
	c.mapWrite(rd, mt)
}

// MapAsPointer makes vreg resident in pointer mode and returns its host
// register.
func (c *Cache) MapAsPointer(vreg ir.Reg) rv.Reg {
	c.beginInst()
	c.lock(vreg)
	s := c.slot(vreg)
	switch {
	case s.resident && s.pointer:
	case s.resident:
		c.asm.SLLI(s.host, s.host, 32)
		c.asm.SRLI(s.host, s.host, 32)
		c.asm.ADD(s.host, s.host, MemBaseReg)
		s.pointer = true
		s.normalized = false
	default:
		c.alloc(vreg)
		c.asm.LWU(s.host, CtxReg, vreg.Offset())
		c.asm.ADD(s.host, s.host, MemBaseReg)
		s.pointer = true
	}
	c.touch(vreg)
	return s.host
}

// R returns the host register holding vreg as a value. vreg must have been
// mapped by the current instruction.
func (c *Cache) R(vreg ir.Reg) rv.Reg {
	s := c.slot(vreg)
	if !s.resident || s.pointer {
		panic(fmt.Sprintf("regcache: %s is not mapped as a value", vreg))
	}
	return s.host
}

// RPtr returns the host register holding vreg in pointer mode.
func (c *Cache) RPtr(vreg ir.Reg) rv.Reg {
	s := c.slot(vreg)
	if !s.resident || !s.pointer {
		panic(fmt.Sprintf("regcache: %s is not mapped as a pointer", vreg))
	}
	return s.host
}

// IsMappedAsPointer reports whether vreg is resident in pointer mode.
func (c *Cache) IsMappedAsPointer(vreg ir.Reg) bool {
	s := c.slot(vreg)
	return s.resident && s.pointer
}

// IsNormalized32 reports whether the value vreg would have in a host register
// is a sign-extended 32-bit value. A register that is not resident is loaded
// with a sign-extending load and therefore counts as normalized; a pointer
// never does.
func (c *Cache) IsNormalized32(vreg ir.Reg) bool {
	s := c.slot(vreg)
	if !s.resident {
		return true
	}
	return !s.pointer && s.normalized
}

// MarkDirty marks the value held in hr dirty and records whether it is
// normalized.
func (c *Cache) MarkDirty(hr rv.Reg, norm32 bool) {
	s := c.slot(c.ownerOf(hr))
	if s.pointer {
		panic(fmt.Sprintf("regcache: %s holds a pointer", hr))
	}
	s.dirty = true
	s.normalized = norm32
}

// MarkPtrDirty marks the pointer held in hr dirty.
func (c *Cache) MarkPtrDirty(hr rv.Reg) {
	s := c.slot(c.ownerOf(hr))
	if !s.pointer {
		panic(fmt.Sprintf("regcache: %s does not hold a pointer", hr))
	}
	s.dirty = true
}

// Flush writes vreg back to the guest context if dirty and releases its host
// register.
func (c *Cache) Flush(vreg ir.Reg) {
	s := c.slot(vreg)
	if !s.resident {
		return
	}
	if s.dirty {
		src := s.host
		if s.pointer {
			c.asm.SUB(Scratch2, s.host, MemBaseReg)
			src = Scratch2
		}
		c.asm.SW(src, CtxReg, vreg.Offset())
	}
	delete(c.owner, s.host)
	*s = slot{}
}

// FlushAll writes every dirty register back and empties the cache.
func (c *Cache) FlushAll() {
	for r := ir.Reg(0); r < ir.NumGPRs; r++ {
		c.Flush(r)
	}
	clear(c.locked)
}

// Snapshot returns the resident mappings ordered by guest register.
func (c *Cache) Snapshot() []Mapping {
	var out []Mapping
	for r := ir.Reg(0); r < ir.NumGPRs; r++ {
		s := c.slots[r]
		if !s.resident {
			continue
		}
		out = append(out, Mapping{
			VReg:         r,
			Host:         s.host,
			Dirty:        s.dirty,
			Pointer:      s.pointer,
			Normalized32: s.normalized && !s.pointer,
		})
	}
	return out
}

// Resident returns the number of resident guest registers.
func (c *Cache) Resident() int {
	return len(c.owner)
}

func (c *Cache) slot(vreg ir.Reg) *slot {
	if !vreg.Valid() {
		panic(fmt.Sprintf("regcache: invalid register %s", vreg))
	}
	return &c.slots[vreg]
}

func (c *Cache) ownerOf(hr rv.Reg) ir.Reg {
	vreg, ok := c.owner[hr]
	if !ok {
		panic(fmt.Sprintf("regcache: %s is not allocated", hr))
	}
	return vreg
}

func (c *Cache) beginInst() {
	clear(c.locked)
}

func (c *Cache) lock(vregs ...ir.Reg) {
	for _, r := range vregs {
		c.locked[r] = true
	}
}

func (c *Cache) touch(vreg ir.Reg) {
	c.clock++
	c.slots[vreg].lastUse = c.clock
}

// mapRead makes vreg resident as a normalized-or-not value, loading it or
// converting it out of pointer mode as needed.
func (c *Cache) mapRead(vreg ir.Reg) {
	s := c.slot(vreg)
	switch {
	case s.resident && s.pointer:
		c.asm.SUB(s.host, s.host, MemBaseReg)
		c.asm.ADDIW(s.host, s.host, 0)
		s.pointer = false
		s.normalized = true
	case !s.resident:
		c.alloc(vreg)
		c.asm.LW(s.host, CtxReg, vreg.Offset())
		s.normalized = true
	}
	c.touch(vreg)
}

// mapWrite makes vreg resident for writing without loading its old value.
func (c *Cache) mapWrite(vreg ir.Reg, mt MapType) {
	s := c.slot(vreg)
	if !s.resident {
		c.alloc(vreg)
	}
	s.pointer = false
	s.dirty = true
	s.normalized = mt == MapAvoidLoadMarkNorm32
	c.touch(vreg)
}

func (c *Cache) alloc(vreg ir.Reg) {
	hr, ok := c.freeReg()
	if !ok {
		hr = c.spill()
	}
	c.slots[vreg] = slot{resident: true, host: hr}
	c.owner[hr] = vreg
}

func (c *Cache) freeReg() (rv.Reg, bool) {
	for _, hr := range Allocatable {
		if _, used := c.owner[hr]; !used {
			return hr, true
		}
	}
	return 0, false
}

// spill flushes the least recently used unlocked register and returns the
// freed host register.
func (c *Cache) spill() rv.Reg {
	victim := ir.Reg(ir.NumGPRs)
	for r := ir.Reg(0); r < ir.NumGPRs; r++ {
		s := c.slots[r]
		if !s.resident || c.locked[r] {
			continue
		}
		if victim == ir.NumGPRs || s.lastUse < c.slots[victim].lastUse {
			victim = r
		}
	}
	if victim == ir.NumGPRs {
		panic("regcache: no register to spill")
	}
	hr := c.slots[victim].host
	c.Flush(victim)
	return hr
}
