// Package interp executes IR instructions directly on a guest context.
//
// It defines the reference semantics for every opcode. The fallback compiler
// runs it through ECALL thunks, and tests use it as the oracle that compiled
// code must match.
package interp

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/sarchlab/rvjit/ir"
)

// Context is the guest-visible register state.
type Context struct {
	GPR [ir.NumGPRs]uint32
	Lo  uint32
	Hi  uint32
}

// Load decodes a context from its in-memory layout.
func (c *Context) Load(data []byte) error {
	if len(data) < ir.ContextSize {
		return fmt.Errorf("context needs %d bytes, got %d", ir.ContextSize, len(data))
	}
	for i := range c.GPR {
		c.GPR[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	c.Lo = binary.LittleEndian.Uint32(data[ir.LoOffset:])
	c.Hi = binary.LittleEndian.Uint32(data[ir.HiOffset:])
	return nil
}

// Bytes encodes the context into its in-memory layout.
func (c *Context) Bytes() []byte {
	data := make([]byte, ir.ContextSize)
	for i, v := range c.GPR {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	binary.LittleEndian.PutUint32(data[ir.LoOffset:], c.Lo)
	binary.LittleEndian.PutUint32(data[ir.HiOffset:], c.Hi)
	return data
}

// Exec applies one instruction to the context.
func Exec(c *Context, inst ir.Inst) error {
	r := &c.GPR
	a := r[inst.Src1&31]
	b := r[inst.Src2&31]
	k := inst.Constant
	d := inst.Dest & 31

	switch inst.Op {
	case ir.OpAdd:
		r[d] = a + b
	case ir.OpSub:
		r[d] = a - b
	case ir.OpNeg:
		r[d] = -a
	case ir.OpAddConst:
		r[d] = a + k
	case ir.OpSubConst:
		r[d] = a - k

	case ir.OpAnd:
		r[d] = a & b
	case ir.OpOr:
		r[d] = a | b
	case ir.OpXor:
		r[d] = a ^ b
	case ir.OpNot:
		r[d] = ^a
	case ir.OpAndConst:
		r[d] = a & k
	case ir.OpOrConst:
		r[d] = a | k
	case ir.OpXorConst:
		r[d] = a ^ k

	case ir.OpMov:
		r[d] = a
	case ir.OpExt8to32:
		r[d] = uint32(int32(int8(a)))
	case ir.OpExt16to32:
		r[d] = uint32(int32(int16(a)))

	case ir.OpReverseBits:
		r[d] = bits.Reverse32(a)
	case ir.OpBSwap16:
		r[d] = (a&0xFF00FF00)>>8 | (a&0x00FF00FF)<<8
	case ir.OpBSwap32:
		r[d] = bits.ReverseBytes32(a)
	case ir.OpClz:
		r[d] = uint32(bits.LeadingZeros32(a))

	case ir.OpShl:
		r[d] = a << (b & 31)
	case ir.OpShr:
		r[d] = a >> (b & 31)
	case ir.OpSar:
		r[d] = uint32(int32(a) >> (b & 31))
	case ir.OpRor:
		r[d] = bits.RotateLeft32(a, -int(b&31))
	case ir.OpShlImm:
		r[d] = a << (k & 31)
	case ir.OpShrImm:
		r[d] = a >> (k & 31)
	case ir.OpSarImm:
		r[d] = uint32(int32(a) >> (k & 31))
	case ir.OpRorImm:
		r[d] = bits.RotateLeft32(a, -int(k&31))

	case ir.OpSlt:
		r[d] = boolToU32(int32(a) < int32(b))
	case ir.OpSltConst:
		r[d] = boolToU32(int32(a) < int32(k))
	case ir.OpSltU:
		r[d] = boolToU32(a < b)
	case ir.OpSltUConst:
		r[d] = boolToU32(a < k)

	case ir.OpMovZ:
		if a == 0 {
			r[d] = b
		}
	case ir.OpMovNZ:
		if a != 0 {
			r[d] = b
		}
	case ir.OpMax:
		r[d] = uint32(max(int32(a), int32(b)))
	case ir.OpMin:
		r[d] = uint32(min(int32(a), int32(b)))

	case ir.OpMtLo:
		c.Lo = a
	case ir.OpMtHi:
		c.Hi = a
	case ir.OpMfLo:
		r[d] = c.Lo
	case ir.OpMfHi:
		r[d] = c.Hi

	case ir.OpMult:
		c.setHiLo(uint64(int64(int32(a)) * int64(int32(b))))
	case ir.OpMultU:
		c.setHiLo(uint64(a) * uint64(b))
	case ir.OpMadd:
		c.setHiLo(c.hiLo() + uint64(int64(int32(a))*int64(int32(b))))
	case ir.OpMaddU:
		c.setHiLo(c.hiLo() + uint64(a)*uint64(b))
	case ir.OpMsub:
		c.setHiLo(c.hiLo() - uint64(int64(int32(a))*int64(int32(b))))
	case ir.OpMsubU:
		c.setHiLo(c.hiLo() - uint64(a)*uint64(b))

	case ir.OpDiv:
		c.div(int32(a), int32(b))
	case ir.OpDivU:
		c.divU(a, b)

	default:
		return fmt.Errorf("interp: unsupported opcode %s", inst.Op)
	}

	return nil
}

// Run applies instructions in order, stopping at the first error.
func Run(c *Context, insts []ir.Inst) error {
	for i, inst := range insts {
		if err := Exec(c, inst); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return nil
}

func (c *Context) hiLo() uint64 {
	return uint64(c.Hi)<<32 | uint64(c.Lo)
}

func (c *Context) setHiLo(v uint64) {
	c.Lo = uint32(v)
	c.Hi = uint32(v >> 32)
}

// div follows the guest CPU: overflow yields LO=0x80000000, HI=-1, and a zero
// divisor yields LO=+/-1 (by numerator sign) and HI=numerator.
func (c *Context) div(num, den int32) {
	switch {
	case num == -0x80000000 && den == -1:
		c.Lo = 0x80000000
		c.Hi = 0xFFFFFFFF
	case den != 0:
		c.Lo = uint32(num / den)
		c.Hi = uint32(num % den)
	default:
		if num < 0 {
			c.Lo = 1
		} else {
			c.Lo = 0xFFFFFFFF
		}
		c.Hi = uint32(num)
	}
}

func (c *Context) divU(num, den uint32) {
	if den != 0 {
		c.Lo = num / den
		c.Hi = num % den
		return
	}
	if num <= 0xFFFF {
		c.Lo = 0xFFFF
	} else {
		c.Lo = 0xFFFFFFFF
	}
	c.Hi = num
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
