package interp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvjit/interp"
	"github.com/sarchlab/rvjit/ir"
)

var _ = Describe("Exec", func() {
	var c *interp.Context

	BeforeEach(func() {
		c = &interp.Context{}
	})

	exec := func(inst ir.Inst) {
		Expect(interp.Exec(c, inst)).To(Succeed())
	}

	Context("arithmetic", func() {
		It("should wrap 32-bit addition", func() {
			c.GPR[5] = 0x7FFFFFFF
			c.GPR[6] = 1
			exec(ir.DSS(ir.OpAdd, 4, 5, 6))
			Expect(c.GPR[4]).To(Equal(uint32(0x80000000)))
		})

		It("should negate", func() {
			c.GPR[1] = 5
			exec(ir.DS(ir.OpNeg, 2, 1))
			Expect(c.GPR[2]).To(Equal(uint32(0xFFFFFFFB)))
		})

		It("should subtract a constant", func() {
			c.GPR[2] = 0
			exec(ir.DSC(ir.OpSubConst, 2, 2, 2048))
			Expect(c.GPR[2]).To(Equal(uint32(0xFFFFF800)))
		})
	})

	Context("bit manipulation", func() {
		DescribeTable("results",
			func(op ir.Op, in, want uint32) {
				c.GPR[1] = in
				exec(ir.DS(op, 2, 1))
				Expect(c.GPR[2]).To(Equal(want))
			},
			Entry("bswap32", ir.OpBSwap32, uint32(0x01020304), uint32(0x04030201)),
			Entry("bswap16", ir.OpBSwap16, uint32(0x01020304), uint32(0x02010403)),
			Entry("reverse bits", ir.OpReverseBits, uint32(1), uint32(0x80000000)),
			Entry("clz of zero", ir.OpClz, uint32(0), uint32(32)),
			Entry("clz", ir.OpClz, uint32(0x00010000), uint32(15)),
			Entry("ext8 positive", ir.OpExt8to32, uint32(0x7F), uint32(0x7F)),
			Entry("ext8 negative", ir.OpExt8to32, uint32(0x80), uint32(0xFFFFFF80)),
			Entry("ext16 negative", ir.OpExt16to32, uint32(0x12348000), uint32(0xFFFF8000)),
		)
	})

	Context("shifts", func() {
		It("should mask register shift amounts to five bits", func() {
			c.GPR[1] = 1
			c.GPR[2] = 33
			exec(ir.DSS(ir.OpShl, 3, 1, 2))
			Expect(c.GPR[3]).To(Equal(uint32(2)))
		})

		It("should rotate right", func() {
			c.GPR[1] = 0x00000001
			exec(ir.DSC(ir.OpRorImm, 2, 1, 1))
			Expect(c.GPR[2]).To(Equal(uint32(0x80000000)))
		})

		It("should shift arithmetically", func() {
			c.GPR[1] = 0x80000000
			exec(ir.DSC(ir.OpSarImm, 2, 1, 4))
			Expect(c.GPR[2]).To(Equal(uint32(0xF8000000)))
		})
	})

	Context("compare and conditional assign", func() {
		It("should compare signed and unsigned", func() {
			c.GPR[1] = 0xFFFFFFFF
			c.GPR[2] = 1
			exec(ir.DSS(ir.OpSlt, 3, 1, 2))
			exec(ir.DSS(ir.OpSltU, 4, 1, 2))
			Expect(c.GPR[3]).To(Equal(uint32(1)))
			Expect(c.GPR[4]).To(Equal(uint32(0)))
		})

		It("should move on zero only", func() {
			c.GPR[3] = 7
			c.GPR[1] = 1
			c.GPR[2] = 9
			exec(ir.DSS(ir.OpMovZ, 3, 1, 2))
			Expect(c.GPR[3]).To(Equal(uint32(7)))
			exec(ir.DSS(ir.OpMovNZ, 3, 1, 2))
			Expect(c.GPR[3]).To(Equal(uint32(9)))
		})

		It("should take signed max and min", func() {
			c.GPR[1] = 0xFFFFFFFF
			c.GPR[2] = 3
			exec(ir.DSS(ir.OpMax, 3, 1, 2))
			exec(ir.DSS(ir.OpMin, 4, 1, 2))
			Expect(c.GPR[3]).To(Equal(uint32(3)))
			Expect(c.GPR[4]).To(Equal(uint32(0xFFFFFFFF)))
		})
	})

	Context("multiply and divide", func() {
		It("should produce a signed 64-bit product in HI:LO", func() {
			c.GPR[1] = 0xFFFFFFFF
			c.GPR[2] = 2
			exec(ir.SS(ir.OpMult, 1, 2))
			Expect(c.Lo).To(Equal(uint32(0xFFFFFFFE)))
			Expect(c.Hi).To(Equal(uint32(0xFFFFFFFF)))

			exec(ir.SS(ir.OpMultU, 1, 2))
			Expect(c.Lo).To(Equal(uint32(0xFFFFFFFE)))
			Expect(c.Hi).To(Equal(uint32(1)))
		})

		It("should accumulate", func() {
			c.Lo = 10
			c.GPR[1] = 3
			c.GPR[2] = 4
			exec(ir.SS(ir.OpMadd, 1, 2))
			Expect(c.Lo).To(Equal(uint32(22)))
			exec(ir.SS(ir.OpMsubU, 1, 2))
			Expect(c.Lo).To(Equal(uint32(10)))
		})

		It("should handle signed overflow and zero divisors", func() {
			c.GPR[1] = 0x80000000
			c.GPR[2] = 0xFFFFFFFF
			exec(ir.SS(ir.OpDiv, 1, 2))
			Expect(c.Lo).To(Equal(uint32(0x80000000)))
			Expect(c.Hi).To(Equal(uint32(0xFFFFFFFF)))

			c.GPR[2] = 0
			exec(ir.SS(ir.OpDiv, 1, 2))
			Expect(c.Lo).To(Equal(uint32(1)))
			Expect(c.Hi).To(Equal(uint32(0x80000000)))

			c.GPR[1] = 0x10
			exec(ir.SS(ir.OpDivU, 1, 2))
			Expect(c.Lo).To(Equal(uint32(0xFFFF)))
			Expect(c.Hi).To(Equal(uint32(0x10)))
		})

		It("should divide normally", func() {
			c.GPR[1] = uint32(0xFFFFFFF9) // -7
			c.GPR[2] = 2
			exec(ir.SS(ir.OpDiv, 1, 2))
			Expect(int32(c.Lo)).To(Equal(int32(-3)))
			Expect(int32(c.Hi)).To(Equal(int32(-1)))
		})

		It("should move to and from LO/HI", func() {
			c.GPR[1] = 42
			exec(ir.S(ir.OpMtHi, 1))
			exec(ir.D(ir.OpMfHi, 2))
			Expect(c.GPR[2]).To(Equal(uint32(42)))
		})
	})

	It("should reject invalid opcodes", func() {
		Expect(interp.Exec(c, ir.Inst{Op: ir.OpInvalid})).NotTo(Succeed())
	})
})

var _ = Describe("Context", func() {
	It("should round-trip through its memory layout", func() {
		c := &interp.Context{Lo: 1, Hi: 2}
		c.GPR[31] = 0xDEADBEEF
		data := c.Bytes()
		Expect(data).To(HaveLen(ir.ContextSize))

		var back interp.Context
		Expect(back.Load(data)).To(Succeed())
		Expect(back).To(Equal(*c))
	})

	It("should reject short buffers", func() {
		var c interp.Context
		Expect(c.Load(make([]byte, 8))).NotTo(Succeed())
	})
})
