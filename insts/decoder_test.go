package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvjit/insts"
	"github.com/sarchlab/rvjit/rv"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	decodeOne := func(emit func(a *rv.Assembler)) *insts.Instruction {
		a := rv.NewAssembler()
		emit(a)
		Expect(a.Len()).To(Equal(1))
		return decoder.Decode(a.Words()[0])
	}

	Describe("OP-IMM", func() {
		// addi a0, a0, 1 -> 0x00150513
		It("should decode addi a0, a0, 1", func() {
			inst := decoder.Decode(0x00150513)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int64(1)))
		})

		It("should sign-extend negative immediates", func() {
			inst := decodeOne(func(a *rv.Assembler) { a.ADDIW(rv.A0, rv.A1, -2048) })

			Expect(inst.Op).To(Equal(insts.OpADDIW))
			Expect(inst.Imm).To(Equal(int64(-2048)))
		})

		It("should decode shift amounts", func() {
			inst := decodeOne(func(a *rv.Assembler) { a.SRAI(rv.A0, rv.A0, 32) })
			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Imm).To(Equal(int64(32)))

			inst = decodeOne(func(a *rv.Assembler) { a.SRLI(rv.A0, rv.A0, 63) })
			Expect(inst.Op).To(Equal(insts.OpSRLI))
			Expect(inst.Imm).To(Equal(int64(63)))

			inst = decodeOne(func(a *rv.Assembler) { a.SRAIW(rv.T2, rv.T2, 16) })
			Expect(inst.Op).To(Equal(insts.OpSRAIW))
			Expect(inst.Imm).To(Equal(int64(16)))
		})
	})

	DescribeTable("round trips through the assembler",
		func(emit func(a *rv.Assembler), op insts.Op, format insts.Format) {
			inst := decodeOne(emit)
			Expect(inst.Op).To(Equal(op))
			Expect(inst.Format).To(Equal(format))
		},
		Entry("add", func(a *rv.Assembler) { a.ADD(rv.A0, rv.A1, rv.A2) }, insts.OpADD, insts.FormatR),
		Entry("sub", func(a *rv.Assembler) { a.SUB(rv.A0, rv.A1, rv.A2) }, insts.OpSUB, insts.FormatR),
		Entry("addw", func(a *rv.Assembler) { a.ADDW(rv.A0, rv.A1, rv.A2) }, insts.OpADDW, insts.FormatR),
		Entry("subw", func(a *rv.Assembler) { a.SUBW(rv.A0, rv.A1, rv.A2) }, insts.OpSUBW, insts.FormatR),
		Entry("and", func(a *rv.Assembler) { a.AND(rv.A0, rv.A1, rv.A2) }, insts.OpAND, insts.FormatR),
		Entry("or", func(a *rv.Assembler) { a.OR(rv.A0, rv.A1, rv.A2) }, insts.OpOR, insts.FormatR),
		Entry("xor", func(a *rv.Assembler) { a.XOR(rv.A0, rv.A1, rv.A2) }, insts.OpXOR, insts.FormatR),
		Entry("andi", func(a *rv.Assembler) { a.ANDI(rv.A0, rv.A1, 0xFF) }, insts.OpANDI, insts.FormatI),
		Entry("ori", func(a *rv.Assembler) { a.ORI(rv.A0, rv.A1, 0x10) }, insts.OpORI, insts.FormatI),
		Entry("xori", func(a *rv.Assembler) { a.XORI(rv.A0, rv.A1, -1) }, insts.OpXORI, insts.FormatI),
		Entry("slli", func(a *rv.Assembler) { a.SLLI(rv.A0, rv.A1, 24) }, insts.OpSLLI, insts.FormatI),
		Entry("lui", func(a *rv.Assembler) { a.LUI(rv.A0, 0x12345) }, insts.OpLUI, insts.FormatU),
		Entry("lw", func(a *rv.Assembler) { a.LW(rv.A0, rv.S11, 8) }, insts.OpLW, insts.FormatI),
		Entry("lwu", func(a *rv.Assembler) { a.LWU(rv.A0, rv.S11, 8) }, insts.OpLWU, insts.FormatI),
		Entry("ld", func(a *rv.Assembler) { a.LD(rv.A0, rv.S11, 8) }, insts.OpLD, insts.FormatI),
		Entry("sw", func(a *rv.Assembler) { a.SW(rv.A0, rv.S11, 8) }, insts.OpSW, insts.FormatS),
		Entry("sd", func(a *rv.Assembler) { a.SD(rv.A0, rv.S11, -8) }, insts.OpSD, insts.FormatS),
		Entry("ret", func(a *rv.Assembler) { a.RET() }, insts.OpJALR, insts.FormatI),
		Entry("ecall", func(a *rv.Assembler) { a.ECALL() }, insts.OpECALL, insts.FormatSystem),
		Entry("ebreak", func(a *rv.Assembler) { a.EBREAK() }, insts.OpEBREAK, insts.FormatSystem),
		Entry("sext.b", func(a *rv.Assembler) { a.SEXTB(rv.A0, rv.A1) }, insts.OpSEXTB, insts.FormatR),
		Entry("sext.h", func(a *rv.Assembler) { a.SEXTH(rv.A0, rv.A1) }, insts.OpSEXTH, insts.FormatR),
		Entry("rev8", func(a *rv.Assembler) { a.REV8(rv.A0, rv.A1) }, insts.OpREV8, insts.FormatR),
		Entry("clz", func(a *rv.Assembler) { a.CLZ(rv.A0, rv.A1) }, insts.OpCLZ, insts.FormatR),
	)

	It("should decode store offsets split across fields", func() {
		inst := decodeOne(func(a *rv.Assembler) { a.SW(rv.T3, rv.S11, 124) })

		Expect(inst.Rs1).To(Equal(uint8(27)))
		Expect(inst.Rs2).To(Equal(uint8(28)))
		Expect(inst.Imm).To(Equal(int64(124)))
	})

	It("should decode LUI as the shifted, sign-extended value", func() {
		inst := decodeOne(func(a *rv.Assembler) { a.LUI(rv.T0, 0x80000) })
		Expect(inst.Imm).To(Equal(int64(-0x80000000)))
	})

	It("should return unknown for unsupported words", func() {
		inst := decoder.Decode(0x00000000)
		Expect(inst.Op).To(Equal(insts.OpUnknown))
		Expect(inst.Format).To(Equal(insts.FormatUnknown))

		// mul a0, a1, a2 (M extension) is not part of the subset.
		inst = decoder.Decode(0x02C58533)
		Expect(inst.Op).To(Equal(insts.OpUnknown))
	})

	It("should name opcodes", func() {
		Expect(insts.OpSEXTB.String()).To(Equal("sext.b"))
		Expect(insts.Op(999).String()).To(Equal("op(999)"))
	})
})
