package ir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvjit/ir"
)

var _ = Describe("Op", func() {
	It("should assign every valid opcode to a known family", func() {
		for _, op := range ir.AllOps() {
			Expect(op.Family()).NotTo(Equal(ir.FamilyUnknown), op.String())
		}
	})

	It("should report unknown for invalid and out-of-range opcodes", func() {
		Expect(ir.OpInvalid.Family()).To(Equal(ir.FamilyUnknown))
		Expect(ir.Op(250).Family()).To(Equal(ir.FamilyUnknown))
		Expect(ir.Op(250).String()).To(Equal("Op(250)"))
	})

	It("should partition opcodes across families", func() {
		total := 0
		for _, f := range ir.AllFamilies() {
			total += len(f.Ops())
		}
		Expect(total).To(Equal(len(ir.AllOps())))
	})

	DescribeTable("family membership",
		func(f ir.Family, ops ...ir.Op) {
			Expect(f.Ops()).To(Equal(ops))
		},
		Entry("arith", ir.FamilyArith, ir.OpAdd, ir.OpSub, ir.OpNeg, ir.OpAddConst, ir.OpSubConst),
		Entry("logic", ir.FamilyLogic, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpNot,
			ir.OpAndConst, ir.OpOrConst, ir.OpXorConst),
		Entry("assign", ir.FamilyAssign, ir.OpMov, ir.OpExt8to32, ir.OpExt16to32),
		Entry("bits", ir.FamilyBits, ir.OpReverseBits, ir.OpBSwap16, ir.OpBSwap32, ir.OpClz),
		Entry("shift", ir.FamilyShift, ir.OpShl, ir.OpShr, ir.OpSar, ir.OpRor,
			ir.OpShlImm, ir.OpShrImm, ir.OpSarImm, ir.OpRorImm),
		Entry("compare", ir.FamilyCompare, ir.OpSlt, ir.OpSltConst, ir.OpSltU, ir.OpSltUConst),
		Entry("condassign", ir.FamilyCondAssign, ir.OpMovZ, ir.OpMovNZ, ir.OpMax, ir.OpMin),
		Entry("hilo", ir.FamilyHiLo, ir.OpMtLo, ir.OpMtHi, ir.OpMfLo, ir.OpMfHi),
		Entry("mult", ir.FamilyMult, ir.OpMult, ir.OpMultU, ir.OpMadd, ir.OpMaddU,
			ir.OpMsub, ir.OpMsubU),
		Entry("div", ir.FamilyDiv, ir.OpDiv, ir.OpDivU),
	)

	It("should parse opcodes case-insensitively", func() {
		op, err := ir.ParseOp("addconst")
		Expect(err).NotTo(HaveOccurred())
		Expect(op).To(Equal(ir.OpAddConst))

		_, err = ir.ParseOp("Frobnicate")
		Expect(err).To(HaveOccurred())
	})

	It("should parse family names", func() {
		f, err := ir.ParseFamily(" Logic ")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(ir.FamilyLogic))

		_, err = ir.ParseFamily("vector")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Inst", func() {
	It("should format each operand form", func() {
		Expect(ir.DSS(ir.OpAdd, 4, 5, 6).String()).To(Equal("Add r4, r5, r6"))
		Expect(ir.DS(ir.OpMov, 1, 2).String()).To(Equal("Mov r1, r2"))
		Expect(ir.DSC(ir.OpAndConst, 1, 1, 0xff).String()).To(Equal("AndConst r1, r1, 0xff"))
		Expect(ir.SS(ir.OpMult, 3, 4).String()).To(Equal("Mult r3, r4"))
		Expect(ir.S(ir.OpMtLo, 7).String()).To(Equal("MtLo r7"))
		Expect(ir.D(ir.OpMfHi, 8).String()).To(Equal("MfHi r8"))
	})

	It("should reject out-of-range registers", func() {
		Expect(ir.DSS(ir.OpAdd, 1, 2, 3).Validate()).To(Succeed())
		Expect(ir.DSS(ir.OpAdd, 1, 2, 40).Validate()).NotTo(Succeed())
		Expect(ir.Inst{Op: ir.OpInvalid}.Validate()).NotTo(Succeed())
	})

	It("should ignore unused register fields", func() {
		inst := ir.D(ir.OpMfLo, 3)
		inst.Src1 = 99
		Expect(inst.Validate()).To(Succeed())
	})

	It("should lay out LO and HI after the GPRs", func() {
		Expect(ir.Reg(31).Offset()).To(Equal(int32(124)))
		Expect(ir.LoOffset).To(Equal(128))
		Expect(ir.HiOffset).To(Equal(132))
		Expect(ir.ContextSize).To(Equal(136))
	})
})
