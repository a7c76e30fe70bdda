package jit_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvjit/blockcache"
	"github.com/sarchlab/rvjit/insts"
	"github.com/sarchlab/rvjit/ir"
	"github.com/sarchlab/rvjit/jit"
)

var _ = Describe("Translator", func() {
	var t *jit.Translator

	block := []ir.Inst{
		ir.DSS(ir.OpAdd, 4, 5, 6),
		ir.DSC(ir.OpAndConst, 7, 4, 0xFF),
		ir.DS(ir.OpClz, 8, 7),
	}

	BeforeEach(func() {
		t = jit.NewTranslator(jit.Caps{Zbb: true}, blockcache.Config{Sets: 4, Ways: 1},
			jit.WithLogger(GinkgoLogr))
	})

	It("should compile a block ending in a flush and RET", func() {
		b, err := t.Translate(0x1000, block)
		Expect(err).NotTo(HaveOccurred())

		Expect(b.Addr).To(Equal(uint32(0x1000)))
		Expect(b.Insts).To(Equal(block))
		Expect(b.Thunks).To(Equal([]ir.Inst{ir.DS(ir.OpClz, 8, 7)}))
		Expect(len(b.Code) % 4).To(BeZero())
		Expect(b.FlushOffset).To(BeNumerically("<", len(b.Code)))

		d := insts.NewDecoder()
		last := uint32(b.Code[len(b.Code)-4]) | uint32(b.Code[len(b.Code)-3])<<8 |
			uint32(b.Code[len(b.Code)-2])<<16 | uint32(b.Code[len(b.Code)-1])<<24
		Expect(d.Decode(last).Op).To(Equal(insts.OpJALR))

		Expect(b.Disassemble(0)).To(HaveLen(len(b.Code) / 4))
		Expect(b.Stats.Native[ir.FamilyArith]).To(Equal(1))
		Expect(b.Stats.Deferred[ir.FamilyBits]).To(Equal(1))
	})

	It("should record the mappings live before the closing flush", func() {
		b, err := t.Translate(0x1000, block[:2])
		Expect(err).NotTo(HaveOccurred())

		var vregs []ir.Reg
		for _, m := range b.Final {
			vregs = append(vregs, m.VReg)
		}
		Expect(vregs).To(Equal([]ir.Reg{4, 5, 6, 7}))
		Expect(b.Final[3].Normalized32).To(BeTrue())
	})

	It("should return the cached translation for a known address", func() {
		first, err := t.Translate(0x1000, block)
		Expect(err).NotTo(HaveOccurred())
		second, err := t.Translate(0x1000, block)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(BeIdenticalTo(first))
		Expect(t.Cache().Stats().Hits).To(Equal(uint64(1)))
	})

	It("should retranslate after invalidation", func() {
		first, _ := t.Translate(0x1000, block)
		Expect(t.Invalidate(0x1000)).To(BeTrue())
		second, _ := t.Translate(0x1000, block)

		Expect(second).NotTo(BeIdenticalTo(first))
		Expect(second.Code).To(Equal(first.Code))
	})

	It("should keep earlier blocks intact when translating more", func() {
		first, _ := t.Translate(0x1000, block)
		code := append([]byte(nil), first.Code...)
		thunks := append([]ir.Inst(nil), first.Thunks...)

		_, err := t.Translate(0x2004, []ir.Inst{ir.SS(ir.OpMult, 1, 2), ir.D(ir.OpMfLo, 3)})
		Expect(err).NotTo(HaveOccurred())

		Expect(first.Code).To(Equal(code))
		Expect(first.Thunks).To(Equal(thunks))
	})

	It("should reject blocks with invalid instructions", func() {
		_, err := t.Translate(0x1000, []ir.Inst{ir.DSS(ir.OpAdd, 40, 1, 2)})
		Expect(err).To(MatchError(ContainSubstring("instruction 0")))

		_, ok := t.Cache().Lookup(0x1000)
		Expect(ok).To(BeFalse())
	})

	It("should expose its compiler", func() {
		Expect(t.Compiler().Caps().Zbb).To(BeTrue())
	})
})
