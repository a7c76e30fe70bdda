package blockcache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvjit/blockcache"
)

var _ = Describe("Cache", func() {
	var c *blockcache.Cache[string]

	BeforeEach(func() {
		// Two sets of two ways; addresses 0x0, 0x8, 0x10 share set 0.
		c = blockcache.New[string](blockcache.Config{Sets: 2, Ways: 2})
	})

	It("should miss on a cold cache", func() {
		_, ok := c.Lookup(0x100)
		Expect(ok).To(BeFalse())
		Expect(c.Stats().Misses).To(Equal(uint64(1)))
	})

	It("should hit after insert", func() {
		c.Insert(0x100, "a")

		v, ok := c.Lookup(0x100)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("a"))
		Expect(c.Stats().Hits).To(Equal(uint64(1)))
	})

	It("should replace an existing translation in place", func() {
		c.Insert(0x100, "a")
		_, evicted := c.Insert(0x100, "b")

		Expect(evicted).To(BeFalse())
		v, _ := c.Lookup(0x100)
		Expect(v).To(Equal("b"))
		Expect(c.Len()).To(Equal(1))
	})

	It("should evict the least recently used block of a set", func() {
		c.Insert(0x0, "a")
		c.Insert(0x8, "b")
		c.Lookup(0x0)

		addr, evicted := c.Insert(0x10, "c")
		Expect(evicted).To(BeTrue())
		Expect(addr).To(Equal(uint32(0x8)))

		_, ok := c.Lookup(0x8)
		Expect(ok).To(BeFalse())
		v, ok := c.Lookup(0x0)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("a"))
		Expect(c.Stats().Evictions).To(Equal(uint64(1)))
	})

	It("should keep sets independent", func() {
		c.Insert(0x0, "a")
		c.Insert(0x8, "b")
		_, evicted := c.Insert(0x4, "c")

		Expect(evicted).To(BeFalse())
		Expect(c.Addrs()).To(ConsistOf(uint32(0x0), uint32(0x8), uint32(0x4)))
	})

	It("should invalidate", func() {
		c.Insert(0x100, "a")

		Expect(c.Invalidate(0x100)).To(BeTrue())
		Expect(c.Invalidate(0x100)).To(BeFalse())
		_, ok := c.Lookup(0x100)
		Expect(ok).To(BeFalse())
	})

	It("should drop everything on Reset", func() {
		c.Insert(0x0, "a")
		c.Insert(0x4, "b")
		c.Reset()

		Expect(c.Len()).To(BeZero())
		Expect(c.Stats()).To(Equal(blockcache.Statistics{}))
	})

	Describe("Config", func() {
		It("should validate geometry", func() {
			Expect(blockcache.DefaultConfig().Validate()).To(Succeed())
			Expect(blockcache.Config{Sets: 0, Ways: 1}.Validate()).To(HaveOccurred())
			Expect(blockcache.Config{Sets: 1, Ways: 0}.Validate()).To(HaveOccurred())
		})

		It("should report capacity", func() {
			Expect(blockcache.DefaultConfig().Capacity()).To(Equal(1024))
		})

		It("should panic on invalid geometry", func() {
			Expect(func() { blockcache.New[int](blockcache.Config{}) }).To(Panic())
		})
	})
})
