// Package blockcache keeps translated blocks keyed by guest address, using
// the Akita cache directory for set-associative placement and LRU eviction.
package blockcache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Guest block addresses are aligned to the guest instruction size.
const blockSize = 4

// Config holds the cache geometry.
type Config struct {
	// Sets is the number of sets.
	Sets int `json:"sets"`
	// Ways is the associativity.
	Ways int `json:"ways"`
}

// DefaultConfig returns a 256-set, 4-way cache (1024 blocks).
func DefaultConfig() Config {
	return Config{
		Sets: 256,
		Ways: 4,
	}
}

// Validate checks that the geometry is usable.
func (c Config) Validate() error {
	if c.Sets <= 0 {
		return fmt.Errorf("sets must be positive, got %d", c.Sets)
	}
	if c.Ways <= 0 {
		return fmt.Errorf("ways must be positive, got %d", c.Ways)
	}
	return nil
}

// Capacity returns the number of blocks the cache can hold.
func (c Config) Capacity() int {
	return c.Sets * c.Ways
}

// Statistics holds cache statistics.
type Statistics struct {
	Lookups       uint64
	Hits          uint64
	Misses        uint64
	Inserts       uint64
	Evictions     uint64
	Invalidations uint64
}

// Cache maps guest block addresses to translations of type T. It is not safe
// for concurrent use.
type Cache[T any] struct {
	config    Config
	directory *akitacache.DirectoryImpl
	entries   []T
	stats     Statistics
}

// New creates an empty cache. It panics if the config is invalid.
func New[T any](config Config) *Cache[T] {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("blockcache: %v", err))
	}

	return &Cache[T]{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			blockSize,
			akitacache.NewLRUVictimFinder(),
		),
		entries: make([]T, config.Capacity()),
	}
}

// Config returns the cache configuration.
func (c *Cache[T]) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache[T]) Stats() Statistics {
	return c.stats
}

func (c *Cache[T]) index(block *akitacache.Block) int {
	return block.SetID*c.config.Ways + block.WayID
}

func tag(addr uint32) uint64 {
	return uint64(addr) &^ (blockSize - 1)
}

// Lookup returns the translation for addr, if cached.
func (c *Cache[T]) Lookup(addr uint32) (T, bool) {
	c.stats.Lookups++

	block := c.directory.Lookup(0, tag(addr))
	if block == nil || !block.IsValid {
		c.stats.Misses++
		var zero T
		return zero, false
	}

	c.stats.Hits++
	c.directory.Visit(block)
	return c.entries[c.index(block)], true
}

// Insert stores v as the translation for addr, replacing an existing one. If
// another block had to be evicted, its address is returned with evicted set.
func (c *Cache[T]) Insert(addr uint32, v T) (evictedAddr uint32, evicted bool) {
	c.stats.Inserts++
	t := tag(addr)

	block := c.directory.Lookup(0, t)
	if block == nil || !block.IsValid {
		block = c.directory.FindVictim(t)
		if block.IsValid {
			c.stats.Evictions++
			evictedAddr, evicted = uint32(block.Tag), true
		}
		block.Tag = t
		block.IsValid = true
	}

	c.entries[c.index(block)] = v
	c.directory.Visit(block)
	return evictedAddr, evicted
}

// Invalidate drops the translation for addr. It reports whether one existed.
func (c *Cache[T]) Invalidate(addr uint32) bool {
	block := c.directory.Lookup(0, tag(addr))
	if block == nil || !block.IsValid {
		return false
	}

	c.stats.Invalidations++
	block.IsValid = false
	var zero T
	c.entries[c.index(block)] = zero
	return true
}

// Addrs returns the addresses of all cached blocks, in set order.
func (c *Cache[T]) Addrs() []uint32 {
	var addrs []uint32
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				addrs = append(addrs, uint32(block.Tag))
			}
		}
	}
	return addrs
}

// Len returns the number of cached blocks.
func (c *Cache[T]) Len() int {
	return len(c.Addrs())
}

// Reset drops every translation and clears statistics.
func (c *Cache[T]) Reset() {
	c.directory.Reset()
	clear(c.entries)
	c.stats = Statistics{}
}
