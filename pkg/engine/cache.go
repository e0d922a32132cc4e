package engine

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/yourusername/tabula/internal/positionid"
)

// DefaultCacheSize is the default number of usage cache entries.
const DefaultCacheSize = 1 << 16

// usageEntry stores one cached dice usage result.
type usageEntry struct {
	key     positionid.Key
	context uint32
	value   int8
}

// cacheNode holds primary and secondary entries for two-way associative lookup.
type cacheNode struct {
	primary   usageEntry
	secondary usageEntry
}

// UsageCache is a thread-safe cache of dice usage results keyed by position,
// colour and dice. A single cache may be shared by concurrent searches.
type UsageCache struct {
	entries  []cacheNode
	size     uint32
	hashMask uint32

	lookups atomic.Uint64
	hits    atomic.Uint64
	adds    atomic.Uint64

	mu sync.RWMutex
}

// NewUsageCache creates a cache with room for about size entries.
// Size is rounded up to a power of 2.
func NewUsageCache(size uint32) *UsageCache {
	if size < 2 {
		size = 2
	}
	if size > 1<<24 {
		size = 1 << 24
	}
	p := uint32(1)
	for p < size {
		p <<= 1
	}

	c := &UsageCache{
		entries:  make([]cacheNode, p/2),
		size:     p,
		hashMask: p/2 - 1,
	}
	c.Flush()
	return c
}

// Flush clears all entries and statistics.
func (c *UsageCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		c.entries[i].primary.value = -1
		c.entries[i].secondary.value = -1
	}
	c.lookups.Store(0)
	c.hits.Store(0)
	c.adds.Store(0)
}

// Lookup returns the cached value for key and context.
func (c *UsageCache) Lookup(key positionid.Key, context uint32) (int, bool) {
	slot := positionid.Hash(key, context) & c.hashMask
	c.lookups.Add(1)

	c.mu.RLock()
	defer c.mu.RUnlock()

	node := &c.entries[slot]
	for _, e := range [2]*usageEntry{&node.primary, &node.secondary} {
		if e.value >= 0 && e.context == context && positionid.EqualKeys(e.key, key) {
			c.hits.Add(1)
			return int(e.value), true
		}
	}
	return 0, false
}

// Add stores a value, demoting the slot's previous primary entry.
func (c *UsageCache) Add(key positionid.Key, context uint32, value int) {
	slot := positionid.Hash(key, context) & c.hashMask

	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.entries[slot]
	node.secondary = node.primary
	node.primary = usageEntry{key: key, context: context, value: int8(value)}
	c.adds.Add(1)
}

// Stats returns lookup, hit and add counts.
func (c *UsageCache) Stats() (lookups, hits, adds uint64) {
	return c.lookups.Load(), c.hits.Load(), c.adds.Load()
}

// HitRate returns the hit rate as a percentage.
func (c *UsageCache) HitRate() float64 {
	lookups := c.lookups.Load()
	if lookups == 0 {
		return 0
	}
	return float64(c.hits.Load()) / float64(lookups) * 100
}

// usageContext packs colour, search mode and the sorted dice into one word.
//
// Bits 0-1: colour, bit 2: greedy, bits 3-5: dice count, then 3 bits per die.
func usageContext(c Colour, greedy bool, dice []int) uint32 {
	sorted := append([]int(nil), dice...)
	sort.Ints(sorted)

	ctx := uint32(c) & 0x3
	if greedy {
		ctx |= 1 << 2
	}
	ctx |= uint32(len(sorted)&0x7) << 3
	for i, d := range sorted {
		ctx |= uint32(d&0x7) << (6 + 3*i)
	}
	return ctx
}
