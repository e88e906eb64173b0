package promisify

import (
	"fmt"
	"reflect"
	"sync"
)

// DefaultCacheCapacity is the entry bound of caches created without an
// explicit capacity, including [DefaultCache].
const DefaultCacheCapacity = 1024

// Cache memoizes conversions, keyed by target identity plus the effective
// options. The most recent conversion of a target wins: storing a new
// wrapper for a target replaces the previous entry regardless of options,
// and a lookup only hits when the stored options are structurally equal to
// the requested ones (the cache flag itself is excluded from the
// comparison).
//
// Go offers no weak reference keyed by a func value, so lifecycle is
// explicit instead: the cache is bounded, evicting oldest-first past
// capacity, and can be emptied with [Cache.Purge].
//
// A Cache is safe for concurrent use.
type Cache struct {
	// data maps target identity to its most recent conversion.
	data map[cacheKey]*cacheEntry

	// ring records insertion order for eviction. Slots whose seq no longer
	// matches the live entry are stale and skipped.
	ring []ringSlot

	nextSeq  uint64
	capacity int
	mu       sync.RWMutex
}

type cacheEntry struct {
	wrapper any
	opts    options
	seq     uint64
}

type ringSlot struct {
	seq uint64
	key cacheKey
}

// NewCache creates an empty cache bounded to the given number of entries.
// A non-positive capacity means [DefaultCacheCapacity].
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		data:     make(map[cacheKey]*cacheEntry),
		ring:     make([]ringSlot, 0, 64),
		nextSeq:  1, // 0 is the null marker
		capacity: capacity,
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Purge removes every entry. Allocating fresh storage rather than deleting
// in place reclaims hashmap bucket memory.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[cacheKey]*cacheEntry)
	c.ring = c.ring[:0]
}

// Scavenge performs a partial cleanup of stale ring slots, examining up to
// batchSize slots from the front of the ring and dropping those whose entry
// has since been overwritten or evicted. It returns the number of slots
// removed. Eviction skips stale slots regardless, so scavenging is purely a
// memory reclamation aid for long-lived caches with heavy overwrite traffic.
func (c *Cache) Scavenge(batchSize int) int {
	if batchSize <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	live := c.ring[:0]
	for i, slot := range c.ring {
		if i < batchSize {
			if e, ok := c.data[slot.key]; !ok || e.seq != slot.seq {
				removed++
				continue
			}
		}
		live = append(live, slot)
	}
	c.ring = live
	return removed
}

// get returns the cached wrapper for key if the stored options match the
// requested ones. A pure read with no side effects.
func (c *Cache) get(key cacheKey, o options) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[key]
	if !ok || !optionsEqual(e.opts, o) {
		return nil, false
	}
	return e.wrapper, true
}

// put stores the wrapper for key, replacing any previous entry (last write
// wins), and evicts oldest-first past capacity.
func (c *Cache) put(key cacheKey, wrapper any, o options) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := c.nextSeq
	c.nextSeq++

	c.data[key] = &cacheEntry{wrapper: wrapper, opts: o, seq: seq}
	c.ring = append(c.ring, ringSlot{seq: seq, key: key})

	for len(c.data) > c.capacity && len(c.ring) > 0 {
		slot := c.ring[0]
		c.ring = c.ring[1:]
		if e, ok := c.data[slot.key]; ok && e.seq == slot.seq {
			delete(c.data, slot.key)
		}
	}

	// Compact once stale slots dominate the ring.
	if len(c.ring) > 256 && len(c.ring) > 4*len(c.data) {
		c.compact()
	}
}

// compact removes stale slots from the ring, preserving order.
// Must be called with c.mu held.
func (c *Cache) compact() {
	live := c.ring[:0]
	for _, slot := range c.ring {
		if e, ok := c.data[slot.key]; ok && e.seq == slot.seq {
			live = append(live, slot)
		}
	}
	c.ring = live
}

// optionsEqual is the cache-hit comparison: timeout, bind, and style, with
// the cache flag deliberately excluded.
func optionsEqual(a, b options) bool {
	return a.timeout == b.timeout &&
		a.style == b.style &&
		bindEqual(a.bind, b.bind)
}

// bindEqual compares bind values. Referential kinds (funcs, maps, pointers,
// channels, slices) compare by identity, since reflect.DeepEqual never
// considers two non-nil funcs equal; everything else compares structurally.
func bindEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	return reflect.DeepEqual(a, b)
}

// cacheKey is the identity of a conversion target: a pointer (func code or
// closure pointer, map pointer, object pointer) plus, for struct-view method
// conversions, the property name. The name is required because every method
// value produced by [reflect.Value.MethodByName] shares a single call stub,
// so the pointer alone cannot tell methods of the same object apart.
type cacheKey struct {
	ptr  uintptr
	prop string
}

// String renders the key for log output.
func (k cacheKey) String() string {
	if k.prop != "" {
		return fmt.Sprintf("0x%x.%s", k.ptr, k.prop)
	}
	return fmt.Sprintf("0x%x", k.ptr)
}

// targetKey derives the identity key of a directly-supplied conversion
// target: the code or closure pointer for funcs, the referent pointer for
// maps and struct pointers. Distinct func values carry distinct pointers;
// method values do not, and are keyed by their owner via [methodKey] instead.
func targetKey(v reflect.Value) cacheKey {
	return cacheKey{ptr: v.Pointer()}
}

// methodKey derives the identity key of a struct method reached through an
// [ObjectView]: the owning object's pointer plus the method name.
func methodKey(source reflect.Value, name string) cacheKey {
	return cacheKey{ptr: source.Pointer(), prop: name}
}
