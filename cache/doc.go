// Package cache is an in-process cache of scaled bitmaps and mip chains,
// keyed by opaque binary identities and handed out under a lock/unlock
// discipline.
//
// Design
//
//   - Keys: a Key is a sequence of 32-bit words with a precomputed hash.
//     Callers decide what goes in it (e.g. source generation id plus scale
//     factors); ScaleKey, SizeKey and MipKey cover the common shapes.
//     Lookups never copy the key; inserts clone it.
//
//   - Storage: records live in a chained hash index and an intrusive
//     MRU↔LRU doubly linked list. Lookups and inserts are O(1) expected.
//
//   - Locking: every successful find or add returns a Handle and pins the
//     entry. Pinned entries are never evicted; Unlock releases the pin.
//
//   - Budget: in budgeted mode, each add evicts unlocked entries from the
//     LRU end until the total byte size is back within the limit. If only
//     locked entries remain, the cache stays over budget.
//
//   - Discardable mode: pixel storage comes from a discardable.Factory and
//     may be reclaimed while an entry is unlocked. A lookup relocks the
//     storage first; if it was reclaimed, the entry is dropped and the
//     lookup misses.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; metrics/prom exports to Prometheus.
//
// Basic usage
//
//	c := cache.NewBudgeted(8 << 20)
//	k := cache.ScaleKey(src.GenerationID, 0.5, 0.5, src.Bounds)
//	bm, h, ok := c.FindAndLockBitmap(k)
//	if !ok {
//	    bm = scaleDown(c.Allocator(), src) // expensive
//	    h = c.AddAndLockBitmap(k, bm)
//	}
//	draw(bm)
//	c.Unlock(h)
//
// Global cache
//
// The package-level functions (FindAndLockBitmap, AddAndLockBitmap,
// Unlock, ...) operate on a process-wide cache created on first use and
// are safe for concurrent use. Use ConfigureGlobal before the first call to
// change its Options.
//
// Thread-safety
//
// A *Cache is not safe for concurrent use. Share one between goroutines
// only behind your own lock, or use the package-level functions.
//
// Contract violations (unlocking twice, adding a key that is present,
// using a closed cache) panic. Build with -tags invariants to validate the
// cache's internal structure after every operation.
package cache
