package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IvanBrykalov/rastercache/bitmap"
	"github.com/IvanBrykalov/rastercache/discardable"
	"github.com/IvanBrykalov/rastercache/internal/invariants"
	"github.com/IvanBrykalov/rastercache/mipmap"
)

// Cache maps keys to scaled bitmaps and mip chains handed out under a
// lock/unlock discipline. Locked entries are never evicted.
//
// A Cache is not safe for concurrent use; callers sharing one across
// goroutines must serialize access. The package-level functions operate on
// a global Cache and do their own locking.
type Cache struct {
	lru recencyList
	idx index

	alloc       bitmap.Allocator
	discardable bool

	bytesUsed        int64
	byteLimit        int64
	singleAllocLimit int64
	count            int

	hits, misses     int64
	evictions, stale int64

	closed bool
	opt    Options
	log    *slog.Logger
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Factory   -> budgeted heap mode
//   - ByteLimit 0   -> DefaultByteLimit
//   - nil Metrics   -> NoopMetrics
//   - nil Logger    -> slog.Default()
func New(opt Options) *Cache {
	if opt.ByteLimit < 0 {
		panic("rastercache: ByteLimit must be >= 0")
	}
	if opt.SingleAllocationByteLimit < 0 {
		panic("rastercache: SingleAllocationByteLimit must be >= 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}

	c := &Cache{
		singleAllocLimit: opt.SingleAllocationByteLimit,
		opt:              opt,
		log:              opt.Logger.With("component", "rastercache"),
	}
	if opt.Factory != nil {
		c.discardable = true
		c.alloc = discardable.Allocator{Factory: opt.Factory}
	} else {
		c.alloc = bitmap.HeapAllocator{}
		c.byteLimit = opt.ByteLimit
		if c.byteLimit == 0 {
			c.byteLimit = DefaultByteLimit
		}
	}
	return c
}

// NewBudgeted returns a heap-backed cache that evicts least recently used,
// unlocked entries whenever an insertion pushes it over byteLimit.
func NewBudgeted(byteLimit int64) *Cache {
	if byteLimit <= 0 {
		panic("rastercache: byteLimit must be > 0")
	}
	return New(Options{ByteLimit: byteLimit})
}

// NewDiscardable returns a cache whose pixel storage comes from f. It keeps
// no byte budget: reclamation is up to whatever backs f.
func NewDiscardable(f discardable.Factory) *Cache {
	if f == nil {
		panic("rastercache: nil discardable factory")
	}
	return New(Options{Factory: f})
}

// ---- lookup and insertion ----

// FindAndLockBitmap looks up a bitmap. On a hit the entry is locked and
// promoted; the returned Handle must be passed to Unlock.
func (c *Cache) FindAndLockBitmap(k Key) (bitmap.Bitmap, *Handle, bool) {
	r := c.findAndLock(k, KindBitmap)
	if r == nil {
		return bitmap.Bitmap{}, nil, false
	}
	return r.val.bitmap, c.newHandle(r), true
}

// FindAndLockMipMap looks up a mip chain. On a hit the entry is locked and
// promoted; the returned Handle must be passed to Unlock.
func (c *Cache) FindAndLockMipMap(k Key) (*mipmap.MipMap, *Handle, bool) {
	r := c.findAndLock(k, KindMipMap)
	if r == nil {
		return nil, nil, false
	}
	return r.val.mip, c.newHandle(r), true
}

// AddAndLockBitmap takes ownership of bm, which must be locked (fresh from
// an Allocator), and stores it under k. k must not be present.
func (c *Cache) AddAndLockBitmap(k Key, bm bitmap.Bitmap) *Handle {
	return c.addAndLock(k, payload{kind: KindBitmap, bitmap: bm})
}

// AddAndLockMipMap takes ownership of m and stores it under k.
// k must not be present.
func (c *Cache) AddAndLockMipMap(k Key, m *mipmap.MipMap) *Handle {
	if m == nil {
		panic("rastercache: nil mipmap")
	}
	return c.addAndLock(k, payload{kind: KindMipMap, mip: m})
}

// Unlock releases the lock represented by h. Unlocking the last lock makes
// the entry evictable but does not evict it.
func (c *Cache) Unlock(h *Handle) {
	if h == nil {
		panic("rastercache: Unlock(nil)")
	}
	if h.owner != c {
		panic("rastercache: handle belongs to another cache")
	}
	r := h.rec
	if r == nil {
		panic("rastercache: handle already unlocked")
	}
	c.checkOpen()
	if r.locks <= 0 {
		panic(fmt.Sprintf("rastercache: unlock of unlocked entry %v", r.key))
	}
	h.rec = nil
	r.locks--
	if r.locks == 0 {
		r.val.unlock()
	}
	c.check()
}

// FindOrComputeBitmap returns the cached bitmap for k, computing and adding
// it with fn on a miss. fn is not called when ctx is already done.
func (c *Cache) FindOrComputeBitmap(ctx context.Context, k Key, fn func(context.Context) (bitmap.Bitmap, error)) (bitmap.Bitmap, *Handle, error) {
	if bm, h, ok := c.FindAndLockBitmap(k); ok {
		return bm, h, nil
	}
	if err := ctx.Err(); err != nil {
		return bitmap.Bitmap{}, nil, err
	}
	bm, err := fn(ctx)
	if err != nil {
		return bitmap.Bitmap{}, nil, err
	}
	return bm, c.AddAndLockBitmap(k, bm), nil
}

// FindOrComputeMipMap is FindOrComputeBitmap for mip chains.
func (c *Cache) FindOrComputeMipMap(ctx context.Context, k Key, fn func(context.Context) (*mipmap.MipMap, error)) (*mipmap.MipMap, *Handle, error) {
	if m, h, ok := c.FindAndLockMipMap(k); ok {
		return m, h, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m, err := fn(ctx)
	if err != nil {
		return nil, nil, err
	}
	return m, c.AddAndLockMipMap(k, m), nil
}

// ---- limits ----

// TotalBytesUsed returns the bytes held by entries. Always 0 in
// discardable mode.
func (c *Cache) TotalBytesUsed() int64 { return c.bytesUsed }

// TotalByteLimit returns the byte budget. Always 0 in discardable mode.
func (c *Cache) TotalByteLimit() int64 { return c.byteLimit }

// SetTotalByteLimit changes the budget and returns the previous one.
// Lowering it below current usage evicts right away, as far as unlocked
// entries allow. In discardable mode it does nothing and returns 0.
func (c *Cache) SetTotalByteLimit(n int64) int64 {
	c.checkOpen()
	if n < 0 {
		panic("rastercache: byte limit must be >= 0")
	}
	if c.discardable {
		return 0
	}
	prev := c.byteLimit
	c.byteLimit = n
	c.purgeAsNeeded()
	c.opt.Metrics.Size(c.count, c.bytesUsed)
	c.check()
	return prev
}

// SingleAllocationByteLimit returns the advisory per-entry maximum;
// 0 means none.
func (c *Cache) SingleAllocationByteLimit() int64 { return c.singleAllocLimit }

// SetSingleAllocationByteLimit sets the advisory per-entry maximum and
// returns the previous value.
func (c *Cache) SetSingleAllocationByteLimit(n int64) int64 {
	if n < 0 {
		panic("rastercache: single allocation limit must be >= 0")
	}
	prev := c.singleAllocLimit
	c.singleAllocLimit = n
	return prev
}

// Allocator returns the pixel allocator matching the cache's backing mode.
// Bitmaps meant for AddAndLockBitmap should be allocated from it.
func (c *Cache) Allocator() bitmap.Allocator { return c.alloc }

// Discardable reports whether the cache is backed by discardable memory.
func (c *Cache) Discardable() bool { return c.discardable }

// Len returns the number of resident entries.
func (c *Cache) Len() int { return c.count }

// Close releases every entry, locked or not. Outstanding payloads become
// invalid, and any further use of the cache panics.
func (c *Cache) Close() error {
	if c.closed {
		return nil
	}
	for r := c.lru.head; r != nil; {
		next := r.next
		r.prev, r.next, r.hashNext = nil, nil, nil
		r.val.release()
		r = next
	}
	c.lru.reset()
	c.idx.reset()
	c.count = 0
	c.bytesUsed = 0
	c.closed = true
	c.opt.Metrics.Size(0, 0)
	return nil
}

// -------------------- internals --------------------

func (c *Cache) findAndLock(k Key, kind Kind) *record {
	c.checkOpen()
	r := c.idx.find(k)
	if r == nil {
		c.misses++
		c.opt.Metrics.Miss()
		return nil
	}
	if r.val.kind != kind {
		panic(fmt.Sprintf("rastercache: %v holds a %s, not a %s", k, r.val.kind, kind))
	}
	if r.locks == 0 && !r.val.lock() {
		// reclaimed while unlocked: drop it and report a miss
		c.purgeRec(r, EvictStale)
		c.misses++
		c.opt.Metrics.Miss()
		c.opt.Metrics.Size(c.count, c.bytesUsed)
		c.check()
		return nil
	}
	r.locks++
	c.lru.moveToHead(r)
	c.hits++
	c.opt.Metrics.Hit()
	c.check()
	return r
}

func (c *Cache) addAndLock(k Key, p payload) *Handle {
	c.checkOpen()
	if c.idx.find(k) != nil {
		panic(fmt.Sprintf("rastercache: duplicate add of %v", k))
	}
	r := &record{key: k.Clone(), val: p, size: p.size(), locks: 1}
	c.idx.insert(r)
	c.lru.addToHead(r)
	c.count++
	if !c.discardable {
		c.bytesUsed += r.size
	}
	c.purgeAsNeeded()
	c.opt.Metrics.Size(c.count, c.bytesUsed)
	c.check()
	return c.newHandle(r)
}

func (c *Cache) newHandle(r *record) *Handle {
	return &Handle{rec: r, owner: c}
}

// purgeAsNeeded evicts unlocked entries, least recently used first, until
// the cache is within budget or only locked entries remain.
func (c *Cache) purgeAsNeeded() {
	if c.discardable {
		return
	}
	for r := c.lru.tail; r != nil && c.bytesUsed > c.byteLimit; {
		prev := r.prev
		if r.locks == 0 {
			c.purgeRec(r, EvictBudget)
		}
		r = prev
	}
}

// purgeRec unlinks r, updates counters, and frees its payload.
func (c *Cache) purgeRec(r *record, reason EvictReason) {
	c.idx.remove(r)
	c.lru.detach(r)
	c.count--
	if !c.discardable {
		c.bytesUsed -= r.size
	}
	if reason == EvictStale {
		c.stale++
	} else {
		c.evictions++
	}
	c.opt.Metrics.Evict(reason)
	if cb := c.opt.OnEvict; cb != nil {
		cb(r.key, r.val.kind, r.size, reason)
	}
	c.log.Debug("evict", "key", r.key, "kind", r.val.kind, "size", r.size, "reason", reason)
	r.val.release()
}

func (c *Cache) checkOpen() {
	if c.closed {
		panic("rastercache: use of closed cache")
	}
}

// check runs the structural validation after every mutation when built
// with the invariants tag.
func (c *Cache) check() {
	if !invariants.Enabled {
		return
	}
	if err := c.validate(); err != nil {
		panic(err)
	}
}
