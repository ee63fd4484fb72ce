package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/IvanBrykalov/rastercache/bitmap"
	"github.com/IvanBrykalov/rastercache/mipmap"
)

// The global cache is created on first use of any package-level function,
// from the Options passed to ConfigureGlobal (or the zero Options: a
// budgeted cache of DefaultByteLimit bytes). It lives for the rest of the
// process. Every package-level function holds global.mu for its duration;
// none of them blocks on anything but that lock.
var global struct {
	mu     sync.Mutex
	c      *Cache
	opt    *Options
	flight singleflight.Group
}

// ConfigureGlobal sets the Options used to build the global cache.
// It must be called before the first package-level cache call.
func ConfigureGlobal(opt Options) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.c != nil {
		panic("rastercache: ConfigureGlobal after the global cache was created")
	}
	global.opt = &opt
}

// instance returns the global cache, creating it if needed.
// global.mu must be held.
func instance() *Cache {
	if global.c == nil {
		var opt Options
		if global.opt != nil {
			opt = *global.opt
		}
		global.c = New(opt)
	}
	return global.c
}

func withGlobal[T any](fn func(c *Cache) T) T {
	global.mu.Lock()
	defer global.mu.Unlock()
	return fn(instance())
}

// FindAndLockBitmap is Cache.FindAndLockBitmap on the global cache.
func FindAndLockBitmap(k Key) (bitmap.Bitmap, *Handle, bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	return instance().FindAndLockBitmap(k)
}

// FindAndLockMipMap is Cache.FindAndLockMipMap on the global cache.
func FindAndLockMipMap(k Key) (*mipmap.MipMap, *Handle, bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	return instance().FindAndLockMipMap(k)
}

// AddAndLockBitmap is Cache.AddAndLockBitmap on the global cache.
func AddAndLockBitmap(k Key, bm bitmap.Bitmap) *Handle {
	return withGlobal(func(c *Cache) *Handle { return c.AddAndLockBitmap(k, bm) })
}

// AddAndLockMipMap is Cache.AddAndLockMipMap on the global cache.
func AddAndLockMipMap(k Key, m *mipmap.MipMap) *Handle {
	return withGlobal(func(c *Cache) *Handle { return c.AddAndLockMipMap(k, m) })
}

// Unlock is Cache.Unlock on the global cache.
func Unlock(h *Handle) {
	global.mu.Lock()
	defer global.mu.Unlock()
	instance().Unlock(h)
}

// TotalBytesUsed is Cache.TotalBytesUsed on the global cache.
func TotalBytesUsed() int64 {
	return withGlobal((*Cache).TotalBytesUsed)
}

// TotalByteLimit is Cache.TotalByteLimit on the global cache.
func TotalByteLimit() int64 {
	return withGlobal((*Cache).TotalByteLimit)
}

// SetTotalByteLimit is Cache.SetTotalByteLimit on the global cache.
func SetTotalByteLimit(n int64) int64 {
	return withGlobal(func(c *Cache) int64 { return c.SetTotalByteLimit(n) })
}

// SingleAllocationByteLimit is Cache.SingleAllocationByteLimit on the
// global cache.
func SingleAllocationByteLimit() int64 {
	return withGlobal((*Cache).SingleAllocationByteLimit)
}

// SetSingleAllocationByteLimit is Cache.SetSingleAllocationByteLimit on the
// global cache.
func SetSingleAllocationByteLimit(n int64) int64 {
	return withGlobal(func(c *Cache) int64 { return c.SetSingleAllocationByteLimit(n) })
}

// Allocator is Cache.Allocator on the global cache.
func Allocator() bitmap.Allocator {
	return withGlobal((*Cache).Allocator)
}

// Stats is Cache.Stats on the global cache.
func Stats() Snapshot {
	return withGlobal((*Cache).Stats)
}

// Dump is Cache.Dump on the global cache.
func Dump() {
	global.mu.Lock()
	defer global.mu.Unlock()
	instance().Dump()
}

// FindOrComputeBitmap returns the globally cached bitmap for k, or computes
// it with fn. Concurrent callers missing on the same key share a single
// call of fn; the result is stored in the cache and each caller gets its
// own lock on it. fn runs without the global lock held, with the context
// of whichever caller started it; cancelling ctx only stops this caller
// from waiting.
func FindOrComputeBitmap(ctx context.Context, k Key, fn func(context.Context) (bitmap.Bitmap, error)) (bitmap.Bitmap, *Handle, error) {
	return findOrCompute(ctx, KindBitmap, k, fn, (*Cache).FindAndLockBitmap, (*Cache).AddAndLockBitmap, bitmap.Bitmap.Release)
}

// FindOrComputeMipMap is FindOrComputeBitmap for mip chains.
func FindOrComputeMipMap(ctx context.Context, k Key, fn func(context.Context) (*mipmap.MipMap, error)) (*mipmap.MipMap, *Handle, error) {
	return findOrCompute(ctx, KindMipMap, k, fn, (*Cache).FindAndLockMipMap, (*Cache).AddAndLockMipMap, (*mipmap.MipMap).Release)
}

// flightKey names a computation; bitmap and mip chain requests over the
// same key words never share a flight.
func flightKey(kind Kind, k Key) string {
	return string(rune(kind)) + string(k.bytes())
}

func findOrCompute[P any](
	ctx context.Context,
	kind Kind,
	k Key,
	compute func(context.Context) (P, error),
	find func(*Cache, Key) (P, *Handle, bool),
	add func(*Cache, Key, P) *Handle,
	release func(P),
) (P, *Handle, error) {
	var zero P

	// lookup under the lock; on a miss optionally store v
	lockedFindOrAdd := func(v *P) (P, *Handle, bool) {
		global.mu.Lock()
		defer global.mu.Unlock()
		c := instance()
		if got, h, ok := find(c, k); ok {
			if v != nil {
				release(*v)
			}
			return got, h, true
		}
		if v == nil {
			return zero, nil, false
		}
		return *v, add(c, k, *v), true
	}

	if got, h, ok := lockedFindOrAdd(nil); ok {
		return got, h, nil
	}

	ch := global.flight.DoChan(flightKey(kind, k), func() (any, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		_, h, _ := lockedFindOrAdd(&v)
		Unlock(h)
		return nil, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, nil, res.Err
		}
	case <-ctx.Done():
		return zero, nil, ctx.Err()
	}

	if got, h, ok := lockedFindOrAdd(nil); ok {
		return got, h, nil
	}
	// evicted or reclaimed between the flight and our lookup
	v, err := compute(ctx)
	if err != nil {
		return zero, nil, err
	}
	got, h, _ := lockedFindOrAdd(&v)
	return got, h, nil
}
