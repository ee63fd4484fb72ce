package cache

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/IvanBrykalov/rastercache/bitmap"
)

// benchmarkMix runs a lookup/insert mix against a warm single-goroutine
// cache. Reads only look up; writes look up and add on a miss. The budget
// holds half the keyspace so writes keep the eviction path busy.
func benchmarkMix(b *testing.B, readsPct int) {
	const keyspace, size = 1 << 14, 256
	c := NewBudgeted(keyspace / 2 * size)
	b.Cleanup(func() { _ = c.Close() })

	keys := make([]Key, keyspace)
	for i := range keys {
		keys[i] = ScaleKey(uint32(i), 0.5, 0.5, rectOf(512))
	}
	for i := 0; i < keyspace/2; i++ {
		c.Unlock(c.AddAndLockBitmap(keys[i], mustAlloc(b, c, size)))
	}

	b.ReportAllocs()
	b.ResetTimer()

	r := rand.New(rand.NewSource(1))
	for i := 0; i < b.N; i++ {
		k := keys[i&(keyspace-1)]
		_, h, ok := c.FindAndLockBitmap(k)
		if !ok && r.Intn(100) >= readsPct {
			h, ok = c.AddAndLockBitmap(k, mustAlloc(b, c, size)), true
		}
		if ok {
			c.Unlock(h)
		}
	}
}

func mustAlloc(b *testing.B, c *Cache, size int) bitmap.Bitmap {
	bm, err := bitmap.New(c.Allocator(), bitmap.Alpha8, size, 1)
	if err != nil {
		b.Fatal(err)
	}
	return bm
}

func BenchmarkCache_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkCache_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// BenchmarkGlobal_FindOrCompute is the same idea through the package-level
// API, with GOMAXPROCS goroutines contending on the global lock.
func BenchmarkGlobal_FindOrCompute(b *testing.B) {
	const keyspace, size = 1 << 12, 256
	resetGlobal(b, Options{ByteLimit: keyspace / 2 * size, Logger: quietLogger()})

	compute := func(context.Context) (bitmap.Bitmap, error) {
		return bitmap.New(Allocator(), bitmap.Alpha8, size, 1)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		for pb.Next() {
			k := NewKey(uint32(r.Intn(keyspace)))
			_, h, err := FindOrComputeBitmap(context.Background(), k, compute)
			if err != nil {
				b.Error(err)
				return
			}
			Unlock(h)
		}
	})
}
