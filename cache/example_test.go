package cache_test

import (
	"fmt"
	"image"

	"github.com/IvanBrykalov/rastercache/bitmap"
	"github.com/IvanBrykalov/rastercache/cache"
	"github.com/IvanBrykalov/rastercache/discardable"
)

func Example() {
	c := cache.NewBudgeted(1 << 10)
	defer c.Close()

	k := cache.SizeKey(1, 16, 16, image.Rect(0, 0, 64, 64))
	if _, _, ok := c.FindAndLockBitmap(k); !ok {
		fmt.Println("miss")
	}

	bm, err := bitmap.New(c.Allocator(), bitmap.Alpha8, 16, 16)
	if err != nil {
		panic(err)
	}
	c.Unlock(c.AddAndLockBitmap(k, bm))

	_, h, ok := c.FindAndLockBitmap(k)
	fmt.Println(ok, c.TotalBytesUsed())
	c.Unlock(h)
	// Output:
	// miss
	// true 256
}

func ExampleNewDiscardable() {
	pool := discardable.NewPool(1 << 20)
	defer pool.Close()
	c := cache.NewDiscardable(pool.Factory())
	defer c.Close()

	k := cache.NewKey(7)
	bm, err := bitmap.New(c.Allocator(), bitmap.RGBA8888, 8, 8)
	if err != nil {
		panic(err)
	}
	c.Unlock(c.AddAndLockBitmap(k, bm))

	// memory pressure: unlocked blocks are dropped
	pool.Purge()

	_, _, ok := c.FindAndLockBitmap(k)
	fmt.Println(ok, c.Len(), c.TotalBytesUsed())
	// Output: false 0 0
}
