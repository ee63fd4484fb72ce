package cache

import (
	"testing"

	"github.com/IvanBrykalov/rastercache/bitmap"
)

// Fuzz add/find/unlock under arbitrary key bytes and entry sizes.
// Guards against panics and checks the structure after every step.
func FuzzCache_AddFindUnlock(f *testing.F) {
	f.Add([]byte{}, uint16(0))
	f.Add([]byte{1, 2, 3, 4}, uint16(100))
	f.Add([]byte("abcdefghijkl"), uint16(4096))
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}, uint16(65535))

	f.Fuzz(func(t *testing.T, b []byte, size uint16) {
		const limit = 1 << 10
		if len(b) > limit {
			b = b[:limit]
		}
		b = b[:len(b)&^3]

		c := NewBudgeted(8 << 10)
		t.Cleanup(func() { _ = c.Close() })
		check := func(step string) {
			t.Helper()
			if err := c.validate(); err != nil {
				t.Fatalf("%s: %v", step, err)
			}
		}

		k := NewKeyBytes(b)
		bm, err := bitmap.New(c.Allocator(), bitmap.Alpha8, int(size)%(16<<10), 1)
		if err != nil {
			t.Fatalf("alloc: %v", err)
		}
		h := c.AddAndLockBitmap(k, bm)
		check("add")

		// Locked: must be found no matter how far over budget we are.
		got, h2, ok := c.FindAndLockBitmap(NewKeyBytes(b))
		if !ok || got.ByteSize() != bm.ByteSize() {
			t.Fatalf("find after add: ok=%v size=%d want %d", ok, got.ByteSize(), bm.ByteSize())
		}
		c.Unlock(h2)
		c.Unlock(h)
		check("unlock")

		// Fill with neighbours; usage must converge to the budget.
		for i := 0; i < 32; i++ {
			nk := NewKeyBytes(append(append([]byte{}, b...), byte(i), 0, 0, 1))
			nb, err := bitmap.New(c.Allocator(), bitmap.Alpha8, 512, 1)
			if err != nil {
				t.Fatalf("alloc: %v", err)
			}
			c.Unlock(c.AddAndLockBitmap(nk, nb))
			check("fill")
		}
		if c.TotalBytesUsed() > c.TotalByteLimit() {
			t.Fatalf("over budget with nothing locked: %d > %d", c.TotalBytesUsed(), c.TotalByteLimit())
		}
	})
}
