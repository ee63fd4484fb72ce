package cache

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rectOf(n int) image.Rectangle { return image.Rect(0, 0, n, n) }

func TestKey_Equality(t *testing.T) {
	t.Parallel()

	a := NewKey(1, 2, 3)
	b := NewKeyBytes([]byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0})
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, 3, b.Len())
	assert.EqualValues(t, 2, b.Word(1))

	assert.False(t, a.Equal(NewKey(1, 2)), "length is part of identity")
	assert.False(t, a.Equal(NewKey(1, 2, 4)))
	assert.True(t, NewKey().Equal(NewKeyBytes(nil)), "all empty keys are equal")
}

func TestKey_NewKeyBytesRejectsPartialWords(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewKeyBytes([]byte{1, 2, 3}) })
}

func TestKey_CloneSharesNothing(t *testing.T) {
	t.Parallel()

	words := []uint32{7, 8, 9}
	k := NewKey(words...)
	c := k.Clone()
	words[0] = 100
	assert.EqualValues(t, 100, k.Word(0), "NewKey aliases its words")
	assert.EqualValues(t, 7, c.Word(0))
	assert.Equal(t, k.Hash(), c.Hash())
}

// The cache clones keys on insert, so callers may reuse a scratch buffer.
func TestKey_ScratchBufferReuse(t *testing.T) {
	t.Parallel()

	c := NewBudgeted(1 << 20)
	t.Cleanup(func() { _ = c.Close() })

	scratch := []uint32{0xA, 1}
	addUnlocked(t, c, NewKey(scratch...), 16)
	scratch[1] = 2
	addUnlocked(t, c, NewKey(scratch...), 16)

	for _, w := range []uint32{1, 2} {
		_, h, ok := c.FindAndLockBitmap(NewKey(0xA, w))
		require.True(t, ok, "word %d", w)
		c.Unlock(h)
	}
	mustValid(t, c)
}

func TestKey_ConstructorsDoNotCollide(t *testing.T) {
	t.Parallel()

	r := rectOf(64)
	keys := []Key{
		ScaleKey(1, 0.5, 0.5, r),
		ScaleKey(1, 0.5, 0.25, r),
		ScaleKey(2, 0.5, 0.5, r),
		ScaleKey(1, 0.5, 0.5, image.Rect(1, 0, 64, 64)),
		SizeKey(1, 32, 32, r),
		SizeKey(1, 32, 16, r),
		MipKey(1, r),
		MipKey(2, r),
	}
	for i := range keys {
		for j := range keys {
			if i != j {
				assert.False(t, keys[i].Equal(keys[j]), "keys %d and %d", i, j)
			}
		}
	}
	assert.True(t, ScaleKey(1, 0.5, 0.5, r).Equal(ScaleKey(1, 0.5, 0.5, rectOf(64))))
	assert.Contains(t, MipKey(1, r).String(), "words=6")
}
