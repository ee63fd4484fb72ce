package bitmap

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RGBAImageSharesPixels(t *testing.T) {
	t.Parallel()

	bm, err := New(HeapAllocator{}, RGBA8888, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 12, bm.Stride)
	assert.EqualValues(t, 24, bm.ByteSize())
	assert.False(t, bm.IsNull())

	img := bm.Image()
	require.IsType(t, &image.RGBA{}, img)
	img.Set(2, 1, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	assert.Equal(t, []byte{1, 2, 3, 4}, bm.Pix()[20:24])
}

func TestNew_Alpha8(t *testing.T) {
	t.Parallel()

	bm, err := New(HeapAllocator{}, Alpha8, 5, 5)
	require.NoError(t, err)
	require.IsType(t, &image.Alpha{}, bm.Image())
	assert.EqualValues(t, 25, bm.ByteSize())
}

func TestNew_RejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := New(HeapAllocator{}, Format(9), 1, 1)
	assert.True(t, errors.Is(err, ErrInvalidDimensions))
	_, err = New(HeapAllocator{}, Alpha8, -1, 1)
	assert.True(t, errors.Is(err, ErrInvalidDimensions))
}

func TestHeapBlock_LockAfterRelease(t *testing.T) {
	t.Parallel()

	bm, err := New(HeapAllocator{}, Alpha8, 2, 2)
	require.NoError(t, err)
	assert.True(t, bm.Block().Lock())
	bm.Release()
	assert.False(t, bm.Block().Lock())
	assert.Nil(t, bm.Pix())
}

func TestNullBitmap(t *testing.T) {
	t.Parallel()

	var bm Bitmap
	assert.True(t, bm.IsNull())
	assert.Nil(t, bm.Pix())
	assert.Zero(t, bm.ByteSize())
	bm.Release()
}
