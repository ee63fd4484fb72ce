package scale

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/rastercache/bitmap"
)

func TestByFactor_Dimensions(t *testing.T) {
	t.Parallel()

	src, err := bitmap.New(bitmap.HeapAllocator{}, bitmap.Alpha8, 10, 20)
	require.NoError(t, err)

	for _, q := range []Quality{Low, Medium, High} {
		dst, err := ByFactor(bitmap.HeapAllocator{}, src, 0.5, 1.5, q)
		require.NoError(t, err)
		assert.Equal(t, 5, dst.Width)
		assert.Equal(t, 30, dst.Height)
		assert.Equal(t, bitmap.Alpha8, dst.Format)
		assert.EqualValues(t, 5*30, dst.ByteSize())
	}
}

func TestToSize_NearestKeepsSolidAlpha(t *testing.T) {
	t.Parallel()

	src, err := bitmap.New(bitmap.HeapAllocator{}, bitmap.Alpha8, 4, 4)
	require.NoError(t, err)
	for i := range src.Pix() {
		src.Pix()[i] = 0x80
	}

	dst, err := ToSize(bitmap.HeapAllocator{}, src, 9, 3, Low)
	require.NoError(t, err)
	assert.Equal(t, color.Alpha{A: 0x80}, dst.Image().At(8, 2))
}

func TestDimensions_ClampsToOne(t *testing.T) {
	t.Parallel()

	w, h := Dimensions(100, 100, 0.001, 0)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}
