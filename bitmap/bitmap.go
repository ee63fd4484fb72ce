package bitmap

import (
	"fmt"
	"image"
	"image/draw"
)

// Format is the pixel layout of a Bitmap.
type Format uint8

const (
	// Alpha8 stores one coverage byte per pixel.
	Alpha8 Format = iota + 1
	// RGBA8888 stores four bytes per pixel, alpha-premultiplied.
	RGBA8888
)

// BytesPerPixel returns the pixel size for f, or 0 for an unknown format.
func (f Format) BytesPerPixel() int {
	switch f {
	case Alpha8:
		return 1
	case RGBA8888:
		return 4
	default:
		return 0
	}
}

func (f Format) String() string {
	switch f {
	case Alpha8:
		return "alpha8"
	case RGBA8888:
		return "rgba8888"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Bitmap describes a rectangle of pixels held in a Block.
// The zero Bitmap is the null bitmap: no storage, zero size.
type Bitmap struct {
	Format Format
	Width  int
	Height int
	Stride int

	block Block
}

// New allocates a tightly packed w×h bitmap from a.
func New(a Allocator, f Format, w, h int) (Bitmap, error) {
	bpp := f.BytesPerPixel()
	if bpp == 0 || w < 0 || h < 0 {
		return Bitmap{}, fmt.Errorf("%w: %s %dx%d", ErrInvalidDimensions, f, w, h)
	}
	stride := w * bpp
	blk, err := a.Alloc(stride * h)
	if err != nil {
		return Bitmap{}, fmt.Errorf("bitmap %dx%d: %w", w, h, err)
	}
	return Bitmap{Format: f, Width: w, Height: h, Stride: stride, block: blk}, nil
}

// IsNull reports whether the bitmap has no storage.
func (b Bitmap) IsNull() bool { return b.block == nil }

// Block returns the storage backing the bitmap.
func (b Bitmap) Block() Block { return b.block }

// ByteSize is the number of pixel bytes the bitmap accounts for.
func (b Bitmap) ByteSize() int64 { return int64(b.Stride) * int64(b.Height) }

// Pix returns the pixel bytes. Only valid while the block is locked.
func (b Bitmap) Pix() []byte {
	if b.block == nil {
		return nil
	}
	buf := b.block.Bytes()
	if n := b.Stride * b.Height; len(buf) > n {
		buf = buf[:n]
	}
	return buf
}

// Image returns a draw.Image sharing the bitmap's pixels.
func (b Bitmap) Image() draw.Image {
	r := image.Rect(0, 0, b.Width, b.Height)
	switch b.Format {
	case Alpha8:
		return &image.Alpha{Pix: b.Pix(), Stride: b.Stride, Rect: r}
	default:
		return &image.RGBA{Pix: b.Pix(), Stride: b.Stride, Rect: r}
	}
}

// Release frees the bitmap's storage.
func (b Bitmap) Release() {
	if b.block != nil {
		b.block.Release()
	}
}
