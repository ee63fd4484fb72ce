// Package mipmap builds chains of successively half-sized bitmaps used to
// draw a source image at small scales without aliasing.
package mipmap

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/image/draw"

	"github.com/IvanBrykalov/rastercache/bitmap"
)

// ErrTooSmall is returned by Build for sources with nothing to downsample.
var ErrTooSmall = errors.New("mipmap: source too small")

// MipMap is an immutable chain of levels. Level 0 is half the size of the
// source; the last level is 1×1.
type MipMap struct {
	levels []bitmap.Bitmap
	size   int64
}

// Build downsamples src level by level, allocating every level from a.
// Each level is filtered from the previous one with an approximate bilinear
// kernel, which is what a box filter over 2×2 texels amounts to.
func Build(a bitmap.Allocator, src bitmap.Bitmap) (*MipMap, error) {
	w, h := src.Width, src.Height
	if w <= 1 && h <= 1 {
		return nil, ErrTooSmall
	}

	m := &MipMap{}
	prev := src
	for w > 1 || h > 1 {
		w, h = max(w>>1, 1), max(h>>1, 1)
		lvl, err := bitmap.New(a, src.Format, w, h)
		if err != nil {
			m.Release()
			return nil, fmt.Errorf("mipmap level %d: %w", len(m.levels), err)
		}
		dst := lvl.Image()
		from := prev.Image()
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), from, from.Bounds(), draw.Src, nil)
		m.levels = append(m.levels, lvl)
		m.size += lvl.ByteSize()
		prev = lvl
	}
	return m, nil
}

// Len returns the number of levels.
func (m *MipMap) Len() int { return len(m.levels) }

// Level returns level i.
func (m *MipMap) Level(i int) bitmap.Bitmap { return m.levels[i] }

// Levels returns all levels, largest first. The slice must not be modified.
func (m *MipMap) Levels() []bitmap.Bitmap { return m.levels }

// ByteSize is the total pixel size of all levels.
func (m *MipMap) ByteSize() int64 { return m.size }

// LevelForScale picks the level to sample when drawing the source at the
// given uniform scale. It reports false when the scale does not minify,
// in which case the source itself should be used.
func (m *MipMap) LevelForScale(scale float64) (bitmap.Bitmap, bool) {
	if scale >= 1 || scale <= 0 || len(m.levels) == 0 {
		return bitmap.Bitmap{}, false
	}
	i := int(math.Floor(math.Log2(1/scale))) - 1
	if i < 0 {
		return bitmap.Bitmap{}, false
	}
	if i >= len(m.levels) {
		i = len(m.levels) - 1
	}
	return m.levels[i], true
}

// Release frees every level's storage.
func (m *MipMap) Release() {
	for _, l := range m.levels {
		l.Release()
	}
	m.levels = nil
	m.size = 0
}
