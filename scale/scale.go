// Package scale is a small reference rasterizer producing scaled copies of
// bitmaps. It stands in for the real device when exercising rastercache
// from benchmarks and examples.
package scale

import (
	"fmt"
	"math"

	"golang.org/x/image/draw"

	"github.com/IvanBrykalov/rastercache/bitmap"
)

// Quality selects the resampling kernel.
type Quality uint8

const (
	// Low uses nearest-neighbor sampling.
	Low Quality = iota
	// Medium uses an approximate bilinear kernel.
	Medium
	// High uses a Catmull-Rom kernel.
	High
)

func (q Quality) interpolator() draw.Interpolator {
	switch q {
	case Low:
		return draw.NearestNeighbor
	case High:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}

// ToSize resamples src to w×h, allocating the result from a.
func ToSize(a bitmap.Allocator, src bitmap.Bitmap, w, h int, q Quality) (bitmap.Bitmap, error) {
	dst, err := bitmap.New(a, src.Format, w, h)
	if err != nil {
		return bitmap.Bitmap{}, fmt.Errorf("scale to %dx%d: %w", w, h, err)
	}
	di, si := dst.Image(), src.Image()
	q.interpolator().Scale(di, di.Bounds(), si, si.Bounds(), draw.Src, nil)
	return dst, nil
}

// ByFactor resamples src by sx, sy. Result dimensions are rounded and
// never smaller than 1×1.
func ByFactor(a bitmap.Allocator, src bitmap.Bitmap, sx, sy float64, q Quality) (bitmap.Bitmap, error) {
	w, h := Dimensions(src.Width, src.Height, sx, sy)
	return ToSize(a, src, w, h, q)
}

// Dimensions returns the rounded size of a w×h image scaled by sx, sy.
func Dimensions(w, h int, sx, sy float64) (int, int) {
	sw := int(math.Round(float64(w) * sx))
	sh := int(math.Round(float64(h) * sy))
	return max(sw, 1), max(sh, 1)
}
