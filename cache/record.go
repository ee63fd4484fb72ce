package cache

import (
	"fmt"

	"github.com/IvanBrykalov/rastercache/bitmap"
	"github.com/IvanBrykalov/rastercache/mipmap"
)

// Kind tags the payload shape held by a record.
type Kind uint8

const (
	// KindBitmap is a single scaled bitmap.
	KindBitmap Kind = iota + 1
	// KindMipMap is a precomputed mip chain.
	KindMipMap
)

func (k Kind) String() string {
	switch k {
	case KindBitmap:
		return "bitmap"
	case KindMipMap:
		return "mipmap"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// payload is a tagged variant over the cacheable shapes.
type payload struct {
	kind   Kind
	bitmap bitmap.Bitmap
	mip    *mipmap.MipMap
}

func (p *payload) size() int64 {
	switch p.kind {
	case KindBitmap:
		return p.bitmap.ByteSize()
	case KindMipMap:
		return p.mip.ByteSize()
	}
	return 0
}

// lock pins the payload's storage. It returns false, leaving nothing
// pinned, if any part of it was reclaimed.
func (p *payload) lock() bool {
	switch p.kind {
	case KindBitmap:
		return p.bitmap.IsNull() || p.bitmap.Block().Lock()
	case KindMipMap:
		levels := p.mip.Levels()
		for i, l := range levels {
			if l.IsNull() || l.Block().Lock() {
				continue
			}
			for _, done := range levels[:i] {
				if !done.IsNull() {
					done.Block().Unlock()
				}
			}
			return false
		}
	}
	return true
}

func (p *payload) unlock() {
	switch p.kind {
	case KindBitmap:
		if !p.bitmap.IsNull() {
			p.bitmap.Block().Unlock()
		}
	case KindMipMap:
		for _, l := range p.mip.Levels() {
			if !l.IsNull() {
				l.Block().Unlock()
			}
		}
	}
}

func (p *payload) release() {
	switch p.kind {
	case KindBitmap:
		p.bitmap.Release()
	case KindMipMap:
		p.mip.Release()
	}
}

// record is one cache entry. It is linked into exactly one index bucket
// and one recency list position while alive.
type record struct {
	key   Key // owned clone
	val   payload
	size  int64
	locks int

	// recency list: head is MRU, tail is LRU
	prev *record
	next *record

	hashNext *record
}

// Handle is proof of one lock on a cached entry, returned by the find and
// add operations. It must be passed to Unlock exactly once; the payload it
// was returned with must not be used after that.
type Handle struct {
	rec   *record
	owner *Cache
}
