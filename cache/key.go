package cache

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/IvanBrykalov/rastercache/internal/util"
)

// Key identifies a cached resource by an opaque sequence of 32-bit words.
// The hash is computed once at construction; after that a Key is immutable.
//
// Lookups use transient keys; the cache clones a key only when it inserts
// a new record, so callers may build keys over scratch buffers.
type Key struct {
	count int32
	hash  uint32
	words []uint32
}

// NewKey builds a key over words. The key takes the slice as is: callers
// must not modify it while the key is in use.
//
// A key without words is legal, but all such keys are equal; the caller is
// responsible for putting enough identity into the payload.
func NewKey(words ...uint32) Key {
	return Key{
		count: int32(len(words)),
		hash:  util.HashWords(words),
		words: words,
	}
}

// NewKeyBytes builds a key from little-endian words packed in b.
// len(b) must be a multiple of 4.
func NewKeyBytes(b []byte) Key {
	if len(b)%4 != 0 {
		panic(fmt.Sprintf("rastercache: key length %d is not a multiple of 4", len(b)))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return NewKey(words...)
}

// Hash returns the hash of the key's words.
func (k Key) Hash() uint32 { return k.hash }

// Len returns the number of payload words.
func (k Key) Len() int { return int(k.count) }

// Word returns payload word i.
func (k Key) Word(i int) uint32 { return k.words[i] }

// Equal compares payload words. Keys of different length are never equal.
func (k Key) Equal(o Key) bool {
	if k.count != o.count {
		return false
	}
	for i, w := range k.words {
		if o.words[i] != w {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no storage with k.
func (k Key) Clone() Key {
	words := make([]uint32, len(k.words))
	copy(words, k.words)
	return Key{count: k.count, hash: k.hash, words: words}
}

func (k Key) String() string {
	return fmt.Sprintf("key(words=%d hash=%08x)", k.count, k.hash)
}

// bytes packs the payload little-endian; used as a flight key.
func (k Key) bytes() []byte {
	b := make([]byte, 0, len(k.words)*4)
	for _, w := range k.words {
		b = binary.LittleEndian.AppendUint32(b, w)
	}
	return b
}

// Key namespaces for the built-in constructors; the leading word keeps
// different request shapes from colliding.
const (
	tagScale uint32 = 0x5343_4c31 // "SCL1"
	tagSize  uint32 = 0x535a_4531 // "SZE1"
	tagMip   uint32 = 0x4d49_5031 // "MIP1"
)

// ScaleKey identifies src (by generation id and subset bounds) scaled by
// sx, sy.
func ScaleKey(genID uint32, sx, sy float32, bounds image.Rectangle) Key {
	return NewKey(
		tagScale, genID,
		math.Float32bits(sx), math.Float32bits(sy),
		uint32(bounds.Min.X), uint32(bounds.Min.Y),
		uint32(bounds.Max.X), uint32(bounds.Max.Y),
	)
}

// SizeKey identifies src (by generation id and subset bounds) resampled to
// exactly width×height.
func SizeKey(genID uint32, width, height int, bounds image.Rectangle) Key {
	return NewKey(
		tagSize, genID,
		uint32(width), uint32(height),
		uint32(bounds.Min.X), uint32(bounds.Min.Y),
		uint32(bounds.Max.X), uint32(bounds.Max.Y),
	)
}

// MipKey identifies the mip chain of src (by generation id and subset
// bounds).
func MipKey(genID uint32, bounds image.Rectangle) Key {
	return NewKey(
		tagMip, genID,
		uint32(bounds.Min.X), uint32(bounds.Min.Y),
		uint32(bounds.Max.X), uint32(bounds.Max.Y),
	)
}
