// Package util contains internal helpers (hashing, bucket sizing).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// HashWords hashes a slice of 32-bit words with xxhash and folds the
// 64-bit digest to 32 bits. The result depends on host byte order,
// which is fine for in-process keys.
func HashWords(words []uint32) uint32 {
	if len(words) == 0 {
		return Fold32(xxhash.Sum64(nil))
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*4)
	return Fold32(xxhash.Sum64(b))
}

// Fold32 mixes the high half of h into the low half.
func Fold32(h uint64) uint32 {
	return uint32(h) ^ uint32(h>>32)
}
