// Package bitmap defines the pixel payload stored by rastercache and the
// storage capability it is allocated from.
//
// A Bitmap is a plain descriptor (format, dimensions, stride) over a Block.
// Blocks come from an Allocator: HeapAllocator hands out ordinary Go
// memory, while the discardable package provides blocks the system may
// reclaim while they are unlocked. The cache only talks to the Block
// interface and never needs to know which strategy produced a bitmap.
package bitmap
