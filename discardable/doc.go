// Package discardable provides memory blocks that may be reclaimed while
// their owner is not using them.
//
// A Memory starts out locked. While locked its Data is stable; once
// unlocked, the system (here: a Pool reacting to its budget or to memory
// pressure) may drop the contents at any time. Lock re-pins the block and
// reports whether the contents survived. A block whose Lock failed must
// still be Released.
//
// On linux and darwin the pool's blocks are anonymous page mappings: a
// purge hands the pages back to the kernel with madvise(MADV_DONTNEED)
// and Release unmaps them. Elsewhere blocks live on the Go heap.
package discardable
