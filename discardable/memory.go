package discardable

import (
	"fmt"

	"github.com/IvanBrykalov/rastercache/bitmap"
)

// Memory is a block of reclaimable storage.
type Memory interface {
	// Lock pins the block. It returns false if the contents were discarded;
	// the block then stays unusable and must be Released.
	Lock() bool
	// Unlock allows the contents to be discarded.
	Unlock()
	// Data returns the block's bytes. Only valid while locked.
	Data() []byte
	// Release frees the block. It must not be used afterwards.
	Release()
}

// Factory returns a locked Memory of size bytes.
type Factory func(size int) (Memory, error)

// Allocator adapts a Factory to bitmap.Allocator so bitmaps can be
// allocated directly into discardable storage.
type Allocator struct {
	Factory Factory
}

// Alloc implements bitmap.Allocator.
func (a Allocator) Alloc(size int) (bitmap.Block, error) {
	m, err := a.Factory(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bitmap.ErrAllocFailed, err)
	}
	if m == nil {
		return nil, bitmap.ErrAllocFailed
	}
	return block{m}, nil
}

// block exposes a Memory through the bitmap.Block capability.
type block struct{ m Memory }

func (b block) Bytes() []byte { return b.m.Data() }
func (b block) Lock() bool    { return b.m.Lock() }
func (b block) Unlock()       { b.m.Unlock() }
func (b block) Release()      { b.m.Release() }

var _ bitmap.Allocator = Allocator{}
