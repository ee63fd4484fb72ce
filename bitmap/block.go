package bitmap

import "fmt"

// Block is a span of pixel storage.
//
// Lock pins the block and reports whether its contents survived since the
// last Unlock; a false result means the data was reclaimed and the block is
// only good for Release. Blocks are returned by an Allocator already locked.
// Bytes is valid only while the block is locked.
type Block interface {
	Bytes() []byte
	Lock() bool
	Unlock()
	Release()
}

// Allocator produces locked Blocks of at least size bytes.
type Allocator interface {
	Alloc(size int) (Block, error)
}

// HeapAllocator allocates blocks from the Go heap. Its blocks can never be
// reclaimed behind the owner's back, so Lock always succeeds.
type HeapAllocator struct{}

// Alloc implements Allocator.
func (HeapAllocator) Alloc(size int) (Block, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidDimensions, size)
	}
	return &heapBlock{buf: make([]byte, size)}, nil
}

type heapBlock struct{ buf []byte }

func (b *heapBlock) Bytes() []byte { return b.buf }
func (b *heapBlock) Lock() bool    { return b.buf != nil }
func (b *heapBlock) Unlock()       {}
func (b *heapBlock) Release()      { b.buf = nil }

var _ Allocator = HeapAllocator{}
