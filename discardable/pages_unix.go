//go:build linux || darwin

package discardable

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pages is an anonymous private mapping.
type pages struct{ b []byte }

func mapPages(size int) (pages, error) {
	if size == 0 {
		return pages{}, nil
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return pages{}, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	return pages{b: b}, nil
}

func (p *pages) bytes() []byte { return p.b }

// discard returns the physical pages to the kernel. The mapping stays valid
// and reads back as zeroes.
func (p *pages) discard() {
	if len(p.b) > 0 {
		_ = unix.Madvise(p.b, unix.MADV_DONTNEED)
	}
}

func (p *pages) free() {
	if len(p.b) > 0 {
		_ = unix.Munmap(p.b)
	}
	p.b = nil
}
