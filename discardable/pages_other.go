//go:build !linux && !darwin

package discardable

// pages falls back to heap memory where anonymous mappings are unavailable.
type pages struct{ b []byte }

func mapPages(size int) (pages, error) {
	return pages{b: make([]byte, size)}, nil
}

func (p *pages) bytes() []byte { return p.b }

func (p *pages) discard() {
	clear(p.b)
}

func (p *pages) free() { p.b = nil }
