package discardable

import (
	"fmt"
	"sync"
)

// DefaultPoolBudget is the budget used by NewPool for non-positive values.
const DefaultPoolBudget = 8 << 20

// Pool hands out Memory blocks and discards unlocked ones, least recently
// locked first, whenever the bytes it holds exceed its budget. Purge drops
// every unlocked block, e.g. in response to memory pressure.
//
// Pool is safe for concurrent use: discards may be triggered from any
// goroutine while block owners lock and unlock.
type Pool struct {
	mu     sync.Mutex
	head   *poolMemory // most recently locked
	tail   *poolMemory
	used   int64 // bytes held by blocks that were not discarded
	budget int64
	count  int
	purges int64
	closed bool
}

// NewPool returns a pool with the given byte budget.
func NewPool(budget int64) *Pool {
	if budget <= 0 {
		budget = DefaultPoolBudget
	}
	return &Pool{budget: budget}
}

// Factory returns p.Create as a Factory.
func (p *Pool) Factory() Factory { return p.Create }

// Create returns a locked block of size bytes. Creating may discard other,
// unlocked blocks to stay within budget.
func (p *Pool) Create(size int) (Memory, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	pg, err := mapPages(size)
	if err != nil {
		return nil, err
	}
	m := &poolMemory{pool: p, pg: pg, size: int64(size), locked: true}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		pg.free()
		return nil, ErrClosed
	}
	p.purgeDownToLocked(p.budget - m.size)
	p.pushFront(m)
	return m, nil
}

// Purge discards every unlocked block.
func (p *Pool) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purgeDownToLocked(0)
}

// SetBudget changes the budget, discarding as needed, and returns the
// previous value.
func (p *Pool) SetBudget(budget int64) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.budget
	p.budget = budget
	p.purgeDownToLocked(budget)
	return prev
}

// Budget returns the current budget.
func (p *Pool) Budget() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.budget
}

// Used returns the bytes held by live, undiscarded blocks.
func (p *Pool) Used() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}

// Len returns the number of live, undiscarded blocks.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Purges returns how many blocks have been discarded so far.
func (p *Pool) Purges() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.purges
}

// Close discards all unlocked blocks and rejects further Create calls.
// Locked blocks stay valid until their owners release them.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.purgeDownToLocked(0)
	return nil
}

// -------------------- internals (mu held) --------------------

func (p *Pool) purgeDownToLocked(target int64) {
	for m := p.tail; m != nil && p.used > target; {
		prev := m.prev
		if !m.locked {
			p.unlink(m)
			m.pg.discard()
			m.discarded = true
			p.purges++
		}
		m = prev
	}
}

func (p *Pool) pushFront(m *poolMemory) {
	m.prev = nil
	m.next = p.head
	if p.head != nil {
		p.head.prev = m
	}
	p.head = m
	if p.tail == nil {
		p.tail = m
	}
	p.used += m.size
	p.count++
}

func (p *Pool) unlink(m *poolMemory) {
	if m.prev != nil {
		m.prev.next = m.next
	}
	if m.next != nil {
		m.next.prev = m.prev
	}
	if p.head == m {
		p.head = m.next
	}
	if p.tail == m {
		p.tail = m.prev
	}
	m.prev, m.next = nil, nil
	p.used -= m.size
	p.count--
}

// poolMemory is a pool-owned block. All state is guarded by pool.mu.
type poolMemory struct {
	pool *Pool
	pg   pages
	size int64

	locked    bool
	discarded bool
	released  bool

	prev, next *poolMemory
}

func (m *poolMemory) Lock() bool {
	p := m.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.released {
		panic("discardable: Lock after Release")
	}
	if m.discarded {
		return false
	}
	if m.locked {
		panic("discardable: Lock of a locked block")
	}
	m.locked = true
	p.unlink(m)
	p.pushFront(m)
	return true
}

func (m *poolMemory) Unlock() {
	p := m.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	if !m.locked {
		panic("discardable: Unlock of an unlocked block")
	}
	m.locked = false
}

func (m *poolMemory) Data() []byte {
	p := m.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.discarded || m.released {
		return nil
	}
	return m.pg.bytes()
}

func (m *poolMemory) Release() {
	p := m.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.released {
		panic("discardable: double Release")
	}
	if !m.discarded {
		p.unlink(m)
	}
	m.released = true
	m.locked = false
	m.pg.free()
}

var _ Memory = (*poolMemory)(nil)
