package cache

import (
	"errors"
	"fmt"
)

// Snapshot is a point-in-time copy of cache state and counters.
type Snapshot struct {
	Entries                   int
	Locked                    int // entries with at least one outstanding lock
	BytesUsed                 int64
	ByteLimit                 int64
	SingleAllocationByteLimit int64
	Discardable               bool

	Hits      int64
	Misses    int64
	Evictions int64 // budget evictions
	Stale     int64 // entries dropped because their storage was reclaimed
}

// HitRate returns hits/(hits+misses), or 0 before the first lookup.
func (s Snapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the cache. It walks the entries to count
// locked ones, so it is O(n).
func (c *Cache) Stats() Snapshot {
	locked := 0
	for r := c.lru.head; r != nil; r = r.next {
		if r.locks > 0 {
			locked++
		}
	}
	return Snapshot{
		Entries:                   c.count,
		Locked:                    locked,
		BytesUsed:                 c.bytesUsed,
		ByteLimit:                 c.byteLimit,
		SingleAllocationByteLimit: c.singleAllocLimit,
		Discardable:               c.discardable,
		Hits:                      c.hits,
		Misses:                    c.misses,
		Evictions:                 c.evictions,
		Stale:                     c.stale,
	}
}

// Dump logs one line with the cache's count, usage, limit and locks.
func (c *Cache) Dump() {
	s := c.Stats()
	mode := "heap"
	if s.Discardable {
		mode = "discardable"
	}
	c.log.Info("dump",
		"count", s.Entries,
		"bytes_used", s.BytesUsed,
		"byte_limit", s.ByteLimit,
		"locked", s.Locked,
		"mode", mode,
	)
}

// validate checks the structural invariants tying the recency list, the
// index and the byte counters together.
func (c *Cache) validate() error {
	if c.lru.n != c.count {
		return fmt.Errorf("rastercache: list length %d != count %d", c.lru.n, c.count)
	}
	if c.idx.len() != c.count {
		return fmt.Errorf("rastercache: index size %d != count %d", c.idx.len(), c.count)
	}
	if (c.lru.head == nil) != (c.lru.tail == nil) {
		return errors.New("rastercache: head/tail disagree on emptiness")
	}

	seen := make(map[*record]struct{}, c.count)
	var bytes int64
	n := 0
	var prev *record
	for r := c.lru.head; r != nil; r = r.next {
		if r.prev != prev {
			return fmt.Errorf("rastercache: broken back link at %v", r.key)
		}
		if r.locks < 0 {
			return fmt.Errorf("rastercache: negative lock count %d at %v", r.locks, r.key)
		}
		if got := c.idx.find(r.key); got != r {
			return fmt.Errorf("rastercache: %v in list but not in index", r.key)
		}
		if _, dup := seen[r]; dup {
			return fmt.Errorf("rastercache: cycle at %v", r.key)
		}
		seen[r] = struct{}{}
		bytes += r.size
		prev = r
		if n++; n > c.count {
			return fmt.Errorf("rastercache: list longer than count %d", c.count)
		}
	}
	if prev != c.lru.tail {
		return errors.New("rastercache: tail is not the last list element")
	}

	var missing error
	c.idx.each(func(r *record) {
		if _, ok := seen[r]; !ok && missing == nil {
			missing = fmt.Errorf("rastercache: %v in index but not in list", r.key)
		}
	})
	if missing != nil {
		return missing
	}

	if !c.discardable && bytes != c.bytesUsed {
		return fmt.Errorf("rastercache: bytes used %d != sum of entries %d", c.bytesUsed, bytes)
	}
	if c.discardable && c.bytesUsed != 0 {
		return fmt.Errorf("rastercache: discardable cache reports %d bytes used", c.bytesUsed)
	}
	return nil
}
