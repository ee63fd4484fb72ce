package cache

import (
	"log/slog"

	"github.com/IvanBrykalov/rastercache/discardable"
)

// DefaultByteLimit is the total byte limit of a budgeted cache created
// without an explicit ByteLimit, including the global cache.
const DefaultByteLimit = 2 << 20

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictBudget: removed as the least recently used unlocked entry while
	// the cache was over its byte limit.
	EvictBudget EvictReason = iota
	// EvictStale: its discardable storage was reclaimed underneath the cache.
	EvictStale
)

func (r EvictReason) String() string {
	switch r {
	case EvictStale:
		return "stale"
	default:
		return "budget"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, bytes int64)
}

// Options configures a Cache. Zero values are safe; defaults are applied
// in New():
//   - nil Factory        => budgeted heap mode
//   - ByteLimit == 0     => DefaultByteLimit (budgeted mode only)
//   - nil Metrics        => NoopMetrics
//   - nil Logger         => slog.Default()
type Options struct {
	// ByteLimit is the total byte budget in budgeted mode. Ignored when
	// Factory is set.
	ByteLimit int64

	// SingleAllocationByteLimit is advisory: rasterizers consult it before
	// attempting to produce a scaled image. The cache itself stores entries
	// of any size. 0 means no maximum.
	SingleAllocationByteLimit int64

	// Factory selects discardable mode: pixel storage handed out by
	// Allocator() comes from it, and the cache keeps no byte budget.
	Factory discardable.Factory

	// OnEvict is called for every removed entry (not for Close).
	// It runs inside cache operations; keep it lightweight and do not
	// call back into the cache.
	OnEvict func(k Key, kind Kind, size int64, reason EvictReason)

	Metrics Metrics
	Logger  *slog.Logger
}
