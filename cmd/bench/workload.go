package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/rastercache/bitmap"
	"github.com/IvanBrykalov/rastercache/cache"
	"github.com/IvanBrykalov/rastercache/discardable"
	"github.com/IvanBrykalov/rastercache/mipmap"
	"github.com/IvanBrykalov/rastercache/scale"
)

// Report is the outcome of one run, printed and optionally written as JSON.
type Report struct {
	Config    Config  `json:"config"`
	Elapsed   Span    `json:"elapsed"`
	Ops       int64   `json:"ops"`
	OpsPerSec float64 `json:"ops_per_sec"`
	Computes  int64   `json:"computes"`
	HitRate   float64 `json:"hit_rate"`
	PoolPurge int64   `json:"pool_purges,omitempty"`

	Cache cache.Snapshot `json:"cache"`
}

// source is a synthetic image the workload requests scaled copies of.
type source struct {
	gen uint32
	bm  bitmap.Bitmap
}

func makeSources(n, size int, seed int64) ([]source, error) {
	r := rand.New(rand.NewSource(seed))
	out := make([]source, n)
	for i := range out {
		bm, err := bitmap.New(bitmap.HeapAllocator{}, bitmap.RGBA8888, size, size)
		if err != nil {
			return nil, err
		}
		pix := bm.Pix()
		base := byte(r.Intn(256))
		for p := 0; p < len(pix); p += 4 {
			x := byte((p / 4) % size)
			pix[p], pix[p+1], pix[p+2], pix[p+3] = base+x, x, base, 0xff
		}
		out[i] = source{gen: uint32(i + 1), bm: bm}
	}
	return out, nil
}

// run configures the global cache from cfg and opt, then drives it with
// cfg.Workers goroutines until the duration elapses or ctx ends.
func run(ctx context.Context, cfg Config, opt cache.Options, log *slog.Logger) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	q, _ := cfg.quality()

	var pool *discardable.Pool
	if cfg.Discardable {
		pool = discardable.NewPool(cfg.PoolBudget)
		defer func() { _ = pool.Close() }()
		opt.Factory = pool.Factory()
	} else {
		opt.ByteLimit = cfg.Budget
	}
	opt.Logger = log
	cache.ConfigureGlobal(opt)

	srcs, err := makeSources(cfg.Sources, cfg.SourceSize, cfg.Seed)
	if err != nil {
		return Report{}, fmt.Errorf("sources: %w", err)
	}
	log.Info("start", "workers", cfg.Workers, "sources", len(srcs),
		"source_size", cfg.SourceSize, "discardable", cfg.Discardable,
		"budget", cfg.Budget, "duration", time.Duration(cfg.Duration))

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Duration))
	defer cancel()

	var ops, computes atomic.Int64
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			// rand.Rand is not goroutine-safe: one per worker
			r := rand.New(rand.NewSource(cfg.Seed + int64(w)*9973))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, uint64(len(srcs)-1))
			for gctx.Err() == nil {
				src := srcs[zipf.Uint64()]
				var err error
				if r.Intn(100) < cfg.MipPct {
					err = requestMip(gctx, src, &computes)
				} else {
					s := cfg.Scales[r.Intn(len(cfg.Scales))]
					err = requestScaled(gctx, src, s, q, &computes)
				}
				if err != nil {
					if gctx.Err() != nil {
						return nil
					}
					return err
				}
				ops.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	elapsed := time.Since(start)

	rep := Report{
		Config:    cfg,
		Elapsed:   Span(elapsed),
		Ops:       ops.Load(),
		OpsPerSec: float64(ops.Load()) / elapsed.Seconds(),
		Computes:  computes.Load(),
		Cache:     cache.Stats(),
	}
	rep.HitRate = rep.Cache.HitRate()
	if pool != nil {
		rep.PoolPurge = pool.Purges()
	}
	cache.Dump()
	return rep, nil
}

func requestScaled(ctx context.Context, src source, s float64, q scale.Quality, computes *atomic.Int64) error {
	k := cache.ScaleKey(src.gen, float32(s), float32(s), image.Rect(0, 0, src.bm.Width, src.bm.Height))
	bm, h, err := cache.FindOrComputeBitmap(ctx, k, func(context.Context) (bitmap.Bitmap, error) {
		computes.Add(1)
		return scale.ByFactor(cache.Allocator(), src.bm, s, s, q)
	})
	if err != nil {
		return err
	}
	defer cache.Unlock(h)
	_ = bm.Pix()[0] // "draw"
	return nil
}

func requestMip(ctx context.Context, src source, computes *atomic.Int64) error {
	k := cache.MipKey(src.gen, image.Rect(0, 0, src.bm.Width, src.bm.Height))
	m, h, err := cache.FindOrComputeMipMap(ctx, k, func(context.Context) (*mipmap.MipMap, error) {
		computes.Add(1)
		return mipmap.Build(cache.Allocator(), src.bm)
	})
	if err != nil {
		return err
	}
	defer cache.Unlock(h)
	if lvl, ok := m.LevelForScale(0.3); ok {
		_ = lvl.Pix()[0]
	}
	return nil
}
