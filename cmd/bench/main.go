// Command bench drives the global raster cache with a synthetic drawing
// workload and exposes optional pprof/Prometheus endpoints.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/natefinch/atomic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/IvanBrykalov/rastercache/cache"
	pmet "github.com/IvanBrykalov/rastercache/metrics/prom"
)

func main() {
	if err := realMain(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
}

func realMain(args []string) error {
	def := defaultConfig()
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)

	// ---- Flags ----
	var (
		cfg      = def
		duration = fs.Duration("duration", time.Duration(def.Duration), "benchmark duration")
		cfgPath  = fs.StringP("config", "c", "", "JSON-with-comments workload file; flags override it")

		pprofAddr   = fs.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = fs.String("http", "", "serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
		reportPath  = fs.String("report", "", "write a JSON report to this file")
		verbose     = fs.BoolP("verbose", "v", false, "log evictions")
	)
	fs.Int64Var(&cfg.Budget, "budget", def.Budget, "cache byte limit (heap mode)")
	fs.BoolVar(&cfg.Discardable, "discardable", def.Discardable, "back the cache with a discardable pool")
	fs.Int64Var(&cfg.PoolBudget, "pool-budget", def.PoolBudget, "discardable pool byte budget")
	fs.IntVar(&cfg.Workers, "workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
	fs.IntVar(&cfg.Sources, "sources", def.Sources, "distinct source images")
	fs.IntVar(&cfg.SourceSize, "source-size", def.SourceSize, "source edge length in pixels")
	fs.Float64SliceVar(&cfg.Scales, "scales", def.Scales, "scale factors requested")
	fs.IntVar(&cfg.MipPct, "mip-pct", def.MipPct, "percentage of requests for mip chains [0..100]")
	fs.StringVar(&cfg.Quality, "quality", def.Quality, "resampling quality: low | medium | high")
	fs.Float64Var(&cfg.ZipfS, "zipf-s", def.ZipfS, "Zipf s > 1 (skew)")
	fs.Float64Var(&cfg.ZipfV, "zipf-v", def.ZipfV, "Zipf v")
	fs.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "random seed")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg.Duration = Span(*duration)

	if *cfgPath != "" {
		fileCfg, err := loadConfig(*cfgPath, def)
		if err != nil {
			return err
		}
		cfg = overrideChanged(fs, fileCfg, cfg)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Info("pprof: serving", "addr", *pprofAddr)
			log.Error("pprof", "err", http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	opt := cache.Options{Metrics: pmet.New(nil, "rastercache", "bench", nil)}
	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Info("metrics: serving", "addr", *metricsAddr)
			log.Error("metrics", "err", http.ListenAndServe(*metricsAddr, nil))
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := run(ctx, cfg, opt, log)
	if err != nil {
		return err
	}

	// ---- Report ----
	mode := "heap"
	if cfg.Discardable {
		mode = "discardable"
	}
	fmt.Printf("mode=%s budget=%d workers=%d sources=%d dur=%v seed=%d\n",
		mode, cfg.Budget, cfg.Workers, cfg.Sources, time.Duration(rep.Elapsed), cfg.Seed)
	fmt.Printf("ops=%d (%.0f ops/s)  computes=%d  hit-rate=%.2f%%\n",
		rep.Ops, rep.OpsPerSec, rep.Computes, rep.HitRate*100)
	fmt.Printf("entries=%d  bytes=%d  evictions=%d  stale=%d  pool-purges=%d\n",
		rep.Cache.Entries, rep.Cache.BytesUsed, rep.Cache.Evictions, rep.Cache.Stale, rep.PoolPurge)

	if *reportPath != "" {
		buf, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		if err := atomic.WriteFile(*reportPath, bytes.NewReader(append(buf, '\n'))); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info("report written", "path", *reportPath)
	}
	return nil
}

// overrideChanged returns file with every field whose flag was set on the
// command line taken from flags instead.
func overrideChanged(fs *flag.FlagSet, file, flags Config) Config {
	out := file
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("budget", func() { out.Budget = flags.Budget })
	set("discardable", func() { out.Discardable = flags.Discardable })
	set("pool-budget", func() { out.PoolBudget = flags.PoolBudget })
	set("workers", func() { out.Workers = flags.Workers })
	set("duration", func() { out.Duration = flags.Duration })
	set("sources", func() { out.Sources = flags.Sources })
	set("source-size", func() { out.SourceSize = flags.SourceSize })
	set("scales", func() { out.Scales = flags.Scales })
	set("mip-pct", func() { out.MipPct = flags.MipPct })
	set("quality", func() { out.Quality = flags.Quality })
	set("zipf-s", func() { out.ZipfS = flags.ZipfS })
	set("zipf-v", func() { out.ZipfV = flags.ZipfV })
	set("seed", func() { out.Seed = flags.Seed })
	return out
}
