package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"

	"github.com/IvanBrykalov/rastercache/scale"
)

var errConfigInvalid = errors.New("invalid config")

// Config describes one benchmark run. It can be loaded from a JSON-with-
// comments file and then overridden by flags.
type Config struct {
	Budget      int64     `json:"budget"`      // cache byte limit (heap mode)
	Discardable bool      `json:"discardable"` // back the cache with a discardable pool
	PoolBudget  int64     `json:"pool_budget"` // pool byte budget (discardable mode)
	Workers     int       `json:"workers"`     // worker goroutines
	Duration    Span      `json:"duration"`    // run time, e.g. "10s"
	Sources     int       `json:"sources"`     // distinct source images
	SourceSize  int       `json:"source_size"` // source edge length in pixels
	Scales      []float64 `json:"scales"`      // scale factors requested
	MipPct      int       `json:"mip_pct"`     // share of requests asking for a mip chain
	Quality     string    `json:"quality"`     // low | medium | high
	ZipfS       float64   `json:"zipf_s"`      // Zipf s > 1 (skew)
	ZipfV       float64   `json:"zipf_v"`      // Zipf v >= 1
	Seed        int64     `json:"seed"`
}

// Span is a time.Duration that reads and writes as a duration string.
type Span time.Duration

func (s Span) MarshalJSON() ([]byte, error) { return json.Marshal(time.Duration(s).String()) }

func (s *Span) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return err
	}
	*s = Span(d)
	return nil
}

func defaultConfig() Config {
	return Config{
		Budget:     32 << 20,
		PoolBudget: 32 << 20,
		Workers:    4,
		Duration:   Span(10 * time.Second),
		Sources:    512,
		SourceSize: 256,
		Scales:     []float64{0.75, 0.5, 0.25, 0.125},
		MipPct:     10,
		Quality:    "medium",
		ZipfS:      1.1,
		ZipfV:      1.0,
		Seed:       1,
	}
}

// loadConfig overlays the file at path onto base.
func loadConfig(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user supplied on purpose
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := parseConfig(data, base)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte, base Config) (Config, error) {
	// a trailing line comment needs its newline; copy so data is untouched
	standardized, err := hujson.Standardize(append(data[:len(data):len(data)], '\n'))
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	cfg := base
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func (c Config) quality() (scale.Quality, error) {
	switch c.Quality {
	case "low":
		return scale.Low, nil
	case "", "medium":
		return scale.Medium, nil
	case "high":
		return scale.High, nil
	}
	return 0, fmt.Errorf("%w: unknown quality %q", errConfigInvalid, c.Quality)
}

func (c Config) validate() error {
	switch {
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be > 0", errConfigInvalid)
	case c.Sources <= 0 || c.SourceSize < 2:
		return fmt.Errorf("%w: need sources > 0 and source_size >= 2", errConfigInvalid)
	case len(c.Scales) == 0:
		return fmt.Errorf("%w: no scales", errConfigInvalid)
	case c.MipPct < 0 || c.MipPct > 100:
		return fmt.Errorf("%w: mip_pct must be in [0,100]", errConfigInvalid)
	case c.ZipfS <= 1 || c.ZipfV < 1:
		return fmt.Errorf("%w: need zipf_s > 1 and zipf_v >= 1", errConfigInvalid)
	case !c.Discardable && c.Budget <= 0:
		return fmt.Errorf("%w: budget must be > 0", errConfigInvalid)
	}
	for _, s := range c.Scales {
		if s <= 0 {
			return fmt.Errorf("%w: scale %v must be > 0", errConfigInvalid, s)
		}
	}
	_, err := c.quality()
	return err
}
