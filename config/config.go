// Package config loads the run configuration of fdpsim from a TOML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/sarchlab/fdprefetch/prefetcher"
	"github.com/sarchlab/fdprefetch/trace"
)

const lineSize = 64

// Synthetic trace patterns.
const (
	StreamPattern = "stream"
	MixedPattern  = "mixed"
)

type Config struct {
	Name       string     `toml:"name"`
	Trace      Trace      `toml:"trace"`
	Cache      Cache      `toml:"cache"`
	Prefetcher Prefetcher `toml:"prefetcher"`
	Output     Output     `toml:"output"`
	Monitor    Monitor    `toml:"monitor"`
}

// Default returns the configuration that a file overrides.
func Default() Config {
	th := prefetcher.DefaultThresholds()

	return Config{
		Name: "fdp",
		Trace: Trace{
			Format: trace.TextFormat,
			Count:  1_000_000,
			Stride: lineSize,
		},
		Cache: Cache{
			L2Size:        256 * 1024,
			L2Ways:        8,
			LLCSize:       2 * 1024 * 1024,
			LLCWays:       16,
			MSHREntries:   16,
			L2Latency:     10,
			LLCLatency:    20,
			MemLatency:    200,
			IssueInterval: 1,
		},
		Prefetcher: Prefetcher{
			Enabled:       true,
			MSHRThreshold: 8,
			AccuracyHigh:  th.AccuracyHigh,
			AccuracyLow:   th.AccuracyLow,
			Lateness:      th.Lateness,
			Pollution:     th.Pollution,
		},
	}
}

// Validate checks the configuration after all overrides.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("name is empty")
	}

	if err := c.Trace.validate(); err != nil {
		return err
	}

	if err := c.Cache.validate(); err != nil {
		return err
	}

	if err := c.Prefetcher.validate(); err != nil {
		return err
	}

	if err := c.Output.validate(); err != nil {
		return err
	}

	return c.Monitor.validate()
}

type Trace struct {
	Path        string `toml:"path"`
	Format      string `toml:"format"`
	MaxAccesses uint64 `toml:"max_accesses"`

	// Pattern selects a synthetic trace instead of a file.
	Pattern        string  `toml:"pattern"`
	Count          uint64  `toml:"count"`
	Stride         int64   `toml:"stride"`
	Streams        int     `toml:"streams"`
	RandomFraction float64 `toml:"random_fraction"`
	Seed           int64   `toml:"seed"`
}

func (t *Trace) validate() error {
	if t.Path == "" && t.Pattern == "" {
		return errors.New("neither trace path nor pattern is set")
	}

	if t.Path != "" && t.Pattern != "" {
		return errors.New("both trace path and pattern are set")
	}

	if t.Path != "" && !trace.IsAvailableFormat(t.Format) {
		return fmt.Errorf("not valid trace format %q", t.Format)
	}

	if t.Pattern == "" {
		return nil
	}

	if t.Pattern != StreamPattern && t.Pattern != MixedPattern {
		return fmt.Errorf("not valid trace pattern %q", t.Pattern)
	}

	if t.Count == 0 {
		return errors.New("unbounded synthetic trace")
	}

	if t.RandomFraction < 0 || t.RandomFraction > 1 {
		return errors.New("random fraction should be in [0, 1]")
	}

	return nil
}

// Reader opens the trace. The returned close function must be called when the
// trace is no longer needed.
func (t *Trace) Reader() (trace.Reader, func() error, error) {
	var (
		r     trace.Reader
		closeFn = func() error { return nil }
	)

	switch t.Pattern {
	case StreamPattern:
		r = &trace.Stream{Start: 1 << 24, Stride: t.Stride, Count: t.Count}
	case MixedPattern:
		r = trace.NewMixed(trace.MixedParams{
			Streams:        t.Streams,
			Stride:         t.Stride,
			RandomFraction: t.RandomFraction,
			Count:          t.Count,
			Seed:           t.Seed,
		})
	default:
		fr, err := trace.Open(t.Path, t.Format)
		if err != nil {
			return nil, nil, err
		}

		r = fr
		closeFn = fr.Close
	}

	return trace.Limit(r, t.MaxAccesses), closeFn, nil
}

type Cache struct {
	L2Size        uint64 `toml:"l2_size"`
	L2Ways        int    `toml:"l2_ways"`
	LLCSize       uint64 `toml:"llc_size"`
	LLCWays       int    `toml:"llc_ways"`
	MSHREntries   int    `toml:"mshr_entries"`
	L2Latency     uint64 `toml:"l2_latency"`
	LLCLatency    uint64 `toml:"llc_latency"`
	MemLatency    uint64 `toml:"mem_latency"`
	IssueInterval uint64 `toml:"issue_interval"`
}

func (c *Cache) validate() error {
	if err := validateGeometry("l2", c.L2Size, c.L2Ways); err != nil {
		return err
	}

	if err := validateGeometry("llc", c.LLCSize, c.LLCWays); err != nil {
		return err
	}

	if c.MSHREntries <= 0 {
		return errors.New("mshr_entries should be > 0")
	}

	return nil
}

// L2Sets returns the number of sets of the L2.
func (c *Cache) L2Sets() int {
	return int(c.L2Size / uint64(lineSize*c.L2Ways))
}

func validateGeometry(name string, size uint64, ways int) error {
	if ways <= 0 {
		return fmt.Errorf("%s_ways should be > 0", name)
	}

	setSize := uint64(lineSize * ways)
	if size == 0 || size%setSize != 0 {
		return fmt.Errorf(
			"%s_size %d is not a multiple of %d-way sets", name, size, ways)
	}

	return nil
}

type Prefetcher struct {
	Enabled       bool    `toml:"enabled"`
	MSHRThreshold int     `toml:"mshr_threshold"`
	FoldThreshold uint64  `toml:"fold_threshold"`
	AccuracyHigh  float64 `toml:"accuracy_high"`
	AccuracyLow   float64 `toml:"accuracy_low"`
	Lateness      float64 `toml:"lateness"`
	Pollution     float64 `toml:"pollution"`
	LogFolds      bool    `toml:"log_folds"`
}

func (p *Prefetcher) validate() error {
	if p.MSHRThreshold < 0 {
		return errors.New("mshr_threshold should be >= 0")
	}

	for _, v := range []float64{
		p.AccuracyHigh, p.AccuracyLow, p.Lateness, p.Pollution,
	} {
		if v < 0 || v > 1 {
			return errors.New("prefetcher thresholds should be in [0, 1]")
		}
	}

	if p.AccuracyLow > p.AccuracyHigh {
		return errors.New("accuracy_low is above accuracy_high")
	}

	return nil
}

// Thresholds returns the controller thresholds.
func (p *Prefetcher) Thresholds() prefetcher.Thresholds {
	return prefetcher.Thresholds{
		AccuracyHigh: p.AccuracyHigh,
		AccuracyLow:  p.AccuracyLow,
		Lateness:     p.Lateness,
		Pollution:    p.Pollution,
	}
}

type Output struct {
	DB   string `toml:"db"`
	JSON string `toml:"json"`

	// TraceTasks records every near prefetch, from issue to fill, in the
	// database.
	TraceTasks bool `toml:"trace_tasks"`
}

func (o *Output) validate() error {
	if o.TraceTasks && o.DB == "" {
		return errors.New("trace_tasks needs a db")
	}

	return nil
}

type Monitor struct {
	Enabled     bool `toml:"enabled"`
	Port        int  `toml:"port"`
	OpenBrowser bool `toml:"open_browser"`
}

func (m *Monitor) validate() error {
	if m.Port < 0 || m.Port > 65535 {
		return fmt.Errorf("not valid monitor port %d", m.Port)
	}

	return nil
}

// Load reads the configuration at configPath and validates the result.
func Load(configPath string) (Config, error) {
	c, err := Read(configPath)
	if err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Read reads the configuration at configPath over the defaults and applies
// the environment overrides. An empty path uses the defaults only. The result
// is not validated.
func Read(configPath string) (Config, error) {
	c := Default()

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		if err := toml.Unmarshal(content, &c); err != nil {
			return Config{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return Config{}, fmt.Errorf("apply environment: %w", err)
	}

	return c, nil
}
