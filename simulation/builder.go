package simulation

import (
	"log"

	"github.com/sarchlab/fdprefetch/cachesim"
	"github.com/sarchlab/fdprefetch/config"
	"github.com/sarchlab/fdprefetch/datarecording"
	"github.com/sarchlab/fdprefetch/monitoring"
	"github.com/sarchlab/fdprefetch/prefetcher"
	"github.com/sarchlab/fdprefetch/report"
	"github.com/sarchlab/fdprefetch/sim"
	"github.com/sarchlab/fdprefetch/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	config      config.Config
	recorder    datarecording.DataRecorder
	monitor     *monitoring.Monitor
	foldLogger  *log.Logger
	eventLogger *log.Logger
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config: config.Default(),
	}
}

// WithConfig sets the run configuration.
func (b Builder) WithConfig(c config.Config) Builder {
	b.config = c
	return b
}

// WithDataRecorder sets the recorder that stores the folds of the prefetcher
// and the summary of the run, and the prefetch tasks if the configuration
// traces them.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithMonitor registers the components of the simulation with m.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithFoldLogger prints every fold of the prefetcher to l.
func (b Builder) WithFoldLogger(l *log.Logger) Builder {
	b.foldLogger = l
	return b
}

// WithEventLogger prints every event of the engine to l.
func (b Builder) WithEventLogger(l *log.Logger) Builder {
	b.eventLogger = l
	return b
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.configMustBeValid()

	c := b.config
	engine := sim.NewSerialEngine()
	if b.eventLogger != nil {
		engine.AcceptHook(sim.NewEventLogger(b.eventLogger))
	}

	h := cachesim.MakeBuilder().
		WithEngine(engine).
		WithL2(c.Cache.L2Size, c.Cache.L2Ways).
		WithLLC(c.Cache.LLCSize, c.Cache.LLCWays).
		WithMSHRCapacity(c.Cache.MSHREntries).
		WithLatencies(
			sim.VTimeInCycle(c.Cache.L2Latency),
			sim.VTimeInCycle(c.Cache.LLCLatency),
			sim.VTimeInCycle(c.Cache.MemLatency),
		).
		WithIssueInterval(sim.VTimeInCycle(c.Cache.IssueInterval)).
		Build(c.Name + ".Cache")

	s := &Simulation{
		name:      c.Name,
		config:    c,
		engine:    engine,
		hierarchy: h,
		monitor:   b.monitor,
	}

	if c.Prefetcher.Enabled {
		s.prefetcher = b.buildPrefetcher(h)
		h.SetPrefetcher(s.prefetcher)

		if c.Output.TraceTasks && b.recorder != nil {
			s.tracer = tracing.NewDBTracer(engine, b.recorder)
			tracing.CollectTrace(s.prefetcher, s.tracer)
		}
	}

	if b.recorder != nil {
		s.summaries = report.NewRecorder(b.recorder)
	}

	if b.monitor != nil {
		b.monitor.RegisterComponent(h)
		if s.prefetcher != nil {
			b.monitor.RegisterComponent(s.prefetcher)
		}
	}

	return s
}

func (b Builder) buildPrefetcher(h *cachesim.Hierarchy) *prefetcher.Engine {
	c := b.config

	pf := prefetcher.MakeBuilder().
		WithHost(h).
		WithNumSets(c.Cache.L2Sets()).
		WithNumWays(c.Cache.L2Ways).
		WithMSHRThreshold(c.Prefetcher.MSHRThreshold).
		WithFoldThreshold(c.Prefetcher.FoldThreshold).
		WithThresholds(c.Prefetcher.Thresholds()).
		Build(c.Name + ".L2Prefetcher")

	if b.foldLogger != nil {
		pf.AcceptHook(prefetcher.NewFeedbackLogger(b.foldLogger))
	}

	if b.recorder != nil {
		pf.AcceptHook(prefetcher.NewFeedbackRecorder(b.recorder))
	}

	return pf
}

func (b Builder) configMustBeValid() {
	if err := b.config.Validate(); err != nil {
		log.Panicf("invalid configuration: %s", err)
	}
}
