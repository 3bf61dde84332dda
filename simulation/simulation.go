// Package simulation assembles a cache hierarchy, a prefetcher and the
// recording and monitoring around them into one run.
package simulation

import (
	"context"
	"fmt"

	"github.com/sarchlab/fdprefetch/cachesim"
	"github.com/sarchlab/fdprefetch/config"
	"github.com/sarchlab/fdprefetch/monitoring"
	"github.com/sarchlab/fdprefetch/prefetcher"
	"github.com/sarchlab/fdprefetch/report"
	"github.com/sarchlab/fdprefetch/sim"
	"github.com/sarchlab/fdprefetch/tracing"
)

// A Simulation is one run of a trace through a cache hierarchy.
type Simulation struct {
	name       string
	config     config.Config
	engine     *sim.SerialEngine
	hierarchy  *cachesim.Hierarchy
	prefetcher *prefetcher.Engine
	summaries  *report.Recorder
	tracer     *tracing.DBTracer
	monitor    *monitoring.Monitor
}

// Name returns the name of the simulation.
func (s *Simulation) Name() string {
	return s.name
}

// Engine returns the event engine of the simulation.
func (s *Simulation) Engine() *sim.SerialEngine {
	return s.engine
}

// Hierarchy returns the simulated cache hierarchy.
func (s *Simulation) Hierarchy() *cachesim.Hierarchy {
	return s.hierarchy
}

// Tracer returns the prefetch task tracer, or nil if the run traces no tasks.
func (s *Simulation) Tracer() *tracing.DBTracer {
	return s.tracer
}

// Prefetcher returns the prefetcher, or nil if the run has none.
func (s *Simulation) Prefetcher() *prefetcher.Engine {
	return s.prefetcher
}

// Run opens the configured trace, simulates it and returns the summary of the
// run. The summary is also recorded if the simulation has a data recorder.
func (s *Simulation) Run(ctx context.Context) (report.Summary, error) {
	reader, closeFn, err := s.config.Trace.Reader()
	if err != nil {
		return report.Summary{}, fmt.Errorf("open trace: %w", err)
	}
	defer closeFn()

	if s.monitor != nil {
		bar := s.monitor.CreateProgressBar(s.name, s.expectedAccesses())
		defer s.monitor.CompleteProgressBar(bar)

		s.hierarchy.AcceptHook(
			monitoring.NewProgressHook(bar, cachesim.HookPosAccessDone))
	}

	if err := s.hierarchy.Run(ctx, reader); err != nil {
		return report.Summary{}, fmt.Errorf("simulate %s: %w", s.name, err)
	}

	if s.tracer != nil {
		s.tracer.Terminate()
	}

	summary := report.NewSummary(s.name, s.hierarchy.Stats(), s.prefetcher)

	if s.summaries != nil {
		s.summaries.Record(summary)
	}

	return summary, nil
}

// expectedAccesses returns the length of the trace if it is known without
// reading it, and 0 otherwise.
func (s *Simulation) expectedAccesses() uint64 {
	t := s.config.Trace

	total := uint64(0)
	if t.Pattern != "" {
		total = t.Count
	}

	if t.MaxAccesses > 0 && (total == 0 || t.MaxAccesses < total) {
		total = t.MaxAccesses
	}

	return total
}
