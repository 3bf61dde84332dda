package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/fdprefetch/config"
	"github.com/sarchlab/fdprefetch/datarecording"
	"github.com/sarchlab/fdprefetch/monitoring"
	"github.com/sarchlab/fdprefetch/report"
	"github.com/sarchlab/fdprefetch/sim"
	"github.com/sarchlab/fdprefetch/simulation"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [trace files]",
	Short: "Simulate several traces in parallel.",
	Long: "`sweep a.trace b.trace.gz` simulates every trace with its own " +
		"cache hierarchy and prefetcher and prints one summary per trace.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		applyFlags(cmd, &c)

		sim.UseParallelIDGenerator()

		parallel, _ := cmd.Flags().GetInt("parallel")
		baseline, _ := cmd.Flags().GetBool("baseline")

		runs, err := sweepConfigs(c, args, baseline)
		if err != nil {
			return err
		}

		return sweep(cmd.Context(), cmd.OutOrStdout(), c, runs, parallel)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	addTraceFlags(sweepCmd)
	addOutputFlags(sweepCmd)
	sweepCmd.Flags().Int("parallel", runtime.NumCPU(),
		"number of traces simulated at the same time")
	sweepCmd.Flags().Bool("baseline", false,
		"also simulate every trace without the prefetcher")
}

// sweepConfigs derives one run configuration per trace file, plus one without
// the prefetcher per trace if baseline is set.
func sweepConfigs(
	base config.Config,
	paths []string,
	baseline bool,
) ([]config.Config, error) {
	runs := make([]config.Config, 0, 2*len(paths))

	for _, path := range paths {
		c := base
		c.Name = filepath.Base(path)
		c.Trace.Path = path
		c.Trace.Pattern = ""

		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("validate config of %s: %w", path, err)
		}

		if baseline {
			b := c
			b.Name = c.Name + ".base"
			b.Prefetcher.Enabled = false
			runs = append(runs, b)
		}

		runs = append(runs, c)
	}

	return runs, nil
}

// sweep simulates the runs, at most parallel at a time, and prints their
// summaries in the order of runs. The outputs of base are shared.
func sweep(
	ctx context.Context,
	out io.Writer,
	base config.Config,
	runs []config.Config,
	parallel int,
) error {
	var recorder datarecording.DataRecorder
	if base.Output.DB != "" {
		recorder = datarecording.NewLocked(datarecording.New(base.Output.DB))
		defer recorder.Close()
	}

	var monitor *monitoring.Monitor
	if base.Monitor.Enabled {
		monitor = monitoring.NewMonitor().
			WithPortNumber(base.Monitor.Port).
			WithBrowser(base.Monitor.OpenBrowser)
	}

	eg, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		eg.SetLimit(parallel)
	}

	sims := make([]*simulation.Simulation, 0, len(runs))

	for _, c := range runs {
		b := simulation.MakeBuilder().WithConfig(c)

		if recorder != nil {
			b = b.WithDataRecorder(recorder)
		}

		if monitor != nil {
			b = b.WithMonitor(monitor)
		}

		if c.Prefetcher.LogFolds {
			b = b.WithFoldLogger(log.New(os.Stderr, "", log.LstdFlags))
		}

		sims = append(sims, b.Build())
	}

	if monitor != nil {
		monitor.StartServer()
	}

	summaries := make([]report.Summary, len(sims))

	for i, s := range sims {
		eg.Go(func() error {
			summary, err := s.Run(ctx)
			if err != nil {
				return err
			}

			summaries[i] = summary

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	log.Printf("All %d simulations are complete", len(runs))

	return writeSummaries(out, base.Output.JSON, summaries...)
}
