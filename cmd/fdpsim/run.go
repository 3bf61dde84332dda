package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/fdprefetch/config"
	"github.com/sarchlab/fdprefetch/datarecording"
	"github.com/sarchlab/fdprefetch/monitoring"
	"github.com/sarchlab/fdprefetch/report"
	"github.com/sarchlab/fdprefetch/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate one trace.",
	Long: "`run --trace [file]` or `run --pattern stream|mixed` simulates " +
		"one trace and prints its summary.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		applyFlags(cmd, &c)

		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}

		return runOne(cmd.Context(), cmd.OutOrStdout(), c)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("trace", "", "trace file to simulate")
	runCmd.Flags().String("pattern", "",
		"simulate a synthetic trace (stream or mixed) instead of a file")
	runCmd.Flags().Uint64("count", 0, "length of the synthetic trace")
	addTraceFlags(runCmd)
	addOutputFlags(runCmd)
}

// runOne simulates the trace of c and prints the summary to out.
func runOne(ctx context.Context, out io.Writer, c config.Config) error {
	b := simulation.MakeBuilder().WithConfig(c)

	if c.Output.DB != "" {
		recorder := datarecording.New(c.Output.DB)
		defer recorder.Close()

		b = b.WithDataRecorder(recorder)
	}

	if c.Prefetcher.LogFolds {
		b = b.WithFoldLogger(log.New(os.Stderr, "", log.LstdFlags))
	}

	logEvents, _ := rootCmd.PersistentFlags().GetBool("log-events")
	if logEvents {
		b = b.WithEventLogger(log.New(os.Stderr, "", 0))
	}

	var monitor *monitoring.Monitor
	if c.Monitor.Enabled {
		monitor = monitoring.NewMonitor().
			WithPortNumber(c.Monitor.Port).
			WithBrowser(c.Monitor.OpenBrowser)
		b = b.WithMonitor(monitor)
	}

	s := b.Build()

	if monitor != nil {
		monitor.RegisterEngine(s.Engine())
		monitor.StartServer()
	}

	summary, err := s.Run(ctx)
	if err != nil {
		return err
	}

	return writeSummaries(out, c.Output.JSON, summary)
}

// writeSummaries prints the summaries to out and, if jsonPath is set, writes
// them to that file.
func writeSummaries(
	out io.Writer,
	jsonPath string,
	summaries ...report.Summary,
) error {
	if err := report.WriteTable(out, summaries...); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	if hasPrefetcher(summaries) {
		if err := report.WriteLevels(out, summaries...); err != nil {
			return fmt.Errorf("write levels: %w", err)
		}
	}

	if jsonPath == "" {
		return nil
	}

	f, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", jsonPath, err)
	}
	defer f.Close()

	if err := report.WriteJSON(f, summaries...); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}

	return f.Close()
}

func hasPrefetcher(summaries []report.Summary) bool {
	for _, s := range summaries {
		if s.Prefetcher {
			return true
		}
	}

	return false
}
