package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/fdprefetch/config"
)

// addTraceFlags adds the flags that select a trace.
func addTraceFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "format of the trace files (text or binary)")
	cmd.Flags().Uint64("max-accesses", 0,
		"stop after this many accesses of each trace, 0 for no limit")
}

// addOutputFlags adds the flags that control the prefetcher and the outputs.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("db", "", "record folds and summaries in this database")
	cmd.Flags().String("json", "", "write the summaries to this JSON file")
	cmd.Flags().Bool("trace-tasks", false,
		"record every near prefetch from issue to fill in the database")
	cmd.Flags().Bool("no-prefetch", false, "run without the prefetcher")
	cmd.Flags().Bool("log-folds", false, "print every fold of the prefetcher")
	cmd.Flags().Int("monitor", -1,
		"serve the monitor on this port, 0 picks a free port")
	cmd.Flags().Bool("open-browser", false, "open the monitor in a browser")
}

// applyFlags overrides c with the flags that the user set.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("trace") {
		c.Trace.Path, _ = flags.GetString("trace")
		c.Trace.Pattern = ""
	}

	if flags.Changed("pattern") {
		c.Trace.Pattern, _ = flags.GetString("pattern")
		c.Trace.Path = ""
	}

	if flags.Changed("count") {
		c.Trace.Count, _ = flags.GetUint64("count")
	}

	if flags.Changed("format") {
		c.Trace.Format, _ = flags.GetString("format")
	}

	if flags.Changed("max-accesses") {
		c.Trace.MaxAccesses, _ = flags.GetUint64("max-accesses")
	}

	if flags.Changed("db") {
		c.Output.DB, _ = flags.GetString("db")
	}

	if flags.Changed("json") {
		c.Output.JSON, _ = flags.GetString("json")
	}

	if traceTasks, _ := flags.GetBool("trace-tasks"); traceTasks {
		c.Output.TraceTasks = true
	}

	if noPrefetch, _ := flags.GetBool("no-prefetch"); noPrefetch {
		c.Prefetcher.Enabled = false
	}

	if logFolds, _ := flags.GetBool("log-folds"); logFolds {
		c.Prefetcher.LogFolds = true
	}

	if flags.Changed("monitor") {
		c.Monitor.Enabled = true
		c.Monitor.Port, _ = flags.GetInt("monitor")
	}

	if open, _ := flags.GetBool("open-browser"); open {
		c.Monitor.OpenBrowser = true
	}
}
