package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/fdprefetch/datarecording"
	"github.com/sarchlab/fdprefetch/report"
)

var showCmd = &cobra.Command{
	Use:   "show [database]",
	Short: "Print the summaries stored in a database.",
	Long: "`show out.sqlite3` prints the summaries that `run --db` or " +
		"`sweep --db` recorded.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return show(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func show(ctx context.Context, out io.Writer, dbPath string) error {
	reader, err := datarecording.NewReader(dbPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	summaries, err := report.ReadSummaries(ctx, reader)
	if err != nil {
		return fmt.Errorf("read %s: %w", dbPath, err)
	}

	return writeSummaries(out, "", summaries...)
}
