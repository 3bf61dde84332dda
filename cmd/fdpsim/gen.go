package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/fdprefetch/config"
	"github.com/sarchlab/fdprefetch/trace"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a synthetic trace.",
	Long: "`gen --pattern stream|mixed --count N --out [file]` writes a " +
		"synthetic trace that `run --trace` can read.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		t, format := genParams(cmd)

		outPath, _ := cmd.Flags().GetString("out")
		if outPath == "" {
			_, err := generate(cmd.OutOrStdout(), t, format)
			return err
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		n, err := generate(f, t, format)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", n, outPath)

		return f.Close()
	},
}

func init() {
	rootCmd.AddCommand(genCmd)
	genCmd.Flags().String("pattern", config.StreamPattern,
		"access pattern (stream or mixed)")
	genCmd.Flags().Uint64("count", 100_000, "number of records")
	genCmd.Flags().Int64("stride", 64, "stride of the streams in bytes")
	genCmd.Flags().Int("streams", 4, "number of interleaved streams of mixed")
	genCmd.Flags().Float64("random-fraction", 0.25,
		"fraction of random accesses of mixed")
	genCmd.Flags().Int64("seed", 1, "seed of the random accesses of mixed")
	genCmd.Flags().Bool("binary", false, "write binary records")
	genCmd.Flags().String("out", "", "output file, stdout if empty")
}

func genParams(cmd *cobra.Command) (config.Trace, string) {
	flags := cmd.Flags()

	var t config.Trace
	t.Pattern, _ = flags.GetString("pattern")
	t.Count, _ = flags.GetUint64("count")
	t.Stride, _ = flags.GetInt64("stride")
	t.Streams, _ = flags.GetInt("streams")
	t.RandomFraction, _ = flags.GetFloat64("random-fraction")
	t.Seed, _ = flags.GetInt64("seed")

	format := trace.TextFormat
	if binary, _ := flags.GetBool("binary"); binary {
		format = trace.BinaryFormat
	}

	return t, format
}

// generate writes the synthetic trace t to w and returns the number of
// records written.
func generate(w io.Writer, t config.Trace, format string) (int, error) {
	if t.Pattern != config.StreamPattern && t.Pattern != config.MixedPattern {
		return 0, fmt.Errorf("not valid trace pattern %q", t.Pattern)
	}

	if t.Count == 0 {
		return 0, errors.New("count should be > 0")
	}

	r, closeFn, err := t.Reader()
	if err != nil {
		return 0, err
	}
	defer closeFn()

	if format == trace.BinaryFormat {
		return trace.WriteBinary(w, r)
	}

	return trace.WriteText(w, r)
}
