package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/fdprefetch/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fdpsim",
	Short: "fdpsim simulates traces with a feedback-directed prefetcher.",
	Long: `fdpsim runs memory-access traces through an L2 and LLC model with ` +
		`a feedback-directed stream prefetcher and reports how the ` +
		`prefetcher adapted its aggressiveness.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "",
		"TOML configuration file")
	rootCmd.PersistentFlags().StringSlice("env", nil,
		".env files to load before reading the configuration")
	rootCmd.PersistentFlags().Bool("log-events", false,
		"print every simulation event of run to stderr")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadConfig reads the .env files and the configuration file named by the
// persistent flags. The result is not validated so that command flags can
// still override it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env")
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return config.Config{}, err
	}

	configPath, _ := cmd.Flags().GetString("config")

	return config.Read(configPath)
}
