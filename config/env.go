package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the configuration file.
const (
	EnvTrace       = "FDP_TRACE"
	EnvTraceFormat = "FDP_TRACE_FORMAT"
	EnvDB          = "FDP_DB"
	EnvMonitorPort = "FDP_MONITOR_PORT"
	EnvMaxAccesses = "FDP_MAX_ACCESSES"
)

// LoadDotEnv loads the variables of the given .env files, or ./.env if none
// is given, into the environment. Missing files are skipped and variables
// already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvTrace); v != "" {
		c.Trace.Path = v
		c.Trace.Pattern = ""
	}

	if v := os.Getenv(EnvTraceFormat); v != "" {
		c.Trace.Format = v
	}

	if v := os.Getenv(EnvDB); v != "" {
		c.Output.DB = v
	}

	if v := os.Getenv(EnvMonitorPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return err
		}

		c.Monitor.Enabled = true
		c.Monitor.Port = port
	}

	if v := os.Getenv(EnvMaxAccesses); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}

		c.Trace.MaxAccesses = n
	}

	return nil
}
