package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/slipstream/config"
)

var rootCmd = &cobra.Command{
	Use:   "slipstream",
	Short: "Deterministic order matching and lot accounting for simulated trading",
	Long: `Slipstream replays a series of price bars through a simulated trader.

It provides tools for:
  - Replaying bar files with scripted orders (market, limit, stop, trailing)
  - FIFO lot accounting with proportional trade costs
  - Trade journals in CSV or SQLite
  - Summaries of realized trades`,
	SilenceUsage: true,
}

var (
	cfgPath  string
	envFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML or JSON); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file with SLIPSTREAM_* overrides (default .env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")
}

// loadConfig resolves the config file, env overrides and flags, in that
// order, and validates the result.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
