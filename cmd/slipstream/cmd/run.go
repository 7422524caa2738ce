package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/slipstream/config"
	"github.com/rustyeddy/slipstream/internal/logger"
	"github.com/rustyeddy/slipstream/internal/replay"
	"github.com/rustyeddy/slipstream/journal"
	"github.com/rustyeddy/slipstream/pkg/id"
	"github.com/rustyeddy/slipstream/sim"
)

var runCmd = &cobra.Command{
	Use:   "run <bars.csv[.xz]>",
	Short: "Replay a bar file through the simulated trader",
	Long: `Replay bars and scripted events through the simulated trader.

Rows are time,high,low[,close][,event,args...]. Events:
  LONG | SHORT | FLAT | CLEAR
  MARKET action [size]
  LIMIT action limit [size]
  STOP action stop [size]
  STOP_LIMIT action stop limit [size]
  TRAIL_STOP action distance [size]
  TRAIL_STOP_LIMIT action distance limit [size]

Example:
  slipstream run -c slipstream.yaml data/es_2023-03-01.csv.xz`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runFrom        string
	runTo          string
	runEventFirst  bool
	runMetricsFile string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFrom, "from", "", "skip bars before this time (RFC3339)")
	runCmd.Flags().StringVar(&runTo, "to", "", "skip bars at or after this time (RFC3339)")
	runCmd.Flags().BoolVar(&runEventFirst, "event-first", false, "apply each row's event before its bar")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "write Prometheus metrics here when done (overrides metrics.file)")
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := replay.Options{EventFirst: runEventFirst}
	if opts.From, err = parseTimeFlag("from", runFrom); err != nil {
		return err
	}
	if opts.To, err = parseTimeFlag("to", runTo); err != nil {
		return err
	}
	if !opts.From.IsZero() && !opts.To.IsZero() && !opts.From.Before(opts.To) {
		return fmt.Errorf("--from must be before --to")
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ecfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	ecfg.RunID = id.New()

	j, where, err := openJournal(cfg.Journal, ecfg.RunID, time.Now())
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer func() {
		if cerr := j.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close journal: %w", cerr)
		}
	}()

	reg := prometheus.NewRegistry()
	engine := sim.NewEngine(ecfg, j)
	engine.SetLogger(log)
	engine.SetMetrics(sim.NewMetrics(reg))

	feed, err := replay.Open(args[0])
	if err != nil {
		return err
	}
	defer feed.Close()

	log.Info("replay started",
		zap.String("run", ecfg.RunID),
		zap.String("bars", args[0]),
		zap.String("journal", where),
	)
	start := time.Now()
	res, err := replay.Run(cmd.Context(), feed, engine, opts)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	log.Info("replay finished",
		zap.String("run", ecfg.RunID),
		zap.Int("bars", res.Bars),
		zap.Int("events", res.Events),
		zap.Int("orders", len(res.Orders)),
		zap.Duration("elapsed", time.Since(start)),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d bars, %d events\n", ecfg.RunID, res.Bars, res.Events)
	fmt.Fprintln(out, engine.Summarize())
	fmt.Fprintf(out, "Journal: %s\n", where)

	metricsFile := runMetricsFile
	if metricsFile == "" {
		metricsFile = cfg.Metrics.File
	}
	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		fmt.Fprintf(out, "Metrics: %s\n", metricsFile)
	}
	return nil
}

// openJournal returns the configured sink and a description of where it
// writes.
func openJournal(jc config.JournalConfig, runID string, now time.Time) (journal.Journal, string, error) {
	if jc.Type == "sqlite" {
		j, err := journal.NewSQLite(jc.DBPath, runID)
		return j, jc.DBPath, err
	}

	trades := jc.TradesPath(now)
	if err := os.MkdirAll(filepath.Dir(trades), 0755); err != nil {
		return nil, "", err
	}
	j, err := journal.NewCSV(trades, jc.EquityFile)
	return j, trades, err
}

func parseTimeFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad --%s: %w", name, err)
	}
	return t, nil
}
