package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/slipstream/internal/backtest"
	"github.com/rustyeddy/slipstream/journal"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [trades.csv]",
	Short: "Summarize realized trades",
	Long: `Summarize the trades of a CSV trade log, or of one run in the SQLite journal.

Examples:
  slipstream analyze /tmp/trades_20230301_093000.csv
  slipstream analyze --db slipstream.sqlite --run 01H...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeDB  string
	analyzeRun string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeDB, "db", "d", "", "SQLite journal DB")
	analyzeCmd.Flags().StringVar(&analyzeRun, "run", "", "run ID to analyze (with --db)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var (
		recs []journal.TradeRecord
		err  error
	)
	switch {
	case len(args) == 1:
		recs, err = journal.ReadTradesCSV(args[0])
	case analyzeDB != "" && analyzeRun != "":
		var j *journal.SQLite
		if j, err = journal.NewSQLite(analyzeDB, ""); err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer j.Close()
		recs, err = j.ListTradesByRun(analyzeRun)
	default:
		return fmt.Errorf("need a trades CSV or --db with --run")
	}
	if err != nil {
		return fmt.Errorf("read trades: %w", err)
	}

	backtest.PrintSummary(cmd.OutOrStdout(), backtest.Analyze(recs))
	return nil
}
