package backtest

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/slipstream/journal"
)

var t0 = time.Date(2023, 3, 1, 9, 30, 0, 0, time.UTC)

func rec(profit, cost, runUp, drawDown float64, entry, exit time.Duration) journal.TradeRecord {
	return journal.TradeRecord{
		Type:      "Long",
		Size:      1,
		Profit:    profit,
		Cost:      cost,
		RunUp:     runUp,
		DrawDown:  drawDown,
		EntryTime: t0.Add(entry),
		ExitTime:  t0.Add(exit),
	}
}

func sample() []journal.TradeRecord {
	// Out of order on purpose.
	return []journal.TradeRecord{
		rec(-20, 1, 5, -25, 40*time.Minute, 50*time.Minute),
		rec(100, 2, 120, -10, 0, 10*time.Minute),
		rec(0, 1, 10, -10, 60*time.Minute, 80*time.Minute),
		rec(50, 1, 60, 0, 20*time.Minute, 30*time.Minute),
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	t.Parallel()

	a := Analyze(nil)
	assert.Zero(t, a.Trades)
	assert.Zero(t, a.InMarket)

	var buf bytes.Buffer
	PrintSummary(&buf, a)
	assert.Contains(t, buf.String(), "No trades.")
}

func TestAnalyzeCounts(t *testing.T) {
	t.Parallel()

	a := Analyze(sample())
	assert.Equal(t, 4, a.Trades)
	assert.Equal(t, 2, a.Wins)
	assert.Equal(t, 1, a.Losses)
	assert.Equal(t, 1, a.Neutrals)
	assert.InDelta(t, 50.0, a.WinRate, 1e-9)
	assert.InDelta(t, 25.0, a.LossRate, 1e-9)
	assert.InDelta(t, 130.0, a.GrossProfit, 1e-9)
	assert.InDelta(t, 5.0, a.TotalCost, 1e-9)
	assert.InDelta(t, 125.0, a.NetProfit, 1e-9)
	assert.Equal(t, t0, a.Start)
	assert.Equal(t, t0.Add(80*time.Minute), a.End)
}

func TestAnalyzeDistributions(t *testing.T) {
	t.Parallel()

	a := Analyze(sample())

	assert.Equal(t, 4, a.All.Profit.Count)
	assert.InDelta(t, 32.5, a.All.Profit.Mean, 1e-9)
	assert.InDelta(t, -20.0, a.All.Profit.Min, 1e-9)
	assert.InDelta(t, 100.0, a.All.Profit.Max, 1e-9)
	// deviations 67.5, 17.5, -32.5, -52.5
	assert.InDelta(t, math.Sqrt(8675.0/3), a.All.Profit.Stdev, 1e-9)

	assert.InDelta(t, 75.0, a.Winning.Profit.Mean, 1e-9)
	assert.InDelta(t, 90.0, a.Winning.RunUp.Mean, 1e-9)
	assert.InDelta(t, -5.0, a.Winning.DrawDown.Mean, 1e-9)

	assert.Equal(t, 1, a.Losing.Profit.Count)
	assert.Zero(t, a.Losing.Profit.Stdev)
	assert.InDelta(t, -25.0, a.Losing.DrawDown.Min, 1e-9)
}

func TestAnalyzeDurations(t *testing.T) {
	t.Parallel()

	a := Analyze(sample())

	// held 10, 10, 10, 20 minutes
	assert.InDelta(t, 12.5, a.MarketMinutes.Mean, 1e-9)
	assert.InDelta(t, 20.0, a.MarketMinutes.Max, 1e-9)

	// flat 10, 10, 10 minutes between trades
	assert.Equal(t, 3, a.SidelineMinutes.Count)
	assert.InDelta(t, 10.0, a.SidelineMinutes.Mean, 1e-9)
	assert.Zero(t, a.SidelineMinutes.Stdev)

	assert.InDelta(t, 50.0/80.0, a.InMarket, 1e-9)
}

func TestAnalyzeOverlappingTrades(t *testing.T) {
	t.Parallel()

	// Two lots opened together and closed at different times, then a
	// later trade.
	a := Analyze([]journal.TradeRecord{
		rec(10, 1, 10, 0, 0, 30*time.Minute),
		rec(20, 1, 20, 0, 0, 40*time.Minute),
		rec(5, 1, 5, 0, 10*time.Minute, 20*time.Minute),
		rec(-5, 1, 0, -5, 60*time.Minute, 80*time.Minute),
	})

	assert.InDelta(t, 25.0, a.MarketMinutes.Mean, 1e-9)
	require.Equal(t, 1, a.SidelineMinutes.Count)
	assert.InDelta(t, 20.0, a.SidelineMinutes.Mean, 1e-9)
	assert.InDelta(t, 60.0/80.0, a.InMarket, 1e-9)
	assert.LessOrEqual(t, a.InMarket, 1.0)
}

func TestAnalyzeDoesNotReorderInput(t *testing.T) {
	t.Parallel()

	in := sample()
	Analyze(in)
	assert.InDelta(t, -20.0, in[0].Profit, 1e-9)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, Analyze(sample()))
	out := buf.String()

	require.NotEmpty(t, out)
	assert.Contains(t, out, "Trades:        4")
	assert.Contains(t, out, "Wins:          2 (50.00%)")
	assert.Contains(t, out, "Net Profit:    125.00")
	assert.Contains(t, out, "In-Market:      62.50%")
	assert.Contains(t, out, "Sideline (min): mean=10.00")
}
