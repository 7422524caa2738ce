// Package backtest summarizes the realized trades of a run.
package backtest

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/slipstream/journal"
)

// Stats describes a sample. Stdev is the sample standard deviation and is
// zero for fewer than two values.
type Stats struct {
	Count int
	Mean  float64
	Stdev float64
	Min   float64
	Max   float64
}

func describe(xs []float64) Stats {
	s := Stats{Count: len(xs)}
	if len(xs) == 0 {
		return s
	}

	s.Min, s.Max = xs[0], xs[0]
	sum := 0.0
	for _, x := range xs {
		sum += x
		s.Min = math.Min(s.Min, x)
		s.Max = math.Max(s.Max, x)
	}
	s.Mean = sum / float64(len(xs))

	if len(xs) > 1 {
		ss := 0.0
		for _, x := range xs {
			d := x - s.Mean
			ss += d * d
		}
		s.Stdev = math.Sqrt(ss / float64(len(xs)-1))
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("mean=%.2f stdev=%.2f range=(%.2f, %.2f)", s.Mean, s.Stdev, s.Min, s.Max)
}

// Group holds the distributions of one subset of trades.
type Group struct {
	Profit   Stats
	RunUp    Stats
	DrawDown Stats
}

func group(trades []journal.TradeRecord) Group {
	var profit, up, down []float64
	for _, t := range trades {
		profit = append(profit, t.Profit)
		up = append(up, t.RunUp)
		down = append(down, t.DrawDown)
	}
	return Group{Profit: describe(profit), RunUp: describe(up), DrawDown: describe(down)}
}

// Analysis is a summary of realized trades. A trade wins when its gross
// profit is positive and loses when it is negative.
type Analysis struct {
	Trades   int
	Wins     int
	Losses   int
	Neutrals int
	WinRate  float64 // percent
	LossRate float64 // percent

	GrossProfit float64
	TotalCost   float64
	NetProfit   float64

	All     Group
	Winning Group
	Losing  Group

	// Minutes spent in each trade, and flat between spells in the market.
	// Trades realized from lots held at the same time overlap; they share
	// one spell.
	MarketMinutes   Stats
	SidelineMinutes Stats

	// InMarket is the share of [first entry, last exit] spent in a trade.
	InMarket float64

	Start time.Time
	End   time.Time
}

// Analyze summarizes trades. Trades are ordered by entry time first.
func Analyze(trades []journal.TradeRecord) Analysis {
	var a Analysis
	a.Trades = len(trades)
	if a.Trades == 0 {
		return a
	}

	sorted := make([]journal.TradeRecord, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EntryTime.Before(sorted[j].EntryTime)
	})

	var wins, losses []journal.TradeRecord
	var market []float64

	a.Start = sorted[0].EntryTime
	a.End = sorted[0].ExitTime
	for _, t := range sorted {
		switch {
		case t.Profit > 0:
			wins = append(wins, t)
		case t.Profit < 0:
			losses = append(losses, t)
		default:
			a.Neutrals++
		}
		a.GrossProfit += t.Profit
		a.TotalCost += t.Cost
		market = append(market, t.ExitTime.Sub(t.EntryTime).Minutes())
		if t.ExitTime.After(a.End) {
			a.End = t.ExitTime
		}
	}

	spans := merge(sorted)
	var inMarket time.Duration
	var sideline []float64
	for i, s := range spans {
		inMarket += s.exit.Sub(s.entry)
		if i > 0 {
			sideline = append(sideline, s.entry.Sub(spans[i-1].exit).Minutes())
		}
	}

	a.Wins = len(wins)
	a.Losses = len(losses)
	a.WinRate = 100 * float64(a.Wins) / float64(a.Trades)
	a.LossRate = 100 * float64(a.Losses) / float64(a.Trades)
	a.NetProfit = a.GrossProfit - a.TotalCost

	a.All = group(sorted)
	a.Winning = group(wins)
	a.Losing = group(losses)
	a.MarketMinutes = describe(market)
	a.SidelineMinutes = describe(sideline)

	if total := a.End.Sub(a.Start); total > 0 {
		a.InMarket = float64(inMarket) / float64(total)
	}
	return a
}

type span struct{ entry, exit time.Time }

// merge joins the [entry, exit] intervals of trades sorted by entry.
func merge(sorted []journal.TradeRecord) []span {
	var out []span
	for _, t := range sorted {
		if n := len(out); n > 0 && !t.EntryTime.After(out[n-1].exit) {
			if t.ExitTime.After(out[n-1].exit) {
				out[n-1].exit = t.ExitTime
			}
			continue
		}
		out = append(out, span{t.EntryTime, t.ExitTime})
	}
	return out
}

func PrintSummary(w io.Writer, a Analysis) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Trade Analysis")
	fmt.Fprintln(w, "==================================================")

	if a.Trades == 0 {
		fmt.Fprintln(w, "No trades.")
		return
	}

	fmt.Fprintf(w, "Start:         %s\n", a.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", a.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", a.Trades)
	fmt.Fprintf(w, "Wins:          %d (%.2f%%)\n", a.Wins, a.WinRate)
	fmt.Fprintf(w, "Losses:        %d (%.2f%%)\n", a.Losses, a.LossRate)
	fmt.Fprintf(w, "Neutrals:      %d\n", a.Neutrals)
	fmt.Fprintf(w, "Gross Profit:  %.2f\n", a.GrossProfit)
	fmt.Fprintf(w, "Cost:          %.2f\n", a.TotalCost)
	fmt.Fprintf(w, "Net Profit:    %.2f\n", a.NetProfit)

	printGroup(w, "All", a.All)
	if a.Wins > 0 {
		printGroup(w, "Wins", a.Winning)
	}
	if a.Losses > 0 {
		printGroup(w, "Losses", a.Losing)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Time")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Market (min):   %s\n", a.MarketMinutes)
	if a.SidelineMinutes.Count > 0 {
		fmt.Fprintf(w, "Sideline (min): %s\n", a.SidelineMinutes)
	}
	fmt.Fprintf(w, "In-Market:      %.2f%%\n", 100*a.InMarket)
	fmt.Fprintln(w)
}

func printGroup(w io.Writer, name string, g Group) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Profit:        %s\n", g.Profit)
	fmt.Fprintf(w, "Run-Up:        %s\n", g.RunUp)
	fmt.Fprintf(w, "Draw-Down:     %s\n", g.DrawDown)
}
