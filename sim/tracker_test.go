package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/slipstream/broker"
	"github.com/rustyeddy/slipstream/journal"
	"github.com/rustyeddy/slipstream/market"
)

// ledger drives a Tracker with hand-made executions.
type ledger struct {
	*Tracker
	t   *testing.T
	now time.Time
	j   *journal.Memory
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	j := &journal.Memory{}
	return &ledger{
		Tracker: NewTracker(TrackerConfig{InitialEquity: 10000, Journal: j, RunID: "test"}),
		t:       t,
		now:     time.Date(2022, 11, 29, 10, 0, 56, 502619000, time.UTC),
		j:       j,
	}
}

func (l *ledger) exec(action broker.OrderAction, size int, price, cost float64) {
	l.t.Helper()
	o := broker.NewOrder(action, broker.Market, size, l.now.Add(-time.Microsecond))
	x := broker.NewExecution(o, market.P(price), size, cost, broker.Whole)
	x.TimeExecuted = l.now
	require.NoError(l.t, l.AddExecution(x))
}

func (l *ledger) bought(size int, price, cost float64)  { l.t.Helper(); l.exec(broker.Buy, size, price, cost) }
func (l *ledger) sold(size int, price, cost float64)    { l.t.Helper(); l.exec(broker.Sell, size, price, cost) }
func (l *ledger) shorted(size int, price, cost float64) { l.t.Helper(); l.exec(broker.SellShort, size, price, cost) }
func (l *ledger) covered(size int, price, cost float64) { l.t.Helper(); l.exec(broker.BuyToCover, size, price, cost) }

func (l *ledger) after(d time.Duration) { l.now = l.now.Add(d) }

func (l *ledger) see(prices ...float64) {
	for _, p := range prices {
		l.EvalMarketPrices(market.P(p))
	}
}

func TestTrackerSingleLongProfitable(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.bought(100, 10.0, 1.0)
	l.after(60 * time.Second)
	l.sold(100, 11.0, 1.0)

	require.Len(t, l.Trades(), 1)
	assert.Equal(t, 10098.0, l.Equity())
	assert.Nil(t, l.Position())
	assert.Empty(t, l.OpenPositions())
	assert.True(t, l.IsFlat())
}

func TestTrackerSingleShortProfitable(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.shorted(100, 11.0, 1.0)
	l.after(120 * time.Second)
	l.covered(100, 10.0, 1.0)

	require.Len(t, l.Trades(), 1)
	assert.Equal(t, Short, l.Trades()[0].Type)
	assert.Equal(t, 10098.0, l.Equity())
}

func TestTrackerCostNegatesProfit(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.shorted(1, 4005.0, 3.0)
	l.after(300 * time.Second)
	l.covered(1, 4000.0, 3.0)

	require.Len(t, l.Trades(), 1)
	assert.Equal(t, 9999.0, l.Equity())
	assert.InDelta(t, -1.0, l.Trades()[0].Net(), 1e-9)
}

func TestTrackerTwoLotsLong(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.bought(100, 10.0, 1.0)
	l.after(90 * time.Second)
	l.bought(100, 10.0, 1.0)
	l.after(300 * time.Second)
	l.sold(100, 11.0, 1.0)
	l.after(60 * time.Second)
	l.sold(100, 12.0, 1.0)

	assert.Len(t, l.Trades(), 2)
	assert.Equal(t, 10296.0, l.Equity())
}

func TestTrackerFlip(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.bought(100, 10, 0)
	l.after(60 * time.Second)
	l.sold(200, 11, 0)
	l.after(60 * time.Second)
	l.bought(200, 10, 0)

	trades := l.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, Long, trades[0].Type)
	assert.Equal(t, Short, trades[1].Type)
	assert.Equal(t, 10200.0, l.Equity())

	p := l.Position()
	require.NotNil(t, p)
	assert.Equal(t, Long, p.TradeType)
	assert.Equal(t, 100, p.Size())
	assert.True(t, l.IsLong())
	assert.Equal(t, 100, l.SignedSize())
}

func TestTrackerPartialEntryCost(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.shorted(200, 101.0, 2.0)
	l.after(300 * time.Second)
	l.covered(100, 100.0, 1.0)

	require.Len(t, l.Trades(), 1)
	// half the entry cost plus the whole exit cost
	assert.Equal(t, 2.0, l.Trades()[0].Cost)
	assert.Equal(t, 10097.0, l.Equity())

	p := l.Position()
	require.NotNil(t, p)
	assert.Equal(t, 100, p.Size())
	assert.InDelta(t, 1.0, p.Cost(), 1e-12)
}

func TestTrackerPartialExitCost(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.shorted(100, 101.0, 1.0)
	l.after(300 * time.Second)
	l.covered(300, 100.0, 3.0)

	require.Len(t, l.Trades(), 1)
	// the whole entry cost plus a third of the exit cost
	assert.Equal(t, 2.0, l.Trades()[0].Cost)
	assert.Equal(t, 10096.0, l.Equity())

	// the rest of the cover opened a long
	p := l.Position()
	require.NotNil(t, p)
	assert.Equal(t, Long, p.TradeType)
	assert.Equal(t, 200, p.Size())
	assert.InDelta(t, 2.0, p.Cost(), 1e-12)
}

func TestTrackerBuySellSellToFlat(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.bought(200, 10.0, 2.0)
	l.after(90 * time.Minute)
	l.sold(100, 10.5, 1.0)
	require.Len(t, l.Trades(), 1)
	assert.Equal(t, 100, l.Position().Size())

	l.after(5 * time.Minute)
	l.sold(100, 10.4, 1.0)
	assert.Len(t, l.Trades(), 2)
	assert.Nil(t, l.Position())
}

func TestTrackerCompositeLong(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.bought(100, 10, 0)
	l.bought(100, 11, 0)

	p := l.Position()
	require.NotNil(t, p)
	assert.Equal(t, 10.5, p.Entry.Value)
	assert.Equal(t, 200, p.Size())

	l.sold(200, 12, 0)
	// one trade per tranche closed
	assert.Len(t, l.Trades(), 2)
	assert.Equal(t, 10300.0, l.Equity())
}

func TestTrackerCompositeShortLoss(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.shorted(100, 10, 0)
	l.shorted(100, 11, 0)
	assert.Equal(t, 10.5, l.Position().Entry.Value)

	l.covered(200, 11.5, 0)
	assert.Equal(t, 9800.0, l.Equity())
}

func TestTrackerMultiTradesClosed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opening  int
		trades   int
		equity   float64
		openSize int
	}{
		{opening: 200, trades: 2, equity: 9750, openSize: 0},
		{opening: 300, trades: 2, equity: 9750, openSize: 100},
	}

	for _, tt := range tests {
		l := newLedger(t)
		l.shorted(tt.opening, 10, 0)
		l.covered(100, 11, 0)
		l.covered(100, 11.5, 0)

		assert.Len(t, l.Trades(), tt.trades)
		assert.Equal(t, tt.equity, l.Equity())
		if tt.openSize == 0 {
			assert.Nil(t, l.Position())
		} else {
			assert.Equal(t, tt.openSize, l.Position().Size())
		}
	}
}

func TestTrackerWeightedAverageEntry(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.bought(100, 10, 1)
	l.bought(300, 12, 3)
	l.bought(100, 13, 1)

	p := l.Position()
	require.NotNil(t, p)
	assert.InDelta(t, (100*10.0+300*12.0+100*13.0)/500, p.Entry.Value, 1e-12)
	assert.InDelta(t, 5.0, p.Cost(), 1e-12)
	assert.Equal(t, 500, p.Size())

	// stored tranches are untouched by the aggregate
	open := l.OpenPositions()
	require.Len(t, open, 3)
	assert.Equal(t, 100, open[0].Size())
	assert.Equal(t, 10.0, open[0].Entry.Value)
}

func TestTrackerFIFO(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.bought(100, 10, 0)
	l.after(time.Minute)
	first := l.now
	l.bought(100, 11, 0)
	l.after(time.Minute)
	l.bought(100, 12, 0)
	l.after(time.Minute)
	l.sold(150, 13, 0)

	trades := l.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, 100, trades[0].Size)
	assert.Equal(t, 10.0, trades[0].Entry.Value)
	assert.Equal(t, 50, trades[1].Size)
	assert.Equal(t, 11.0, trades[1].Entry.Value)
	assert.True(t, trades[1].TimeEntered.Equal(first))

	open := l.OpenPositions()
	require.Len(t, open, 2)
	assert.Equal(t, 50, open[0].Size())
	assert.Equal(t, 100, open[1].Size())
}

// Three partial closes of one tranche. Cost is rescaled on every reduction.
func TestTrackerRepeatedPartialCloseCost(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.bought(400, 10, 4.0)

	closes := []struct {
		size      int
		tradeCost float64
		remaining float64
	}{
		{size: 100, tradeCost: 1.0 + 0.25, remaining: 3.0},
		{size: 50, tradeCost: 0.5 + 0.125, remaining: 2.5},
		{size: 150, tradeCost: 1.5 + 0.375, remaining: 1.0},
	}

	for i, c := range closes {
		l.after(time.Minute)
		l.sold(c.size, 11, 0.25*float64(c.size)/100)

		trades := l.Trades()
		require.Len(t, trades, i+1)
		assert.InDelta(t, c.tradeCost, trades[i].Cost, 1e-12, "close %d", i)

		open := l.OpenPositions()
		require.Len(t, open, 1)
		assert.InDelta(t, c.remaining, open[0].Cost(), 1e-12, "close %d", i)
	}
	assert.Equal(t, 100, l.Position().Size())
}

func TestTrackerRunUpDrawDown(t *testing.T) {
	t.Parallel()

	t.Run("long", func(t *testing.T) {
		l := newLedger(t)
		l.bought(100, 10.0, 1.0)
		l.see(10.1, 10.05, 9.98, 9.97, 9.90, 9.91, 9.85, 9.8, 9.9, 9.99)
		l.after(90 * time.Minute)
		l.see(10.1, 10.11, 10.35, 10.43, 10.55, 10.80, 11.0)
		l.sold(100, 10.5, 1.0)

		require.Len(t, l.Trades(), 1)
		tr := l.Trades()[0]
		assert.InDelta(t, 100.0, tr.RunUp, 1e-6)
		assert.InDelta(t, -20.0, tr.DrawDown, 1e-6)
	})

	t.Run("short", func(t *testing.T) {
		l := newLedger(t)
		l.shorted(100, 10.0, 1.0)
		l.see(9.98, 9.97, 9.90, 9.91, 9.85, 9.8, 9.9, 9.99)
		l.after(90 * time.Minute)
		l.covered(100, 9.9, 1.0)

		require.Len(t, l.Trades(), 1)
		tr := l.Trades()[0]
		assert.InDelta(t, 20.0, tr.RunUp, 1e-6)
		assert.InDelta(t, 0.0, tr.DrawDown, 1e-6)
	})

	t.Run("unseen", func(t *testing.T) {
		l := newLedger(t)
		l.bought(10, 10, 0)
		l.sold(10, 12, 0)
		tr := l.Trades()[0]
		assert.Zero(t, tr.RunUp)
		assert.Zero(t, tr.DrawDown)
	})
}

func TestTrackerJournalsEachTrade(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.bought(100, 10, 0)
	l.bought(100, 11, 0)
	assert.Empty(t, l.j.Trades)

	l.after(time.Minute)
	l.sold(250, 12, 0)

	require.Len(t, l.j.Trades, 2)
	rec := l.j.Trades[0]
	assert.Equal(t, "Long", rec.Type)
	assert.Equal(t, "test", rec.RunID)
	assert.Equal(t, 100, rec.Size)
	assert.Equal(t, 10.0, rec.Entry)
	assert.Equal(t, 12.0, rec.Exit)
	assert.Equal(t, 200.0, rec.Profit)
	assert.True(t, rec.ExitTime.Equal(l.now))
	assert.NotEmpty(t, rec.TradeID)
	assert.NotEqual(t, rec.TradeID, l.j.Trades[1].TradeID)
	assert.True(t, l.IsShort())
}

type failingJournal struct{ journal.Memory }

func (f *failingJournal) RecordTrade(journal.TradeRecord) error { return errors.New("disk full") }

func TestTrackerJournalError(t *testing.T) {
	t.Parallel()

	tr := NewTracker(TrackerConfig{Journal: &failingJournal{}})
	now := time.Now()
	buy := broker.NewExecution(broker.NewOrder(broker.Buy, broker.Market, 1, now), market.P(10), 0, 0, broker.Whole)
	sell := broker.NewExecution(broker.NewOrder(broker.Sell, broker.Market, 1, now), market.P(11), 0, 0, broker.Whole)

	require.NoError(t, tr.AddExecution(buy))
	err := tr.AddExecution(sell)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecordTrade)
	assert.Contains(t, err.Error(), "disk full")

	// The books settle even though the log line is lost.
	assert.Len(t, tr.Trades(), 1)
	assert.Equal(t, 10001.0, tr.Equity())
	assert.True(t, tr.IsFlat())
	assert.Empty(t, tr.OpenPositions())
}

func TestTrackerJournalErrorOnFlip(t *testing.T) {
	t.Parallel()

	tr := NewTracker(TrackerConfig{Journal: &failingJournal{}})
	now := time.Now()
	buy := broker.NewExecution(broker.NewOrder(broker.Buy, broker.Market, 1, now), market.P(10), 0, 0, broker.Whole)
	sell := broker.NewExecution(broker.NewOrder(broker.Sell, broker.Market, 3, now), market.P(11), 0, 0, broker.Whole)

	require.NoError(t, tr.AddExecution(buy))
	assert.ErrorIs(t, tr.AddExecution(sell), ErrRecordTrade)

	assert.Len(t, tr.Trades(), 1)
	assert.Equal(t, 10001.0, tr.Equity())
	assert.True(t, tr.IsShort())
	assert.Equal(t, -2, tr.SignedSize())
}

func TestTrackerRejectsEmptyExecution(t *testing.T) {
	t.Parallel()

	tr := NewTracker(TrackerConfig{})
	x := broker.OrderExecution{Action: broker.Buy, Price: market.P(10)}
	assert.ErrorIs(t, tr.AddExecution(x), broker.ErrInvalidSize)
	assert.Equal(t, DefaultInitialEquity, tr.Equity())
}

func TestTrackerDeterministicIDs(t *testing.T) {
	t.Parallel()

	run := func() []string {
		l := newLedger(t)
		l.bought(100, 10, 0)
		l.after(time.Second)
		l.sold(200, 11, 0)
		l.after(time.Second)
		l.bought(100, 10, 0)
		var ids []string
		for _, tr := range l.Trades() {
			ids = append(ids, tr.ID)
		}
		return ids
	}
	assert.Equal(t, run(), run())
}
