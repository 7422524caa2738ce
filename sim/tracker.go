package sim

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/slipstream/broker"
	"github.com/rustyeddy/slipstream/journal"
	"github.com/rustyeddy/slipstream/market"
	"github.com/rustyeddy/slipstream/pkg/id"
)

var (
	ErrNonPositiveDeduct = errors.New("reduction by a non-positive size")

	// ErrRecordTrade wraps journal failures. The books are already
	// updated when it is returned; only the log lines are missing.
	ErrRecordTrade = errors.New("record trade")
)

const (
	DefaultInitialEquity   = 10000.0
	DefaultPriceMultiplier = 1.0
)

type TrackerConfig struct {
	InitialEquity   float64 // DefaultInitialEquity when zero
	PriceMultiplier float64 // DefaultPriceMultiplier when zero
	RunID           string
	Journal         journal.Journal
	Logger          *zap.Logger
	IDs             *id.Generator
	Metrics         *Metrics
}

// Tracker is the lot ledger. Open tranches are all on one side and are
// consumed oldest first.
type Tracker struct {
	equity float64
	mult   float64
	runID  string

	open      []*Position
	trades    []Trade
	aggregate *Position

	journal journal.Journal
	log     *zap.Logger
	ids     *id.Generator
	metrics *Metrics
}

func NewTracker(cfg TrackerConfig) *Tracker {
	t := &Tracker{
		equity:  cfg.InitialEquity,
		mult:    cfg.PriceMultiplier,
		runID:   cfg.RunID,
		journal: cfg.Journal,
		log:     cfg.Logger,
		ids:     cfg.IDs,
		metrics: cfg.Metrics,
	}
	if t.equity == 0 {
		t.equity = DefaultInitialEquity
	}
	if t.mult == 0 {
		t.mult = DefaultPriceMultiplier
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	if t.ids == nil {
		t.ids = id.NewGenerator(0)
	}
	return t
}

// AddExecution applies a fill. The execution cost is debited at once. A fill
// on the open side adds a tranche; an opposite fill closes tranches oldest
// first, realizing one trade per tranche touched, and any residual opens a
// tranche on the new side.
func (t *Tracker) AddExecution(e broker.OrderExecution) error {
	if e.Size <= 0 {
		return fmt.Errorf("add execution %v: %w", e, broker.ErrInvalidSize)
	}

	t.equity -= e.Cost
	t.metrics.equity(t.equity)
	defer t.invalidate()

	side := TradeTypeFromAction(e.Action)
	if len(t.open) == 0 || t.open[0].TradeType == side {
		t.open = append(t.open, NewPositionFromExecution(e))
		return nil
	}

	rest := e
	var realized []Trade
	for len(t.open) > 0 && rest.Size > 0 {
		front := t.open[0]
		deduct := min(front.Size(), rest.Size)
		if deduct <= 0 {
			return fmt.Errorf("reduce %v with %v: %w", front, rest, ErrNonPositiveDeduct)
		}

		trade := t.realize(front, rest, deduct)
		if err := front.SetSize(front.Size() - deduct); err != nil {
			return err
		}
		if front.Size() == 0 {
			t.open[0] = nil
			t.open = t.open[1:]
		}
		rest = rest.Shrink(deduct)

		t.trades = append(t.trades, trade)
		t.equity += trade.Profit
		t.metrics.trade(trade.Type.String(), t.equity)
		realized = append(realized, trade)

		t.log.Debug("trade realized",
			zap.String("id", trade.ID),
			zap.Stringer("type", trade.Type),
			zap.Int("size", trade.Size),
			zap.Float64("entry", trade.Entry.Value),
			zap.Float64("exit", trade.Exit.Value),
			zap.Float64("profit", trade.Profit),
			zap.Float64("cost", trade.Cost),
			zap.Float64("equity", t.equity),
		)
	}

	if rest.Size > 0 {
		t.open = append(t.open, NewPositionFromExecution(rest))
	}
	return t.record(realized)
}

// record journals trades after the books settle. Every trade is attempted;
// the first failure is returned.
func (t *Tracker) record(trades []Trade) error {
	if t.journal == nil {
		return nil
	}
	var first error
	for _, trade := range trades {
		if err := t.journal.RecordTrade(trade.Record(t.runID)); err != nil && first == nil {
			first = fmt.Errorf("%w %s: %w", ErrRecordTrade, trade.ID, err)
		}
	}
	return first
}

func (t *Tracker) realize(p *Position, e broker.OrderExecution, size int) Trade {
	return Trade{
		ID:          t.ids.New(e.TimeExecuted),
		Type:        p.TradeType,
		Size:        size,
		Entry:       p.Entry,
		Exit:        e.Price,
		Cost:        p.PartialCost(size) + e.PartialCost(size),
		Profit:      Profit(p.TradeType, size, p.Entry, e.Price, t.mult),
		RunUp:       p.RunUp(size, t.mult),
		DrawDown:    p.DrawDown(size, t.mult),
		TimeEntered: p.TimeEntered,
		TimeExited:  e.TimeExecuted,
	}
}

func (t *Tracker) invalidate() {
	t.aggregate = nil
}

// Position returns all open tranches merged into one, or nil when flat.
// The result is a copy.
func (t *Tracker) Position() *Position {
	if len(t.open) == 0 {
		return nil
	}
	if t.aggregate == nil {
		agg := t.open[0].Duplicate()
		for _, p := range t.open[1:] {
			if err := agg.Merge(p); err != nil {
				panic(err)
			}
		}
		t.aggregate = agg
	}
	return t.aggregate.Duplicate()
}

func (t *Tracker) IsLong() bool  { return len(t.open) > 0 && t.open[0].TradeType == Long }
func (t *Tracker) IsShort() bool { return len(t.open) > 0 && t.open[0].TradeType == Short }
func (t *Tracker) IsFlat() bool  { return len(t.open) == 0 }

// SignedSize is the open size, negative when short.
func (t *Tracker) SignedSize() int {
	var n int
	for _, p := range t.open {
		n += p.Size()
	}
	if t.IsShort() {
		return -n
	}
	return n
}

// EvalMarketPrices records prices against every open tranche.
func (t *Tracker) EvalMarketPrices(prices ...market.Price) {
	for _, p := range t.open {
		p.EvalMarketPrices(prices...)
	}
	if len(t.open) > 0 {
		t.invalidate()
	}
}

// OpenPositions returns copies of the open tranches, oldest first.
func (t *Tracker) OpenPositions() []*Position {
	out := make([]*Position, len(t.open))
	for i, p := range t.open {
		out[i] = p.Duplicate()
	}
	return out
}

func (t *Tracker) Trades() []Trade {
	out := make([]Trade, len(t.trades))
	copy(out, t.trades)
	return out
}

func (t *Tracker) Equity() float64 { return t.equity }

func (t *Tracker) PriceMultiplier() float64 { return t.mult }

// UnrealizedPL marks every open tranche to mark.
func (t *Tracker) UnrealizedPL(mark market.Price) float64 {
	var pl float64
	for _, p := range t.open {
		pl += UnrealizedPL(p, mark, t.mult)
	}
	return pl
}
