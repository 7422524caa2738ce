package sim

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/slipstream/broker"
	"github.com/rustyeddy/slipstream/journal"
	"github.com/rustyeddy/slipstream/market"
	"github.com/rustyeddy/slipstream/pkg/id"
)

const (
	DefaultContractCount     = 1
	DefaultTradeCost         = 0.85
	DefaultSyntheticDelay    = time.Millisecond
	DefaultMinOrderFillDelay = 10 * time.Second
	DefaultSimMultiplier     = 50.0
)

type EngineConfig struct {
	ContractCount     int
	TradeCost         float64 // per unit
	PriceSlip         float64
	PriceMultiplier   float64
	InitialEquity     float64
	Currency          market.Currency
	SyntheticDelay    time.Duration
	MinOrderFillDelay time.Duration
	IDSeed            int64
	RunID             string
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ContractCount:     DefaultContractCount,
		TradeCost:         DefaultTradeCost,
		PriceMultiplier:   DefaultSimMultiplier,
		InitialEquity:     DefaultInitialEquity,
		SyntheticDelay:    DefaultSyntheticDelay,
		MinOrderFillDelay: DefaultMinOrderFillDelay,
	}
}

// FillListener is notified once per filled order, after the tick's fills
// have all been applied.
type FillListener interface {
	OnOrderFilled(exec broker.OrderExecution)
}

type FillListenerFunc func(exec broker.OrderExecution)

func (f FillListenerFunc) OnOrderFilled(exec broker.OrderExecution) { f(exec) }

// Engine matches pending orders against a stream of ticks. It is not safe
// for concurrent use.
type Engine struct {
	cfg     EngineConfig
	clock   *Clock
	pending []*broker.Order
	tracker *Tracker

	journal  journal.Journal
	ids      *id.Generator
	log      *zap.Logger
	metrics  *Metrics
	listener FillListener

	delays    []time.Duration
	fillSlips int
	lastTick  *market.PriceRange
}

// NewEngine returns an engine writing realized trades and equity snapshots
// to j, which may be nil.
func NewEngine(cfg EngineConfig, j journal.Journal) *Engine {
	if cfg.ContractCount <= 0 {
		cfg.ContractCount = DefaultContractCount
	}
	if cfg.SyntheticDelay <= 0 {
		cfg.SyntheticDelay = DefaultSyntheticDelay
	}
	if cfg.MinOrderFillDelay < 0 {
		cfg.MinOrderFillDelay = 0
	}

	e := &Engine{
		cfg:     cfg,
		clock:   NewClock(cfg.SyntheticDelay),
		journal: j,
		ids:     id.NewGenerator(cfg.IDSeed),
		log:     zap.NewNop(),
	}
	e.tracker = e.newTracker()
	return e
}

func (e *Engine) newTracker() *Tracker {
	return NewTracker(TrackerConfig{
		InitialEquity:   e.cfg.InitialEquity,
		PriceMultiplier: e.cfg.PriceMultiplier,
		RunID:           e.cfg.RunID,
		Journal:         e.journal,
		Logger:          e.log,
		IDs:             e.ids,
		Metrics:         e.metrics,
	})
}

// SetLogger replaces the nop logger. Call it before the first tick.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.log = l
	e.tracker.log = l
}

// SetMetrics attaches collectors. Call it before the first tick.
func (e *Engine) SetMetrics(m *Metrics) {
	e.metrics = m
	e.tracker.metrics = m
}

// SetFillListener sets the listener called for every fill.
func (e *Engine) SetFillListener(l FillListener) {
	e.listener = l
}

func (e *Engine) Config() EngineConfig { return e.cfg }
func (e *Engine) Tracker() *Tracker    { return e.tracker }

// Now is the engine's logical time.
func (e *Engine) Now() (time.Time, error) {
	return e.clock.Now()
}

func (e *Engine) price(v float64) market.Price {
	return market.NewPrice(v, e.cfg.Currency)
}

// EvalMarket feeds one tick. Open tranches see the extremes first, then the
// clock advances, then every pending order is evaluated in placement order.
func (e *Engine) EvalMarket(t time.Time, high, low float64) error {
	tick, err := market.NewPriceRange(e.price(low), e.price(high))
	if err != nil {
		return fmt.Errorf("eval market at %v: %w", t, err)
	}

	e.tracker.EvalMarketPrices(tick.Low, tick.High)
	now := e.clock.Advance(t)
	e.lastTick = &tick

	fills, err := e.evalOrders(now, tick)
	if len(fills) > 0 {
		if rerr := e.recordEquity(now); rerr != nil && err == nil {
			err = rerr
		}
	}
	if err != nil {
		return err
	}

	if e.listener != nil {
		for _, x := range fills {
			e.listener.OnOrderFilled(x)
		}
	}
	return nil
}

func (e *Engine) evalOrders(now time.Time, tick market.PriceRange) ([]broker.OrderExecution, error) {
	var fills []broker.OrderExecution
	remaining := make([]*broker.Order, 0, len(e.pending))

	for i, o := range e.pending {
		if o.TimeSent.IsZero() {
			e.pending = append(remaining, e.pending[i:]...)
			return fills, fmt.Errorf("order %s: %w", o.ID, broker.ErrMissingTimeSent)
		}
		if now.Sub(o.TimeSent) < e.cfg.MinOrderFillDelay {
			e.slip()
			remaining = append(remaining, o)
			continue
		}

		if err := evalTrigger(o, tick); err != nil {
			e.pending = append(remaining, e.pending[i:]...)
			return fills, err
		}

		px, ok := fillPrice(o, tick, e.price(e.cfg.PriceSlip))
		if !ok {
			e.slip()
			remaining = append(remaining, o)
			continue
		}

		x := broker.NewExecution(o, px, 0, e.cfg.TradeCost*float64(o.Size), broker.Whole)
		x.TimeExecuted = now
		ferr := e.tracker.AddExecution(x)
		if ferr != nil && !errors.Is(ferr, ErrRecordTrade) {
			e.pending = append(remaining, e.pending[i+1:]...)
			return fills, fmt.Errorf("fill order %s: %w", o.ID, ferr)
		}

		delay := x.TimeExecuted.Sub(x.TimeReceived)
		e.delays = append(e.delays, delay)
		e.metrics.fill(o.Action.String(), o.Type.String(), delay)
		e.log.Debug("order filled",
			zap.String("order", o.ID),
			zap.Stringer("action", o.Action),
			zap.Stringer("type", o.Type),
			zap.Int("size", x.Size),
			zap.Float64("price", px.Value),
			zap.Duration("delay", delay),
		)
		fills = append(fills, x)
		if ferr != nil {
			e.pending = append(remaining, e.pending[i+1:]...)
			return fills, fmt.Errorf("fill order %s: %w", o.ID, ferr)
		}
	}

	e.pending = remaining
	return fills, nil
}

func (e *Engine) slip() {
	e.fillSlips++
	e.metrics.slip()
}

func (e *Engine) recordEquity(now time.Time) error {
	if e.journal == nil {
		return nil
	}
	return e.journal.RecordEquity(journal.EquitySnapshot{
		Time:     now,
		Equity:   e.tracker.Equity(),
		Position: e.tracker.SignedSize(),
		Trades:   len(e.tracker.trades),
	})
}

func (e *Engine) place(o *broker.Order) (string, error) {
	now, err := e.clock.Now()
	if err != nil {
		return "", fmt.Errorf("place %v: %w", o.Type, err)
	}
	o.TimeSent = now
	if o.Size == 0 {
		o.Size = e.cfg.ContractCount
	}
	if o.Type.IsTrailing() && e.lastTick != nil {
		peak := e.lastTick.High
		if o.Action.IsBuying() {
			peak = e.lastTick.Low
		}
		o.Peak = &peak
	}
	if err := o.Validate(); err != nil {
		return "", fmt.Errorf("place %v: %w", o.Type, err)
	}

	o.ID = e.ids.New(now)
	e.pending = append(e.pending, o)
	e.log.Debug("order placed", zap.String("order", o.ID), zap.Stringer("details", o))
	return o.ID, nil
}

func (e *Engine) newOrder(action broker.OrderAction, typ broker.OrderType, size int) *broker.Order {
	return broker.NewOrder(action, typ, size, time.Time{})
}

func (e *Engine) ptr(v float64) *market.Price {
	p := e.price(v)
	return &p
}

// PlaceMarket queues a market order. A zero size means ContractCount.
func (e *Engine) PlaceMarket(action broker.OrderAction, size int) (string, error) {
	return e.place(e.newOrder(action, broker.Market, size))
}

func (e *Engine) PlaceLimit(action broker.OrderAction, limit float64, size int) (string, error) {
	o := e.newOrder(action, broker.Limit, size)
	o.Limit = e.ptr(limit)
	return e.place(o)
}

func (e *Engine) PlaceStopMarket(action broker.OrderAction, stop float64, size int) (string, error) {
	o := e.newOrder(action, broker.StopMarket, size)
	o.Stop = e.ptr(stop)
	return e.place(o)
}

func (e *Engine) PlaceStopLimit(action broker.OrderAction, stop, limit float64, size int) (string, error) {
	o := e.newOrder(action, broker.StopLimit, size)
	o.Stop = e.ptr(stop)
	o.Limit = e.ptr(limit)
	return e.place(o)
}

// PlaceTrailStopMarket queues a stop that trails the best price seen by
// distance. The peak starts at the last tick's low for buys and high for
// sells.
func (e *Engine) PlaceTrailStopMarket(action broker.OrderAction, distance float64, size int) (string, error) {
	o := e.newOrder(action, broker.TrailingStopMarket, size)
	o.Stop = e.ptr(distance)
	return e.place(o)
}

// PlaceTrailStopLimit is PlaceTrailStopMarket with a fixed limit once
// triggered.
func (e *Engine) PlaceTrailStopLimit(action broker.OrderAction, distance, limit float64, size int) (string, error) {
	o := e.newOrder(action, broker.TrailingStopLimit, size)
	o.Stop = e.ptr(distance)
	o.Limit = e.ptr(limit)
	return e.place(o)
}

// ClearPending drops every pending order. It is the only way to cancel.
func (e *Engine) ClearPending() {
	for i := range e.pending {
		e.pending[i] = nil
	}
	e.pending = e.pending[:0]
}

// GoLong clears pending orders and buys enough to end up long
// ContractCount, covering any short first. It returns "" when already long.
func (e *Engine) GoLong() (string, error) {
	e.ClearPending()
	if e.tracker.IsLong() {
		return "", nil
	}
	return e.PlaceMarket(broker.Buy, e.reverseSize())
}

// GoShort mirrors GoLong.
func (e *Engine) GoShort() (string, error) {
	e.ClearPending()
	if e.tracker.IsShort() {
		return "", nil
	}
	return e.PlaceMarket(broker.Sell, e.reverseSize())
}

// GoFlat clears pending orders and closes the whole open position.
func (e *Engine) GoFlat() (string, error) {
	e.ClearPending()
	p := e.tracker.Position()
	if p == nil {
		return "", nil
	}
	action := broker.Buy
	if p.TradeType == Long {
		action = broker.Sell
	}
	return e.PlaceMarket(action, p.Size())
}

func (e *Engine) reverseSize() int {
	size := e.cfg.ContractCount
	if p := e.tracker.Position(); p != nil {
		size += p.Size()
	}
	return size
}

// PendingOrder returns a copy of a pending order.
func (e *Engine) PendingOrder(id string) (broker.Order, bool) {
	for _, o := range e.pending {
		if o.ID == id {
			return copyOrder(o), true
		}
	}
	return broker.Order{}, false
}

// PendingOrders returns copies of the pending orders in evaluation order.
func (e *Engine) PendingOrders() []broker.Order {
	out := make([]broker.Order, len(e.pending))
	for i, o := range e.pending {
		out[i] = copyOrder(o)
	}
	return out
}

func copyOrder(o *broker.Order) broker.Order {
	c := *o
	for _, f := range []**market.Price{&c.Limit, &c.Stop, &c.Peak} {
		if *f != nil {
			v := **f
			*f = &v
		}
	}
	return c
}

// ExecutionDelays returns the placement-to-fill delay of every fill.
func (e *Engine) ExecutionDelays() []time.Duration {
	out := make([]time.Duration, len(e.delays))
	copy(out, e.delays)
	return out
}

// FillSlips counts order evaluations that did not fill.
func (e *Engine) FillSlips() int { return e.fillSlips }

func (e *Engine) Summarize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Number of trades : %d\n", len(e.tracker.trades))
	fmt.Fprintf(&b, "          Equity : %v\n", e.tracker.Equity())
	fmt.Fprintf(&b, "  Fill slip bars : %d", e.fillSlips)
	return b.String()
}
