package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/slipstream/broker"
	"github.com/rustyeddy/slipstream/market"
)

var ErrSideMismatch = errors.New("positions are on opposite sides")

type TradeType int

const (
	Long TradeType = iota + 1
	Short
)

// TradeTypeFromAction returns the side an execution of a opens.
func TradeTypeFromAction(a broker.OrderAction) TradeType {
	if a.IsBuying() {
		return Long
	}
	return Short
}

func (t TradeType) String() string {
	switch t {
	case Long:
		return "Long"
	case Short:
		return "Short"
	}
	return fmt.Sprintf("TradeType(%d)", int(t))
}

// sign is +1 for longs and -1 for shorts.
func (t TradeType) sign() float64 {
	if t == Short {
		return -1
	}
	return 1
}

// Position is one open lot (tranche). Its size only shrinks, and its cost
// shrinks with it.
type Position struct {
	TradeType   TradeType
	Entry       market.Price
	TimeEntered time.Time

	size int
	cost float64

	seen bool
	low  market.Price
	high market.Price
}

// NewPositionFromExecution opens a tranche from a fill.
func NewPositionFromExecution(e broker.OrderExecution) *Position {
	return &Position{
		TradeType:   TradeTypeFromAction(e.Action),
		Entry:       e.Price,
		TimeEntered: e.TimeExecuted,
		size:        e.Size,
		cost:        e.Cost,
	}
}

func (p *Position) Size() int     { return p.size }
func (p *Position) Cost() float64 { return p.cost }

// SetSize reduces the tranche to n units and rescales its cost by n/size.
func (p *Position) SetSize(n int) error {
	if n < 0 || n > p.size {
		return fmt.Errorf("%w: resize %d to %d", broker.ErrInvalidSize, p.size, n)
	}
	if n == p.size {
		return nil
	}
	if n == 0 {
		p.cost = 0
	} else {
		p.cost = p.cost * (float64(n) / float64(p.size))
	}
	p.size = n
	return nil
}

// PartialCost is the share of the tranche's cost carried by size units.
func (p *Position) PartialCost(size int) float64 {
	if p.size == 0 {
		return 0
	}
	return p.cost * (float64(size) / float64(p.size))
}

// Duplicate returns an independent copy.
func (p *Position) Duplicate() *Position {
	c := *p
	return &c
}

// Merge folds o into p: sizes and costs add, entry becomes the size
// weighted average. Only same-side tranches merge.
func (p *Position) Merge(o *Position) error {
	if p.TradeType != o.TradeType {
		return fmt.Errorf("merge %v into %v: %w", o.TradeType, p.TradeType, ErrSideMismatch)
	}
	total := p.size + o.size
	if total > 0 {
		weighted := p.Entry.Scale(float64(p.size)).Add(o.Entry.Scale(float64(o.size)))
		p.Entry = weighted.Div(market.P(float64(total)))
	}
	p.cost += o.cost
	p.size = total
	if o.TimeEntered.Before(p.TimeEntered) {
		p.TimeEntered = o.TimeEntered
	}
	if o.seen {
		p.EvalMarketPrices(o.low, o.high)
	}
	return nil
}

// EvalMarketPrices widens the extremes seen while the tranche is open.
func (p *Position) EvalMarketPrices(prices ...market.Price) {
	for _, px := range prices {
		if !p.seen {
			p.low, p.high, p.seen = px, px, true
			continue
		}
		p.low = p.low.Min(px)
		p.high = p.high.Max(px)
	}
}

// MarketExtremes returns the lowest and highest prices seen; ok is false
// when none were.
func (p *Position) MarketExtremes() (low, high market.Price, ok bool) {
	return p.low, p.high, p.seen
}

// RunUp is the best open profit size units reached, never negative.
func (p *Position) RunUp(size int, mult float64) float64 {
	if !p.seen {
		return 0
	}
	var move float64
	if p.TradeType == Long {
		move = p.high.Value - p.Entry.Value
	} else {
		move = p.Entry.Value - p.low.Value
	}
	return float64(size) * mult * max(0, move)
}

// DrawDown is the worst open loss size units reached, never positive.
func (p *Position) DrawDown(size int, mult float64) float64 {
	if !p.seen {
		return 0
	}
	var move float64
	if p.TradeType == Long {
		move = p.low.Value - p.Entry.Value
	} else {
		move = p.Entry.Value - p.high.Value
	}
	return float64(size) * mult * min(0, move)
}

func (p *Position) String() string {
	return fmt.Sprintf("%v %d at %v", p.TradeType, p.size, p.Entry)
}
