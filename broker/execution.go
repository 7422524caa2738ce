package broker

import (
	"fmt"
	"time"

	"github.com/rustyeddy/slipstream/market"
)

type ExecutionResult int

const (
	Unknown ExecutionResult = iota
	Whole
	Partial
	Expired
)

func (r ExecutionResult) String() string {
	switch r {
	case Whole:
		return "Whole"
	case Partial:
		return "Partial"
	case Expired:
		return "Expired"
	}
	return "Unknown"
}

// OrderExecution is a realized fill. It refers back to its order by ID and
// carries copies of the order fields accounting needs.
type OrderExecution struct {
	OrderID   string
	Action    OrderAction
	OrderType OrderType
	Price     market.Price
	Size      int
	Cost      float64
	Result    ExecutionResult

	TimeReceived time.Time
	TimeExecuted time.Time
}

// NewExecution builds an execution of o. A zero size with a Whole result
// means the order's full size.
func NewExecution(o *Order, price market.Price, size int, cost float64, result ExecutionResult) OrderExecution {
	if size == 0 && result == Whole {
		size = o.Size
	}
	return OrderExecution{
		OrderID:      o.ID,
		Action:       o.Action,
		OrderType:    o.Type,
		Price:        price,
		Size:         size,
		Cost:         cost,
		Result:       result,
		TimeReceived: o.TimeSent,
	}
}

// PartialCost prorates the execution cost to size units.
func (e OrderExecution) PartialCost(size int) float64 {
	if size <= 0 || e.Size <= 0 {
		panic(fmt.Sprintf("broker: partial cost of %d from execution of %d", size, e.Size))
	}
	return e.Cost * (float64(size) / float64(e.Size))
}

// PartialCostRatio prorates the execution cost by ratio, which must be in [0, 1].
func (e OrderExecution) PartialCostRatio(ratio float64) float64 {
	if ratio < 0 || ratio > 1 {
		panic(fmt.Sprintf("broker: cost ratio %v out of [0, 1]", ratio))
	}
	return e.Cost * ratio
}

// Shrink returns the execution left after by units are consumed. Cost is
// reduced in proportion.
func (e OrderExecution) Shrink(by int) OrderExecution {
	rest := e
	rest.Size = e.Size - by
	if rest.Size <= 0 {
		rest.Size = 0
		rest.Cost = 0
		return rest
	}
	rest.Cost = e.Cost * (float64(rest.Size) / float64(e.Size))
	return rest
}

func (e OrderExecution) String() string {
	var verb string
	switch e.Action {
	case Buy:
		verb = "Bought"
	case Sell:
		verb = "Sold"
	case SellShort:
		verb = "Shorted"
	case BuyToCover:
		verb = "Covered"
	default:
		verb = e.Action.String()
	}
	return fmt.Sprintf("%s %d at %v", verb, e.Size, e.Price)
}
