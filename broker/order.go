package broker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/slipstream/market"
)

var (
	ErrInvalidSize     = errors.New("order size must be positive")
	ErrMissingLimit    = errors.New("order requires a limit price")
	ErrMissingStop     = errors.New("order requires a stop price")
	ErrMissingTimeSent = errors.New("order has no sent time")
	ErrMissingPeak     = errors.New("trailing order has no peak")
)

type OrderAction int

const (
	Buy OrderAction = iota + 1
	Sell
	SellShort
	BuyToCover
)

// Opposite returns the action that unwinds a.
func (a OrderAction) Opposite() OrderAction {
	switch a {
	case Buy:
		return Sell
	case Sell:
		return Buy
	case SellShort:
		return BuyToCover
	case BuyToCover:
		return SellShort
	}
	panic(fmt.Sprintf("broker: unknown order action %d", int(a)))
}

func (a OrderAction) IsBuying() bool {
	return a == Buy || a == BuyToCover
}

func (a OrderAction) String() string {
	switch a {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	case SellShort:
		return "SellShort"
	case BuyToCover:
		return "BuyToCover"
	}
	return fmt.Sprintf("OrderAction(%d)", int(a))
}

// ParseOrderAction accepts BUY, SELL, SELL_SHORT / SELLSHORT / SHORT and
// BUY_TO_COVER / BUYTOCOVER / COVER in any case.
func ParseOrderAction(s string) (OrderAction, error) {
	switch strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "_", "") {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	case "SELLSHORT", "SHORT":
		return SellShort, nil
	case "BUYTOCOVER", "COVER":
		return BuyToCover, nil
	}
	return 0, fmt.Errorf("unknown order action %q", s)
}

type OrderType int

const (
	Market OrderType = iota + 1
	Limit
	StopMarket
	StopLimit
	TrailingStopMarket
	TrailingStopLimit
)

func (t OrderType) IsStop() bool {
	switch t {
	case StopMarket, StopLimit, TrailingStopMarket, TrailingStopLimit:
		return true
	}
	return false
}

func (t OrderType) IsTrailing() bool {
	return t == TrailingStopMarket || t == TrailingStopLimit
}

// IsMarketClass reports whether an active order of this type fills
// unconditionally.
func (t OrderType) IsMarketClass() bool {
	return t == Market || t == StopMarket || t == TrailingStopMarket
}

// IsLimitClass reports whether an active order of this type fills only at
// its limit.
func (t OrderType) IsLimitClass() bool {
	return t == Limit || t == StopLimit || t == TrailingStopLimit
}

func (t OrderType) String() string {
	switch t {
	case Market:
		return "Market"
	case Limit:
		return "Limit"
	case StopMarket:
		return "StopMarket"
	case StopLimit:
		return "StopLimit"
	case TrailingStopMarket:
		return "TrailingStopMarket"
	case TrailingStopLimit:
		return "TrailingStopLimit"
	}
	return fmt.Sprintf("OrderType(%d)", int(t))
}

// Order is an intent to trade. For trailing types Stop holds the trailing
// distance and Peak the best price seen since placement.
type Order struct {
	ID        string
	Action    OrderAction
	Size      int
	Type      OrderType
	Limit     *market.Price
	Stop      *market.Price
	Peak      *market.Price
	TimeSent  time.Time
	Activated bool
}

// NewOrder builds an order with Activated set for its type.
func NewOrder(action OrderAction, typ OrderType, size int, sent time.Time) *Order {
	return &Order{
		Action:    action,
		Size:      size,
		Type:      typ,
		TimeSent:  sent,
		Activated: !typ.IsStop(),
	}
}

// Validate checks the fields required by the order's type.
func (o *Order) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, o.Size)
	}
	if o.TimeSent.IsZero() {
		return ErrMissingTimeSent
	}
	if o.Type.IsLimitClass() && o.Limit == nil {
		return fmt.Errorf("%v: %w", o.Type, ErrMissingLimit)
	}
	if o.Type.IsStop() && o.Stop == nil {
		return fmt.Errorf("%v: %w", o.Type, ErrMissingStop)
	}
	if o.Type.IsTrailing() && o.Stop.Value <= 0 {
		return fmt.Errorf("%v: trailing distance must be positive", o.Type)
	}
	return nil
}

// Activate marks a stop order live. It is one-way.
func (o *Order) Activate() {
	o.Activated = true
}

func (o Order) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v %v %d", o.Action, o.Type, o.Size)
	if o.Limit != nil {
		fmt.Fprintf(&b, " limit=%v", *o.Limit)
	}
	if o.Stop != nil {
		fmt.Fprintf(&b, " stop=%v", *o.Stop)
	}
	return b.String()
}
