package sim

import (
	"fmt"

	"github.com/rustyeddy/slipstream/broker"
	"github.com/rustyeddy/slipstream/market"
)

// evalTrigger moves a trailing order's peak and activates a stop order once
// the tick reaches its trigger. Activated orders are left alone.
func evalTrigger(o *broker.Order, tick market.PriceRange) error {
	if !o.Type.IsStop() || o.Activated {
		return nil
	}

	trigger := *o.Stop
	if o.Type.IsTrailing() {
		if o.Peak == nil {
			return fmt.Errorf("order %s: %w", o.ID, broker.ErrMissingPeak)
		}
		var peak market.Price
		if o.Action.IsBuying() {
			peak = o.Peak.Min(tick.Low)
			trigger = peak.Add(*o.Stop)
		} else {
			peak = o.Peak.Max(tick.High)
			trigger = peak.Sub(*o.Stop)
		}
		o.Peak = &peak
	}

	if o.Action.IsBuying() && trigger.LessEq(tick.High) ||
		!o.Action.IsBuying() && trigger.GreaterEq(tick.Low) {
		o.Activate()
	}
	return nil
}

// fillPrice returns the price an active order fills at on this tick.
// Market-class orders always fill at the worst extreme plus slip. Limit-class
// orders fill at their limit when the whole tick is on the right side of it.
func fillPrice(o *broker.Order, tick market.PriceRange, slip market.Price) (market.Price, bool) {
	if !o.Activated {
		return market.Price{}, false
	}

	if o.Type.IsMarketClass() {
		if o.Action.IsBuying() {
			return tick.High.Add(slip), true
		}
		return tick.Low.Sub(slip), true
	}

	limit := *o.Limit
	if o.Action.IsBuying() && limit.GreaterEq(tick.High) ||
		!o.Action.IsBuying() && limit.LessEq(tick.Low) {
		return limit, true
	}
	return market.Price{}, false
}
