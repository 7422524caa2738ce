package sim

import "github.com/rustyeddy/slipstream/market"

// Profit is the gross P/L of size units moved from entry to exit, scaled by
// the contract multiplier. Positive is profit for either side.
func Profit(typ TradeType, size int, entry, exit market.Price, mult float64) float64 {
	return typ.sign() * float64(size) * exit.Sub(entry).Value * mult
}

// UnrealizedPL marks p to mark.
func UnrealizedPL(p *Position, mark market.Price, mult float64) float64 {
	return Profit(p.TradeType, p.Size(), p.Entry, mark, mult)
}
