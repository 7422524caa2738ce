package market

import (
	"errors"
	"fmt"
)

var ErrInvalidRange = errors.New("invalid price range")

// PriceRange is an interval of prices with independently inclusive bounds.
type PriceRange struct {
	Low           Price
	High          Price
	LowInclusive  bool
	HighInclusive bool
}

// NewPriceRange returns a closed range [low, high].
func NewPriceRange(low, high Price) (PriceRange, error) {
	return NewPriceRangeBounds(low, high, true, true)
}

// NewPriceRangeBounds returns a range with the given bound inclusivity. It
// fails when high < low or the currencies differ.
func NewPriceRangeBounds(low, high Price, lowInclusive, highInclusive bool) (PriceRange, error) {
	c, err := high.Compare(low)
	if err != nil {
		return PriceRange{}, err
	}
	if c < 0 {
		return PriceRange{}, fmt.Errorf("%w: low %v above high %v", ErrInvalidRange, low, high)
	}
	return PriceRange{
		Low:           low,
		High:          high,
		LowInclusive:  lowInclusive,
		HighInclusive: highInclusive,
	}, nil
}

// Includes reports whether p falls inside the range.
func (r PriceRange) Includes(p Price) bool {
	fitsLow := r.Low.Less(p)
	if r.LowInclusive {
		fitsLow = r.Low.LessEq(p)
	}
	fitsHigh := p.Less(r.High)
	if r.HighInclusive {
		fitsHigh = p.LessEq(r.High)
	}
	return fitsLow && fitsHigh
}

// HL2 is the midpoint of the range.
func (r PriceRange) HL2() Price {
	return r.Low.Add(r.High).Scale(0.5)
}

func (r PriceRange) String() string {
	lb, hb := "(", ")"
	if r.LowInclusive {
		lb = "["
	}
	if r.HighInclusive {
		hb = "]"
	}
	return fmt.Sprintf("%s%v, %v%s", lb, r.Low, r.High, hb)
}
