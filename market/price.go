package market

import (
	"errors"
	"fmt"
)

// ErrCurrencyMismatch is returned (or panicked with) when two prices tagged
// with different currencies are compared or combined.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// CurrencyMismatchError carries the two offending currencies.
type CurrencyMismatchError struct {
	Left, Right Currency
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %s vs %s", e.Left, e.Right)
}

func (e *CurrencyMismatchError) Is(target error) bool {
	return target == ErrCurrencyMismatch
}

// Price is a signed scalar with an optional currency tag. An untagged price
// is compatible with every currency.
type Price struct {
	Value    float64
	Currency Currency
}

// P returns an untagged price.
func P(v float64) Price {
	return Price{Value: v}
}

// NewPrice returns a price tagged with cur.
func NewPrice(v float64, cur Currency) Price {
	return Price{Value: v, Currency: cur}
}

func (p Price) check(o Price) error {
	if p.Currency == "" || o.Currency == "" || p.Currency == o.Currency {
		return nil
	}
	return &CurrencyMismatchError{Left: p.Currency, Right: o.Currency}
}

func (p Price) mustCheck(o Price) {
	if err := p.check(o); err != nil {
		panic(err)
	}
}

// Add returns p+o in p's currency. It panics on a currency mismatch.
func (p Price) Add(o Price) Price {
	p.mustCheck(o)
	return Price{Value: p.Value + o.Value, Currency: p.Currency}
}

// Sub returns p-o in p's currency. It panics on a currency mismatch.
func (p Price) Sub(o Price) Price {
	p.mustCheck(o)
	return Price{Value: p.Value - o.Value, Currency: p.Currency}
}

// Mul returns p*o in p's currency. It panics on a currency mismatch.
func (p Price) Mul(o Price) Price {
	p.mustCheck(o)
	return Price{Value: p.Value * o.Value, Currency: p.Currency}
}

// Div returns p/o in p's currency. It panics on a currency mismatch.
func (p Price) Div(o Price) Price {
	p.mustCheck(o)
	return Price{Value: p.Value / o.Value, Currency: p.Currency}
}

// Scale multiplies p by a plain factor.
func (p Price) Scale(f float64) Price {
	return Price{Value: p.Value * f, Currency: p.Currency}
}

// Compare returns -1, 0 or +1 as p is less than, equal to or greater than o.
func (p Price) Compare(o Price) (int, error) {
	if err := p.check(o); err != nil {
		return 0, err
	}
	switch {
	case p.Value < o.Value:
		return -1, nil
	case p.Value > o.Value:
		return 1, nil
	}
	return 0, nil
}

func (p Price) mustCompare(o Price) int {
	c, err := p.Compare(o)
	if err != nil {
		panic(err)
	}
	return c
}

func (p Price) Less(o Price) bool      { return p.mustCompare(o) < 0 }
func (p Price) LessEq(o Price) bool    { return p.mustCompare(o) <= 0 }
func (p Price) Greater(o Price) bool   { return p.mustCompare(o) > 0 }
func (p Price) GreaterEq(o Price) bool { return p.mustCompare(o) >= 0 }
func (p Price) Equal(o Price) bool     { return p.mustCompare(o) == 0 }

// Min returns the smaller of p and o.
func (p Price) Min(o Price) Price {
	if o.Less(p) {
		return o
	}
	return p
}

// Max returns the larger of p and o.
func (p Price) Max(o Price) Price {
	if o.Greater(p) {
		return o
	}
	return p
}

func (p Price) String() string {
	if p.Currency == "" {
		return fmt.Sprintf("$%.2f", p.Value)
	}
	return p.Currency.Format(p.Value)
}
