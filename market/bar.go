package market

import "time"

// Bar is one element of a price series: the extremes seen over an interval
// ending at Time. Close is optional and zero when the source lacks it.
type Bar struct {
	Time  time.Time
	High  float64
	Low   float64
	Close float64
}

// Range returns the closed [Low, High] range of the bar tagged with cur.
func (b Bar) Range(cur Currency) (PriceRange, error) {
	return NewPriceRange(NewPrice(b.Low, cur), NewPrice(b.High, cur))
}

// BarSource yields bars in order until ok is false.
type BarSource interface {
	Next() (bar Bar, ok bool, err error)
}
