package market

import "fmt"

// Currency is an ISO 4217 code. It is used for tagging and display only.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	KRW Currency = "KRW"
	HKD Currency = "HKD"
)

var symbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
	JPY: "¥",
	KRW: "₩",
	HKD: "HK$",
}

// Symbol returns the display symbol, falling back to the code itself.
func (c Currency) Symbol() string {
	if s, ok := symbols[c]; ok {
		return s
	}
	return string(c)
}

// Format renders v with the currency symbol and two decimals.
func (c Currency) Format(v float64) string {
	return fmt.Sprintf("%s%.2f", c.Symbol(), v)
}
