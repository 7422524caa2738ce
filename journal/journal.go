// Package journal records realized trades and equity snapshots.
package journal

import "time"

// TimeLayout renders trade times at microsecond precision.
const TimeLayout = "2006-01-02T15:04:05.000000-07:00"

// TradeRecord is the persisted form of one realized trade.
type TradeRecord struct {
	TradeID   string
	RunID     string
	Type      string // "Long" or "Short"
	Size      int
	Profit    float64
	Entry     float64
	Exit      float64
	Cost      float64
	EntryTime time.Time
	ExitTime  time.Time
	RunUp     float64
	DrawDown  float64
}

// Net is profit after cost.
func (t TradeRecord) Net() float64 {
	return t.Profit - t.Cost
}

// EquitySnapshot is written whenever equity changes. Position is signed:
// positive long, negative short.
type EquitySnapshot struct {
	Time     time.Time
	Equity   float64
	Position int
	Trades   int
}

// Journal is an append-only sink. Implementations must persist each record
// before returning.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
