package sim

import (
	"time"

	"github.com/rustyeddy/slipstream/journal"
	"github.com/rustyeddy/slipstream/market"
)

// Trade is a realized, immutable round trip of Size units.
type Trade struct {
	ID          string
	Type        TradeType
	Size        int
	Entry       market.Price
	Exit        market.Price
	Cost        float64
	Profit      float64
	RunUp       float64
	DrawDown    float64
	TimeEntered time.Time
	TimeExited  time.Time
}

// Net is profit after cost.
func (t Trade) Net() float64 {
	return t.Profit - t.Cost
}

func (t Trade) Record(runID string) journal.TradeRecord {
	return journal.TradeRecord{
		TradeID:   t.ID,
		RunID:     runID,
		Type:      t.Type.String(),
		Size:      t.Size,
		Profit:    t.Profit,
		Entry:     t.Entry.Value,
		Exit:      t.Exit.Value,
		Cost:      t.Cost,
		EntryTime: t.TimeEntered,
		ExitTime:  t.TimeExited,
		RunUp:     t.RunUp,
		DrawDown:  t.DrawDown,
	}
}
