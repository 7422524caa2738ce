package replay

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rustyeddy/slipstream/broker"
	"github.com/rustyeddy/slipstream/market"
	"github.com/rustyeddy/slipstream/sim"
)

// Events (case-insensitive). size is optional and defaults to the
// engine's contract count.
//
//	LONG, SHORT, FLAT
//	MARKET            action [size]
//	LIMIT             action limit [size]
//	STOP              action stop [size]
//	STOP_LIMIT        action stop limit [size]
//	TRAIL_STOP        action distance [size]
//	TRAIL_STOP_LIMIT  action distance limit [size]
//	CLEAR
const (
	EventLong           = "LONG"
	EventShort          = "SHORT"
	EventFlat           = "FLAT"
	EventMarket         = "MARKET"
	EventLimit          = "LIMIT"
	EventStop           = "STOP"
	EventStopLimit      = "STOP_LIMIT"
	EventTrailStop      = "TRAIL_STOP"
	EventTrailStopLimit = "TRAIL_STOP_LIMIT"
	EventClear          = "CLEAR"
)

// RowSource is a BarSource that can also carry scripted events.
type RowSource interface {
	NextRow() (Row, bool, error)
}

// Options controls how replay behaves.
type Options struct {
	// EventFirst applies a row's event before its bar is evaluated. By
	// default the bar goes first so orders are stamped with the bar's time.
	EventFirst bool

	// Rows outside [From, To) are skipped with their events. A zero bound
	// is open.
	From time.Time
	To   time.Time
}

func (o Options) includes(t time.Time) bool {
	if !o.From.IsZero() && t.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && !t.Before(o.To) {
		return false
	}
	return true
}

// Result counts what a replay did.
type Result struct {
	Bars   int
	Events int
	Orders []string
}

// Run feeds every bar of src to eng. When src is a RowSource its events
// are applied too. It stops at the first error or when ctx is done.
func Run(ctx context.Context, src market.BarSource, eng *sim.Engine, opts Options) (Result, error) {
	var res Result
	rows, _ := src.(RowSource)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		var (
			row Row
			ok  bool
			err error
		)
		if rows != nil {
			row, ok, err = rows.NextRow()
		} else {
			row.Bar, ok, err = src.Next()
		}
		if err != nil {
			return res, err
		}
		if !ok {
			return res, nil
		}
		if !opts.includes(row.Bar.Time) {
			continue
		}

		if opts.EventFirst && row.Event != "" {
			if err := res.apply(eng, row); err != nil {
				return res, err
			}
		}
		if err := eng.EvalMarket(row.Bar.Time, row.Bar.High, row.Bar.Low); err != nil {
			return res, err
		}
		res.Bars++
		if !opts.EventFirst && row.Event != "" {
			if err := res.apply(eng, row); err != nil {
				return res, err
			}
		}
	}
}

func (r *Result) apply(eng *sim.Engine, row Row) error {
	id, err := Apply(eng, row.Event, row.Args)
	if err != nil {
		return fmt.Errorf("%s at %s: %w", row.Event, row.Bar.Time.Format(time.RFC3339Nano), err)
	}
	r.Events++
	if id != "" {
		r.Orders = append(r.Orders, id)
	}
	return nil
}

// Apply runs one scripted event against eng and returns the ID of the
// order it placed, if any.
func Apply(eng *sim.Engine, event string, args []string) (string, error) {
	a := argList(args)

	switch event {
	case EventLong:
		return eng.GoLong()
	case EventShort:
		return eng.GoShort()
	case EventFlat:
		return eng.GoFlat()
	case EventClear:
		eng.ClearPending()
		return "", nil
	}

	action, err := a.action(0)
	if err != nil {
		return "", err
	}

	switch event {
	case EventMarket:
		size, err := a.size(1)
		if err != nil {
			return "", err
		}
		return eng.PlaceMarket(action, size)

	case EventLimit:
		limit, err := a.float(1, "limit")
		if err != nil {
			return "", err
		}
		size, err := a.size(2)
		if err != nil {
			return "", err
		}
		return eng.PlaceLimit(action, limit, size)

	case EventStop:
		stop, err := a.float(1, "stop")
		if err != nil {
			return "", err
		}
		size, err := a.size(2)
		if err != nil {
			return "", err
		}
		return eng.PlaceStopMarket(action, stop, size)

	case EventStopLimit:
		stop, err := a.float(1, "stop")
		if err != nil {
			return "", err
		}
		limit, err := a.float(2, "limit")
		if err != nil {
			return "", err
		}
		size, err := a.size(3)
		if err != nil {
			return "", err
		}
		return eng.PlaceStopLimit(action, stop, limit, size)

	case EventTrailStop:
		dist, err := a.float(1, "distance")
		if err != nil {
			return "", err
		}
		size, err := a.size(2)
		if err != nil {
			return "", err
		}
		return eng.PlaceTrailStopMarket(action, dist, size)

	case EventTrailStopLimit:
		dist, err := a.float(1, "distance")
		if err != nil {
			return "", err
		}
		limit, err := a.float(2, "limit")
		if err != nil {
			return "", err
		}
		size, err := a.size(3)
		if err != nil {
			return "", err
		}
		return eng.PlaceTrailStopLimit(action, dist, limit, size)
	}

	return "", fmt.Errorf("unknown event %q", event)
}

type argList []string

func (a argList) action(i int) (broker.OrderAction, error) {
	if i >= len(a) || a[i] == "" {
		return 0, fmt.Errorf("missing action")
	}
	return broker.ParseOrderAction(a[i])
}

func (a argList) float(i int, name string) (float64, error) {
	if i >= len(a) || a[i] == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseFloat(a[i], 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", name, a[i], err)
	}
	return v, nil
}

func (a argList) size(i int) (int, error) {
	if i >= len(a) || a[i] == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(a[i])
	if err != nil {
		return 0, fmt.Errorf("bad size %q: %w", a[i], err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size %d: %w", n, broker.ErrInvalidSize)
	}
	return n, nil
}
