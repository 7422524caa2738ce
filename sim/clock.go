package sim

import (
	"errors"
	"time"
)

var ErrClockNotStarted = errors.New("clock read before the first tick")

// Clock is the engine's logical time. After the first tick it advances by
// at least step on every tick, whatever the supplied timestamps do.
type Clock struct {
	cur     time.Time
	step    time.Duration
	started bool
}

func NewClock(step time.Duration) *Clock {
	return &Clock{step: step}
}

// Advance moves the clock to max(t, now+step) and returns the new time.
func (c *Clock) Advance(t time.Time) time.Time {
	if !c.started {
		c.cur = t
		c.started = true
		return c.cur
	}
	next := c.cur.Add(c.step)
	if t.After(next) {
		next = t
	}
	c.cur = next
	return c.cur
}

func (c *Clock) Now() (time.Time, error) {
	if !c.started {
		return time.Time{}, ErrClockNotStarted
	}
	return c.cur, nil
}

func (c *Clock) Started() bool { return c.started }
