package session

import (
	"context"
	"time"
)

// Sleep pauses for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Countdown invokes a callback a fixed number of times at a fixed interval.
type Countdown struct {
	Interval time.Duration
	Ticks    int
	// Immediate fires the first tick without waiting an interval.
	Immediate bool
}

// Run fires the ticks in order, passing the zero-based tick index. It returns
// nil once every tick has fired or tick returns false, and ctx.Err() if ctx is
// cancelled first. Ticks never overlap and Run returns exactly once.
func (c Countdown) Run(ctx context.Context, tick func(i int) bool) error {
	if c.Ticks <= 0 {
		return nil
	}

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for i := range c.Ticks {
		if i > 0 || !c.Immediate {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if !tick(i) {
			return nil
		}
	}
	return nil
}

// Remaining returns how long is left on the countdown after the given number of ticks.
func (c Countdown) Remaining(fired int) time.Duration {
	left := c.Ticks - fired
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * c.Interval
}
