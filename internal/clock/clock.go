// Package clock provides the monotonic tick source shared by every
// component that needs to convert between frame numbers and wall time.
package clock

import "time"

// Frame is the unit of the global scheduling quantum: one tick, 20 ms by
// default (§3 of the spec). Frame 0 is the tick at process start.
type Frame = uint64

// Clock converts between frame numbers and wall-clock time for a fixed tick
// period anchored at a start instant. It holds no mutable state — the
// EventLoop owns the live frame counter; Clock is the pure conversion used
// by it and by anything reporting frame-relative timestamps.
type Clock struct {
	start      time.Time
	tickPeriod time.Duration
}

// New returns a Clock anchored at start with the given tick period. A
// zero tickPeriod is rejected by callers before use; New itself does not
// validate since it is typically constructed once from trusted config.
func New(start time.Time, tickPeriod time.Duration) Clock {
	return Clock{start: start, tickPeriod: tickPeriod}
}

// TickPeriod returns the configured tick period (20 ms / 50 Hz by default).
func (c Clock) TickPeriod() time.Duration { return c.tickPeriod }

// WallTimeForFrame returns the wall-clock instant at which frame f begins.
func (c Clock) WallTimeForFrame(f Frame) time.Time {
	return c.start.Add(time.Duration(f) * c.tickPeriod)
}

// FrameForWallTime returns the frame number that is current (or most
// recently started) at wall-clock instant t. Instants before the clock's
// start resolve to frame 0.
func (c Clock) FrameForWallTime(t time.Time) Frame {
	elapsed := t.Sub(c.start)
	if elapsed <= 0 {
		return 0
	}
	return Frame(elapsed / c.tickPeriod)
}

// Start returns the instant the clock was anchored at (process start, or
// the most recent drift-correction rebase — see eventloop.Run).
func (c Clock) Start() time.Time { return c.start }

// Rebase returns a new Clock anchored so that frame f begins now. Used by
// the EventLoop to reset phase after excessive drift (§4.1).
func (c Clock) Rebase(f Frame, now time.Time) Clock {
	return Clock{start: now.Add(-time.Duration(f) * c.tickPeriod), tickPeriod: c.tickPeriod}
}
