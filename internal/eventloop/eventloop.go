// Package eventloop implements the tick-driven scheduler at the core of
// the system (component F, §4.1 of the spec): a fixed-period ticker that
// advances a monotonic frame counter and dispatches every Event scheduled
// for the current frame, in the order they were scheduled.
//
// The fixed-period ticker-plus-context-cancellation shape is grounded on
// Scheduler.Start in
// _examples/arung-agamani-denpa-radio/internal/playlist/scheduler.go;
// the tick-alignment/drift-correction behavior is new (the teacher's
// scheduler polls on a coarse 1-minute interval and has no drift concept).
package eventloop

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chirpworks/creature-core/internal/clock"
)

// Event is anything the loop can dispatch at a given frame. Dispatch
// receives the loop itself so handlers can reschedule themselves (the
// cooperative PlaybackRunner self-rescheduling model, §4.5 of the spec).
type Event interface {
	Dispatch(loop *Loop)
}

// entry is one scheduled (frame, event) pair, ordered first by frame and
// then by insertion sequence so same-frame events preserve FIFO order.
type entry struct {
	frame uint64
	seq   uint64
	event Event
}

type eventQueue []*entry

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].frame != q[j].frame {
		return q[i].frame < q[j].frame
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)   { *q = append(*q, x.(*entry)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

// Loop is the global tick scheduler. One Loop instance runs for the life
// of the process.
type Loop struct {
	clock clock.Clock
	log   *slog.Logger

	mu      sync.Mutex
	frame   uint64
	queue   eventQueue
	nextSeq uint64

	// driftTicks is the number of consecutive ticks the wall clock has run
	// ahead of schedule by more than one tick period; once it exceeds
	// MaxDriftTicks (on the sixth) the loop rebases its clock instead of
	// trying to catch up frame-by-frame (§4.1).
	driftTicks int

	// flushHooks run once per tick after every due event has dispatched, so
	// the DMX and RTP transports can emit their per-universe per-tick
	// output (§4.1 step 3).
	flushHooks []func(frame clock.Frame)
}

// RegisterFlushHook adds fn to the set of per-tick flush callbacks. Hooks
// run in registration order, after all events due this frame have
// dispatched.
func (l *Loop) RegisterFlushHook(fn func(frame clock.Frame)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushHooks = append(l.flushHooks, fn)
}

// MaxDriftTicks is the consecutive-late-tick threshold that triggers a
// phase reset (§4.1: "reset phase if drift > 5 ticks").
const MaxDriftTicks = 5

// New creates a Loop anchored at the given clock.
func New(c clock.Clock, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{clock: c, log: log}
}

// CurrentFrame returns the frame currently being processed (or about to be,
// before Run starts).
func (l *Loop) CurrentFrame() clock.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// NextFrame returns CurrentFrame()+1, the earliest frame a newly scheduled
// event can land on without racing the loop's own dispatch for the current
// tick.
func (l *Loop) NextFrame() clock.Frame {
	return l.CurrentFrame() + 1
}

// Schedule registers ev to run at frame f. Events scheduled for a frame
// already passed run on the very next tick.
func (l *Loop) Schedule(f clock.Frame, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	heap.Push(&l.queue, &entry{frame: f, seq: l.nextSeq, event: ev})
	l.nextSeq++
}

// Run blocks, advancing one frame per tick period until ctx is cancelled.
// Each tick: dispatch every event scheduled at or before the current frame,
// log slow handlers, then sleep until the next frame's wall time —
// resetting phase if drift has exceeded MaxDriftTicks consecutive late
// ticks.
func (l *Loop) Run(ctx context.Context) {
	l.log.Info("event loop started", "tick_period", l.clock.TickPeriod())

	for {
		select {
		case <-ctx.Done():
			l.log.Info("event loop stopping")
			return
		default:
		}

		l.tick()

		l.mu.Lock()
		hooks := append([]func(clock.Frame){}, l.flushHooks...)
		frame := l.frame
		l.mu.Unlock()
		for _, h := range hooks {
			h(frame)
		}

		target := l.clock.WallTimeForFrame(l.CurrentFrame() + 1)
		now := time.Now()
		if target.After(now) {
			select {
			case <-ctx.Done():
				l.log.Info("event loop stopping")
				return
			case <-time.After(target.Sub(now)):
			}
			l.mu.Lock()
			l.driftTicks = 0
			l.mu.Unlock()
		} else {
			l.mu.Lock()
			l.driftTicks++
			drifted := l.driftTicks > MaxDriftTicks
			if drifted {
				l.driftTicks = 0
				l.clock = l.clock.Rebase(l.frame+1, time.Now())
				l.log.Warn("event loop drift exceeded threshold, resetting phase", "frame", l.frame)
			}
			l.mu.Unlock()
		}

		l.mu.Lock()
		l.frame++
		l.mu.Unlock()
	}
}

// tick dispatches every event due at or before the current frame.
func (l *Loop) tick() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 || l.queue[0].frame > l.frame {
			l.mu.Unlock()
			return
		}
		e := heap.Pop(&l.queue).(*entry)
		l.mu.Unlock()

		start := time.Now()
		e.event.Dispatch(l)
		if elapsed := time.Since(start); elapsed > l.clock.TickPeriod()/2 {
			l.log.Warn("event handler took too long and may have caused a tick to be missed",
				"frame", l.frame, "duration", elapsed)
		}
	}
}
