// Package universe implements the per-universe DMX state vector and its
// merge rules (§3, §4.2 of the spec): the single 512-slot byte vector each
// universe emits once per tick, with interrupt > stream > animation
// priority on overlapping writes and sticky persistence of animation and
// interrupt state across ticks.
package universe

import (
	"sync"

	"github.com/chirpworks/creature-core/internal/coreerr"
	"github.com/chirpworks/creature-core/internal/eventloop"
)

// SlotCount is the number of addressable DMX data slots, 1..512. Index 0 of
// the underlying array is always the START code and is never addressable by
// writers.
const SlotCount = 512

// Universe is the singleton state vector for one DMX universe id. It is
// created on first reference and never destroyed for the lifetime of the
// process (§3 of the spec).
type Universe struct {
	ID uint32

	mu sync.Mutex

	// base holds the sticky state: the last value written by an animation
	// or interrupt source, persisted across ticks. Index 0 is always 0.
	base [SlotCount + 1]byte

	// Per-tick overlays, reset after each Merge call.
	animTouched      [SlotCount + 1]bool
	animVal          [SlotCount + 1]byte
	streamTouched    [SlotCount + 1]bool
	streamVal        [SlotCount + 1]byte
	interruptTouched [SlotCount + 1]bool
	interruptVal     [SlotCount + 1]byte

	Sequence         uint8
	LastEmittedFrame uint64
	everTouched      bool
}

// New creates a fresh Universe with all slots zeroed.
func New(id uint32) *Universe {
	return &Universe{ID: id}
}

func validateWrite(channelOffset int, data []byte) error {
	if channelOffset < 1 {
		return coreerr.InvalidData("universe write: channel_offset %d must be >= 1 (slot 0 is the START code)", channelOffset)
	}
	if channelOffset+len(data) > SlotCount+1 {
		return coreerr.InvalidData("universe write: channel_offset %d + len %d crosses slot %d", channelOffset, len(data), SlotCount+1)
	}
	return nil
}

// WriteAnimation records one tick's worth of animation-sourced bytes.
// Animation writes are sticky: once a slot is written it keeps that value on
// subsequent ticks until a new animation or interrupt write changes it.
func (u *Universe) WriteAnimation(channelOffset int, data []byte) error {
	return u.write(channelOffset, data, u.animTouched[:], u.animVal[:])
}

// WriteStream records one tick's worth of live-stream-sourced bytes. Stream
// writes are ephemeral: they win for this tick's emitted packet but do not
// persist into the sticky base, so the next tick reverts to whatever
// animation/interrupt state holds that slot (§4.2, scenario 4).
func (u *Universe) WriteStream(channelOffset int, data []byte) error {
	return u.write(channelOffset, data, u.streamTouched[:], u.streamVal[:])
}

// WriteInterrupt records one tick's worth of interrupt-sourced bytes.
// Interrupt writes are sticky like animation writes, and take priority over
// both other sources on overlap.
func (u *Universe) WriteInterrupt(channelOffset int, data []byte) error {
	return u.write(channelOffset, data, u.interruptTouched[:], u.interruptVal[:])
}

func (u *Universe) write(channelOffset int, data []byte, touched []bool, val []byte) error {
	if err := validateWrite(channelOffset, data); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, b := range data {
		idx := channelOffset + i
		touched[idx] = true
		val[idx] = b
	}
	u.everTouched = true
	return nil
}

// Merge combines this tick's writes into a 512-byte slot vector (index 0 is
// the implicit START code, not included in the returned slice — callers
// prepend it when building the wire packet) and resets the per-tick
// overlays. It applies the sticky update to base (animation, then
// interrupt — interrupt wins on overlap) before overlaying the ephemeral
// stream bytes for emission only.
func (u *Universe) Merge() (slots [SlotCount]byte, touchedThisTick bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	touchedThisTick = false
	for i := 1; i <= SlotCount; i++ {
		if u.animTouched[i] {
			u.base[i] = u.animVal[i]
			touchedThisTick = true
		}
		if u.interruptTouched[i] {
			u.base[i] = u.interruptVal[i]
			touchedThisTick = true
		}
	}
	if touchedThisTick {
		u.everTouched = true
	}

	tick := u.base
	for i := 1; i <= SlotCount; i++ {
		// A stream fragment is ephemeral and never sticky, but an interrupt
		// touching this same slot this tick must still win on overlap (§4.2
		// priority: interrupt > stream > animation).
		if u.streamTouched[i] && !u.interruptTouched[i] {
			tick[i] = u.streamVal[i]
			touchedThisTick = true
		}
	}
	tick[0] = 0

	copy(slots[:], tick[1:])

	for i := range u.animTouched {
		u.animTouched[i] = false
		u.streamTouched[i] = false
		u.interruptTouched[i] = false
	}

	return slots, touchedThisTick
}

// EverTouched reports whether this universe has ever received a write,
// which gates keepalive emission (§4.3, §8 scenario 5: a universe that has
// never been written to or marked via MarkTouched is not emitted, even if
// Registry.Get has created it; once touched it is emitted every tick
// forever).
func (u *Universe) EverTouched() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.everTouched
}

// MarkTouched forces EverTouched to true without writing any slots, so
// keepalive begins before the first write lands. Nothing in the core calls
// it: session.Manager.StartPlaylist does not, so a universe bound by
// start_playlist is emitted only once its first write lands.
func (u *Universe) MarkTouched() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.everTouched = true
}

// Registry owns the singleton Universe per id, created on first reference.
type Registry struct {
	mu        sync.Mutex
	universes map[uint32]*Universe
}

// NewRegistry returns an empty universe registry.
func NewRegistry() *Registry {
	return &Registry{universes: make(map[uint32]*Universe)}
}

// Get returns the Universe for id, creating it if this is the first
// reference.
func (r *Registry) Get(id uint32) *Universe {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.universes[id]
	if !ok {
		u = New(id)
		r.universes[id] = u
	}
	return u
}

// Writer returns id's Universe as an eventloop.DMXWriter, so callers such
// as internal/ingress never need to import this package directly.
func (r *Registry) Writer(id uint32) eventloop.DMXWriter {
	return r.Get(id)
}

// All returns every universe created so far, in no particular order.
func (r *Registry) All() []*Universe {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Universe, 0, len(r.universes))
	for _, u := range r.universes {
		out = append(out, u)
	}
	return out
}
