// Package playback implements the PlaybackSession/PlaybackRunner
// cooperative scheduling model (components G and H, §4.5 of the spec): a
// session is an immutable descriptor plus one atomic cancel flag, and a
// runner is a self-rescheduling eventloop.Event that drives it one frame at
// a time.
package playback

import (
	"sync"
	"sync/atomic"

	"github.com/chirpworks/creature-core/internal/clock"
)

// EndReason is why a session stopped producing frames.
type EndReason int

const (
	EndCompleted EndReason = iota
	EndCancelled
	EndError
)

func (r EndReason) String() string {
	switch r {
	case EndCompleted:
		return "completed"
	case EndCancelled:
		return "cancelled"
	case EndError:
		return "error"
	default:
		return "unknown"
	}
}

// Lifecycle holds a session's optional callbacks. Any of them may be nil.
type Lifecycle struct {
	OnStart func()
	OnFrame func(frame clock.Frame)
	OnEnd   func(reason EndReason)
}

// DMXWriter is the subset of universe.Universe a session writes animation
// frames to.
type DMXWriter interface {
	WriteAnimation(channelOffset int, data []byte) error
}

// AudioEmitter hands one tick's 17-channel Opus frames to the RTP
// transport.
type AudioEmitter interface {
	EmitTick(rtpTimestamp uint32, channelFrames [17][]byte) error
}

// SessionClearer is implemented by session.Manager. Defined here, not in
// package session, so playback never imports session — avoiding an import
// cycle (session imports playback to hold *Session values).
//
// ClearCurrentSession must only null the universe's current_session when it
// still equals ended: a terminal Runner dispatch calls this after s.end(),
// and s.end() may synchronously have run an OnEnd hook (e.g. a playlist's
// advance-and-reschedule) that already replaced current_session with a new,
// live session. An unconditional clear would null that new session's
// pointer out from under it, so the manager must identity-check before
// clearing.
type SessionClearer interface {
	ClearCurrentSession(universeID uint32, ended *Session)
}

// Track resolves one animation track to its target universe's writer.
type Track struct {
	Writer        DMXWriter
	ChannelOffset int
	Frames        [][]byte
}

// Session is an immutable playback descriptor plus the one piece of
// mutable state every component needs to share: the cancel flag.
type Session struct {
	ID           string
	UniverseID   uint32
	StartFrame   clock.Frame
	LengthFrames int
	Tracks       []Track

	// Audio is nil when the animation has no sound file.
	Audio          AudioEmitter
	AudioFrames    [][17][]byte // per-tick 17-channel Opus frames, index k
	RTPBase        uint32

	Lifecycle Lifecycle

	cancelled atomic.Bool
	endOnce   sync.Once
	ended     atomic.Bool
}

// NewSession builds a Session from a resolved Animation. Callers resolve
// each Track's creature to a DMXWriter via model.CreatureDirectory before
// calling this.
func NewSession(id string, universeID uint32, startFrame clock.Frame, lengthFrames int, tracks []Track, lc Lifecycle) *Session {
	return &Session{
		ID:           id,
		UniverseID:   universeID,
		StartFrame:   startFrame,
		LengthFrames: lengthFrames,
		Tracks:       tracks,
		Lifecycle:    lc,
	}
}

// Cancel sets the cooperative cancel flag. The runner observes it within
// one tick (§4.5 invariant).
func (s *Session) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (s *Session) Cancelled() bool {
	return s.cancelled.Load()
}

// end calls on_end exactly once, per the §4.5 invariant.
func (s *Session) end(reason EndReason) {
	s.endOnce.Do(func() {
		s.ended.Store(true)
		if s.Lifecycle.OnEnd != nil {
			s.Lifecycle.OnEnd(reason)
		}
	})
}

