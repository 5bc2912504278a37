// Package model holds the value types shared across the playback core:
// Animation, Track, and the stream fragments fed in by operator consoles.
// Persistence and DTO conversion for these types live outside the core
// (§1 of the spec) — this package only carries the shapes the core acts on.
package model

import "github.com/chirpworks/creature-core/internal/coreerr"

// AnimationMetadata describes an Animation independent of its frame data.
type AnimationMetadata struct {
	Title               string
	MillisecondsPerFrame int // always 20 for the core
	SoundFile           string // optional
	NumberOfFrames      int
	MultitrackAudio     bool
}

// Track is one creature's slice of an Animation: a channel offset into the
// owning universe and an ordered list of per-frame servo-position byte
// vectors.
type Track struct {
	CreatureID    string
	ChannelOffset int
	Frames        [][]byte
}

// Animation is an ordered set of Tracks sharing a frame count, plus
// metadata. ID is opaque — the core never interprets it beyond using it as a
// map/log key.
type Animation struct {
	ID       string
	Metadata AnimationMetadata
	Tracks   []Track
}

// Validate checks the invariants from §3 of the spec: every track's
// channel_offset is >= 1 (slot 0 is the DMX START code), channel_offset +
// len(frame) never crosses slot 513, and every track has exactly
// NumberOfFrames frames.
func (a *Animation) Validate() error {
	if a.Metadata.NumberOfFrames < 0 {
		return coreerr.InvalidData("animation %q: negative number_of_frames", a.ID)
	}
	for i, tr := range a.Tracks {
		if tr.ChannelOffset < 1 {
			return coreerr.InvalidData("animation %q: track %d channel_offset %d must be >= 1", a.ID, i, tr.ChannelOffset)
		}
		if len(tr.Frames) != a.Metadata.NumberOfFrames {
			return coreerr.InvalidData("animation %q: track %d has %d frames, want %d", a.ID, i, len(tr.Frames), a.Metadata.NumberOfFrames)
		}
		for k, frame := range tr.Frames {
			if tr.ChannelOffset+len(frame) > 513 {
				return coreerr.InvalidData("animation %q: track %d frame %d exceeds slot 513 (offset %d, len %d)", a.ID, i, k, tr.ChannelOffset, len(frame))
			}
		}
	}
	return nil
}

// StreamFragment is a single live, per-tick DMX fragment submitted by an
// operator console, already resolved to a creature. The ingress component
// (§4.7/§4.8 of the spec) resolves CreatureID to a (universe, channel
// offset) pair via CreatureDirectory before scheduling it.
type StreamFragment struct {
	CreatureID string
	Data       []byte
}

// CreatureDirectory resolves a creature id to the universe and channel
// offset it is wired to. The directory itself (backed by the document
// store) is out of scope for the core; only this interface is.
type CreatureDirectory interface {
	Resolve(creatureID string) (universeID uint32, channelOffset int, err error)
}
