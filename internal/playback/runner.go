package playback

import (
	"log/slog"

	"github.com/chirpworks/creature-core/internal/clock"
	"github.com/chirpworks/creature-core/internal/eventloop"
	"github.com/chirpworks/creature-core/internal/rtptransport"
)

// Runner is a scheduled {session, next_frame} pair — component H of the
// spec. It implements eventloop.Event; each dispatch performs exactly the
// six steps of §4.5 and reschedules itself for the next frame until the
// session ends.
type Runner struct {
	Session   *Session
	NextFrame clock.Frame
	Clearer   SessionClearer
	Log       *slog.Logger
}

// Dispatch implements eventloop.Event, performing the §4.5 PlaybackRunner
// algorithm.
func (r *Runner) Dispatch(loop *eventloop.Loop) {
	s := r.Session
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	// Step 1: cooperative cancellation.
	if s.Cancelled() {
		s.end(EndCancelled)
		if r.Clearer != nil {
			r.Clearer.ClearCurrentSession(s.UniverseID, s)
		}
		return
	}

	k := int(r.NextFrame - s.StartFrame)

	// Step 2: fire on_start exactly on the first frame.
	if k == 0 && s.Lifecycle.OnStart != nil {
		s.Lifecycle.OnStart()
	}

	// Step 3: write this tick's animation bytes for every track.
	for _, tr := range s.Tracks {
		if k < 0 || k >= len(tr.Frames) {
			continue
		}
		if err := tr.Writer.WriteAnimation(tr.ChannelOffset, tr.Frames[k]); err != nil {
			log.Warn("playback runner: write_animation failed",
				"session", s.ID, "universe", s.UniverseID, "frame", r.NextFrame, "error", err)
		}
	}

	// Step 4: frame callback. A zero-length session produces no on_frame at
	// all (§8 boundary), so this is guarded the same as the track writes.
	if k >= 0 && k < s.LengthFrames && s.Lifecycle.OnFrame != nil {
		s.Lifecycle.OnFrame(r.NextFrame)
	}

	// Step 5: hand this tick's audio frames to the RTP transport, keeping
	// audio frame index locked to the DMX frame index (§4.5 invariant: A/V
	// drift ≤ one tick).
	if s.Audio != nil && k >= 0 && k < len(s.AudioFrames) {
		timestamp := s.RTPBase + uint32(k)*rtptransport.SamplesPerTick
		if err := s.Audio.EmitTick(timestamp, s.AudioFrames[k]); err != nil {
			log.Warn("playback runner: audio emit failed",
				"session", s.ID, "universe", s.UniverseID, "frame", r.NextFrame, "error", err)
		}
	}

	// Step 6: reschedule, or terminate.
	if k+1 < s.LengthFrames {
		loop.Schedule(r.NextFrame+1, &Runner{
			Session:   s,
			NextFrame: r.NextFrame + 1,
			Clearer:   r.Clearer,
			Log:       r.Log,
		})
		return
	}

	s.end(EndCompleted)
	if r.Clearer != nil {
		r.Clearer.ClearCurrentSession(s.UniverseID, s)
	}
}
