package main

import (
	"context"
	"log/slog"

	"github.com/chirpworks/creature-core/internal/clock"
	"github.com/chirpworks/creature-core/internal/config"
	"github.com/chirpworks/creature-core/internal/playback"
	"github.com/chirpworks/creature-core/internal/rtptransport"
	"github.com/chirpworks/creature-core/internal/universe"
)

// newAnimationLoader builds a playlistctl.AnimationLoader closed over the
// process's wiring: it resolves an Animation's tracks to universe writers,
// loads its sound file's audio frames (cache hit or ffmpeg fallback), and
// assembles a ready-to-schedule playback.Session.
func newAnimationLoader(store *animationStore, dir *directory, universes *universe.Registry, rtp *rtptransport.Sender, cfg *config.Config, log *slog.Logger) func(animationID string, universeID uint32, startFrame clock.Frame) (*playback.Session, error) {
	return func(animationID string, universeID uint32, startFrame clock.Frame) (*playback.Session, error) {
		anim, err := store.get(animationID)
		if err != nil {
			return nil, err
		}

		tracks := make([]playback.Track, 0, len(anim.Tracks))
		for _, tr := range anim.Tracks {
			tracks = append(tracks, playback.Track{
				Writer:        universes.Get(universeID),
				ChannelOffset: tr.ChannelOffset,
				Frames:        tr.Frames,
			})
		}

		sess := playback.NewSession(anim.ID, universeID, startFrame, anim.Metadata.NumberOfFrames, tracks, playback.Lifecycle{})

		if anim.Metadata.SoundFile == "" || cfg.Audio.Mode == config.AudioModeNone {
			return sess, nil
		}

		frames, err := loadAudioFrames(context.Background(), cfg.Audio.SoundDirectory, anim.Metadata.SoundFile, anim.Metadata.MultitrackAudio, log)
		if err != nil {
			log.Warn("animation sound file failed to load, playing silent", "animation", anim.ID, "error", err)
			return sess, nil
		}

		emitter := &audioEmitter{sender: rtp, log: log, sessionID: anim.ID}
		if cfg.Audio.Mode == config.AudioModeRTPUnicast {
			for _, tr := range anim.Tracks {
				b, ok := dir.lookup(tr.CreatureID)
				if ok && b.audioChannel > 0 && b.audioAddr != "" {
					emitter.bind(b.audioChannel, rtptransport.Endpoint{CreatureID: tr.CreatureID, Channel: b.audioChannel, Addr: b.audioAddr})
				}
			}
		}

		sess.Audio = emitter
		sess.AudioFrames = frames
		sess.RTPBase = uint32(startFrame) * rtptransport.SamplesPerTick

		return sess, nil
	}
}
