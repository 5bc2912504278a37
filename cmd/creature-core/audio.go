package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/chirpworks/creature-core/internal/audiobuffer"
	"github.com/chirpworks/creature-core/internal/rtptransport"
)

// audioEmitter adapts rtptransport.Sender to playback.AudioEmitter, routing
// channel 0 to the multicast group and channels 1..16 to whichever
// creature's unicast endpoint that channel is bound to. Channels with no
// bound endpoint are skipped without logging. A failed send is logged at
// warn and not returned; every failed send logs its own line, so repeated
// failures in one session are not reduced to a single log line.
type audioEmitter struct {
	sender      *rtptransport.Sender
	endpoints   [rtptransport.ChannelCount]rtptransport.Endpoint
	hasEndpoint [rtptransport.ChannelCount]bool
	log         *slog.Logger
	sessionID   string
}

func (e *audioEmitter) bind(channel int, ep rtptransport.Endpoint) {
	e.endpoints[channel] = ep
	e.hasEndpoint[channel] = true
}

// EmitTick implements playback.AudioEmitter.
func (e *audioEmitter) EmitTick(timestamp uint32, channelFrames [rtptransport.ChannelCount][]byte) error {
	if channelFrames[0] != nil {
		if err := e.sender.SendChannelZero(timestamp, channelFrames[0]); err != nil {
			e.log.Warn("audio send failed", "session", e.sessionID, "channel", 0, "error", err)
		}
	}
	for ch := 1; ch < rtptransport.ChannelCount; ch++ {
		if !e.hasEndpoint[ch] || channelFrames[ch] == nil {
			continue
		}
		if err := e.sender.SendToEndpoint(e.endpoints[ch], timestamp, channelFrames[ch]); err != nil {
			e.log.Warn("audio send failed", "session", e.sessionID, "channel", ch, "error", err)
		}
	}
	return nil
}

// loadAudioFrames obtains a sound file's per-channel Opus frames, consulting
// the on-disk cache first (§4.6/§6) and falling back to ffmpeg encoding on a
// miss, then transposes them from per-channel to per-tick [17][]byte slices
// in the shape playback.Session.AudioFrames expects.
func loadAudioFrames(ctx context.Context, soundDir, sourcePath string, multitrack bool, log *slog.Logger) ([][rtptransport.ChannelCount][]byte, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	buf, hit, err := audiobuffer.Load(soundDir, hostname, sourcePath)
	if err != nil {
		return nil, err
	}
	if !hit {
		enc := audiobuffer.NewEncoder()
		buf, err = enc.Encode(ctx, sourcePath, multitrack)
		if err != nil {
			return nil, err
		}
		if err := audiobuffer.Store(soundDir, hostname, sourcePath, buf); err != nil {
			log.Warn("failed to persist audio cache entry", "source", sourcePath, "error", err)
		}
	}

	frameCount := buf.FrameCount()
	out := make([][rtptransport.ChannelCount][]byte, frameCount)
	for k := 0; k < frameCount; k++ {
		for ch := 0; ch < rtptransport.ChannelCount; ch++ {
			out[k][ch] = buf.Channels[ch][k]
		}
	}
	return out, nil
}
