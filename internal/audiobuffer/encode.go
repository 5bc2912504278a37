package audiobuffer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Encoder wraps ffmpeg to downmix and split a WAV source into per-channel
// 20ms Opus streams, adapted from the ffmpeg wrapper in
// _examples/arung-agamani-denpa-radio/internal/ffmpeg/encoder.go (stderr
// drained to slog.Debug, context-scoped subprocess, wrapped errors).
type Encoder struct {
	SampleRate int // 48000 per §6 of the spec
	Bitrate    string
}

// NewEncoder returns an Encoder configured for the core's fixed audio
// format: 48kHz, 20ms Opus frames.
func NewEncoder() *Encoder {
	return &Encoder{SampleRate: 48000, Bitrate: "64k"}
}

// Encode produces a Buffer for wavPath: channel 0 is an equal-weight downmix
// of the first two input channels (further input channels are not mixed
// in), channels 1..16 are per-creature stems extracted from the
// corresponding input channel when multitrack is true, or silence
// otherwise (§4.6 of the spec).
func (e *Encoder) Encode(ctx context.Context, wavPath string, multitrack bool) (*Buffer, error) {
	downmix, err := e.encodeChannel(ctx, wavPath, "pan=mono|c0=0.5*c0+0.5*c1")
	if err != nil {
		return nil, fmt.Errorf("audiobuffer: downmix channel 0: %w", err)
	}

	buf := &Buffer{}
	buf.Channels[0] = downmix

	for ch := 1; ch < ChannelCount; ch++ {
		if !multitrack {
			buf.Channels[ch] = silenceFrames(len(downmix))
			continue
		}
		filter := fmt.Sprintf("pan=mono|c0=c%d", ch-1)
		frames, err := e.encodeChannel(ctx, wavPath, filter)
		if err != nil {
			return nil, fmt.Errorf("audiobuffer: encode channel %d: %w", ch, err)
		}
		if len(frames) != len(downmix) {
			return nil, fmt.Errorf("audiobuffer: channel %d produced %d frames, want %d", ch, len(frames), len(downmix))
		}
		buf.Channels[ch] = frames
	}

	return buf, nil
}

// encodeChannel runs ffmpeg with the given pan filter and libopus at a fixed
// 20ms frame duration, returning the demuxed Opus frames.
func (e *Encoder) encodeChannel(ctx context.Context, wavPath, panFilter string) ([][]byte, error) {
	args := []string{
		"-y",
		"-i", wavPath,
		"-af", panFilter,
		"-c:a", "libopus",
		"-b:a", e.Bitrate,
		"-ar", fmt.Sprintf("%d", e.SampleRate),
		"-frame_duration", "20",
		"-f", "ogg",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Error("ffmpeg opus encode failed", "input", wavPath, "filter", panFilter, "stderr", stderr.String(), "error", err)
		return nil, fmt.Errorf("ffmpeg encode failed: %w", err)
	}
	if stderr.Len() > 0 {
		slog.Debug("ffmpeg", "output", stderr.String())
	}

	return demuxOggOpusPackets(stdout.Bytes())
}

// silenceFrames returns n frames of Opus silence: an empty payload is a
// valid DTX (discontinuous transmission) frame under RFC 6716, so a silent
// stem costs no synthesis work.
func silenceFrames(n int) [][]byte {
	frames := make([][]byte, n)
	for i := range frames {
		frames[i] = nil
	}
	return frames
}
