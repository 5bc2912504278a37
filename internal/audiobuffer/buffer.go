package audiobuffer

import (
	"fmt"
	"os"

	"github.com/chirpworks/creature-core/internal/coreerr"
)

// Buffer holds the decoded 20ms Opus frames for all 17 RTP channels of one
// sound file.
type Buffer struct {
	Channels [ChannelCount][][]byte
}

// FrameCount returns the per-channel frame count, which is equal across all
// channels for a valid Buffer.
func (b *Buffer) FrameCount() int {
	return len(b.Channels[0])
}

// Load attempts to serve a cached Buffer for sourcePath out of
// <soundDir>/.opus_cache/<hostname>/<stem>. It reports ok=false on any cache
// miss (missing file, stale source, inconsistent channel data) rather than
// treating a miss as an error — callers fall back to Encode.
func Load(soundDir, hostname, sourcePath string) (buf *Buffer, ok bool, err error) {
	current, err := computeSourceInfo(sourcePath)
	if err != nil {
		return nil, false, err
	}

	dir := cacheDir(soundDir, hostname, sourcePath)
	out := &Buffer{}
	var wantFrameCount = -1

	for ch := 0; ch < ChannelCount; ch++ {
		path := channelFilePath(dir, ch)
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, false, nil
		}
		info, frames, readErr := readChannelFile(path)
		if readErr != nil {
			return nil, false, nil
		}
		if !info.Equal(current) {
			return nil, false, nil
		}
		if wantFrameCount == -1 {
			wantFrameCount = len(frames)
		} else if len(frames) != wantFrameCount {
			return nil, false, nil
		}
		out.Channels[ch] = frames
	}

	return out, true, nil
}

// Store atomically persists buf's channels into the on-disk cache, cleaning
// up partial writes on failure (§4.6 of the spec: "Cache writes are
// all-or-nothing").
func Store(soundDir, hostname, sourcePath string, buf *Buffer) error {
	info, err := computeSourceInfo(sourcePath)
	if err != nil {
		return err
	}

	dir := cacheDir(soundDir, hostname, sourcePath)
	for ch := 0; ch < ChannelCount; ch++ {
		path := channelFilePath(dir, ch)
		if err := writeChannelFile(path, info, buf.Channels[ch]); err != nil {
			os.RemoveAll(dir)
			return coreerr.Internal(err, "audiobuffer: cache write for %s channel %d failed", sourcePath, ch)
		}
	}
	return nil
}

// Invalidate removes the entire cache directory for a source file, forcing
// the next Load to miss.
func Invalidate(soundDir, hostname, sourcePath string) error {
	dir := cacheDir(soundDir, hostname, sourcePath)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("audiobuffer: invalidate cache for %s: %w", sourcePath, err)
	}
	return nil
}
