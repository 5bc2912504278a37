package audiobuffer

import (
	"log/slog"
	"os"

	"github.com/dhowden/tag"
)

// SoundMetadata mirrors the subset of file tags useful for logging and
// operator-facing listings, read the same way
// _examples/arung-agamani-denpa-radio/internal/playlist/track.go reads ID3
// tags for its jukebox tracks.
type SoundMetadata struct {
	Title  string
	Artist string
}

// ReadMetadata best-effort reads tags from path. A missing or unreadable
// tag block is not an error — the caller proceeds with an empty
// SoundMetadata and still plays the sound.
func ReadMetadata(path string) SoundMetadata {
	f, err := os.Open(path)
	if err != nil {
		slog.Debug("could not open sound file for metadata", "path", path, "error", err)
		return SoundMetadata{}
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		slog.Debug("could not read sound file tags", "path", path, "error", err)
		return SoundMetadata{}
	}

	return SoundMetadata{Title: m.Title(), Artist: m.Artist()}
}
