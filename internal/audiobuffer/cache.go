// Package audiobuffer implements the pre-decode and on-disk cache for
// animation sound files (component D, §4.6 of the spec): given a WAV file it
// produces 17 channels of 20ms Opus frames (channel 0 a downmix, channels
// 1..16 per-creature stems) and persists them so repeated playback of the
// same animation never re-invokes ffmpeg.
package audiobuffer

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ChannelCount is the fixed RTP channel fan-out: channel 0 is the downmix,
// channels 1..16 are per-creature stems (§4.6/§6 of the spec).
const ChannelCount = 17

// SourceInfo identifies the exact source-file state a cache entry was built
// from: path, size, and content hash. A cache entry is only trusted when all
// three match the file on disk (§4.6: "content SHA-256 + size").
type SourceInfo struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Equal reports whether two SourceInfo values describe the same file state.
func (s SourceInfo) Equal(o SourceInfo) bool {
	return s.Path == o.Path && s.Size == o.Size && s.SHA256 == o.SHA256
}

// computeSourceInfo hashes path and stats its size, in the same style as
// computeChecksum in
// _examples/arung-agamani-denpa-radio/internal/playlist/track.go.
func computeSourceInfo(path string) (SourceInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return SourceInfo{}, fmt.Errorf("audiobuffer: open source %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return SourceInfo{}, fmt.Errorf("audiobuffer: stat source %s: %w", path, err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return SourceInfo{}, fmt.Errorf("audiobuffer: hash source %s: %w", path, err)
	}

	return SourceInfo{
		Path:   path,
		Size:   st.Size(),
		SHA256: fmt.Sprintf("%x", h.Sum(nil)),
	}, nil
}

// cacheDir returns <sound_dir>/.opus_cache/<hostname>/<source_stem> (§6 of
// the spec).
func cacheDir(soundDir, hostname, sourcePath string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return filepath.Join(soundDir, ".opus_cache", hostname, stem)
}

func channelFilePath(dir string, ch int) string {
	return filepath.Join(dir, fmt.Sprintf("ch%02d.opus", ch))
}

// writeChannelFile writes one channel's cache file: a length-prefixed JSON
// metadata blob, a u32 frame count, a u32 frame-size array, then the
// concatenated frame bytes (§6 of the spec). The write is atomic: it writes
// to a temp file in the same directory and renames over the target, so
// concurrent readers never observe a partial file.
func writeChannelFile(path string, info SourceInfo, frames [][]byte) error {
	metaBytes, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("audiobuffer: marshal cache metadata: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("audiobuffer: create cache dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".opus-tmp-*")
	if err != nil {
		return fmt.Errorf("audiobuffer: create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	succeeded := false
	defer func() {
		tmp.Close()
		if !succeeded {
			os.Remove(tmpName)
		}
	}()

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(metaBytes)))
	if _, err := tmp.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("audiobuffer: write metadata length: %w", err)
	}
	if _, err := tmp.Write(metaBytes); err != nil {
		return fmt.Errorf("audiobuffer: write metadata: %w", err)
	}

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(frames)))
	if _, err := tmp.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("audiobuffer: write frame count: %w", err)
	}
	for _, fr := range frames {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(fr)))
		if _, err := tmp.Write(lenBuf[:]); err != nil {
			return fmt.Errorf("audiobuffer: write frame size: %w", err)
		}
	}
	for _, fr := range frames {
		if _, err := tmp.Write(fr); err != nil {
			return fmt.Errorf("audiobuffer: write frame data: %w", err)
		}
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("audiobuffer: close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("audiobuffer: rename cache file into place: %w", err)
	}
	succeeded = true
	return nil
}

// readChannelFile reads back what writeChannelFile wrote.
func readChannelFile(path string) (SourceInfo, [][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceInfo{}, nil, err
	}
	if len(data) < 4 {
		return SourceInfo{}, nil, fmt.Errorf("audiobuffer: cache file %s truncated", path)
	}

	metaLen := binary.BigEndian.Uint32(data[0:4])
	off := 4 + int(metaLen)
	if off+4 > len(data) {
		return SourceInfo{}, nil, fmt.Errorf("audiobuffer: cache file %s truncated metadata", path)
	}
	var info SourceInfo
	if err := json.Unmarshal(data[4:off], &info); err != nil {
		return SourceInfo{}, nil, fmt.Errorf("audiobuffer: cache file %s bad metadata: %w", path, err)
	}

	frameCount := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4
	sizes := make([]int, frameCount)
	for i := 0; i < frameCount; i++ {
		if off+4 > len(data) {
			return SourceInfo{}, nil, fmt.Errorf("audiobuffer: cache file %s truncated frame sizes", path)
		}
		sizes[i] = int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
	}

	frames := make([][]byte, frameCount)
	for i, size := range sizes {
		if off+size > len(data) {
			return SourceInfo{}, nil, fmt.Errorf("audiobuffer: cache file %s truncated frame data", path)
		}
		frames[i] = data[off : off+size]
		off += size
	}

	return info, frames, nil
}
