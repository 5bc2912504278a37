package audiobuffer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempSource(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestChannelFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	source := writeTempSource(t, dir, "growl.wav", []byte("fake wav bytes"))

	info, err := computeSourceInfo(source)
	require.NoError(t, err)

	frames := [][]byte{{0x01, 0x02}, {}, {0x03, 0x04, 0x05}}
	path := filepath.Join(dir, "ch00.opus")
	require.NoError(t, writeChannelFile(path, info, frames))

	gotInfo, gotFrames, err := readChannelFile(path)
	require.NoError(t, err)
	require.Equal(t, info, gotInfo)
	require.Equal(t, frames, gotFrames)
}

func TestLoadMissesWhenCacheAbsent(t *testing.T) {
	dir := t.TempDir()
	source := writeTempSource(t, dir, "roar.wav", []byte("data"))

	buf, ok, err := Load(dir, "host-a", source)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, buf)
}

func TestStoreThenLoadHits(t *testing.T) {
	dir := t.TempDir()
	source := writeTempSource(t, dir, "purr.wav", []byte("purr-bytes"))

	buf := &Buffer{}
	for ch := 0; ch < ChannelCount; ch++ {
		buf.Channels[ch] = [][]byte{{byte(ch)}, {byte(ch), byte(ch)}}
	}

	require.NoError(t, Store(dir, "host-a", source, buf))

	loaded, ok, err := Load(dir, "host-a", source)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, loaded.FrameCount())
	require.Equal(t, buf.Channels, loaded.Channels)
}

func TestLoadMissesWhenSourceChangedAfterCaching(t *testing.T) {
	dir := t.TempDir()
	source := writeTempSource(t, dir, "hiss.wav", []byte("original"))

	buf := &Buffer{}
	for ch := 0; ch < ChannelCount; ch++ {
		buf.Channels[ch] = [][]byte{{0x00}}
	}
	require.NoError(t, Store(dir, "host-a", source, buf))

	// Mutate the source file: its sha256 and possibly size now differ.
	require.NoError(t, os.WriteFile(source, []byte("a completely different recording"), 0o644))

	_, ok, err := Load(dir, "host-a", source)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInvalidateRemovesCacheDir(t *testing.T) {
	dir := t.TempDir()
	source := writeTempSource(t, dir, "snarl.wav", []byte("snarl"))

	buf := &Buffer{}
	for ch := 0; ch < ChannelCount; ch++ {
		buf.Channels[ch] = [][]byte{{0x00}}
	}
	require.NoError(t, Store(dir, "host-a", source, buf))
	require.NoError(t, Invalidate(dir, "host-a", source))

	_, ok, err := Load(dir, "host-a", source)
	require.NoError(t, err)
	require.False(t, ok)
}
