package audiobuffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildOggPage constructs a single-page OGG stream with the given packets,
// each packet short enough to fit in one segment (< 255 bytes), which is
// all ffmpeg's 20ms Opus output ever produces per packet.
func buildOggPage(packets [][]byte) []byte {
	var page []byte
	page = append(page, []byte("OggS")...)
	page = append(page, 0)          // version
	page = append(page, 0)          // header_type
	page = append(page, make([]byte, 8)...)  // granule position
	page = append(page, make([]byte, 4)...)  // serial
	page = append(page, make([]byte, 4)...)  // sequence
	page = append(page, make([]byte, 4)...)  // crc (unchecked by our parser)
	page = append(page, byte(len(packets)))  // segment count
	for _, p := range packets {
		page = append(page, byte(len(p)))
	}
	for _, p := range packets {
		page = append(page, p...)
	}
	return page
}

func TestDemuxOggOpusPacketsSkipsHeaders(t *testing.T) {
	packets := [][]byte{
		[]byte("OpusHead..."),
		[]byte("OpusTags..."),
		{0x01, 0x02},
		{0x03, 0x04, 0x05},
	}
	stream := buildOggPage(packets)

	frames, err := demuxOggOpusPackets(stream)
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x01, 0x02}, {0x03, 0x04, 0x05}}, frames)
}

func TestDemuxOggOpusPacketsNoAudioFrames(t *testing.T) {
	stream := buildOggPage([][]byte{[]byte("OpusHead"), []byte("OpusTags")})
	frames, err := demuxOggOpusPackets(stream)
	require.NoError(t, err)
	require.Nil(t, frames)
}

func TestDemuxOggOpusPacketsRejectsGarbage(t *testing.T) {
	_, err := demuxOggOpusPackets([]byte("not an ogg stream at all"))
	require.Error(t, err)
}
