package rtptransport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{
		Timestamp:    123456,
		SampleCount:  SamplesPerTick,
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Sequence:     42,
	}
	payload := []byte{0xAA, 0xBB, 0xCC}

	wire := h.Encode(payload)
	require.Len(t, wire, HeaderLen+len(payload))

	gotHeader, gotPayload, ok := DecodeHeader(wire)
	require.True(t, ok)
	require.Equal(t, h, gotHeader)
	require.Equal(t, payload, gotPayload)
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	_, _, ok := DecodeHeader([]byte{0x01, 0x02})
	require.False(t, ok)
}

func TestTimestampIncrementsBySamplesPerTick(t *testing.T) {
	var ts uint32
	for tick := 0; tick < 5; tick++ {
		require.Equal(t, uint32(tick*SamplesPerTick), ts)
		ts += SamplesPerTick
	}
}
