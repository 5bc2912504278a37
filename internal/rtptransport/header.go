// Package rtptransport streams per-tick Opus audio frames to creature audio
// endpoints (component E, §4.6 of the spec). The wire format is RTP-like but
// not standard RTP: a fixed 16-byte header carries enough self-description
// (sample rate, channel count, sample count) that a receiver never needs
// out-of-band signaling, followed directly by one Opus frame.
package rtptransport

import "encoding/binary"

// HeaderLen is the fixed wire size of Header.
const HeaderLen = 16

// SampleRate and SamplesPerTick are fixed by the spec (§6): 48kHz audio,
// 20ms ticks, so 960 samples per tick.
const (
	SampleRate     = 48000
	SamplesPerTick = 960
	ChannelCount   = 17
)

// Header is the fixed packet header preceding every Opus frame:
// {u32 timestamp; u32 sample_count; u32 sample_rate; u8 channel_count;
// u16 sequence; u8 reserved} packed, big-endian (§6 of the spec). Sequence
// occupies two of the three bytes §6 reserves, carrying the per-endpoint
// rtp.Sequencer value so a receiver can detect drops/reordering the same
// way it would from a standard RTP header.
type Header struct {
	Timestamp    uint32
	SampleCount  uint32
	SampleRate   uint32
	ChannelCount uint8
	Sequence     uint16
}

// Encode writes h followed by payload into a single packet buffer.
func (h Header) Encode(payload []byte) []byte {
	buf := make([]byte, HeaderLen+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], h.Timestamp)
	binary.BigEndian.PutUint32(buf[4:8], h.SampleCount)
	binary.BigEndian.PutUint32(buf[8:12], h.SampleRate)
	buf[12] = h.ChannelCount
	binary.BigEndian.PutUint16(buf[13:15], h.Sequence)
	// buf[15] reserved, left zero.
	copy(buf[HeaderLen:], payload)
	return buf
}

// DecodeHeader parses the fixed header from the front of buf, returning the
// header and the remaining payload. Used by tests and any in-process
// loopback receiver.
func DecodeHeader(buf []byte) (Header, []byte, bool) {
	if len(buf) < HeaderLen {
		return Header{}, nil, false
	}
	h := Header{
		Timestamp:    binary.BigEndian.Uint32(buf[0:4]),
		SampleCount:  binary.BigEndian.Uint32(buf[4:8]),
		SampleRate:   binary.BigEndian.Uint32(buf[8:12]),
		ChannelCount: buf[12],
		Sequence:     binary.BigEndian.Uint16(buf[13:15]),
	}
	return h, buf[HeaderLen:], true
}
