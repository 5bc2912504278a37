package audiobuffer

import "fmt"

// demuxOggOpusPackets splits a raw OGG/Opus byte stream into its constituent
// packets (one per decoded Opus frame). ffmpeg's libopus muxer puts exactly
// one 20ms Opus frame per logical packet at frame_duration=20, so after
// skipping the two OpusHead/OpusTags header packets the remaining packets
// are the per-tick audio frames this core schedules over RTP.
//
// This is a minimal OGG page parser: it understands page framing and lacing
// values well enough to reassemble packet boundaries, but does not validate
// CRCs — the source stream is ffmpeg's own fresh output, not an untrusted
// upload.
func demuxOggOpusPackets(data []byte) ([][]byte, error) {
	var packets [][]byte
	var current []byte

	for off := 0; off < len(data); {
		if off+27 > len(data) || string(data[off:off+4]) != "OggS" {
			return nil, fmt.Errorf("audiobuffer: malformed ogg stream at offset %d", off)
		}
		segCount := int(data[off+26])
		tableOff := off + 27
		if tableOff+segCount > len(data) {
			return nil, fmt.Errorf("audiobuffer: truncated ogg segment table at offset %d", off)
		}
		segTable := data[tableOff : tableOff+segCount]
		payloadOff := tableOff + segCount

		for _, segLen := range segTable {
			if payloadOff+int(segLen) > len(data) {
				return nil, fmt.Errorf("audiobuffer: truncated ogg payload at offset %d", payloadOff)
			}
			current = append(current, data[payloadOff:payloadOff+int(segLen)]...)
			payloadOff += int(segLen)
			if segLen < 255 {
				packets = append(packets, current)
				current = nil
			}
		}
		off = payloadOff
	}

	if len(current) > 0 {
		packets = append(packets, current)
	}

	// Skip the OpusHead and OpusTags header packets; everything after is
	// audio data, one packet per 20ms frame.
	if len(packets) <= 2 {
		return nil, nil
	}
	return packets[2:], nil
}

