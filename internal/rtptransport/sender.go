package rtptransport

import (
	"fmt"
	"net"
	"sync"

	"github.com/pion/rtp"
)

// Endpoint is one creature's audio destination: a UDP host:port for a
// single channel. Channel 0 has no per-creature Endpoint — it is always
// sent to the multicast address passed to NewSender.
type Endpoint struct {
	CreatureID string
	Channel    int // 1..16
	Addr       string
}

// Sender owns one outbound UDP socket and a per-endpoint RTP-style
// sequence number (via pion/rtp's Sequencer, the same sequence-number
// generator used for standard RTP packets in
// _examples/petervdpas-goop2's WebRTC media stack and in the
// rtp.Packet-based senders under _examples/other_examples). Only the
// sequence-number generator is reused — the wire format here is the core's
// own fixed Header, not a standard RTP packet.
type Sender struct {
	conn          *net.UDPConn
	multicastAddr string

	mu   sync.Mutex
	seqs map[string]rtp.Sequencer
}

// NewSender opens the outbound UDP socket. multicastAddr is the fixed
// multicast group used for channel 0 (§6 of the spec: "one multicast group
// for channel 0").
func NewSender(multicastAddr string) (*Sender, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("rtptransport: open send socket: %w", err)
	}
	return &Sender{
		conn:          conn,
		multicastAddr: multicastAddr,
		seqs:          make(map[string]rtp.Sequencer),
	}, nil
}

// Close releases the underlying socket.
func (s *Sender) Close() error { return s.conn.Close() }

func (s *Sender) sequencerFor(key string) rtp.Sequencer {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.seqs[key]
	if !ok {
		seq = rtp.NewRandomSequencer()
		s.seqs[key] = seq
	}
	return seq
}

// SendChannelZero emits the channel-0 downmix frame to the multicast group,
// at the given tick timestamp (§4.5: rtp_base + k*960).
func (s *Sender) SendChannelZero(timestamp uint32, frame []byte) error {
	return s.send("multicast:0", s.multicastAddr, timestamp, frame)
}

// SendToEndpoint emits one creature's per-channel frame to its unicast
// audio endpoint.
func (s *Sender) SendToEndpoint(ep Endpoint, timestamp uint32, frame []byte) error {
	return s.send(fmt.Sprintf("%s:%d", ep.CreatureID, ep.Channel), ep.Addr, timestamp, frame)
}

func (s *Sender) send(seqKey, addr string, timestamp uint32, frame []byte) error {
	h := Header{
		Timestamp:    timestamp,
		SampleCount:  SamplesPerTick,
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Sequence:     s.sequencerFor(seqKey).NextSequenceNumber(),
	}

	dest, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("rtptransport: resolve %s: %w", addr, err)
	}
	if _, err := s.conn.WriteToUDP(h.Encode(frame), dest); err != nil {
		return fmt.Errorf("rtptransport: send to %s: %w", addr, err)
	}
	return nil
}
