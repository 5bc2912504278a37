package dmxtransport

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Binding configures where a universe's packets go: multicast (the default,
// derived from the universe id) or a fixed unicast host when the universe
// is explicitly bound to a receiver (§4.3 of the spec).
type Binding struct {
	Universe  uint32
	Unicast   bool
	UnicastIP string
}

// Sender owns one UDP socket and emits E1.31 packets for any number of
// universes, each with its own monotonic sequence counter. Bind and Send
// may be called from different goroutines (Bind from an external driver
// registering destinations, Send from the event loop's per-tick flush
// hook), so mu guards bindings and seq.
type Sender struct {
	conn       *net.UDPConn
	cid        uuid.UUID
	sourceName string
	log        *slog.Logger

	mu       sync.Mutex
	bindings map[uint32]Binding
	seq      map[uint32]*uint8
	errLog   *logThrottle
}

// NewSender opens the outbound UDP socket and establishes this process's
// E1.31 root-layer CID, per §4.3 ("CID: a process-stable 16-byte UUID,
// generated at startup") and §6 ("cid: optional explicit override, else
// random at startup"). cidOverride is parsed as a UUID when non-empty;
// an empty or unparseable override falls back to a random CID.
func NewSender(sourceName, cidOverride string, log *slog.Logger) (*Sender, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("dmxtransport: open send socket: %w", err)
	}

	cid := uuid.New()
	if cidOverride != "" {
		parsed, err := uuid.Parse(cidOverride)
		if err != nil {
			if log != nil {
				log.Warn("dmxtransport: cid override is not a valid UUID, generating a random one", "cid", cidOverride, "error", err)
			}
		} else {
			cid = parsed
		}
	}

	return &Sender{
		conn:       conn,
		cid:        cid,
		sourceName: sourceName,
		log:        log,
		bindings:   make(map[uint32]Binding),
		seq:        make(map[uint32]*uint8),
		errLog:     newLogThrottle(5 * time.Second),
	}, nil
}

// Close releases the underlying socket.
func (s *Sender) Close() error { return s.conn.Close() }

// CID returns this process's E1.31 root-layer CID.
func (s *Sender) CID() uuid.UUID { return s.cid }

// Bind registers a unicast destination for a universe. Universes never
// bound here use multicast (the default per §4.3).
func (s *Sender) Bind(b Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[b.Universe] = b
}

// Send emits one E1.31 packet for universe carrying slots, advancing that
// universe's sequence number. slots[0] is DMX slot 1; the START code that
// precedes it on the wire is always written as 0 by Packet.Encode.
func (s *Sender) Send(universe uint32, slots [512]byte) error {
	s.mu.Lock()
	seqPtr, ok := s.seq[universe]
	if !ok {
		v := uint8(0)
		seqPtr = &v
		s.seq[universe] = seqPtr
	}
	sequence := *seqPtr
	*seqPtr++
	dest := s.destinationFor(universe)
	s.mu.Unlock()

	pkt := &Packet{
		CID:        s.cid,
		SourceName: s.sourceName,
		Priority:   DefaultPriority,
		Sequence:   sequence,
		Universe:   uint16(universe),
		Slots:      slots,
	}

	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", dest, Port))
	if err != nil {
		return fmt.Errorf("dmxtransport: resolve destination for universe %d: %w", universe, err)
	}
	if _, err := s.conn.WriteToUDP(pkt.Encode(), addr); err != nil {
		wrapped := fmt.Errorf("dmxtransport: send universe %d: %w", universe, err)
		if s.log != nil && s.errLog.allow(universe) {
			s.log.Error("dmx send failed", "universe", universe, "error", wrapped)
		}
		return wrapped
	}
	return nil
}

func (s *Sender) destinationFor(universe uint32) string {
	if b, ok := s.bindings[universe]; ok && b.Unicast {
		return b.UnicastIP
	}
	return MulticastAddress(universe)
}

// CurrentSequence returns the next sequence number that will be sent for a
// universe, for test/diagnostic use.
func (s *Sender) CurrentSequence(universe uint32) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.seq[universe]; ok {
		return *p
	}
	return 0
}
