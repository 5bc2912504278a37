// Package dmxtransport builds and emits E1.31 (sACN) DMX-over-UDP packets,
// one per universe per tick (§4.3 of the spec). The wire layout follows the
// ANSI E1.31 root/framing/DMP layer structure used by the E1.31 client in
// _examples/original_source/src/server/dmx/dmx.cpp, reimplemented here with
// encoding/binary instead of libe131 since no cgo E1.31 library is available
// in the dependency pack.
package dmxtransport

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

const (
	rootVector       = 0x00000004
	framingVector    = 0x00000002
	dmpVector        = 0x02
	dmpAddrType      = 0xa1
	dmpFirstAddr     = 0x0000
	dmpAddrIncrement = 0x0001

	// PropertyValueCount is the START code plus 512 DMX slots.
	PropertyValueCount = 513

	// DefaultPriority is the E1.31 default priority (§6 of the spec).
	DefaultPriority = 100

	// Port is the standard E1.31 UDP port.
	Port = 5568

	sourceNameLen = 64
	// packetLen is the fixed total wire size: the 125-byte root+framing+DMP
	// header prefix (2+2+12+2+4+16 root, 2+4+64+1+2+1+1+2 framing, 2+1+1+2+2+2
	// DMP) plus the 513 DMP property values (START code + 512 slots).
	packetLen = 125 + PropertyValueCount
)

// Packet is one E1.31 DMX data packet for a single universe/tick.
type Packet struct {
	CID        uuid.UUID
	SourceName string
	Priority   uint8
	Sequence   uint8
	Universe   uint16
	// Slots holds the 512 DMX data slots; index 0 of the wire payload (the
	// START code) is always forced to 0 independent of this slice.
	Slots [512]byte
}

// Encode marshals p into the fixed E1.31 wire layout: root layer (CID),
// framing layer (source name, priority, sequence, universe), DMP layer
// (513 property values, START code forced to 0).
func (p *Packet) Encode() []byte {
	buf := make([]byte, packetLen)

	// Root layer.
	binary.BigEndian.PutUint16(buf[0:2], 0x0010)                    // preamble size
	binary.BigEndian.PutUint16(buf[2:4], 0x0000)                    // postamble size
	copy(buf[4:16], []byte("ASC-E1.17\x00\x00\x00"))                // ACN packet identifier
	binary.BigEndian.PutUint16(buf[16:18], flagsAndLength(packetLen-16))
	binary.BigEndian.PutUint32(buf[18:22], rootVector)
	copy(buf[22:38], p.CID[:])

	// Framing layer.
	off := 38
	binary.BigEndian.PutUint16(buf[off:off+2], flagsAndLength(packetLen-off))
	binary.BigEndian.PutUint32(buf[off+2:off+6], framingVector)
	nameBytes := make([]byte, sourceNameLen)
	copy(nameBytes, p.SourceName)
	copy(buf[off+6:off+6+sourceNameLen], nameBytes)
	fOff := off + 6 + sourceNameLen
	buf[fOff] = p.Priority
	binary.BigEndian.PutUint16(buf[fOff+1:fOff+3], 0) // sync address, unused
	buf[fOff+3] = p.Sequence
	buf[fOff+4] = 0 // options
	binary.BigEndian.PutUint16(buf[fOff+5:fOff+7], p.Universe)

	// DMP layer.
	dOff := fOff + 7
	binary.BigEndian.PutUint16(buf[dOff:dOff+2], flagsAndLength(packetLen-dOff))
	buf[dOff+2] = dmpVector
	buf[dOff+3] = dmpAddrType
	binary.BigEndian.PutUint16(buf[dOff+4:dOff+6], dmpFirstAddr)
	binary.BigEndian.PutUint16(buf[dOff+6:dOff+8], dmpAddrIncrement)
	binary.BigEndian.PutUint16(buf[dOff+8:dOff+10], PropertyValueCount)

	valOff := dOff + 10
	buf[valOff] = 0 // START code, always 0
	copy(buf[valOff+1:valOff+1+512], p.Slots[:])

	return buf
}

// flagsAndLength packs the E1.31 12-bit length into the low bits of a 16-bit
// field with the high nibble set to the fixed 0x7 flags value.
func flagsAndLength(length int) uint16 {
	return uint16(0x7000) | (uint16(length) & 0x0FFF)
}

// MulticastAddress returns the E1.31 multicast group for a universe id:
// 239.255.hi.lo where universe = hi<<8 | lo (§6 of the spec).
func MulticastAddress(universe uint32) string {
	hi := byte(universe >> 8)
	lo := byte(universe)
	return fmt.Sprintf("239.255.%d.%d", hi, lo)
}
