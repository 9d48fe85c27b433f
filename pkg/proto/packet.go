package proto

import "io"

// Packet is a typed, (de)serializable Minecraft protocol packet.
//
// Encode/Decode receive the PacketContext they were read from/are being
// written into so implementations can branch on protocol version without
// needing a closure per version.
type Packet interface {
	Encode(c *PacketContext, wr io.Writer) error
	Decode(c *PacketContext, rd io.Reader) error
}

// PacketContext carries everything known about one frame as it moves
// through the decode -> handle -> (re-)encode pipeline.
type PacketContext struct {
	Direction   Direction
	Protocol    Protocol
	KnownPacket bool   // false if no registry entry exists for this ID.
	PacketID    int    // the wire packet ID (varint).
	Payload     []byte // the undecoded packet body, ID included, as read off the wire.
	Packet      Packet // nil if KnownPacket is false.
}

// String returns a short description of the context for logging:
// "packet(id=N)" for a packet the registry knows, "unknown-packet(id=N)"
// otherwise.
func (c *PacketContext) String() string {
	if c.KnownPacket {
		return "packet(id=" + itoa(c.PacketID) + ")"
	}
	return "unknown-packet(id=" + itoa(c.PacketID) + ")"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
