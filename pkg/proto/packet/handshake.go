package packet

import (
	"io"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/util"
)

// Handshake is the single packet accepted in state.Handshake (spec.md §3,
// §4.2). NextStatus is 1 for STATUS, 2 for LOGIN.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	Port            uint16
	NextStatus      int32
}

func (h *Handshake) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteVarInt(wr, h.ProtocolVersion); err != nil {
		return err
	}
	if err := util.WriteString(wr, h.ServerAddress); err != nil {
		return err
	}
	if err := writeUnsignedShort(wr, h.Port); err != nil {
		return err
	}
	return util.WriteVarInt(wr, h.NextStatus)
}

func (h *Handshake) Decode(c *proto.PacketContext, rd io.Reader) error {
	br := rd.(interface {
		io.Reader
		io.ByteReader
	})
	v, err := util.ReadVarInt(br)
	if err != nil {
		return err
	}
	h.ProtocolVersion = v
	h.ServerAddress, err = util.ReadString(br)
	if err != nil {
		return err
	}
	h.Port, err = readUnsignedShort(rd)
	if err != nil {
		return err
	}
	h.NextStatus, err = util.ReadVarInt(br)
	return err
}

func writeUnsignedShort(w io.Writer, v uint16) error {
	_, err := w.Write([]byte{byte(v >> 8), byte(v)})
	return err
}

func readUnsignedShort(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

const (
	HandshakeStatus = 1
	HandshakeLogin  = 2
)
