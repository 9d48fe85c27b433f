package packet

import (
	"io"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/util"
)

// StatusRequest carries no data; receiving it triggers the status
// document assembly of spec.md §4.8.
type StatusRequest struct{}

func (*StatusRequest) Encode(*proto.PacketContext, io.Writer) error { return nil }
func (*StatusRequest) Decode(*proto.PacketContext, io.Reader) error { return nil }

// StatusResponse carries the JSON status document (spec.md §4.8).
type StatusResponse struct {
	Status string // pre-serialized JSON, dialect already chosen for the connection's protocol.
}

func (p *StatusResponse) Encode(c *proto.PacketContext, wr io.Writer) error {
	return util.WriteString(wr, p.Status)
}

func (p *StatusResponse) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.Status, err = util.ReadString(rd.(stringReader))
	return
}

type stringReader interface {
	io.Reader
	io.ByteReader
}

// Ping (client -> proxy, STATUS state) carries an 8-byte client nonce the
// proxy must echo back verbatim, then close (spec.md §4.3/scenario 1).
type Ping struct {
	RandomId int64
}

func (p *Ping) Encode(c *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt64(wr, p.RandomId)
}

func (p *Ping) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.RandomId, err = util.ReadInt64(rd)
	return
}

// Pong is the proxy's echo of Ping.
type Pong struct {
	RandomId int64
}

func (p *Pong) Encode(c *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt64(wr, p.RandomId)
}

func (p *Pong) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.RandomId, err = util.ReadInt64(rd)
	return
}
