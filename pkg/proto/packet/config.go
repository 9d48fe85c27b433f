package packet

import "io"

import "go.minekube.com/gate/pkg/proto"

// The CONFIG-phase packets of spec.md §4.3/§4.6 (modern protocols only,
// >=1.20.2). Registry/tag data is treated as an opaque relay payload (the
// proxy never interprets game-registry contents, only replays it across a
// switch — spec.md §4.6 step 4), so RegistryData/TagData carry raw bytes.

// StartConfiguration (proxy -> client) asks an already-PLAY client to
// re-enter CONFIG for a transparent switch (spec.md §4.6 step 4).
type StartConfiguration struct{}

func (*StartConfiguration) Encode(*proto.PacketContext, io.Writer) error { return nil }
func (*StartConfiguration) Decode(*proto.PacketContext, io.Reader) error { return nil }

// AcknowledgeConfiguration (client -> proxy) confirms StartConfiguration.
type AcknowledgeConfiguration struct{}

func (*AcknowledgeConfiguration) Encode(*proto.PacketContext, io.Writer) error { return nil }
func (*AcknowledgeConfiguration) Decode(*proto.PacketContext, io.Reader) error { return nil }

// FinishConfiguration (proxy -> client, or backend -> proxy) signals the
// end of the CONFIG exchange.
type FinishConfiguration struct{}

func (*FinishConfiguration) Encode(*proto.PacketContext, io.Writer) error { return nil }
func (*FinishConfiguration) Decode(*proto.PacketContext, io.Reader) error { return nil }

// AcknowledgeFinishConfiguration (client -> proxy, or proxy -> backend) is
// the matching ack, after which the sender transitions into PLAY
// (spec.md §4.3).
type AcknowledgeFinishConfiguration struct{}

func (*AcknowledgeFinishConfiguration) Encode(*proto.PacketContext, io.Writer) error { return nil }
func (*AcknowledgeFinishConfiguration) Decode(*proto.PacketContext, io.Reader) error { return nil }

// RegistryData is an opaque blob of dimension/biome/etc. registry NBT the
// proxy relays/replays verbatim (spec.md §4.6 step 4).
type RegistryData struct {
	Payload []byte
}

func (p *RegistryData) Encode(c *proto.PacketContext, wr io.Writer) error {
	_, err := wr.Write(p.Payload)
	return err
}

func (p *RegistryData) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.Payload, err = io.ReadAll(rd)
	return
}

// TagData is an opaque blob of block/item/etc. tag data, same treatment
// as RegistryData.
type TagData struct {
	Payload []byte
}

func (p *TagData) Encode(c *proto.PacketContext, wr io.Writer) error {
	_, err := wr.Write(p.Payload)
	return err
}

func (p *TagData) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.Payload, err = io.ReadAll(rd)
	return
}

// ClientInformation is the CONFIG-state twin of ClientSettings (same wire
// shape; Minecraft renamed the packet when the CONFIG state was added).
type ClientInformation = ClientSettings
