package packet

import (
	"io"

	"go.minekube.com/common/minecraft/component"
	gateutil "go.minekube.com/gate/pkg/util"
	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/util"
	"go.minekube.com/gate/pkg/util/uuid"
)

// LoginStart (client -> proxy) begins LOGIN with the claimed username
// (spec.md §4.4). HolderUUID is only present from 1.19 onward; zero value
// otherwise.
type LoginStart struct {
	Username   string
	HolderUUID uuid.UUID
}

func (p *LoginStart) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteString(wr, p.Username); err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(proto.Minecraft_1_19) {
		return util.WriteUUID(wr, p.HolderUUID)
	}
	return nil
}

func (p *LoginStart) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.Username, err = util.ReadString(rd.(stringReader))
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(proto.Minecraft_1_19) {
		p.HolderUUID, err = util.ReadUUID(rd)
	}
	return err
}

// EncryptionRequest (proxy -> client) carries the proxy's RSA public key
// and a random verify token (spec.md §4.4).
type EncryptionRequest struct {
	ServerId    string
	PublicKey   []byte
	VerifyToken []byte
}

func (p *EncryptionRequest) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteString(wr, p.ServerId); err != nil {
		return err
	}
	if err := util.WriteBytes(wr, p.PublicKey); err != nil {
		return err
	}
	return util.WriteBytes(wr, p.VerifyToken)
}

func (p *EncryptionRequest) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	p.ServerId, err = util.ReadString(r)
	if err != nil {
		return err
	}
	p.PublicKey, err = util.ReadBytes(r)
	if err != nil {
		return err
	}
	p.VerifyToken, err = util.ReadBytes(r)
	return err
}

// EncryptionResponse (client -> proxy) carries the RSA-encrypted shared
// secret and verify token (spec.md §4.4).
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (p *EncryptionResponse) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteBytes(wr, p.SharedSecret); err != nil {
		return err
	}
	return util.WriteBytes(wr, p.VerifyToken)
}

func (p *EncryptionResponse) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	p.SharedSecret, err = util.ReadBytes(r)
	if err != nil {
		return err
	}
	p.VerifyToken, err = util.ReadBytes(r)
	return err
}

// LoginSuccess (proxy -> client) admits the player with its resolved
// identity (spec.md §4.4). Encode writes Properties only for protocol
// 1.19 and later; the struct always carries them.
type LoginSuccess struct {
	UUID       uuid.UUID
	Username   string
	Properties []Property
}

// Property mirrors gameprofile.Property on the wire.
type Property struct {
	Name      string
	Value     string
	Signature string
	HasSig    bool
}

func (p *LoginSuccess) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteUUID(wr, p.UUID); err != nil {
		return err
	}
	if err := util.WriteString(wr, p.Username); err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(proto.Minecraft_1_19) {
		if err := util.WriteVarInt(wr, int32(len(p.Properties))); err != nil {
			return err
		}
		for _, prop := range p.Properties {
			if err := util.WriteString(wr, prop.Name); err != nil {
				return err
			}
			if err := util.WriteString(wr, prop.Value); err != nil {
				return err
			}
			if err := util.WriteBool(wr, prop.HasSig); err != nil {
				return err
			}
			if prop.HasSig {
				if err := util.WriteString(wr, prop.Signature); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *LoginSuccess) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	p.UUID, err = util.ReadUUID(rd)
	if err != nil {
		return err
	}
	p.Username, err = util.ReadString(r)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(proto.Minecraft_1_19) {
		n, err := util.ReadVarInt(r)
		if err != nil {
			return err
		}
		p.Properties = make([]Property, n)
		for i := range p.Properties {
			prop := &p.Properties[i]
			if prop.Name, err = util.ReadString(r); err != nil {
				return err
			}
			if prop.Value, err = util.ReadString(r); err != nil {
				return err
			}
			if prop.HasSig, err = util.ReadBool(r); err != nil {
				return err
			}
			if prop.HasSig {
				if prop.Signature, err = util.ReadString(r); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// SetCompression (proxy -> client/backend) enables the compression layer
// for every subsequent frame (spec.md §4.1).
type SetCompression struct {
	Threshold int32
}

func (p *SetCompression) Encode(c *proto.PacketContext, wr io.Writer) error {
	return util.WriteVarInt(wr, p.Threshold)
}

func (p *SetCompression) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.Threshold, err = util.ReadVarInt(rd.(stringReader))
	return
}

// LoginPluginRequest/Response implement the MODERN forwarding round trip
// (spec.md §4.4) and the generic login plugin-message mechanism used by
// other backend-auth schemes.
type LoginPluginRequest struct {
	MessageID int32
	Channel   string
	Data      []byte
}

func (p *LoginPluginRequest) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteVarInt(wr, p.MessageID); err != nil {
		return err
	}
	if err := util.WriteString(wr, p.Channel); err != nil {
		return err
	}
	_, err := wr.Write(p.Data)
	return err
}

func (p *LoginPluginRequest) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	p.MessageID, err = util.ReadVarInt(r)
	if err != nil {
		return err
	}
	p.Channel, err = util.ReadString(r)
	if err != nil {
		return err
	}
	p.Data, err = io.ReadAll(rd)
	return err
}

type LoginPluginResponse struct {
	MessageID int32
	Success   bool
	Data      []byte
}

func (p *LoginPluginResponse) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteVarInt(wr, p.MessageID); err != nil {
		return err
	}
	if err := util.WriteBool(wr, p.Success); err != nil {
		return err
	}
	_, err := wr.Write(p.Data)
	return err
}

func (p *LoginPluginResponse) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	p.MessageID, err = util.ReadVarInt(r)
	if err != nil {
		return err
	}
	p.Success, err = util.ReadBool(r)
	if err != nil {
		return err
	}
	if p.Success {
		p.Data, err = io.ReadAll(rd)
	}
	return err
}

// LoginAcknowledged (client -> proxy, modern only) confirms LoginSuccess
// and is the trigger for entering CONFIG proxy-side (spec.md §4.3).
type LoginAcknowledged struct{}

func (*LoginAcknowledged) Encode(*proto.PacketContext, io.Writer) error { return nil }
func (*LoginAcknowledged) Decode(*proto.PacketContext, io.Reader) error { return nil }

// Disconnect carries a chat-component kick reason, JSON-encoded under the
// dialect matching the connection's protocol (spec.md §3).
type Disconnect struct {
	Reason string // pre-serialized JSON component.
}

func (p *Disconnect) Encode(c *proto.PacketContext, wr io.Writer) error {
	return util.WriteString(wr, p.Reason)
}

func (p *Disconnect) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.Reason, err = util.ReadString(rd.(stringReader))
	return
}

// DisconnectWithProtocol builds a Disconnect packet for reason, encoded
// with the JSON dialect appropriate for protocol (spec.md §3).
func DisconnectWithProtocol(reason component.Component, protocol proto.Protocol) *Disconnect {
	return &Disconnect{Reason: marshalComponent(reason, protocol)}
}

func marshalComponent(reason component.Component, protocol proto.Protocol) string {
	s, _ := gateutil.MarshalToString(protocol, reason)
	return s
}
