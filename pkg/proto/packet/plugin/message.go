// Package plugin implements the plugin-message ("custom payload") packet
// and the register/unregister channel-negotiation convention layered on
// top of it (spec.md §4.5/§4.9's "channel registration" concept).
package plugin

import (
	"io"
	"strings"

	"go.minekube.com/gate/pkg/proto"
)

// Message is the plugin-message packet, carried in both LOGIN (modern
// forwarding) and PLAY.
type Message struct {
	Channel string
	Data    []byte
}

func (p *Message) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := writeString(wr, p.Channel); err != nil {
		return err
	}
	_, err := wr.Write(p.Data)
	return err
}

func (p *Message) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.Channel, err = readString(rd)
	if err != nil {
		return err
	}
	p.Data, err = io.ReadAll(rd)
	return err
}

const (
	registerChannel     = "REGISTER"
	unregisterChannel   = "UNREGISTER"
	registerChannelNew   = "minecraft:register"
	unregisterChannelNew = "minecraft:unregister"
	brandChannelLegacy   = "MC|Brand"
	brandChannelNew      = "minecraft:brand"
)

// Register reports whether m is a (de)registration request for one or
// more plugin channels, the mechanism the proxy uses to track per-session
// channel registrations across switches (spec.md §4.5/§9).
func Register(m *Message) bool {
	return m.Channel == registerChannel || m.Channel == registerChannelNew
}

func Unregister(m *Message) bool {
	return m.Channel == unregisterChannel || m.Channel == unregisterChannelNew
}

// LegacyRegister/LegacyUnregister match only the un-namespaced pre-1.13
// "REGISTER"/"UNREGISTER" channels, not their "minecraft:register"/
// "minecraft:unregister" successors.
func LegacyRegister(m *Message) bool  { return m.Channel == registerChannel }
func LegacyUnregister(m *Message) bool { return m.Channel == unregisterChannel }

// McBrand reports whether m is the client/server brand exchange packet.
func McBrand(m *Message) bool {
	return m.Channel == brandChannelLegacy || m.Channel == brandChannelNew
}

// Channels parses m's payload (NUL-separated channel identifiers) into a
// list, used for both REGISTER and UNREGISTER payloads.
func Channels(m *Message) []string {
	raw := string(m.Data)
	raw = strings.TrimRight(raw, "\x00")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\x00")
}

// ConstructChannelsPacket builds a REGISTER message listing channels,
// choosing the legacy or modern channel name per protocol (spec.md §4.5).
func ConstructChannelsPacket(protocol proto.Protocol, channels ...string) *Message {
	ch := registerChannel
	if protocol.GreaterEqual(proto.Minecraft_1_13) {
		ch = registerChannelNew
	}
	return &Message{Channel: ch, Data: []byte(strings.Join(channels, "\x00"))}
}

// RewriteMinecraftBrand rewrites the server-brand string embedded in m's
// payload to include this proxy's name, appending "(Gate)" the way the
// teacher's reference implementation tags the brand string shown on the
// client's F3 debug screen.
func RewriteMinecraftBrand(m *Message, protocol proto.Protocol) *Message {
	brand := readBrandString(m.Data)
	rewritten := brand + " (Gate)"
	buf := make([]byte, 0, len(rewritten)+5)
	buf = appendString(buf, rewritten)
	return &Message{Channel: m.Channel, Data: buf}
}

func readBrandString(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	// VarInt-length-prefixed UTF-8 string, same shape as any protocol string.
	n, offset := readVarIntPrefix(data)
	if offset < 0 || offset+n > len(data) {
		return string(data)
	}
	return string(data[offset : offset+n])
}

func readVarIntPrefix(data []byte) (n, offset int) {
	var result int32
	var shift uint
	for i := 0; i < len(data) && i < 5; i++ {
		b := data[i]
		result |= int32(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			return int(result), i + 1
		}
	}
	return 0, -1
}

func appendString(buf []byte, s string) []byte {
	n := len(s)
	for {
		b := byte(n & 0x7F)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if n == 0 {
			break
		}
	}
	return append(buf, s...)
}

func writeString(w io.Writer, s string) error {
	buf := appendString(nil, s)
	_, err := w.Write(buf)
	return err
}

func readString(r io.Reader) (string, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	var result int32
	var shift uint
	for i := 0; i < 5; i++ {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		result |= int32(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	buf := make([]byte, result)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
