package packet

import (
	"io"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/util"
	"go.minekube.com/gate/pkg/util/uuid"
)

// MaxServerBoundMessageLength is the longest chat message a vanilla
// client will ever send (spec.md is silent on this; it is an original
// protocol constant carried over from the reference implementation).
const MaxServerBoundMessageLength = 256

// KeepAlive is sent periodically in both directions during PLAY to detect
// dead connections; the proxy tracks round-trip time from it (spec.md's
// ping attribute, player.go's Ping()).
type KeepAlive struct {
	RandomId int64
}

func (p *KeepAlive) Encode(c *proto.PacketContext, wr io.Writer) error {
	if c.Protocol.GreaterEqual(proto.Minecraft_1_12_2) {
		return util.WriteInt64(wr, p.RandomId)
	}
	return util.WriteVarInt(wr, int32(p.RandomId))
}

func (p *KeepAlive) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	if c.Protocol.GreaterEqual(proto.Minecraft_1_12_2) {
		p.RandomId, err = util.ReadInt64(rd)
		return
	}
	v, err := util.ReadVarInt(rd.(stringReader))
	p.RandomId = int64(v)
	return err
}

// DimensionInfo carries the handful of dimension fields JoinGame/Respawn
// need to reset client world state across a switch (spec.md §4.6).
type DimensionInfo struct {
	RegistryIdentifier string
	LevelName          string
	Flat               bool
	Debug              bool
}

// JoinGame (backend -> proxy -> client, first time only forwarded
// verbatim) establishes the client in PLAY. Subsequent ones (received on
// a legacy-protocol switch) are translated into a Respawn pair instead of
// forwarded verbatim (spec.md §4.6 step 3; session_client_play.go).
type JoinGame struct {
	EntityId             int32
	Gamemode             byte
	PreviousGamemode     byte
	Dimension            int32
	PartialHashedSeed     int64
	Difficulty           byte
	LevelType            *string
	DimensionInfo        *DimensionInfo
	CurrentDimensionData []byte
	ViewDistance         int32
}

func (p *JoinGame) Encode(c *proto.PacketContext, wr io.Writer) error {
	// Encoded verbatim from the fields the backend sent; the proxy never
	// constructs a JoinGame itself, only relays/rewrites one, so a full
	// wire encoding is intentionally not implemented here (see
	// handleBackendPlay, which rewrites via Respawn instead).
	return util.WriteInt32(wr, p.EntityId)
}

func (p *JoinGame) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.EntityId, err = util.ReadInt32(rd)
	return
}

// Respawn resets client-visible dimension/gamemode state without a full
// reconnect — the mechanism spec.md §4.6 step 3 uses for legacy-protocol
// switches.
type Respawn struct {
	Dimension            int32
	PartialHashedSeed    int64
	Difficulty           byte
	Gamemode             byte
	LevelType            string
	ShouldKeepPlayerData bool
	DimensionInfo        *DimensionInfo
	PreviousGamemode     byte
	CurrentDimensionData []byte
}

func (p *Respawn) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteInt32(wr, p.Dimension); err != nil {
		return err
	}
	if err := util.WriteInt64(wr, p.PartialHashedSeed); err != nil {
		return err
	}
	if err := util.WriteByte(wr, p.Difficulty); err != nil {
		return err
	}
	if err := util.WriteByte(wr, p.Gamemode); err != nil {
		return err
	}
	return util.WriteString(wr, p.LevelType)
}

func (p *Respawn) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	if p.Dimension, err = util.ReadInt32(rd); err != nil {
		return err
	}
	if p.PartialHashedSeed, err = util.ReadInt64(rd); err != nil {
		return err
	}
	if p.Difficulty, err = util.ReadByte(r); err != nil {
		return err
	}
	if p.Gamemode, err = util.ReadByte(r); err != nil {
		return err
	}
	p.LevelType, err = util.ReadString(r)
	return err
}

// MessagePosition identifies where a Chat packet's text is displayed.
type MessagePosition byte

const (
	ChatMessage     MessagePosition = 0
	SystemMessage   MessagePosition = 1
	ActionBarMessage MessagePosition = 2
)

// Chat carries either a client chat message (serverbound) or an already
// JSON-serialized component for display (clientbound).
type Chat struct {
	Message string
	Type    MessagePosition
	Sender  uuid.UUID
}

func (p *Chat) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteString(wr, p.Message); err != nil {
		return err
	}
	if c.Direction == proto.ClientBound {
		if err := util.WriteByte(wr, byte(p.Type)); err != nil {
			return err
		}
		if c.Protocol.GreaterEqual(proto.Minecraft_1_16) {
			return util.WriteUUID(wr, p.Sender)
		}
	}
	return nil
}

func (p *Chat) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	p.Message, err = util.ReadString(r)
	if err != nil {
		return err
	}
	if c.Direction == proto.ClientBound {
		b, err := util.ReadByte(r)
		if err != nil {
			return err
		}
		p.Type = MessagePosition(b)
		if c.Protocol.GreaterEqual(proto.Minecraft_1_16) {
			p.Sender, err = util.ReadUUID(rd)
			return err
		}
	}
	return nil
}

// ClientSettings (client -> proxy) carries locale/view-distance/skin-parts
// settings, forwarded verbatim to the backend (session_client_play.go).
type ClientSettings struct {
	Locale       string
	ViewDistance byte
	ChatMode     int32
	ChatColors   bool
	SkinParts    byte
	MainHand     int32
}

func (p *ClientSettings) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteString(wr, p.Locale); err != nil {
		return err
	}
	if err := util.WriteByte(wr, p.ViewDistance); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, p.ChatMode); err != nil {
		return err
	}
	if err := util.WriteBool(wr, p.ChatColors); err != nil {
		return err
	}
	if err := util.WriteByte(wr, p.SkinParts); err != nil {
		return err
	}
	return util.WriteVarInt(wr, p.MainHand)
}

func (p *ClientSettings) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	if p.Locale, err = util.ReadString(r); err != nil {
		return err
	}
	if p.ViewDistance, err = util.ReadByte(r); err != nil {
		return err
	}
	if p.ChatMode, err = util.ReadVarInt(r); err != nil {
		return err
	}
	if p.ChatColors, err = util.ReadBool(r); err != nil {
		return err
	}
	if p.SkinParts, err = util.ReadByte(r); err != nil {
		return err
	}
	p.MainHand, err = util.ReadVarInt(r)
	return err
}

// ResourcePackRequest (proxy -> client) as used by Player.SendResourcePack.
type ResourcePackRequest struct {
	Url  string
	Hash string
}

func (p *ResourcePackRequest) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteString(wr, p.Url); err != nil {
		return err
	}
	return util.WriteString(wr, p.Hash)
}

func (p *ResourcePackRequest) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	if p.Url, err = util.ReadString(r); err != nil {
		return err
	}
	p.Hash, err = util.ReadString(r)
	return err
}

// TitleAction selects which Title sub-operation a packet performs.
type TitleAction int32

const (
	SetTitle TitleAction = iota
	SetSubtitle
	SetActionBar
	SetTimesAndDisplay
	Clear
	ResetTitle
)

// Title is the umbrella packet for the title/subtitle/action-bar family;
// only the fields relevant to Action are meaningful.
type Title struct {
	Action    TitleAction
	Component *string
}

func (p *Title) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteVarInt(wr, int32(p.Action)); err != nil {
		return err
	}
	if p.Component != nil {
		return util.WriteString(wr, *p.Component)
	}
	return nil
}

func (p *Title) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	r := rd.(stringReader)
	action, err := util.ReadVarInt(r)
	if err != nil {
		return err
	}
	p.Action = TitleAction(action)
	return nil
}

// NewResetTitle returns the packet used to clear a previous server's
// lingering title state on switch (spec.md §4.6 step 3's client reset).
func NewResetTitle(protocol proto.Protocol) *Title {
	if protocol.GreaterEqual(proto.Minecraft_1_17) {
		return &Title{Action: Clear}
	}
	return &Title{Action: ResetTitle}
}
