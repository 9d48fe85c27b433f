package packet

import (
	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/packet/plugin"
	"go.minekube.com/gate/pkg/proto/state"
)

// init populates the immutable packet registries (spec.md §4.2, design
// note "packet registries as immutable tables"). Registration happens
// once, at package load, before any connection exists, matching the
// teacher's "built once at startup, shared by reference" requirement.
func init() {
	m := func(p proto.Version, id int) state.Mapping { return state.Mapping{Protocol: p.Protocol, ID: id} }

	// HANDSHAKE: exactly one serverbound packet, no clientbound traffic.
	state.Handshake.ServerBound.Register(func() proto.Packet { return new(Handshake) },
		m(proto.Minecraft_1_7_2, 0x00))

	// STATUS
	state.Status.ServerBound.Register(func() proto.Packet { return new(StatusRequest) },
		m(proto.Minecraft_1_7_2, 0x00))
	state.Status.ServerBound.Register(func() proto.Packet { return new(Ping) },
		m(proto.Minecraft_1_7_2, 0x01))
	state.Status.ClientBound.Register(func() proto.Packet { return new(StatusResponse) },
		m(proto.Minecraft_1_7_2, 0x00))
	state.Status.ClientBound.Register(func() proto.Packet { return new(Pong) },
		m(proto.Minecraft_1_7_2, 0x01))

	// LOGIN
	state.Login.ServerBound.Register(func() proto.Packet { return new(LoginStart) },
		m(proto.Minecraft_1_7_2, 0x00))
	state.Login.ServerBound.Register(func() proto.Packet { return new(EncryptionResponse) },
		m(proto.Minecraft_1_7_2, 0x01))
	state.Login.ServerBound.Register(func() proto.Packet { return new(LoginPluginResponse) },
		m(proto.Minecraft_1_13, 0x02))
	state.Login.ServerBound.Register(func() proto.Packet { return new(LoginAcknowledged) },
		m(proto.Minecraft_1_20_2, 0x03))

	state.Login.ClientBound.Register(func() proto.Packet { return new(Disconnect) },
		m(proto.Minecraft_1_7_2, 0x00))
	state.Login.ClientBound.Register(func() proto.Packet { return new(EncryptionRequest) },
		m(proto.Minecraft_1_7_2, 0x01))
	state.Login.ClientBound.Register(func() proto.Packet { return new(LoginSuccess) },
		m(proto.Minecraft_1_7_2, 0x02))
	state.Login.ClientBound.Register(func() proto.Packet { return new(SetCompression) },
		m(proto.Minecraft_1_8, 0x03))
	state.Login.ClientBound.Register(func() proto.Packet { return new(LoginPluginRequest) },
		m(proto.Minecraft_1_13, 0x04))

	// CONFIG (modern only, >= 1.20.2)
	state.Config.ServerBound.Register(func() proto.Packet { return new(ClientInformation) },
		m(proto.Minecraft_1_20_2, 0x00))
	state.Config.ServerBound.Register(func() proto.Packet { return new(plugin.Message) },
		m(proto.Minecraft_1_20_2, 0x02))
	state.Config.ServerBound.Register(func() proto.Packet { return new(AcknowledgeFinishConfiguration) },
		m(proto.Minecraft_1_20_2, 0x03))
	state.Config.ServerBound.Register(func() proto.Packet { return new(AcknowledgeConfiguration) },
		m(proto.Minecraft_1_20_2, 0x03))

	state.Config.ClientBound.Register(func() proto.Packet { return new(plugin.Message) },
		m(proto.Minecraft_1_20_2, 0x01))
	state.Config.ClientBound.Register(func() proto.Packet { return new(Disconnect) },
		m(proto.Minecraft_1_20_2, 0x02))
	state.Config.ClientBound.Register(func() proto.Packet { return new(FinishConfiguration) },
		m(proto.Minecraft_1_20_2, 0x03))
	state.Config.ClientBound.Register(func() proto.Packet { return new(RegistryData) },
		m(proto.Minecraft_1_20_2, 0x07))
	state.Config.ClientBound.Register(func() proto.Packet { return new(TagData) },
		m(proto.Minecraft_1_20_2, 0x0D))
	state.Config.ClientBound.Register(func() proto.Packet { return new(StartConfiguration) },
		m(proto.Minecraft_1_20_2, 0x0F))

	// PLAY (ids settled around 1.16 for the subset this proxy interprets;
	// newer clients have many more PLAY packets the proxy never decodes —
	// those are simply not registered and fall back to relay-through,
	// spec.md §4.2's "unknown IDs in PLAY = relay-through" rule).
	state.Play.ServerBound.Register(func() proto.Packet { return new(Chat) },
		m(proto.Minecraft_1_7_2, 0x01), m(proto.Minecraft_1_9, 0x02), m(proto.Minecraft_1_12, 0x03))
	state.Play.ServerBound.Register(func() proto.Packet { return new(ClientSettings) },
		m(proto.Minecraft_1_7_2, 0x15), m(proto.Minecraft_1_9, 0x04), m(proto.Minecraft_1_12, 0x05))
	state.Play.ServerBound.Register(func() proto.Packet { return new(KeepAlive) },
		m(proto.Minecraft_1_7_2, 0x00), m(proto.Minecraft_1_9, 0x0B), m(proto.Minecraft_1_12_2, 0x0E))
	state.Play.ServerBound.Register(func() proto.Packet { return new(plugin.Message) },
		m(proto.Minecraft_1_7_2, 0x17), m(proto.Minecraft_1_9, 0x09), m(proto.Minecraft_1_12_2, 0x0A))

	state.Play.ClientBound.Register(func() proto.Packet { return new(JoinGame) },
		m(proto.Minecraft_1_7_2, 0x01))
	state.Play.ClientBound.Register(func() proto.Packet { return new(Chat) },
		m(proto.Minecraft_1_7_2, 0x02), m(proto.Minecraft_1_9, 0x0F), m(proto.Minecraft_1_19, 0x62))
	state.Play.ClientBound.Register(func() proto.Packet { return new(Disconnect) },
		m(proto.Minecraft_1_7_2, 0x40), m(proto.Minecraft_1_9, 0x1A), m(proto.Minecraft_1_19, 0x19))
	state.Play.ClientBound.Register(func() proto.Packet { return new(KeepAlive) },
		m(proto.Minecraft_1_7_2, 0x00), m(proto.Minecraft_1_9, 0x1F), m(proto.Minecraft_1_19, 0x20))
	state.Play.ClientBound.Register(func() proto.Packet { return new(Respawn) },
		m(proto.Minecraft_1_7_2, 0x07), m(proto.Minecraft_1_9, 0x33), m(proto.Minecraft_1_19, 0x3E))
	state.Play.ClientBound.Register(func() proto.Packet { return new(Title) },
		m(proto.Minecraft_1_8, 0x45), m(proto.Minecraft_1_17, 0x5A))
	state.Play.ClientBound.Register(func() proto.Packet { return new(ResourcePackRequest) },
		m(proto.Minecraft_1_8, 0x48))
	state.Play.ClientBound.Register(func() proto.Packet { return new(plugin.Message) },
		m(proto.Minecraft_1_7_2, 0x3F), m(proto.Minecraft_1_9, 0x18), m(proto.Minecraft_1_19, 0x16))
}
