package proto

import "fmt"

// Protocol is a Minecraft Java Edition wire-protocol version number, as
// declared by the client in the Handshake packet (spec.md §3).
type Protocol int

// GreaterEqual reports whether p is the same or a newer protocol than v.
func (p Protocol) GreaterEqual(v Version) bool { return p >= v.Protocol }

// Lower reports whether p is an older protocol than v.
func (p Protocol) Lower(v Version) bool { return p < v.Protocol }

// Equal reports whether p is exactly v's protocol number.
func (p Protocol) Equal(v Version) bool { return p == v.Protocol }

func (p Protocol) String() string {
	if v, ok := byProtocol[p]; ok {
		return v.Name
	}
	return fmt.Sprintf("unknown(%d)", int(p))
}

// Version names a released wire-protocol revision.
type Version struct {
	Name     string
	Protocol Protocol
}

// Known protocol versions. Numbers match the values Mojang assigned to
// each release; they are the keys packet registries are diffed against
// (spec.md §4.2).
var (
	Minecraft_1_7_2  = Version{"1.7.2", 4}
	Minecraft_1_7_6  = Version{"1.7.6", 5}
	Minecraft_1_8    = Version{"1.8", 47}
	Minecraft_1_9    = Version{"1.9", 107}
	Minecraft_1_10   = Version{"1.10", 210}
	Minecraft_1_11   = Version{"1.11", 315}
	Minecraft_1_12   = Version{"1.12", 335}
	Minecraft_1_12_1 = Version{"1.12.1", 338}
	Minecraft_1_12_2 = Version{"1.12.2", 340}
	Minecraft_1_13   = Version{"1.13", 393}
	Minecraft_1_13_2 = Version{"1.13.2", 404}
	Minecraft_1_14   = Version{"1.14", 477}
	Minecraft_1_15   = Version{"1.15", 573}
	Minecraft_1_16   = Version{"1.16", 735}
	Minecraft_1_16_2 = Version{"1.16.2", 751}
	Minecraft_1_17   = Version{"1.17", 755}
	Minecraft_1_18   = Version{"1.18", 757}
	Minecraft_1_18_2 = Version{"1.18.2", 758}
	Minecraft_1_19   = Version{"1.19", 759}
	Minecraft_1_19_3 = Version{"1.19.3", 761}
	Minecraft_1_19_4 = Version{"1.19.4", 762}
	Minecraft_1_20   = Version{"1.20", 763}
	Minecraft_1_20_2 = Version{"1.20.2", 764}
	Minecraft_1_20_3 = Version{"1.20.3", 765}
	Minecraft_1_20_5 = Version{"1.20.5", 766}
	Minecraft_1_21   = Version{"1.21", 767}
)

// Versions lists every known version, ascending, used to build packet
// registries and to pick the "supported" range for status pings.
var Versions = []Version{
	Minecraft_1_7_2, Minecraft_1_7_6, Minecraft_1_8, Minecraft_1_9, Minecraft_1_10,
	Minecraft_1_11, Minecraft_1_12, Minecraft_1_12_1, Minecraft_1_12_2,
	Minecraft_1_13, Minecraft_1_13_2, Minecraft_1_14, Minecraft_1_15,
	Minecraft_1_16, Minecraft_1_16_2, Minecraft_1_17, Minecraft_1_18, Minecraft_1_18_2,
	Minecraft_1_19, Minecraft_1_19_3, Minecraft_1_19_4,
	Minecraft_1_20, Minecraft_1_20_2, Minecraft_1_20_3, Minecraft_1_20_5, Minecraft_1_21,
}

var byProtocol = func() map[Protocol]Version {
	m := make(map[Protocol]Version, len(Versions))
	for _, v := range Versions {
		m[v.Protocol] = v
	}
	return m
}()

// MinSupported and MaxSupported bound the range this proxy will accept
// for LOGIN (spec.md §4.2); STATUS pings are always served regardless.
var (
	MinSupported = Minecraft_1_7_2
	MaxSupported = Minecraft_1_21
)

// Supported reports whether p falls within [MinSupported, MaxSupported].
func (p Protocol) Supported() bool {
	return p.GreaterEqual(MinSupported) && p.Lower(Version{Protocol: MaxSupported.Protocol + 1})
}

// JSONDialect identifies which chat-component JSON encoding a protocol
// version expects (spec.md §3).
type JSONDialect int

const (
	JSONDialectPre116 JSONDialect = iota
	JSONDialect116To1202
	JSONDialectModern // >= 1.20.3
)

// Dialect returns the JSON dialect to use for p.
func (p Protocol) Dialect() JSONDialect {
	switch {
	case p.GreaterEqual(Minecraft_1_20_3):
		return JSONDialectModern
	case p.GreaterEqual(Minecraft_1_16):
		return JSONDialect116To1202
	default:
		return JSONDialectPre116
	}
}
