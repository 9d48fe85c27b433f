// Package message implements the plugin-channel identifier and
// message-source/sink abstractions spec.md §9 calls "channel
// registrations as a per-session set of identifiers".
package message

// ChannelIdentifier names a plugin channel, either by its legacy raw
// string or its modern "namespace:path" form.
type ChannelIdentifier interface {
	Id() string
}

// minecraftChannelIdentifier is the common ChannelIdentifier
// implementation, usable for both legacy and modern channel names.
type minecraftChannelIdentifier struct {
	id string
}

func (m *minecraftChannelIdentifier) Id() string { return m.id }

// NewChannelIdentifier returns a ChannelIdentifier for the literal wire
// channel name id.
func NewChannelIdentifier(id string) ChannelIdentifier {
	return &minecraftChannelIdentifier{id: id}
}

// ChannelMessageSource is anything that can originate a plugin message
// (a Player or a backend ServerConnection).
type ChannelMessageSource interface {
	// It declares no methods, so any value satisfies it.
}

// ChannelMessageSink is anything a plugin message can be delivered to.
type ChannelMessageSink interface {
	SendPluginMessage(identifier ChannelIdentifier, data []byte) error
}
