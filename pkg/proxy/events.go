package proxy

import (
	"go.minekube.com/gate/pkg/proxy/message"
	"go.minekube.com/gate/pkg/proxy/player"
)

// resultedEvent is embedded by every cancellable event to implement
// event.ResultedEvent uniformly.
type resultedEvent struct {
	allowed bool
}

func (e *resultedEvent) Allowed() bool     { return e.allowed }
func (e *resultedEvent) SetAllowed(v bool) { e.allowed = v }

// LoginStatus classifies why a Player's session ended, recorded at
// teardown time (player.go's teardown()).
type LoginStatus int

const (
	SuccessfulLoginStatus LoginStatus = iota
	ConflictingLoginStatus
	CanceledByUserLoginStatus
	CanceledByProxyLoginStatus
)

// DisconnectEvent fires once a Player's connection has fully closed and
// been unregistered from the player registry (spec.md §9's onDisconnect
// hook).
type DisconnectEvent struct {
	player      *connectedPlayer
	loginStatus LoginStatus
}

func (e *DisconnectEvent) Player() Player           { return e.player }
func (e *DisconnectEvent) LoginStatus() LoginStatus { return e.loginStatus }

// CommandExecuteEvent fires before a slash-command typed by a player is
// dispatched to the registered command manager (spec.md §6's admin
// command surface).
type CommandExecuteEvent struct {
	resultedEvent
	source      CommandSource
	commandline string
}

func (e *CommandExecuteEvent) Source() CommandSource { return e.source }
func (e *CommandExecuteEvent) CommandLine() string   { return e.commandline }

// PluginMessageEvent fires for a plugin message that has cleared Forge
// handshake routing and is ready to be forwarded verbatim, giving
// subscribers (spec.md §9's onPluginMessage hook) a chance to veto it.
type PluginMessageEvent struct {
	resultedEvent
	source     message.ChannelMessageSource
	target     message.ChannelMessageSink
	identifier message.ChannelIdentifier
	data       []byte
}

func (e *PluginMessageEvent) Identifier() message.ChannelIdentifier { return e.identifier }
func (e *PluginMessageEvent) Data() []byte                          { return e.data }

// PlayerSettingsChangedEvent fires when a player sends new ClientSettings.
type PlayerSettingsChangedEvent struct {
	player   *connectedPlayer
	settings player.Settings
}

func (e *PlayerSettingsChangedEvent) Player() Player         { return e.player }
func (e *PlayerSettingsChangedEvent) Settings() player.Settings { return e.settings }

// PlayerChatEvent fires for a non-command chat message before it is
// forwarded to the player's current backend.
type PlayerChatEvent struct {
	resultedEvent
	player  *connectedPlayer
	message string
}

func (e *PlayerChatEvent) Player() Player    { return e.player }
func (e *PlayerChatEvent) Message() string   { return e.message }

// ServerPreConnectEvent fires before the proxy dials a backend on behalf
// of a player, for the first join or a later switch (spec.md §9's
// onServerPreConnect hook).
type ServerPreConnectEvent struct {
	resultedEvent
	player  *connectedPlayer
	original RegisteredServer
	server   RegisteredServer
}

func (e *ServerPreConnectEvent) Player() Player           { return e.player }
func (e *ServerPreConnectEvent) OriginalServer() RegisteredServer { return e.original }
func (e *ServerPreConnectEvent) Server() RegisteredServer         { return e.server }
func (e *ServerPreConnectEvent) SetServer(s RegisteredServer)     { e.server = s }

// ServerConnectedEvent fires once a switch/first-join has completed and
// the player is fully in PLAY on the new backend (spec.md §9's
// onServerConnected hook).
type ServerConnectedEvent struct {
	player         *connectedPlayer
	server         RegisteredServer
	previousServer RegisteredServer
}

func (e *ServerConnectedEvent) Player() Player                   { return e.player }
func (e *ServerConnectedEvent) Server() RegisteredServer         { return e.server }
func (e *ServerConnectedEvent) PreviousServer() RegisteredServer { return e.previousServer }
