package proxy

import (
	"go.minekube.com/gate/pkg/proto/packet/plugin"
	"go.minekube.com/gate/pkg/proxy/forge"
)

// connectionType classifies a client connection by whether it speaks the
// legacy Forge ("FML") modded handshake (spec.md §9 "supplemented
// features"). Connections start as undeterminedConnectionType; nothing in
// this package reclassifies them from the channels they register.
type connectionType interface {
	initialClientPhase() clientConnectionPhase
	addResourcePackHandling() bool
}

type basicConnectionType struct {
	initialPhase clientConnectionPhase
}

func (t *basicConnectionType) initialClientPhase() clientConnectionPhase { return t.initialPhase }
func (t *basicConnectionType) addResourcePackHandling() bool             { return true }

var (
	undeterminedConnectionType connectionType = &basicConnectionType{initialPhase: notStartedLegacyForgeHandshakeClientPhase}
	vanillaConnectionType      connectionType = &basicConnectionType{initialPhase: vanillaClientPhase}
	legacyForgeConnectionType  connectionType = &basicConnectionType{initialPhase: notStartedLegacyForgeHandshakeClientPhase}
)

// clientConnectionPhase tracks where a client is in the (optional)
// legacy Forge handshake, so FML|HS plugin messages can be routed and
// queued correctly relative to the vanilla login/switch state machine.
type clientConnectionPhase interface {
	consideredComplete() bool
	// handle processes a plugin message addressed to destination.
	// Returns true if it consumed the message (no further routing needed).
	handle(destination *serverConnection, message *plugin.Message) bool
	onFirstJoin(player *connectedPlayer)
	resetConnectionPhase(player *connectedPlayer)
}

// vanillaClientPhaseT is the phase for clients with no Forge handshake at
// all; everything is considered immediately complete.
type vanillaClientPhaseT struct{}

func (vanillaClientPhaseT) consideredComplete() bool { return true }
func (vanillaClientPhaseT) handle(*serverConnection, *plugin.Message) bool { return false }
func (vanillaClientPhaseT) onFirstJoin(*connectedPlayer)                   {}
func (vanillaClientPhaseT) resetConnectionPhase(*connectedPlayer)          {}

var vanillaClientPhase clientConnectionPhase = vanillaClientPhaseT{}

// legacyForgeHandshakeClientPhase models one step of the legacy FML|HS
// handshake. Unlike vanillaClientPhaseT, it is a pointer-identity enum:
// each named variable below is a distinct *legacyForgeHandshakeClientPhase
// value so it can be compared and swapped via connectedPlayer.setPhase.
type legacyForgeHandshakeClientPhase struct {
	name     string
	complete bool
}

func (p *legacyForgeHandshakeClientPhase) consideredComplete() bool { return p.complete }

func (p *legacyForgeHandshakeClientPhase) handle(destination *serverConnection, message *plugin.Message) bool {
	if !plugin.McBrand(message) && message.Channel != forge.LegacyHandshakeChannel {
		return false
	}
	// Forward the handshake message through untouched. The tracked phase
	// is not advanced here; only onFirstJoin and resetConnectionPhase
	// change it.
	if destination != nil {
		if conn := destination.conn(); conn != nil {
			_ = conn.WritePacket(message)
		}
	}
	return true
}

func (p *legacyForgeHandshakeClientPhase) onFirstJoin(player *connectedPlayer) {
	player.setPhase(completeLegacyForgeHandshakeClientPhase)
}

func (p *legacyForgeHandshakeClientPhase) resetConnectionPhase(player *connectedPlayer) {
	player.setPhase(notStartedLegacyForgeHandshakeClientPhase)
}

var (
	notStartedLegacyForgeHandshakeClientPhase = &legacyForgeHandshakeClientPhase{name: "NOT_STARTED", complete: false}
	helloLegacyForgeHandshakeClientPhase      = &legacyForgeHandshakeClientPhase{name: "HELLO", complete: false}
	completeLegacyForgeHandshakeClientPhase   = &legacyForgeHandshakeClientPhase{name: "COMPLETE", complete: true}
)

// backendConnectionPhase mirrors clientConnectionPhase for the server
// side of a switch; inTransitionBackendPhase marks a connection that has
// been told to start a new backend but has not replied yet, during which
// Forge messages must bypass the old backend entirely
// (session_client_play.go's handlePluginMessage).
type backendConnectionPhase = *legacyForgeHandshakeClientPhase

var inTransitionBackendPhase backendConnectionPhase = &legacyForgeHandshakeClientPhase{name: "IN_TRANSIT", complete: false}
