package proxy

import (
	"context"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/packet"
	"go.minekube.com/gate/pkg/proto/packet/plugin"
	"go.minekube.com/gate/pkg/proto/state"
)

// configSessionHandler drives the player's side of the CONFIG state
// (modern protocols only, spec.md §4.3). It covers both the initial
// login's CONFIG phase and a transparent switch's reentry into CONFIG
// (spec.md §4.6 step 4).
type configSessionHandler struct {
	player *connectedPlayer

	// configComplete, when set, is closed by finish once
	// the client has acked the end of a switch's CONFIG phase, letting
	// switchServer resume.
	configComplete chan struct{}
}

func newConfigSessionHandler(player *connectedPlayer) *configSessionHandler {
	return &configSessionHandler{player: player}
}

func (h *configSessionHandler) handlePacket(_ context.Context, p proto.Packet) {
	switch pk := p.(type) {
	case *packet.ClientSettings: // == ClientInformation
		h.player.setSettings(pk)
		h.forwardToBackendConfig(pk)
	case *packet.AcknowledgeConfiguration:
		// Acknowledges our StartConfiguration; nothing further to do
		// before the backend's registry/tag relay arrives.
	case *packet.AcknowledgeFinishConfiguration:
		h.finish()
	case *plugin.Message:
		h.forwardToBackendConfig(pk)
	default:
		h.forwardToBackendConfig(p)
	}
}

func (h *configSessionHandler) forwardToBackendConfig(p proto.Packet) {
	sc := h.player.connectedServer()
	if sc == nil {
		sc = h.player.connectionInFlight()
	}
	if sc == nil {
		return
	}
	if c := sc.conn(); c != nil {
		_ = c.WritePacket(p)
	}
}

// finish transitions the player into PLAY and, if this CONFIG phase was
// part of a switch (configComplete set), signals the waiting coordinator.
func (h *configSessionHandler) finish() {
	h.player.setState(state.Play)
	h.player.setSessionHandler(newClientPlaySessionHandler(h.player))
	if h.configComplete != nil {
		close(h.configComplete)
	}
}

func (h *configSessionHandler) handleUnknownPacket(pc *proto.PacketContext) {
	h.forwardToBackendConfig(nil)
	sc := h.player.connectedServer()
	if sc == nil {
		sc = h.player.connectionInFlight()
	}
	if sc == nil {
		return
	}
	if c := sc.conn(); c != nil {
		_ = c.Write(pc.Payload)
	}
}

func (h *configSessionHandler) disconnected() { h.player.teardown() }
func (h *configSessionHandler) activated() {
	if h.player.connectedServer() == nil && h.player.connectionInFlight() == nil {
		beginServerSelection(h.player)
	}
}
func (h *configSessionHandler) deactivated() {}

var _ sessionHandler = (*configSessionHandler)(nil)

func (h *configSessionHandler) player_() *connectedPlayer { return h.player }

// beginServerSelection picks the player's first backend and starts
// dialing it; used both for the initial login and as the entry point a
// configSessionHandler falls back to if activated with no connection yet
// in flight (spec.md §8 scenario 2).
func beginServerSelection(player *connectedPlayer) {
	target := player.nextServerToTry(nil)
	if target == nil {
		_ = player.minecraftConn.closeWith(packet.DisconnectWithProtocol(
			zapComponent("No available servers to join."), player.Protocol()))
		return
	}
	req := player.CreateConnectionRequest(target)
	go func() {
		if _, err := req.Connect(context.Background()); err != nil {
			_ = player.minecraftConn.closeWith(packet.DisconnectWithProtocol(
				zapComponent("Could not connect to any server."), player.Protocol()))
		}
	}()
}
