package proxy

import (
	"context"
	"net"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/packet"
	"go.minekube.com/gate/pkg/proto/state"
	"go.uber.org/zap"
)

// handshakeSessionHandler handles the single HANDSHAKE packet every
// connection starts with (spec.md §4.3), then hands the connection off
// to the STATUS or LOGIN session handler per the declared NextStatus.
type handshakeSessionHandler struct {
	conn *minecraftConn
}

func newHandshakeSessionHandler(conn *minecraftConn) *handshakeSessionHandler {
	return &handshakeSessionHandler{conn: conn}
}

func (h *handshakeSessionHandler) handlePacket(_ context.Context, p proto.Packet) {
	hs, ok := p.(*packet.Handshake)
	if !ok {
		return
	}

	protocol := proto.Protocol(hs.ProtocolVersion)
	h.conn.setProtocol(protocol)
	h.conn.virtualHost = virtualHostFrom(hs.ServerAddress, hs.Port)

	switch hs.NextStatus {
	case packet.HandshakeStatus:
		h.conn.setState(state.Status)
		h.conn.setSessionHandler(newStatusSessionHandler(h.conn))
	case packet.HandshakeLogin:
		if !protocol.Supported() {
			_ = h.conn.closeWith(packet.DisconnectWithProtocol(unsupportedVersionReason, protocol))
			return
		}
		h.conn.setState(state.Login)
		h.conn.setSessionHandler(newLoginSessionHandler(h.conn))
	default:
		// spec.md §7 ProtocolViolation: unknown NextStatus in a
		// disciplined state closes the connection with no feedback.
		_ = h.conn.close()
	}
}

func (h *handshakeSessionHandler) handleUnknownPacket(*proto.PacketContext) { _ = h.conn.close() }
func (h *handshakeSessionHandler) disconnected()                            {}
func (h *handshakeSessionHandler) activated()                               {}
func (h *handshakeSessionHandler) deactivated()                             {}

var _ sessionHandler = (*handshakeSessionHandler)(nil)

// virtualHostFrom turns the Handshake's claimed server address/port into
// a net.Addr for Inbound.VirtualHost.
func virtualHostFrom(host string, port uint16) net.Addr {
	return &net.TCPAddr{IP: net.ParseIP(host), Port: int(port)}
}

var unsupportedVersionReason = zapComponent("Your client's Minecraft version is not supported by this proxy.")
