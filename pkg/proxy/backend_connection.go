package proxy

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"go.minekube.com/gate/pkg/auth"
	"go.minekube.com/gate/pkg/config"
	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/packet"
	"go.minekube.com/gate/pkg/proto/packet/plugin"
	"go.minekube.com/gate/pkg/proto/state"
	"go.uber.org/zap"
)

// performServerLogin drives the proxy's own HANDSHAKE+LOGIN as a client of
// server, on the already-dialed conn, applying the configured forwarding
// strategy and blocking until the backend admits the player or rejects it
// (spec.md §4.4's handshake, performed a second time proxy-to-backend;
// spec.md §4.6 step 1).
func performServerLogin(ctx context.Context, player *connectedPlayer, server *registeredServer, conn *minecraftConn) error {
	info := server.ServerInfo()
	host, portStr, err := net.SplitHostPort(info.Addr().String())
	if err != nil {
		host, portStr = info.Addr().String(), "25565"
	}
	port, _ := strconv.Atoi(portStr)

	cfg := player.proxy.config
	forwarder := auth.NewForwarder(cfg.ForwardingFor(info.Name()), cfg.ForwardingSecret)
	clientIP := host
	if tcpAddr, ok := player.RemoteAddr().(*net.TCPAddr); ok {
		clientIP = tcpAddr.IP.String()
	}
	address := forwarder.RewriteHandshakeAddress(host, clientIP, player.profile)

	if err := conn.WritePacket(&packet.Handshake{
		ProtocolVersion: int32(player.Protocol()),
		ServerAddress:   address,
		Port:            uint16(port),
		NextStatus:      packet.HandshakeLogin,
	}); err != nil {
		return fmt.Errorf("writing backend handshake: %w", err)
	}
	conn.setProtocol(player.Protocol())
	conn.setState(state.Login)

	if err := conn.WritePacket(&packet.LoginStart{
		Username:   player.profile.Name,
		HolderUUID: player.profile.Id,
	}); err != nil {
		return fmt.Errorf("writing backend login start: %w", err)
	}

	done := make(chan error, 1)
	handler := &backendLoginSessionHandler{
		conn:   conn,
		player: player,
		server: server,
		done:   done,
	}
	conn.setSessionHandler(handler)
	go conn.readLoop(ctx)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backendLoginSessionHandler completes the backend-facing half of the
// LOGIN state: optional compression, the MODERN forwarding plugin-message
// round trip, and LoginSuccess.
type backendLoginSessionHandler struct {
	conn   *minecraftConn
	player *connectedPlayer
	server *registeredServer
	done   chan error
}

func (h *backendLoginSessionHandler) handlePacket(_ context.Context, p proto.Packet) {
	switch pk := p.(type) {
	case *packet.SetCompression:
		_ = h.conn.SetCompressionThreshold(int(pk.Threshold))
	case *packet.LoginPluginRequest:
		h.handleLoginPluginRequest(pk)
	case *packet.Disconnect:
		h.finish(fmt.Errorf("backend %q rejected login: %s", h.server.ServerInfo().Name(), pk.Reason))
	case *packet.LoginSuccess:
		h.finish(nil)
	}
}

func (h *backendLoginSessionHandler) handleLoginPluginRequest(p *packet.LoginPluginRequest) {
	mode := h.player.proxy.config.ForwardingFor(h.server.ServerInfo().Name())
	if mode != config.ForwardingModern {
		_ = h.conn.WritePacket(&packet.LoginPluginResponse{MessageID: p.MessageID, Success: false})
		return
	}
	secret := []byte(h.player.proxy.config.ForwardingSecret)
	payload, err := auth.WriteModernForwarding(secret, addrHost(h.player.RemoteAddr()), h.player.profile)
	if err != nil {
		_ = h.conn.WritePacket(&packet.LoginPluginResponse{MessageID: p.MessageID, Success: false})
		return
	}
	_ = h.conn.WritePacket(&packet.LoginPluginResponse{
		MessageID: p.MessageID,
		Success:   true,
		Data:      payload,
	})
}

func (h *backendLoginSessionHandler) finish(err error) {
	select {
	case h.done <- err:
	default:
	}
	if err != nil {
		return
	}
	if h.player.Protocol().GreaterEqual(proto.Minecraft_1_20_2) {
		h.conn.setState(state.Config)
		h.conn.setSessionHandler(newBackendConfigSessionHandler(h.player, h.server, h.conn))
		return
	}
	h.conn.setState(state.Play)
	h.conn.setSessionHandler(newBackendPlaySessionHandler(h.player, h.server, h.conn))
}

func (h *backendLoginSessionHandler) handleUnknownPacket(*proto.PacketContext) {}
func (h *backendLoginSessionHandler) disconnected() {
	h.finish(fmt.Errorf("backend %q closed the connection during login", h.server.ServerInfo().Name()))
}
func (h *backendLoginSessionHandler) activated()   {}
func (h *backendLoginSessionHandler) deactivated() {}

var _ sessionHandler = (*backendLoginSessionHandler)(nil)

// backendConfigSessionHandler relays the CONFIG exchange a modern backend
// drives right after LOGIN: registry/tag data and plugin messages are
// opaque and simply forwarded to the client's own CONFIG handler
// (spec.md §4.6 step 4); FinishConfiguration is the handoff signal into
// PLAY on both legs.
type backendConfigSessionHandler struct {
	player *connectedPlayer
	server *registeredServer
	conn   *minecraftConn
}

func newBackendConfigSessionHandler(player *connectedPlayer, server *registeredServer, conn *minecraftConn) *backendConfigSessionHandler {
	return &backendConfigSessionHandler{player: player, server: server, conn: conn}
}

func (h *backendConfigSessionHandler) handlePacket(_ context.Context, p proto.Packet) {
	if _, ok := p.(*packet.FinishConfiguration); ok {
		_ = h.player.WritePacket(p)
		_ = h.conn.WritePacket(&packet.AcknowledgeFinishConfiguration{})
		h.conn.setState(state.Play)
		h.conn.setSessionHandler(newBackendPlaySessionHandler(h.player, h.server, h.conn))
		return
	}
	_ = h.player.WritePacket(p)
}

func (h *backendConfigSessionHandler) handleUnknownPacket(pc *proto.PacketContext) {
	_ = h.player.Write(pc.Payload)
}
func (h *backendConfigSessionHandler) disconnected() {}
func (h *backendConfigSessionHandler) activated()    {}
func (h *backendConfigSessionHandler) deactivated()  {}

var _ sessionHandler = (*backendConfigSessionHandler)(nil)

// backendPlaySessionHandler is the steady-state PLAY relay from a backend
// to its player: everything is forwarded verbatim except JoinGame, which
// drives the client-side switch machinery in session_client_play.go.
type backendPlaySessionHandler struct {
	player *connectedPlayer
	server *registeredServer
	conn   *minecraftConn
}

func newBackendPlaySessionHandler(player *connectedPlayer, server *registeredServer, conn *minecraftConn) *backendPlaySessionHandler {
	return &backendPlaySessionHandler{player: player, server: server, conn: conn}
}

func (h *backendPlaySessionHandler) handlePacket(_ context.Context, p proto.Packet) {
	switch pk := p.(type) {
	case *packet.JoinGame:
		sc := h.player.connectedServer()
		if sc == nil || sc.conn() != h.conn {
			sc = h.player.connectionInFlight()
		}
		if sc == nil {
			return
		}
		played, ok := h.player.SessionHandler().(*clientPlaySessionHandler)
		if !ok {
			return
		}
		played.handleBackendJoinGame(pk, sc)
	case *packet.KeepAlive:
		sc := h.player.connectedServer()
		if sc != nil {
			sc.lastPingId.Store(pk.RandomId)
		}
		_ = h.player.WritePacket(p)
	case *plugin.Message:
		_ = h.player.WritePacket(p)
	default:
		_ = h.player.WritePacket(p)
	}
}

func (h *backendPlaySessionHandler) handleUnknownPacket(pc *proto.PacketContext) {
	_ = h.player.Write(pc.Payload)
}

func (h *backendPlaySessionHandler) disconnected() {
	if h.player.connectedServer() != nil && h.player.connectedServer().conn() == h.conn {
		go attemptRedial(h.player, h.server)
	}
}
func (h *backendPlaySessionHandler) activated()   {}
func (h *backendPlaySessionHandler) deactivated() {}

var _ sessionHandler = (*backendPlaySessionHandler)(nil)

// attemptRedial tries the player's next configured fallback after an
// unexpected backend disconnect (spec.md §8 scenario 6). With dynamic
// fallbacks enabled it picks the least-populated fallback; otherwise the
// next one in declared order.
func attemptRedial(player *connectedPlayer, from *registeredServer) {
	if !player.Active() {
		return
	}
	var next RegisteredServer
	if cfg := player.proxy.config; cfg.EnableDynamicFallbacks {
		if rs := player.proxy.serverMap.dynamicFallback(cfg.AttemptConnectionOrder(), from.ServerInfo().Name()); rs != nil {
			next = rs
		}
	}
	if next == nil {
		next = player.nextServerToTry(from)
	}
	if next == nil {
		_ = player.minecraftConn.closeWith(packet.DisconnectWithProtocol(
			zapComponent("Lost connection to the server and no fallback is available."), player.Protocol()))
		return
	}
	if _, err := player.CreateConnectionRequest(next).Connect(context.Background()); err != nil {
		zap.L().Debug("redial to fallback failed", zap.String("server", next.ServerInfo().Name()), zap.Error(err))
	}
}

