package proxy

import (
	"context"

	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/packet"
	"go.uber.org/zap"
)

// statusSessionHandler answers a STATUS ping: StatusRequest -> JSON
// status, Ping -> Pong, then the proxy closes the connection
// (spec.md §8 scenario 1).
type statusSessionHandler struct {
	conn *minecraftConn
}

func newStatusSessionHandler(conn *minecraftConn) *statusSessionHandler {
	return &statusSessionHandler{conn: conn}
}

func (h *statusSessionHandler) handlePacket(_ context.Context, p proto.Packet) {
	switch pk := p.(type) {
	case *packet.StatusRequest:
		h.handleStatusRequest()
	case *packet.Ping:
		_ = h.conn.WritePacket(&packet.Pong{RandomId: pk.RandomId})
		_ = h.conn.close()
	}
}

func (h *statusSessionHandler) handleStatusRequest() {
	proxy := h.conn.proxy
	protocol := h.conn.Protocol()

	description := &component.Text{
		Content: proxy.config.ServerBrand,
		S:       component.Style{Color: color.Yellow},
	}

	body, err := proxy.buildStatusResponse(protocol, description, encodeFavicon(proxy.favicon))
	if err != nil {
		zap.L().Debug("error building status response", zap.Error(err))
		_ = h.conn.close()
		return
	}
	_ = h.conn.WritePacket(&packet.StatusResponse{Status: body})
}

func (h *statusSessionHandler) handleUnknownPacket(*proto.PacketContext) { _ = h.conn.close() }
func (h *statusSessionHandler) disconnected()                            {}
func (h *statusSessionHandler) activated()                               {}
func (h *statusSessionHandler) deactivated()                             {}

var _ sessionHandler = (*statusSessionHandler)(nil)
