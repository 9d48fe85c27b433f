package proxy

import (
	"context"
	"crypto/rand"
	"crypto/sha1"
	"math/big"

	"go.minekube.com/gate/pkg/auth"
	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/packet"
	"go.minekube.com/gate/pkg/proto/state"
	"go.minekube.com/gate/pkg/util/gameprofile"
	"go.uber.org/zap"
)

// loginSessionHandler drives spec.md §4.4: LoginStart, the optional
// encryption/session-service round trip for online mode, SetCompression,
// then LoginSuccess and admission into the player registry.
type loginSessionHandler struct {
	conn *minecraftConn

	username    string
	verifyToken []byte
	keyPair     *auth.KeyPair
	player      *connectedPlayer
}

func newLoginSessionHandler(conn *minecraftConn) *loginSessionHandler {
	return &loginSessionHandler{conn: conn}
}

func (h *loginSessionHandler) handlePacket(_ context.Context, p proto.Packet) {
	switch pk := p.(type) {
	case *packet.LoginStart:
		h.handleLoginStart(pk)
	case *packet.EncryptionResponse:
		h.handleEncryptionResponse(pk)
	case *packet.LoginAcknowledged:
		h.handleLoginAcknowledged()
	}
}

func (h *loginSessionHandler) handleLoginStart(p *packet.LoginStart) {
	h.username = p.Username

	cfg := h.conn.config()
	if !cfg.OnlineMode {
		h.finishLogin(gameprofile.Offline(h.username))
		return
	}

	kp, err := auth.GenerateKeyPair()
	if err != nil {
		zap.L().Error("failed generating session keypair", zap.Error(err))
		_ = h.conn.close()
		return
	}
	h.keyPair = kp

	token := make([]byte, 4)
	_, _ = rand.Read(token)
	h.verifyToken = token

	_ = h.conn.WritePacket(&packet.EncryptionRequest{
		ServerId:    "",
		PublicKey:   kp.Public,
		VerifyToken: token,
	})
}

func (h *loginSessionHandler) handleEncryptionResponse(p *packet.EncryptionResponse) {
	if h.keyPair == nil {
		_ = h.conn.close()
		return
	}
	verify, err := h.keyPair.Decrypt(p.VerifyToken)
	if err != nil || !bytesEqual(verify, h.verifyToken) {
		_ = h.conn.closeWith(packet.DisconnectWithProtocol(zapComponent("Invalid verify token."), h.conn.Protocol()))
		return
	}
	secret, err := h.keyPair.Decrypt(p.SharedSecret)
	if err != nil {
		_ = h.conn.closeWith(packet.DisconnectWithProtocol(zapComponent("Invalid shared secret."), h.conn.Protocol()))
		return
	}
	if err := h.conn.enableEncryption(secret); err != nil {
		zap.L().Error("failed enabling encryption", zap.Error(err))
		_ = h.conn.close()
		return
	}

	serverID := mojangServerID(secret, h.keyPair.Public)
	profile, err := h.conn.proxy.authenticator.HasJoined(h.username, serverID, addrHost(h.conn.RemoteAddr()))
	if err != nil {
		_ = h.conn.closeWith(packet.DisconnectWithProtocol(
			zapComponent("Failed to verify username with Mojang's session server (are you using a cracked client?)"),
			h.conn.Protocol()))
		return
	}
	h.finishLogin(profile)
}

// mojangServerID reproduces Mojang's nonstandard SHA-1-based "server id
// hash" used in EncryptionRequest/hasJoined: a two's-complement signed
// hex digest of (empty serverId || secret || publicKey). The serverId
// this proxy sends is always the empty string, but the public key is
// still a mandatory input to the digest.
func mojangServerID(secret, publicKey []byte) string {
	h := sha1.New()
	h.Write(secret)
	h.Write(publicKey)
	digest := h.Sum(nil)

	negative := digest[0]&0x80 != 0
	if negative {
		digest = twosComplement(digest)
	}
	n := new(big.Int).SetBytes(digest)
	s := n.Text(16)
	if negative {
		return "-" + s
	}
	return s
}

func twosComplement(b []byte) []byte {
	out := make([]byte, len(b))
	carry := true
	for i := len(b) - 1; i >= 0; i-- {
		out[i] = ^b[i]
		if carry {
			carry = out[i] == 0xff
			out[i]++
		}
	}
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (h *loginSessionHandler) finishLogin(profile *gameprofile.GameProfile) {
	cfg := h.conn.config()
	if cfg.Compression.Threshold >= 0 {
		_ = h.conn.WritePacket(&packet.SetCompression{Threshold: int32(cfg.Compression.Threshold)})
		_ = h.conn.SetCompressionThreshold(cfg.Compression.Threshold)
	}

	player := newConnectedPlayer(h.conn, profile, h.conn.virtualHost, cfg.OnlineMode)

	if !h.conn.proxy.connect.registerConnection(player, cfg.OnlineModeKickExistingPlayers) {
		_ = h.conn.closeWith(packet.DisconnectWithProtocol(
			zapComponent("You are already connected to this proxy!"), h.conn.Protocol()))
		return
	}

	_ = h.conn.WritePacket(&packet.LoginSuccess{UUID: profile.Id, Username: profile.Name})

	if h.conn.Protocol().GreaterEqual(proto.Minecraft_1_20_2) {
		// Modern clients acknowledge LoginSuccess with LoginAcknowledged
		// before entering CONFIG; stay installed as the session handler
		// until handleLoginAcknowledged fires.
		h.player = player
		return
	}

	h.conn.setState(state.Play)
	enterPlay(player)
}

func (h *loginSessionHandler) handleLoginAcknowledged() {
	if h.player == nil {
		_ = h.conn.close()
		return
	}
	h.conn.setState(state.Config)
	h.conn.setSessionHandler(newConfigSessionHandler(h.player))
}

func (h *loginSessionHandler) handleUnknownPacket(*proto.PacketContext) { _ = h.conn.close() }
func (h *loginSessionHandler) disconnected()                            {}
func (h *loginSessionHandler) activated()                               {}
func (h *loginSessionHandler) deactivated()                             {}

var _ sessionHandler = (*loginSessionHandler)(nil)

// enterPlay installs the PLAY session handler and dials the player's
// first backend (spec.md §8 scenario 2).
func enterPlay(player *connectedPlayer) {
	player.minecraftConn.setSessionHandler(newClientPlaySessionHandler(player))
	beginServerSelection(player)
}
