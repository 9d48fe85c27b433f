package proxy

import (
	"context"
	"fmt"
	"net"
	"sync"
	stdatomic "sync/atomic"

	"go.minekube.com/gate/pkg/config"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ServerInfo is the static, immutable identity of a backend
// (spec.md §3's "Backend").
type ServerInfo interface {
	Name() string
	Addr() net.Addr
}

type serverInfo struct {
	name string
	addr net.Addr
}

func (s *serverInfo) Name() string   { return s.name }
func (s *serverInfo) Addr() net.Addr { return s.addr }

// NewServerInfo returns the static identity for a backend.
func NewServerInfo(name string, addr net.Addr) ServerInfo {
	return &serverInfo{name: name, addr: addr}
}

// RegisteredServer is a backend the proxy knows about and can dial.
type RegisteredServer interface {
	ServerInfo() ServerInfo
	Players() []Player
}

// registeredServer publishes its ServerInfo through an atomic.Value so a
// hot-reload (serverMap.register) replaces the identity wholesale rather
// than mutating fields a concurrent reader might be dereferencing.
type registeredServer struct {
	info stdatomic.Value // ServerInfo

	mu      sync.RWMutex
	players map[*connectedPlayer]struct{}
}

func newRegisteredServer(info ServerInfo) *registeredServer {
	rs := &registeredServer{players: make(map[*connectedPlayer]struct{})}
	rs.info.Store(info)
	return rs
}

func (r *registeredServer) ServerInfo() ServerInfo { return r.info.Load().(ServerInfo) }

// setInfo publishes a new ServerInfo snapshot, used by serverMap.register
// to hot-reload a backend's address without disturbing readers mid-read.
func (r *registeredServer) setInfo(info ServerInfo) { r.info.Store(info) }

func (r *registeredServer) Players() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Player, 0, len(r.players))
	for p := range r.players {
		list = append(list, p)
	}
	return list
}

func (r *registeredServer) addPlayer(p *connectedPlayer) {
	r.mu.Lock()
	r.players[p] = struct{}{}
	r.mu.Unlock()
}

func (r *registeredServer) removePlayer(p *connectedPlayer) {
	r.mu.Lock()
	delete(r.players, p)
	r.mu.Unlock()
}

func (r *registeredServer) playerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// ServerConnection is a player's link (established or in flight) to one
// backend server.
type ServerConnection interface {
	Server() RegisteredServer
	Player() Player
}

// serverConnection is the concrete proxy-side half of a player<->backend
// link, covering both "connecting" and "connected" states
// (spec.md §4.5 "Backend connector and relay").
type serverConnection struct {
	server *registeredServer
	player *connectedPlayer

	mu        sync.RWMutex
	minecraftConn_ *minecraftConn
	phase_    clientConnectionPhase

	lastPingId   atomic.Int64
	lastPingSent atomic.Int64

	completedJoin atomic.Bool
}

func newServerConnection(server *registeredServer, player *connectedPlayer) *serverConnection {
	return &serverConnection{
		server: server,
		player: player,
		phase_: vanillaClientPhase,
	}
}

func (s *serverConnection) Server() RegisteredServer { return s.server }
func (s *serverConnection) Player() Player           { return s.player }

func (s *serverConnection) conn() *minecraftConn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minecraftConn_
}

func (s *serverConnection) setConn(c *minecraftConn) {
	s.mu.Lock()
	s.minecraftConn_ = c
	s.mu.Unlock()
}

func (s *serverConnection) phase() clientConnectionPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase_
}

func (s *serverConnection) setPhase(p clientConnectionPhase) {
	s.mu.Lock()
	s.phase_ = p
	s.mu.Unlock()
}

// ensureConnected returns the current backend connection and whether one
// is set. It does not wait for a connection that is still being dialed.
func (s *serverConnection) ensureConnected() (*minecraftConn, bool) {
	c := s.conn()
	return c, c != nil
}

func (s *serverConnection) disconnect() {
	if c := s.conn(); c != nil {
		_ = c.close()
	}
	s.server.removePlayer(s.player)
}

// completeJoin marks the switch/first-join finished; the player is now
// fully in PLAY on this backend.
func (s *serverConnection) completeJoin() {
	s.completedJoin.Store(true)
	s.server.addPlayer(s.player)
}

// ConnectionRequest is a pending request to switch (or first-connect) a
// player to a target backend.
type ConnectionRequest interface {
	Server() RegisteredServer
	Connect(ctx context.Context) (ConnectionResult, error)
}

// ConnectionResult reports the outcome of a ConnectionRequest.
type ConnectionResult struct {
	Status  ConnectionStatus
	Reason  string
}

// ConnectionStatus enumerates the possible outcomes of a switch attempt.
type ConnectionStatus int

const (
	SuccessConnectionStatus ConnectionStatus = iota
	AlreadyConnectedConnectionStatus
	ConnectionInProgressConnectionStatus
	CanceledConnectionStatus
	ServerDisconnectedConnectionStatus
)

type connectionRequest struct {
	player *connectedPlayer
	target *registeredServer
}

func (r *connectionRequest) Server() RegisteredServer { return r.target }

// Connect dials target and, if successful, switches player onto it via
// the switch coordinator (switch.go), per spec.md §4.6.
func (r *connectionRequest) Connect(ctx context.Context) (ConnectionResult, error) {
	return switchServer(ctx, r.player, r.target)
}

// CreateConnectionRequest builds a ConnectionRequest targeting target,
// implementing Player.CreateConnectionRequest.
func (p *connectedPlayer) CreateConnectionRequest(target RegisteredServer) ConnectionRequest {
	rs, ok := target.(*registeredServer)
	if !ok {
		// Constructed through a foreign RegisteredServer implementation;
		// look the canonical instance up by name so switching machinery
		// always operates on proxy-owned state.
		rs, _ = p.proxy.serverMap.server(target.ServerInfo().Name())
	}
	return &connectionRequest{player: p, target: rs}
}

// dialServer opens a new backend TCP connection and performs the
// handshake/login handshake for server, returning a ready serverConnection
// in PLAY (legacy) or CONFIG (modern) state.
func dialServer(ctx context.Context, player *connectedPlayer, server *registeredServer) (*serverConnection, error) {
	info := server.ServerInfo()
	addr := info.Addr()
	d := net.Dialer{}
	raw, err := d.DialContext(ctx, addr.Network(), addr.String())
	if err != nil {
		return nil, fmt.Errorf("dialing backend %q: %w", info.Name(), err)
	}

	sc := newServerConnection(server, player)
	conn := newMinecraftConn(raw, player.proxy, false, func() []zap.Field {
		return []zap.Field{zap.String("server", info.Name())}
	})
	sc.setConn(conn)

	if err := performServerLogin(ctx, player, server, conn); err != nil {
		_ = conn.close()
		return nil, err
	}
	return sc, nil
}

// cfgCompressionLevel resolves the configured zlib level, defaulting to
// the library's own default when unset (0 means "use zlib.DefaultCompression").
func cfgCompressionLevel(cfg *config.Config) int {
	if cfg.Compression.Level == 0 {
		return -1
	}
	return cfg.Compression.Level
}
