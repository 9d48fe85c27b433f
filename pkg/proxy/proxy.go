// Package proxy implements the Minecraft Java Edition reverse proxy core:
// connection acceptance, authentication, the packet relay, and
// transparent server switching (spec.md §§2-4).
package proxy

import (
	"context"
	"fmt"
	"net"

	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/gate/pkg/admin"
	"go.minekube.com/gate/pkg/auth"
	"go.minekube.com/gate/pkg/config"
	"go.minekube.com/gate/pkg/event"
	"go.minekube.com/gate/pkg/proxy/command"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Context is an in-flight admin command invocation; a type alias keeps
// session_client_play.go's literal &Context{...} construction working
// while the actual bookkeeping lives in package command.
type Context = command.Invocation

// Proxy is the running proxy instance: one per process, owning the
// listener, every connected player, and every configured backend.
type Proxy struct {
	config *config.Config
	log    *zap.Logger

	connect   *playerRegistry
	serverMap *serverMap
	event     *event.Manager
	command   *command.Manager
	channels  *channelRegistrar

	authenticator *auth.SessionService
	forwarder     auth.Forwarder

	rateLimiter *loginRateLimiter
	favicon     []byte
	admin       *admin.Server

	listener net.Listener

	shutdownCh chan struct{}
}

// New constructs a Proxy from a validated config. It does not start
// listening; call Run for that (mirrors the teacher's proxy.New(cfg)/
// p.Run() split in cmd/gate/gate.go).
func New(cfg config.Config) *Proxy {
	c := cfg
	sm, err := newServerMap(&c)
	if err != nil {
		// A bad backend address is a startup-time configuration error;
		// Run will immediately fail instead of silently dropping servers.
		sm = &serverMap{byName: map[string]*registeredServer{}}
	}
	p := &Proxy{
		config:      &c,
		log:         zap.L(),
		connect:     newPlayerRegistry(),
		serverMap:   sm,
		event:       event.NewManager(zap.L()),
		command:     command.NewManager(),
		channels:    newChannelRegistrar(),
		rateLimiter: newLoginRateLimiter(&c),
		admin:       admin.New(c.Admin),
		shutdownCh:  make(chan struct{}),
	}
	p.forwarder = auth.NewForwarder(c.PlayerInfoForwardingMode, c.ForwardingSecret)
	if c.OnlineMode {
		p.authenticator = auth.NewSessionService()
	}
	if icon, err := loadFavicon(c.Favicon); err == nil {
		p.favicon = icon
	} else {
		p.log.Warn("could not load favicon, status pings will omit one", zap.Error(err))
	}
	registerBuiltinCommands(p)
	return p
}

// Config returns the proxy's active configuration.
func (p *Proxy) Config() *config.Config { return p.config }

// Event returns the proxy's event manager, the hook surface of spec.md §9.
func (p *Proxy) Event() *event.Manager { return p.event }

// ChannelRegistrar returns the proxy's plugin-channel registrar.
func (p *Proxy) ChannelRegistrar() *channelRegistrar { return p.channels }

// Server returns the registered backend by name, or nil.
func (p *Proxy) Server(name string) RegisteredServer {
	rs, ok := p.serverMap.server(name)
	if !ok {
		return nil
	}
	return rs
}

// Servers returns every registered backend.
func (p *Proxy) Servers() []RegisteredServer { return p.serverMap.all() }

// Players returns every currently connected player.
func (p *Proxy) Players() []Player { return p.connect.players() }

// PlayerCount returns the number of currently connected players.
func (p *Proxy) PlayerCount() int { return p.connect.size() }

// Run starts accepting connections on the configured bind address and
// blocks until the listener is closed or the context supervising the
// acceptor loop fails (spec.md §5's reactor/worker-pool concurrency
// model: one goroutine accepts, one goroutine per connection serves it).
func (p *Proxy) Run() error {
	if len(p.config.Servers) > 0 && len(p.serverMap.all()) == 0 {
		return fmt.Errorf("no usable backend servers: a configured server address could not be resolved")
	}
	ln, err := net.Listen("tcp", p.config.Bind)
	if err != nil {
		return fmt.Errorf("binding %s: %w", p.config.Bind, err)
	}
	p.listener = ln
	p.log.Info("listening for connections", zap.String("bind", p.config.Bind))

	group, ctx := errgroup.WithContext(context.Background())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group.Go(func() error {
		// Stopping the acceptor also stops the admin server.
		defer cancel()
		return p.accept(ctx, ln)
	})
	group.Go(func() error {
		return p.admin.Serve(ctx)
	})
	return group.Wait()
}

// accept is the single acceptor loop; every accepted connection is
// handed off to its own goroutine so a slow/stalled client can never
// block admission of new ones.
func (p *Proxy) accept(ctx context.Context, ln net.Listener) error {
	for {
		raw, err := ln.Accept()
		if err != nil {
			select {
			case <-p.shutdownCh:
				return nil
			default:
			}
			if ctx.Err() != nil {
				return nil
			}
			p.log.Debug("error accepting connection", zap.Error(err))
			continue
		}
		go p.handleRawConn(ctx, raw)
	}
}

// handleRawConn wraps an accepted net.Conn as a minecraftConn and starts
// it in the HANDSHAKE state machine (session_handshake.go).
func (p *Proxy) handleRawConn(ctx context.Context, raw net.Conn) {
	if !p.rateLimiter.allow(raw.RemoteAddr()) {
		_ = raw.Close()
		return
	}
	mc := newMinecraftConn(raw, p, true, func() []zap.Field { return nil })
	mc.setSessionHandler(newHandshakeSessionHandler(mc))
	mc.readLoop(ctx)
}

// Shutdown disconnects every player with reason and stops the acceptor.
func (p *Proxy) Shutdown(reason component.Component) {
	close(p.shutdownCh)
	p.admin.SetNotServing()
	if p.listener != nil {
		_ = p.listener.Close()
	}
	for _, pl := range p.connect.players() {
		pl.Disconnect(reason)
	}
}
