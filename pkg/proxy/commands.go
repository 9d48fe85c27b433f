package proxy

import (
	"context"
	"fmt"
	"strings"
)

// registerBuiltinCommands installs the proxy's admin commands, gated on
// config booleans the way spec.md §6 describes ("built-in commands are
// registered conditionally on config booleans and re-registered on
// reload"). The commands themselves are an external-interface concern
// (spec.md's Non-goals); only the wiring into command.Manager lives here.
func registerBuiltinCommands(p *Proxy) {
	if !p.config.AnnounceProxyCommands {
		return
	}
	p.command.Register("server", serverCommand(p), "servers")
	p.command.Register("glist", glistCommand(p))
}

func serverCommand(p *Proxy) func(ctx context.Context, inv *Context) error {
	return func(_ context.Context, inv *Context) error {
		player, ok := inv.Source.(*connectedPlayer)
		if !ok {
			return nil
		}
		if len(inv.Args) == 0 {
			names := make([]string, 0, len(p.Servers()))
			for _, s := range p.Servers() {
				names = append(names, s.ServerInfo().Name())
			}
			return player.SendMessage(zapComponent("Servers: " + strings.Join(names, ", ")))
		}
		target := p.Server(inv.Args[0])
		if target == nil {
			return player.SendMessage(zapComponent(fmt.Sprintf("Unknown server %q", inv.Args[0])))
		}
		_, err := player.CreateConnectionRequest(target).Connect(context.Background())
		return err
	}
}

func glistCommand(p *Proxy) func(ctx context.Context, inv *Context) error {
	return func(_ context.Context, inv *Context) error {
		player, ok := inv.Source.(*connectedPlayer)
		if !ok {
			return nil
		}
		return player.SendMessage(zapComponent(fmt.Sprintf("%d player(s) online", p.PlayerCount())))
	}
}
