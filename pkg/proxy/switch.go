package proxy

import (
	"context"
	"fmt"
	"time"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proto/packet"
	"go.minekube.com/gate/pkg/proto/state"
)

// switchServer implements spec.md §4.6: dial target, log the proxy in as
// if it were the client, and hand the player over to it, either as the
// player's first server or as a transparent mid-game switch.
func switchServer(ctx context.Context, player *connectedPlayer, target *registeredServer) (ConnectionResult, error) {
	if target == nil {
		return ConnectionResult{Status: ServerDisconnectedConnectionStatus}, fmt.Errorf("proxy: no target server")
	}
	if cur := player.connectedServer(); cur != nil && cur.Server() == target {
		return ConnectionResult{Status: AlreadyConnectedConnectionStatus}, nil
	}
	if player.connectionInFlight() != nil {
		return ConnectionResult{Status: ConnectionInProgressConnectionStatus}, nil
	}

	isSwitch := player.connectedServer() != nil

	dialCtx, cancel := context.WithTimeout(ctx, time.Duration(player.proxy.config.ConnectionTimeout)*time.Millisecond)
	defer cancel()

	sc, err := dialServer(dialCtx, player, target)
	if err != nil {
		return ConnectionResult{Status: ServerDisconnectedConnectionStatus, Reason: err.Error()}, err
	}
	player.setConnectionInFlight(sc)
	defer player.setConnectionInFlight(nil)

	if player.Protocol().GreaterEqual(proto.Minecraft_1_20_2) && isSwitch {
		if err := reenterClientConfig(player, sc); err != nil {
			sc.disconnect()
			return ConnectionResult{Status: ServerDisconnectedConnectionStatus, Reason: err.Error()}, err
		}
	}

	previous := player.connectedServer()
	player.setConnectedServer(sc)
	if previous != nil {
		previous.disconnect()
	}

	return ConnectionResult{Status: SuccessConnectionStatus}, nil
}

// reenterClientConfig asks an already-PLAY modern client to re-enter
// CONFIG for a switch (spec.md §4.6 step 4), and blocks until it has
// acknowledged completion.
func reenterClientConfig(player *connectedPlayer, sc *serverConnection) error {
	complete := make(chan struct{})
	handler := newConfigSessionHandler(player)
	handler.configComplete = complete

	player.setState(state.Config)
	player.setSessionHandler(handler)

	if err := player.WritePacket(&packet.StartConfiguration{}); err != nil {
		return fmt.Errorf("sending StartConfiguration: %w", err)
	}

	select {
	case <-complete:
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("client did not acknowledge CONFIG switch in time")
	}
}
