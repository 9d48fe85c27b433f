package proxy

import (
	"sync"

	"go.minekube.com/gate/pkg/proto"
	"go.minekube.com/gate/pkg/proxy/message"
	"go.minekube.com/gate/pkg/util/sets"
)

// channelRegistrar tracks the plugin channels the proxy itself (not a
// backend) wants to see register/unregister traffic for, giving
// message.ChannelIdentifier a home independent of any one player
// session (spec.md §9 "Channel registrations as a per-session set of
// identifiers").
type channelRegistrar struct {
	mu  sync.RWMutex
	ids map[string]message.ChannelIdentifier
}

func newChannelRegistrar() *channelRegistrar {
	return &channelRegistrar{ids: make(map[string]message.ChannelIdentifier)}
}

// Register declares interest in one or more channels.
func (r *channelRegistrar) Register(ids ...message.ChannelIdentifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.ids[id.Id()] = id
	}
}

// Unregister removes prior interest in one or more channels.
func (r *channelRegistrar) Unregister(ids ...message.ChannelIdentifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.ids, id.Id())
	}
}

// FromId resolves a raw wire channel name to its registered identifier.
func (r *channelRegistrar) FromId(channel string) (message.ChannelIdentifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[channel]
	return id, ok
}

// ChannelsForProtocol lists every registered channel's wire-name. protocol
// is not consulted: every version gets the same set, namespaced ids
// included.
func (r *channelRegistrar) ChannelsForProtocol(protocol proto.Protocol) sets.String {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := sets.NewString()
	for raw := range r.ids {
		out.Insert(raw)
	}
	_ = protocol // channel names are already normalized at registration time
	return out
}
