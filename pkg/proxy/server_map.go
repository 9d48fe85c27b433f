package proxy

import (
	"net"
	"sync"

	"go.minekube.com/gate/pkg/config"
)

// serverMap owns the proxy's configured backends and the dynamic
// fallback selection logic of spec.md §8 scenario 6: pick the fallback
// with the fewest connected players, first-declared order breaking ties
// (spec.md §9 Open Questions).
type serverMap struct {
	mu      sync.RWMutex
	byName  map[string]*registeredServer
	order   []string // declared order, for fallback tie-break and AttemptConnectionOrder
}

func newServerMap(cfg *config.Config) (*serverMap, error) {
	sm := &serverMap{byName: make(map[string]*registeredServer)}
	for _, s := range cfg.Servers {
		addr, err := net.ResolveTCPAddr("tcp", s.Address)
		if err != nil {
			return nil, err
		}
		sm.byName[s.Name] = newRegisteredServer(NewServerInfo(s.Name, addr))
		sm.order = append(sm.order, s.Name)
	}
	return sm, nil
}

func (sm *serverMap) server(name string) (*registeredServer, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	rs, ok := sm.byName[name]
	return rs, ok
}

func (sm *serverMap) all() []RegisteredServer {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	list := make([]RegisteredServer, 0, len(sm.byName))
	for _, name := range sm.order {
		list = append(list, sm.byName[name])
	}
	return list
}

// register adds or replaces a backend at runtime (hot-reload of the
// server table, spec.md §6's "Hot-reloadable: server table").
func (sm *serverMap) register(name string, addr net.Addr) *registeredServer {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	rs, existed := sm.byName[name]
	if existed {
		rs.setInfo(NewServerInfo(name, addr))
		return rs
	}
	rs = newRegisteredServer(NewServerInfo(name, addr))
	sm.byName[name] = rs
	sm.order = append(sm.order, name)
	return rs
}

func (sm *serverMap) unregister(name string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.byName, name)
	for i, n := range sm.order {
		if n == name {
			sm.order = append(sm.order[:i], sm.order[i+1:]...)
			break
		}
	}
}

// dynamicFallback returns the configured fallback with the fewest
// connected players, excluding exclude (normally the backend the player
// just lost their connection to), breaking ties by declared order.
func (sm *serverMap) dynamicFallback(names []string, exclude string) *registeredServer {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var best *registeredServer
	bestCount := -1
	for _, name := range names {
		if name == exclude {
			continue
		}
		rs, ok := sm.byName[name]
		if !ok {
			continue
		}
		count := rs.playerCount()
		if best == nil || count < bestCount {
			best = rs
			bestCount = count
		}
	}
	return best
}
