package proxy

import (
	"strings"
	"sync"

	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/gate/pkg/util/uuid"
)

// playerRegistry is the dual-indexed, read-write-guarded player registry
// of spec.md §4.7/§8: for every live admitted session s,
// byUUID[s.uuid] == s && byName[lower(s.name)] == s, updated atomically
// under the same lock (spec.md §9 "Shared mutable player registry").
type playerRegistry struct {
	mu     sync.RWMutex
	byUUID map[uuid.UUID]*connectedPlayer
	byName map[string]*connectedPlayer
}

func newPlayerRegistry() *playerRegistry {
	return &playerRegistry{
		byUUID: make(map[uuid.UUID]*connectedPlayer),
		byName: make(map[string]*connectedPlayer),
	}
}

// registerConnection admits p, unless a conflicting session already holds
// either index entry p would occupy (spec.md §8 scenario 3: "Duplicate
// login with kick-existing disabled") and the proxy is not configured to
// kick it. A session is only ever in both indices or neither, so both
// indices must be checked and cleared together: a name-only collision
// (distinct UUIDs, same lower-cased name) is just as much a conflict as
// a UUID collision. Returns false, and the caller must kick p, if the
// registration did not happen because of such a conflict.
func (r *playerRegistry) registerConnection(p *connectedPlayer, kickExisting bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(p.Username())
	conflicts := make(map[*connectedPlayer]struct{})
	if existing, ok := r.byUUID[p.Id()]; ok {
		conflicts[existing] = struct{}{}
	}
	if existing, ok := r.byName[name]; ok {
		conflicts[existing] = struct{}{}
	}

	if len(conflicts) > 0 {
		if !kickExisting {
			return false
		}
		for existing := range conflicts {
			existing.disconnectDueToDuplicateConnection.Store(true)
			r.removeLocked(existing)
			go existing.Disconnect(&component.Text{Content: "You logged in from another location."})
		}
	}

	r.byUUID[p.Id()] = p
	r.byName[name] = p
	return true
}

// unregisterConnection removes p if it is still the registered session
// for its UUID (a later login may have already replaced it), returning
// whether p itself was the one removed.
func (r *playerRegistry) unregisterConnection(p *connectedPlayer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byUUID[p.Id()]
	if !ok || current != p {
		return false
	}
	r.removeLocked(p)
	return true
}

// removeLocked deletes p from both indices. Caller must hold r.mu.
func (r *playerRegistry) removeLocked(p *connectedPlayer) {
	delete(r.byUUID, p.Id())
	delete(r.byName, strings.ToLower(p.Username()))
}

func (r *playerRegistry) player(id uuid.UUID) Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byUUID[id]; ok {
		return p
	}
	return nil
}

func (r *playerRegistry) playerByName(name string) Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byName[strings.ToLower(name)]; ok {
		return p
	}
	return nil
}

func (r *playerRegistry) players() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Player, 0, len(r.byUUID))
	for _, p := range r.byUUID {
		list = append(list, p)
	}
	return list
}

func (r *playerRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUUID)
}
