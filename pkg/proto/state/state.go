// Package state implements the per-(ProtocolVersion, ConnectionState,
// Direction) packet registry described in spec.md §3/§4.2: an immutable,
// O(1) bijection between numeric packet IDs and typed packet schemas,
// built once at startup and shared by reference.
package state

import (
	"reflect"
	"sort"
	"sync"

	"go.minekube.com/gate/pkg/proto"
)

// Supplier constructs a new, zero-valued instance of a packet type.
type Supplier func() proto.Packet

// Mapping pins a packet to an ID starting at a given protocol version: the
// mapping applies from Protocol up to (but not including) the next
// mapping's Protocol for the same packet, matching spec.md §4.2's
// "monotonic chain, diff only what changed" requirement.
type Mapping struct {
	Protocol proto.Protocol
	ID       int
}

type registration struct {
	supplier Supplier
	typ      reflect.Type
	mappings []Mapping // sorted ascending by Protocol
}

// PacketRegistry is the per-direction half of a Registry: an immutable
// table once built, resolved per concrete protocol version on first use
// and cached.
type PacketRegistry struct {
	mu            sync.RWMutex
	registrations []*registration
	resolved      map[proto.Protocol]*versionTable
}

type versionTable struct {
	idToSupplier map[int]Supplier
	typeToID     map[reflect.Type]int
}

func newPacketRegistry() *PacketRegistry {
	return &PacketRegistry{resolved: make(map[proto.Protocol]*versionTable)}
}

// Register associates supplier's packet type with ID starting at each of
// the given mappings' protocol versions.
func (r *PacketRegistry) Register(supplier Supplier, mappings ...Mapping) {
	if len(mappings) == 0 {
		panic("state: Register requires at least one mapping")
	}
	sorted := append([]Mapping(nil), mappings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Protocol < sorted[j].Protocol })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, &registration{
		supplier: supplier,
		typ:      reflect.TypeOf(supplier()),
		mappings: sorted,
	})
	// Invalidate any cached resolution; new registrations are only ever
	// added during package init before any lookup happens in practice, but
	// we don't assume that.
	r.resolved = make(map[proto.Protocol]*versionTable)
}

func (r *PacketRegistry) resolve(p proto.Protocol) *versionTable {
	r.mu.RLock()
	if t, ok := r.resolved[p]; ok {
		r.mu.RUnlock()
		return t
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.resolved[p]; ok {
		return t
	}
	t := &versionTable{
		idToSupplier: make(map[int]Supplier),
		typeToID:     make(map[reflect.Type]int),
	}
	for _, reg := range r.registrations {
		id, ok := idFor(reg.mappings, p)
		if !ok {
			continue // packet does not exist yet at this protocol version
		}
		t.idToSupplier[id] = reg.supplier
		t.typeToID[reg.typ] = id
	}
	r.resolved[p] = t
	return t
}

// idFor returns the packet ID in effect at protocol p, i.e. the ID of the
// highest mapping whose Protocol <= p.
func idFor(mappings []Mapping, p proto.Protocol) (int, bool) {
	id, found := 0, false
	for _, m := range mappings {
		if m.Protocol > p {
			break
		}
		id, found = m.ID, true
	}
	return id, found
}

// Lookup returns a fresh Packet instance for id at protocol p, or
// ok=false if id is unmapped (spec.md §4.2: unknown IDs are either
// relay-through in PLAY, or a protocol violation elsewhere).
func (r *PacketRegistry) Lookup(p proto.Protocol, id int) (proto.Packet, bool) {
	t := r.resolve(p)
	supplier, ok := t.idToSupplier[id]
	if !ok {
		return nil, false
	}
	return supplier(), true
}

// PacketID returns the wire ID for pkt's concrete type at protocol p.
func (r *PacketRegistry) PacketID(p proto.Protocol, pkt proto.Packet) (int, bool) {
	t := r.resolve(p)
	id, ok := t.typeToID[reflect.TypeOf(pkt)]
	return id, ok
}

// Registry is one connection state's packet tables, one PacketRegistry per
// direction (spec.md §3 "PacketRegistry").
type Registry struct {
	Name        string
	ServerBound *PacketRegistry
	ClientBound *PacketRegistry
}

func newRegistry(name string) *Registry {
	return &Registry{
		Name:        name,
		ServerBound: newPacketRegistry(),
		ClientBound: newPacketRegistry(),
	}
}

// Direction returns the PacketRegistry for d.
func (r *Registry) Direction(d proto.Direction) *PacketRegistry {
	if d == proto.ServerBound {
		return r.ServerBound
	}
	return r.ClientBound
}

// The five connection states of spec.md §3. CLOSED has no packets and is
// therefore not represented by a Registry.
var (
	Handshake = newRegistry("HANDSHAKE")
	Status    = newRegistry("STATUS")
	Login     = newRegistry("LOGIN")
	Config    = newRegistry("CONFIG")
	Play      = newRegistry("PLAY")
)

func (r *Registry) String() string { return r.Name }
