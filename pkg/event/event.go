// Package event implements the synchronous plugin/event dispatch hooks
// spec.md §9 calls out ("Plugin/event dispatch (external)"): onHandshake,
// onLogin, onServerPreConnect, onServerConnected, onDisconnect,
// onPluginMessage, onPing. Handlers run synchronously relative to the
// session state machine that fires them, but Fire/FireParallel never
// block the I/O worker goroutine on a slow subscriber for longer than
// that single dispatch.
package event

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Event is the marker interface every fired value implements.
type Event interface{}

// ResultedEvent is implemented by events that carry an allow/deny
// decision a subscriber can veto (CommandExecuteEvent, PluginMessageEvent,
// ServerPreConnectEvent, ...).
type ResultedEvent interface {
	Event
	Allowed() bool
	SetAllowed(bool)
}

// Handler receives a fired event. It must not retain ev past return.
type Handler func(ev Event)

type subscription struct {
	priority int
	handler  Handler
}

// Manager dispatches events to registered handlers in priority order
// (highest first), mirroring the teacher's single shared event bus
// referenced as proxy.event throughout pkg/proxy.
type Manager struct {
	mu   sync.RWMutex
	subs map[interface{}][]subscription
	log  *zap.Logger
}

// NewManager returns a ready-to-use Manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{subs: make(map[interface{}][]subscription), log: log}
}

// Subscribe registers handler to run whenever an event of the same
// concrete type as sample is fired. Higher priority values run first.
func Subscribe(m *Manager, sample Event, priority int, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := typeKey(sample)
	subs := append(m.subs[key], subscription{priority: priority, handler: handler})
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].priority > subs[j].priority })
	m.subs[key] = subs
}

// Fire dispatches ev synchronously to every subscriber, in priority
// order, and blocks until all have run. Panics in a handler are
// recovered and logged (spec.md §7's InternalFault: "never crash the
// process").
func (m *Manager) Fire(ev Event) {
	m.dispatch(ev, nil)
}

// FireParallel dispatches ev to every subscriber and then invokes done
// with the (possibly mutated) event once all subscribers have returned.
// Despite the name it runs subscribers sequentially by priority, same as
// Fire; "parallel" here means "does not block the caller past done" in
// the teacher's usage, achieved by running the whole dispatch in its own
// goroutine.
func (m *Manager) FireParallel(ev Event, done func(ev Event)) {
	go func() {
		m.dispatch(ev, nil)
		if done != nil {
			done(ev)
		}
	}()
}

func (m *Manager) dispatch(ev Event, _ interface{}) {
	m.mu.RLock()
	subs := m.subs[typeKey(ev)]
	m.mu.RUnlock()
	for _, s := range subs {
		m.runOne(s.handler, ev)
	}
}

func (m *Manager) runOne(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("recovered panic in event handler", zap.Any("panic", r))
		}
	}()
	h(ev)
}

func typeKey(ev Event) interface{} {
	return reflect.TypeOf(ev)
}
