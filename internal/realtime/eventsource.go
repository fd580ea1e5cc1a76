// Package realtime adapts the store's change feed into per-table
// insert/update subscriptions with explicit unsubscribe semantics.
package realtime

import (
	"encoding/json"
	"sync"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
)

// Event is one row change delivered by the store's change feed. Ordering is
// causally sane within one table's stream only; nothing is guaranteed across
// tables.
type Event struct {
	Table string          `json:"table"`
	Op    Op              `json:"op"`
	Row   json.RawMessage `json:"row"`
}

// Filter decides whether an event is delivered to a subscription.
type Filter func(Event) bool

type EventFunc func(Event)

// Unsubscribe tears down a subscription. It is idempotent and safe to call
// after the underlying connection has already closed.
type Unsubscribe func()

// EventSource is the adapter contract. filterKey identifies the predicate:
// subscribing again with the same (table, filterKey) replaces the earlier
// subscription, so a caller holds at most one per pair.
//
// A dropped transport may silently stop delivery. Callers must not assume
// liveness; the periodic reconciliation job is the backstop.
type EventSource interface {
	Subscribe(table, filterKey string, filter Filter, onInsert, onUpdate EventFunc) (Unsubscribe, error)
}

// Resyncer is implemented by sources that can detect a transport
// reconnect. Events may have been lost across the gap, so consumers
// re-reconcile on resync rather than trusting the stream.
type Resyncer interface {
	OnResync(fn func())
}

type subscription struct {
	table     string
	filterKey string
	filter    Filter
	onInsert  EventFunc
	onUpdate  EventFunc
	closeOnce sync.Once
	bus       *bus
}

func (s *subscription) deliver(ev Event) {
	if s.filter != nil && !s.filter(ev) {
		return
	}
	switch ev.Op {
	case OpInsert:
		if s.onInsert != nil {
			s.onInsert(ev)
		}
	case OpUpdate:
		if s.onUpdate != nil {
			s.onUpdate(ev)
		}
	}
}

func (s *subscription) close() {
	s.closeOnce.Do(func() {
		s.bus.remove(s)
	})
}

// bus is the in-memory dispatch table shared by every EventSource
// implementation. Subscriptions are keyed by (table, filterKey).
type bus struct {
	mu     sync.RWMutex
	byKey  map[string]*subscription
	resync []func()
}

func newBus() *bus {
	return &bus{byKey: map[string]*subscription{}}
}

func subKey(table, filterKey string) string {
	return table + "\x00" + filterKey
}

func (b *bus) subscribe(table, filterKey string, filter Filter, onInsert, onUpdate EventFunc) Unsubscribe {
	sub := &subscription{
		table:     table,
		filterKey: filterKey,
		filter:    filter,
		onInsert:  onInsert,
		onUpdate:  onUpdate,
		bus:       b,
	}

	key := subKey(table, filterKey)
	b.mu.Lock()
	prev := b.byKey[key]
	b.byKey[key] = sub
	b.mu.Unlock()

	// one active subscription per (table, predicate): the newcomer wins
	if prev != nil {
		prev.close()
	}
	return sub.close
}

func (b *bus) remove(sub *subscription) {
	key := subKey(sub.table, sub.filterKey)
	b.mu.Lock()
	if b.byKey[key] == sub {
		delete(b.byKey, key)
	}
	b.mu.Unlock()
}

func (b *bus) dispatch(ev Event) {
	var targets []*subscription
	b.mu.RLock()
	for _, s := range b.byKey {
		if s.table == ev.Table {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		s.deliver(ev)
	}
}

func (b *bus) onResync(fn func()) {
	b.mu.Lock()
	b.resync = append(b.resync, fn)
	b.mu.Unlock()
}

func (b *bus) fireResync() {
	b.mu.RLock()
	fns := append([]func(){}, b.resync...)
	b.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// MemoryEventSource is an in-process EventSource for tests and embedding.
type MemoryEventSource struct {
	bus *bus
}

func NewMemoryEventSource() *MemoryEventSource {
	return &MemoryEventSource{bus: newBus()}
}

func (m *MemoryEventSource) Subscribe(table, filterKey string, filter Filter, onInsert, onUpdate EventFunc) (Unsubscribe, error) {
	return m.bus.subscribe(table, filterKey, filter, onInsert, onUpdate), nil
}

// Emit synchronously delivers an event to matching subscriptions.
func (m *MemoryEventSource) Emit(ev Event) {
	m.bus.dispatch(ev)
}

func (m *MemoryEventSource) OnResync(fn func()) {
	m.bus.onResync(fn)
}

// Resync simulates a transport reconnect.
func (m *MemoryEventSource) Resync() {
	m.bus.fireResync()
}
