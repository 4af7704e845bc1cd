// Package events carries crosshair lifecycle events from the viewer to the
// host application.
package events

import (
	"fmt"
	"sync"
	"time"
)

// Kind identifies a lifecycle event.
type Kind int

const (
	TargetEnter Kind = iota
	TargetExit
	TargetStay
	TargetSelected

	kindCount
)

var kindNames = [...]string{
	TargetEnter:    "targetEnter",
	TargetExit:     "targetExit",
	TargetStay:     "targetStay",
	TargetSelected: "targetSelected",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps an event name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Kinds returns every event kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		ks = append(ks, k)
	}
	return ks
}

// Event is the payload delivered to subscribers.
type Event struct {
	Kind     Kind
	TargetID string
	Time     time.Time
}

// Handler receives events.
type Handler func(Event)

// Bus dispatches events synchronously to handlers in registration order.
// Subscribing from inside a handler is allowed; the new handler sees the
// next event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	all      []Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers h for one event kind.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// SubscribeAll registers h for every event kind. Catch-all handlers run
// after the kind-specific ones.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers ev to its subscribers.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[ev.Kind])+len(b.all))
	hs = append(hs, b.handlers[ev.Kind]...)
	hs = append(hs, b.all...)
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}

// HandlerCount returns the number of handlers that would receive kind.
func (b *Bus) HandlerCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind]) + len(b.all)
}

// Publisher is the sending side of a Bus.
type Publisher interface {
	Publish(Event)
}

// Recorder collects published events. Useful as a catch-all subscriber in
// tests and diagnostics.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
