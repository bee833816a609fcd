package services

import (
	"sync"
	"time"
)

// Event types published by the engine.
const (
	EventCheckInRecorded = "checkin.recorded"
	EventVipGranted      = "vip.granted"
	EventMessageCreated  = "message.created"
)

// Event is a notification emitted after a state change has been persisted.
// UserID is the subject the event concerns (the recipient for
// message.created).
type Event struct {
	Type   string
	UserID uint
	At     time.Time
}

type subscription struct {
	types map[string]bool
	fn    func(Event)
}

// EventBus is an in-process fan-out owned by the composition root, not a
// package-level singleton. Subscribers hold an explicit registration id and
// must Unsubscribe when their lifecycle ends. Publish runs callbacks
// synchronously; handlers must not block.
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

func NewEventBus() *EventBus {
	return &EventBus{subs: map[int]subscription{}}
}

// Subscribe registers fn for the given event types (all types when none are
// named) and returns the registration id.
func (b *EventBus) Subscribe(fn func(Event), types ...string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var filter map[string]bool
	if len(types) > 0 {
		filter = make(map[string]bool, len(types))
		for _, t := range types {
			filter[t] = true
		}
	}
	b.nextID++
	b.subs[b.nextID] = subscription{types: filter, fn: fn}
	return b.nextID
}

// Unsubscribe removes a registration. Unknown ids are ignored.
func (b *EventBus) Unsubscribe(id int) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

// Publish delivers the event to every matching subscriber.
func (b *EventBus) Publish(ev Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.types == nil || sub.types[ev.Type] {
			fns = append(fns, sub.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
