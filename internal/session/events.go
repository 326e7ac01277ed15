package session

import "sync"

// EventKind identifies a session event.
type EventKind string

// Session event kinds, mirroring the provider notifications they are
// translated from.
const (
	EventConnected    EventKind = "connected"
	EventStateChanged EventKind = "stateChanged"
	EventDisconnected EventKind = "disconnected"
)

// Event is a session-level notification delivered to subscribers.
type Event struct {
	Kind    EventKind
	Session *Snapshot // nil for disconnected events
}

// Handler receives session events.
type Handler func(Event)

// Token identifies a subscription for later removal.
type Token uint64

// bus delivers events to subscribers in subscription order. Dispatch is
// synchronous: Publish returns after every matching handler has run, which
// keeps provider event ordering observable by subscribers.
type bus struct {
	mu   sync.Mutex
	subs []subscription
	next Token
}

type subscription struct {
	token   Token
	kind    EventKind
	handler Handler
}

func newBus() *bus {
	return &bus{}
}

// subscribe registers a handler for the given kind.
func (b *bus) subscribe(kind EventKind, handler Handler) Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	b.subs = append(b.subs, subscription{token: b.next, kind: kind, handler: handler})
	return b.next
}

// unsubscribe removes the subscription for the token. Unknown tokens are
// ignored, so double-unsubscribe is safe.
func (b *bus) unsubscribe(token Token) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.token == token {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// publish delivers the event to matching subscribers in subscription order.
// Handlers run without the bus lock held, so they may subscribe or
// unsubscribe freely.
func (b *bus) publish(evt Event) {
	b.mu.Lock()
	matching := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.kind == evt.Kind {
			matching = append(matching, s.handler)
		}
	}
	b.mu.Unlock()

	for _, h := range matching {
		h(evt)
	}
}
