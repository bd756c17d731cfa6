// Package authstate broadcasts sign-in and sign-out transitions to
// subscribers inside the process.
package authstate

import (
	"sync"
	"time"

	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/google/uuid"
)

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
	SignedUp  EventKind = "signed_up"
)

type Event struct {
	Kind   EventKind
	UserID uuid.UUID
	Role   *users.Role
	Method string
	At     time.Time
}

type Listener func(Event)

// Hub is safe for concurrent use. Listeners run synchronously on the
// publishing goroutine and must not block.
type Hub struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
	closed    bool
}

func NewHub() *Hub {
	return &Hub{listeners: make(map[int]Listener)}
}

// Subscribe registers l and returns a function that removes it.
func (h *Hub) Subscribe(l Listener) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return func() {}
	}

	id := h.nextID
	h.nextID++
	h.listeners[id] = l

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.RLock()
	listeners := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	closed := h.closed
	h.mu.RUnlock()

	if closed {
		return
	}
	for _, l := range listeners {
		l(e)
	}
}

// Close drops every listener; later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.listeners = make(map[int]Listener)
}
