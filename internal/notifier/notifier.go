// Package notifier broadcasts record changes to SSE subscribers.
package notifier

import (
	"sync"
	"time"
)

// Operation is the kind of write that produced a change.
type Operation string

// Operations.
const (
	Created Operation = "created"
	Updated Operation = "updated"
	Deleted Operation = "deleted"
)

// Change describes one committed write.
type Change struct {
	Table     string    `json:"table"`
	View      string    `json:"view"`
	Operation Operation `json:"operation"`
	PK        int64     `json:"pk"`
	At        time.Time `json:"at"`
}

// Notifier fans changes out to every subscriber. Slow subscribers drop
// changes instead of blocking writers.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Change]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Change]struct{}),
	}
}

// Subscribe returns a channel that receives changes.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan Change {
	ch := make(chan Change, 16)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Change) {
	n.mu.Lock()
	if _, ok := n.listeners[ch]; ok {
		delete(n.listeners, ch)
		close(ch)
	}
	n.mu.Unlock()
}

// Broadcast sends c to all listeners.
// Non-blocking: if a listener's channel is full, the change is skipped.
func (n *Notifier) Broadcast(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers returns the number of active listeners.
func (n *Notifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
