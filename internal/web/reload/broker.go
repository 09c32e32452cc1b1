package reload

import (
	"log/slog"
	"sync"
	"time"
)

// Change is a batch of file changes under the served root.
type Change struct {
	TS    time.Time `json:"ts"`
	Paths []string  `json:"paths"`
}

// Broker manages change-stream subscribers and broadcasts changes.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan Change]struct{}
	closed  bool
}

// NewBroker creates a new change broker.
func NewBroker() *Broker {
	return &Broker{
		clients: make(map[chan Change]struct{}),
	}
}

// Subscribe registers a new client and returns its change channel.
// The caller must call Unsubscribe when done. Subscribing to a closed
// broker returns an already closed channel.
func (b *Broker) Subscribe() chan Change {
	ch := make(chan Change, 16)
	b.mu.Lock()
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return ch
	}
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	slog.Debug("change stream client connected", "total", b.Count())
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan Change) {
	b.mu.Lock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
	b.mu.Unlock()
	slog.Debug("change stream client disconnected", "total", b.Count())
}

// Broadcast sends a change to all connected clients.
// Slow clients that can't keep up will have the change dropped.
func (b *Broker) Broadcast(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- c:
		default:
			slog.Warn("dropping change for slow stream client")
		}
	}
}

// Close disconnects every client. Later subscribers get a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		delete(b.clients, ch)
		close(ch)
	}
}

// Count returns the number of connected clients.
func (b *Broker) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
