package ccbus

import "sync"

// Hub broadcasts values to subscribers. Publish never blocks: a subscriber
// that falls behind loses values rather than stalling the sender.
type Hub[T any] struct {
	mu     sync.RWMutex
	subs   map[int]chan T
	nextID int
	buffer int
	closed bool
}

// NewHub creates a hub whose subscriber channels hold buffer values
func NewHub[T any](buffer int) *Hub[T] {
	return &Hub[T]{subs: make(map[int]chan T), buffer: buffer}
}

// Publish sends v to every subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- v:
		default:
			// Subscriber full; drop
		}
	}
}

// Subscribe returns a channel of values and a function that unsubscribes
// and closes it. On a closed hub the channel is already closed.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	return ch, func() { h.unsubscribe(id) }
}

func (h *Hub[T]) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Close closes every subscriber channel. Publishing afterwards is a no-op.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
