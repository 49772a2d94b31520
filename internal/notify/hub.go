// Package notify provides the subscription mechanism shared by the stores.
package notify

import "sync"

// Hub fans a value out to subscribers in subscription order. Values are
// delivered one at a time in the order they were enqueued.
type Hub[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	subs     []subscriber[T]
	pending  []T
	draining bool
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Subscription is a cancellable registration returned by Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel removes the subscriber. Calling it more than once is a no-op.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Subscribe registers fn and returns a handle that removes it.
func (h *Hub[T]) Subscribe(fn func(T)) *Subscription {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscriber[T]{id: id, fn: fn})
	h.mu.Unlock()

	return &Subscription{cancel: func() { h.remove(id) }}
}

// Publish enqueues v and flushes.
func (h *Hub[T]) Publish(v T) {
	h.Enqueue(v)
	h.Flush()
}

// Enqueue queues v without delivering it. Stores call it while holding the
// lock that orders their mutations, then call Flush after releasing it.
func (h *Hub[T]) Enqueue(v T) {
	h.mu.Lock()
	h.pending = append(h.pending, v)
	h.mu.Unlock()
}

// Flush delivers queued values on the caller's goroutine. When another
// goroutine is already flushing, Flush returns at once and that goroutine
// delivers the values in order. Subscribers may subscribe, cancel, or mutate
// the publishing store; nested values are delivered after the current one.
func (h *Hub[T]) Flush() {
	h.mu.Lock()
	if h.draining {
		h.mu.Unlock()
		return
	}
	h.draining = true
	h.mu.Unlock()

	for {
		v, ok := h.next()
		if !ok {
			return
		}
		h.deliver(v)
	}
}

// next pops the oldest queued value. It ends the flush when the queue is
// empty, under the same lock Enqueue takes, so no value is stranded.
func (h *Hub[T]) next() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pending) == 0 {
		h.pending = nil
		h.draining = false
		var zero T
		return zero, false
	}
	v := h.pending[0]
	var zero T
	h.pending[0] = zero
	h.pending = h.pending[1:]
	return v, true
}

func (h *Hub[T]) deliver(v T) {
	h.mu.Lock()
	snapshot := make([]subscriber[T], len(h.subs))
	copy(snapshot, h.subs)
	h.mu.Unlock()

	for _, sub := range snapshot {
		if h.active(sub.id) {
			sub.fn(v)
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

func (h *Hub[T]) active(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if sub.id == id {
			return true
		}
	}
	return false
}
