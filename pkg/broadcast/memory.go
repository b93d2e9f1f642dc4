package broadcast

import (
	"context"
	"sync"
)

type subscriber[T any] struct {
	ch     chan Message[T]
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{ch: make(chan Message[T], bufferSize)}
}

func (s *subscriber[T]) Receive() <-chan Message[T] { return s.ch }

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send delivers non-blocking; a full buffer means the message is dropped
// for this subscriber.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// MemoryHub is an in-process Hub. Publishing never blocks: slow consumers
// lose messages and are unsubscribed. All methods are safe for concurrent use.
type MemoryHub[T any] struct {
	channels   map[string]map[*subscriber[T]]struct{}
	bufferSize int
	closed     bool
	mu         sync.RWMutex
	cleanupWg  sync.WaitGroup
}

// NewMemoryHub creates an in-memory hub. bufferSize sets each subscriber's
// channel buffer; a minimum of 1 is enforced so sends stay non-blocking.
func NewMemoryHub[T any](bufferSize int) *MemoryHub[T] {
	return &MemoryHub[T]{
		channels:   make(map[string]map[*subscriber[T]]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe creates a subscriber on the named channel.
// Returns an already-closed subscriber if the hub is closed.
func (h *MemoryHub[T]) Subscribe(ctx context.Context, channel string) Subscriber[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := newSubscriber[T](h.bufferSize)

	if h.closed {
		_ = sub.Close()
		return sub
	}

	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[*subscriber[T]]struct{})
		h.channels[channel] = subs
	}
	subs[sub] = struct{}{}

	if ctx.Done() != nil {
		h.cleanupWg.Add(1)
		go func() {
			defer h.cleanupWg.Done()
			<-ctx.Done()
			h.unsubscribe(channel, sub)
		}()
	}

	return sub
}

// Publish sends the message to every active subscriber of the channel.
// Slow or closed subscribers are removed asynchronously.
func (h *MemoryHub[T]) Publish(ctx context.Context, channel string, data T) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil
	}

	msg := Message[T]{Data: data}
	for sub := range h.channels[channel] {
		if !sub.send(msg) {
			go h.unsubscribe(channel, sub)
		}
	}

	return nil
}

// Close shuts down the hub and all subscribers. Safe to call multiple times.
func (h *MemoryHub[T]) Close() error {
	h.mu.Lock()

	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true

	for _, subs := range h.channels {
		for sub := range subs {
			_ = sub.Close()
		}
	}
	clear(h.channels)
	h.mu.Unlock()

	// Wait for pending cleanup goroutines so Close is a true barrier
	h.cleanupWg.Wait()

	return nil
}

func (h *MemoryHub[T]) unsubscribe(channel string, sub *subscriber[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.channels[channel]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	_ = sub.Close()
}
