package crud

import (
	"sync"
)

// Invalidation is a cache invalidation announced to other registries.
// An empty Prefix with All set clears the whole resource.
type Invalidation struct {
	Origin   string `json:"origin"`
	Resource string `json:"resource"`
	Prefix   string `json:"prefix,omitempty"`
	All      bool   `json:"all,omitempty"`
}

// InvalidationBus carries invalidations between registries, typically in
// different processes. pkg/natsbus provides a NATS implementation.
type InvalidationBus interface {
	Publish(inv Invalidation) error
	Subscribe(handler func(Invalidation)) (unsubscribe func() error, err error)
}

// LocalBus is an in-process InvalidationBus. It delivers synchronously to
// every subscriber, the publisher included.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(Invalidation)
}

// NewLocalBus creates an in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]func(Invalidation))}
}

// Publish implements InvalidationBus.
func (b *LocalBus) Publish(inv Invalidation) error {
	b.mu.RLock()
	handlers := make([]func(Invalidation), 0, len(b.handlers))

	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(inv)
	}

	return nil
}

// Subscribe implements InvalidationBus.
func (b *LocalBus) Subscribe(handler func(Invalidation)) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = handler

	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()

		delete(b.handlers, id)

		return nil
	}, nil
}
