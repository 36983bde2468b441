// Package eventbus provides non-blocking fan-out distribution of
// observability events (snapshots, state transitions) to multiple internal
// subscribers.
//
// # Core Philosophy
//
// "Drop events, never queue. Latency > completeness." Events on this bus
// are always the latest-state kind — a builder statistics snapshot, a
// scheduler housekeeping notice — where a stale or dropped update is
// harmless because the next tick supersedes it. This is the opposite
// contract of internal/queue, which backs the STF data path and must
// never drop; eventbus exists specifically for the side-channel traffic
// that is safe to drop, so producers (pipeline stages, RPC handlers) are
// never slowed down by a stalled watcher (a metrics exporter, a debug
// log tap).
//
// # Basic Usage
//
//	bus := eventbus.New[builder.Snapshot]()
//	defer bus.Close()
//
//	ch := make(chan builder.Snapshot, 4)
//	bus.Subscribe("metrics", ch)
//
//	bus.Publish(snapshot) // never blocks
//
// # Thread Safety
//
// All methods are safe for concurrent use.
package eventbus

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrSubscriberExists is returned when Subscribe is called with a duplicate id.
	ErrSubscriberExists = errors.New("eventbus: subscriber id already exists")

	// ErrSubscriberNotFound is returned when Unsubscribe is called with an unknown id.
	ErrSubscriberNotFound = errors.New("eventbus: subscriber id not found")

	// ErrBusClosed is returned when Subscribe/Unsubscribe are attempted on a closed bus.
	ErrBusClosed = errors.New("eventbus: bus is closed")
)

// Stats is a snapshot of global and per-subscriber counters.
type Stats struct {
	TotalPublished uint64
	TotalSent      uint64
	TotalDropped   uint64
	Subscribers    map[string]SubscriberStats
}

// SubscriberStats tracks delivery counters for a single subscriber.
type SubscriberStats struct {
	Sent    uint64
	Dropped uint64
}

type subscriberCounters struct {
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Bus distributes events of type T to any number of subscriber channels,
// dropping an event for a subscriber whose channel buffer is full rather
// than blocking the publisher.
type Bus[T any] struct {
	mu          sync.RWMutex
	subscribers map[string]chan<- T
	counters    map[string]*subscriberCounters
	closed      bool

	totalPublished atomic.Uint64
}

// New creates an empty, open event bus for events of type T.
func New[T any]() *Bus[T] {
	return &Bus[T]{
		subscribers: make(map[string]chan<- T),
		counters:    make(map[string]*subscriberCounters),
	}
}

// Subscribe registers a channel to receive events under id.
func (b *Bus[T]) Subscribe(id string, ch chan<- T) error {
	if ch == nil {
		return errors.New("eventbus: subscriber channel cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.subscribers[id]; exists {
		return ErrSubscriberExists
	}

	b.subscribers[id] = ch
	b.counters[id] = &subscriberCounters{}
	return nil
}

// Unsubscribe removes a subscriber by id. The subscriber owns closing its
// own channel, if desired; Unsubscribe never closes it.
func (b *Bus[T]) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.subscribers[id]; !exists {
		return ErrSubscriberNotFound
	}

	delete(b.subscribers, id)
	delete(b.counters, id)
	return nil
}

// Publish fans event out to every subscriber without blocking. A
// subscriber whose channel is full has the event dropped for it, tracked
// in its counters. Publish on a closed bus is a silent no-op — by the
// time observability plumbing is torn down, publishers should already
// have stopped, but a stray call here must not panic a producer.
func (b *Bus[T]) Publish(event T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	b.totalPublished.Add(1)

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
			b.counters[id].sent.Add(1)
		default:
			b.counters[id].dropped.Add(1)
		}
	}
}

// Stats returns a snapshot of bus counters.
func (b *Bus[T]) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := Stats{
		TotalPublished: b.totalPublished.Load(),
		Subscribers:    make(map[string]SubscriberStats, len(b.counters)),
	}

	var sent, dropped uint64
	for id, c := range b.counters {
		s, d := c.sent.Load(), c.dropped.Load()
		sent += s
		dropped += d
		result.Subscribers[id] = SubscriberStats{Sent: s, Dropped: d}
	}
	result.TotalSent = sent
	result.TotalDropped = dropped
	return result
}

// Close marks the bus closed; further Subscribe/Unsubscribe return
// ErrBusClosed and Publish becomes a no-op. Idempotent. Close does not
// close subscriber channels.
func (b *Bus[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return nil
}
