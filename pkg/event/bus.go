package event

import (
	"log/slog"
	"sync"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 256

// Subscription is one consumer's view of the bus. Events arrive on
// Events() in publish order; if the consumer falls behind, the oldest
// buffered events are dropped and a dropped_event marker is delivered
// once there is room again.
type Subscription struct {
	name string
	ch   chan Event
	bus  *Bus

	// guarded by bus.mu
	dropped int
	closed  bool
}

// Events returns the subscriber's event channel.
// The channel is closed when the subscription or the bus is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

// Bus is an ordered, at-least-once, in-process event fan-out.
// Publish never blocks: each subscriber has a bounded buffer with a
// drop-oldest overflow policy. Delivery order matches publish order
// per subscriber, which implies per-correlation ordering.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
	logger *slog.Logger
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[*Subscription]struct{}),
		logger: logger.With("component", "eventbus"),
	}
}

// Subscribe registers a consumer with the given buffer capacity.
// A capacity below 2 is raised to 2 so an overflow marker can always
// follow a real event.
func (b *Bus) Subscribe(name string, buffer int) *Subscription {
	if buffer < 2 {
		buffer = DefaultBuffer
	}
	s := &Subscription{
		name: name,
		ch:   make(chan Event, buffer),
		bus:  b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		s.closed = true
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for s := range b.subs {
		b.deliver(s, ev)
	}
}

// deliver pushes one event to a subscriber, evicting the oldest
// buffered events on overflow. Caller holds b.mu.
func (b *Bus) deliver(s *Subscription, ev Event) {
	// Flush a pending overflow marker first so the consumer learns
	// about the gap in stream position, not at some later time.
	if s.dropped > 0 {
		marker := New(TypeDroppedEvent, "", DroppedEventPayload{
			Subscriber: s.name,
			Dropped:    s.dropped,
		})
		select {
		case s.ch <- marker:
			s.dropped = 0
		default:
			// still full; the count keeps accumulating
		}
	}

	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		// Buffer full: evict the oldest. Publish is the only sender and
		// we hold the lock, so after one eviction the send succeeds
		// unless the consumer raced us to it, in which case we loop.
		select {
		case <-s.ch:
			s.dropped++
			b.logger.Warn("subscriber overflow, dropping oldest",
				"subscriber", s.name, "dropped_total", s.dropped)
		default:
		}
	}
}

// unsubscribe removes a subscription and closes its channel.
func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed {
		return
	}
	delete(b.subs, s)
	close(s.ch)
	s.closed = true
}

// Close shuts the bus down and closes every subscription channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
		s.closed = true
		delete(b.subs, s)
	}
}

// Publisher is the write side of the bus, implemented by *Bus.
// Components that only emit events depend on this.
type Publisher interface {
	Publish(Event)
}
