package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Bus manages event distribution to subscribers with per-mission filtering.
//
// Thread safety: all methods are safe for concurrent use. Publish never
// blocks on slow subscribers; each subscriber has its own buffered channel
// and events are dropped per-subscriber when that buffer is full.
type Bus interface {
	// Publish sends an event to all matching subscribers. Returns an error
	// only if the bus is closed.
	Publish(ctx context.Context, event Event) error

	// Subscribe creates a subscription with optional filtering. It returns a
	// channel for receiving events and a cleanup function that must be called
	// to release the subscription. bufferSize 0 selects the default.
	Subscribe(ctx context.Context, filter Filter, bufferSize int) (<-chan Event, func())

	// Close shuts down the bus and all subscriptions.
	Close() error
}

// DefaultBus implements Bus with buffered channels and non-blocking sends.
type DefaultBus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscription
	bufferSize  int
	logger      *slog.Logger
	closed      bool
}

// subscription is a single subscriber with its filter and drop accounting.
type subscription struct {
	id       string
	ch       chan Event
	filter   Filter
	ctx      context.Context
	cancel   context.CancelFunc
	received atomic.Int64
	dropped  atomic.Int64
}

// BusOption is a functional option for configuring DefaultBus.
type BusOption func(*DefaultBus)

// WithBufferSize sets the default buffer size for subscriber channels.
// Default: 100 events.
func WithBufferSize(size int) BusOption {
	return func(b *DefaultBus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// WithBusLogger sets the logger used to report dropped events.
func WithBusLogger(logger *slog.Logger) BusOption {
	return func(b *DefaultBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates a DefaultBus with the given options.
func NewBus(opts ...BusOption) *DefaultBus {
	bus := &DefaultBus{
		subscribers: make(map[string]*subscription),
		bufferSize:  100,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

// Publish sends the event to every subscriber whose filter matches. If a
// subscriber's channel is full the event is dropped for that subscriber only.
func (b *DefaultBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("event bus is closed")
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, sub := range b.subscribers {
		select {
		case <-sub.ctx.Done():
			// Subscriber gone; cleanup removes it.
			continue
		default:
		}

		if !sub.filter.Matches(event) {
			continue
		}

		select {
		case sub.ch <- event:
			sub.received.Add(1)
		case <-ctx.Done():
			return ctx.Err()
		default:
			sub.dropped.Add(1)
			b.logger.Warn("dropped event for slow subscriber",
				"subscriber_id", sub.id,
				"event_type", event.Type,
				"mission_id", event.MissionID,
			)
		}
	}

	return nil
}

// Subscribe registers a new subscriber. The returned cleanup function must be
// called to unsubscribe; the channel is closed by cleanup or by Close.
func (b *DefaultBus) Subscribe(ctx context.Context, filter Filter, bufferSize int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bufferSize <= 0 {
		bufferSize = b.bufferSize
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		id:     nextSubscriberID(),
		ch:     make(chan Event, bufferSize),
		filter: filter,
		ctx:    subCtx,
		cancel: cancel,
	}
	b.subscribers[sub.id] = sub

	return sub.ch, func() { b.unsubscribe(sub.id) }
}

func (b *DefaultBus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[id]
	if !ok {
		return
	}

	sub.cancel()
	close(sub.ch)
	delete(b.subscribers, id)
}

// Close shuts down the bus, closing all subscriber channels. Idempotent.
func (b *DefaultBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for id, sub := range b.subscribers {
		sub.cancel()
		close(sub.ch)
		delete(b.subscribers, id)
	}

	return nil
}

// SubscriberCount returns the number of active subscribers.
func (b *DefaultBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

var subscriberCounter atomic.Uint64

func nextSubscriberID() string {
	return fmt.Sprintf("sub-%d-%d", time.Now().UnixNano(), subscriberCounter.Add(1))
}

// Ensure DefaultBus implements Bus at compile time.
var _ Bus = (*DefaultBus)(nil)
