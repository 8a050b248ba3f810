package event

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Bus is a thread-safe publish-subscribe bus.
type Bus struct {
	mu   sync.RWMutex
	byID map[string]*subscription

	// seq orders subscriptions for delivery.
	seq uint64

	closed atomic.Bool
	logger *slog.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	panics    atomic.Uint64
}

// subscription holds a subscription's metadata.
type subscription struct {
	id      string
	pattern string
	seq     uint64
	handler Handler
}

// Stats contains bus counters.
type Stats struct {
	Subscriptions   int
	EventsPublished uint64
	EventsDelivered uint64
	HandlerPanics   uint64
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		byID:   make(map[string]*subscription),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "event")
	return b
}

// Subscribe adds a handler for topics matching pattern and returns the
// subscription ID.
func (b *Bus) Subscribe(pattern string, handler Handler) (string, error) {
	if handler == nil {
		return "", ErrNilHandler
	}
	if !validPattern(pattern) {
		return "", ErrInvalidTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		return "", ErrBusClosed
	}

	b.seq++
	sub := &subscription{
		id:      uuid.NewString(),
		pattern: pattern,
		seq:     b.seq,
		handler: handler,
	}
	b.byID[sub.id] = sub
	return sub.id, nil
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.byID[id]; !ok {
		return false
	}
	delete(b.byID, id)
	return true
}

// Publish delivers payload to every handler subscribed to a matching
// pattern. Handlers run synchronously on the calling goroutine.
//
// Publish returns ErrBusClosed after Close, and a joined set of
// *HandlerError values when handlers panicked.
func (b *Bus) Publish(topic string, payload any) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if !validTopic(topic) {
		return ErrInvalidTopic
	}

	b.published.Add(1)
	ev := Event{Topic: topic, Payload: payload, Time: time.Now()}

	var errs []error
	for _, sub := range b.matching(topic) {
		if err := b.call(sub, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// call invokes one handler, converting a panic into a *HandlerError.
func (b *Bus) call(sub *subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.logger.Warn("event handler panicked", "topic", ev.Topic, "subscription", sub.id, "panic", r)
			err = &HandlerError{SubscriptionID: sub.id, Topic: ev.Topic, Err: ErrHandlerPanic}
		}
	}()

	sub.handler(ev)
	b.delivered.Add(1)
	return nil
}

// matching returns subscriptions whose pattern matches topic, in
// subscription order.
func (b *Bus) matching(topic string) []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var subs []*subscription
	for _, sub := range b.byID {
		if matchPattern(sub.pattern, topic) {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].seq < subs[j].seq
	})
	return subs
}

// Close shuts down the bus and drops all subscriptions.
// After closing, Subscribe and Publish return ErrBusClosed.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}

	b.mu.Lock()
	b.byID = make(map[string]*subscription)
	b.mu.Unlock()
}

// IsClosed returns true if the bus has been closed.
func (b *Bus) IsClosed() bool {
	return b.closed.Load()
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byID)
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Subscriptions:   b.SubscriptionCount(),
		EventsPublished: b.published.Load(),
		EventsDelivered: b.delivered.Load(),
		HandlerPanics:   b.panics.Load(),
	}
}
