// Package eventbus decouples the domain aggregates from their
// observers: the station state and request tracker publish assignment,
// session and load-snapshot events, and the metrics collector and MQTT
// telemetry forwarder consume them without the core packages importing
// any infra code.
package eventbus

import "sync"

// Event is any payload carried on the bus; see core/events for the
// types published in this repo.
type Event interface{}

// EventBus is the publish/subscribe surface handed to publishers and
// consumers.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// subscriberBuffer absorbs bursts from concurrent request handlers; a
// consumer that falls further behind loses events rather than stalling
// admission or assignment.
const subscriberBuffer = 16

// Bus is the fan-out EventBus used by both services.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New creates an empty Bus.
func New() *Bus { return &Bus{} }

// Publish delivers the event to every subscriber without blocking. An
// event that does not fit a subscriber's buffer is dropped for that
// subscriber only.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new consumer and returns its channel. The
// channel is closed when the consumer unsubscribes or the bus closes.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the consumer and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes every subscriber channel. Further publishes are no-ops;
// closing twice is safe.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
