package eventbus

import (
	"testing"

	"github.com/gridwatt/evrouter/core/events"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish(events.AssignmentEvent{RequestID: "r1", Outcome: "success"})
	ev, ok := (<-ch).(events.AssignmentEvent)
	if !ok || ev.RequestID != "r1" {
		t.Fatalf("expected assignment event for r1, got %#v", ev)
	}
	bus.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed after Unsubscribe")
	}
}

func TestBusFanOut(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Publish(events.SessionEvent{SessionID: "s1"})
	for i, ch := range []<-chan Event{ch1, ch2} {
		ev, ok := (<-ch).(events.SessionEvent)
		if !ok || ev.SessionID != "s1" {
			t.Fatalf("subscriber %d missed the event: %#v", i, ev)
		}
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	// Fill the buffer and keep publishing; the publisher must not block.
	for i := 0; i < subscriberBuffer*2; i++ {
		bus.Publish(events.StatusEvent{})
	}
	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received != subscriberBuffer {
		t.Fatalf("received %d events, want buffer size %d", received, subscriberBuffer)
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatal("ch1 still open after Close")
	}
	if _, ok := <-ch2; ok {
		t.Fatal("ch2 still open after Close")
	}
	// Publishing after Close is a no-op, closing twice is safe.
	bus.Publish(events.StatusEvent{})
	bus.Close()
	if ch := bus.Subscribe(); func() bool { _, ok := <-ch; return ok }() {
		t.Fatal("subscription on a closed bus should be closed immediately")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
