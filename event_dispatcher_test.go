package goAccount

import (
	"sync"
	"testing"
)

type blockingBus struct {
	mu      sync.Mutex
	events  []string
	release chan struct{}
}

func (b *blockingBus) On(string, func(args ...string)) {}

func (b *blockingBus) Trigger(event string, args ...string) {
	if b.release != nil {
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *blockingBus) delivered() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	bus := &blockingBus{}
	d := newEventDispatcher(bus, EventsConfig{BufferSize: 8, DropIfFull: true})

	d.Emit(EventSignUp, "joe")
	d.Emit(EventSignIn, "joe")
	d.Emit(EventSignOut)
	d.Close()

	got := bus.delivered()
	want := []string{"account:signup", "account:signin", "account:signout"}
	if len(got) != len(want) {
		t.Fatalf("delivered = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivered = %v, want %v", got, want)
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	bus := &blockingBus{release: make(chan struct{})}
	d := newEventDispatcher(bus, EventsConfig{BufferSize: 1, DropIfFull: true})

	// First event occupies the worker, second fills the buffer, the rest
	// must be dropped without blocking.
	d.Emit(EventSignIn)
	d.Emit(EventSignIn)
	d.Emit(EventSignIn)
	d.Emit(EventSignIn)

	if d.Dropped() == 0 {
		t.Fatal("no events dropped")
	}

	close(bus.release)
	d.Close()
}

func TestDispatcherIgnoresEmitAfterClose(t *testing.T) {
	bus := &blockingBus{}
	d := newEventDispatcher(bus, EventsConfig{BufferSize: 4, DropIfFull: true})
	d.Close()

	d.Emit(EventSignIn)
	if got := bus.delivered(); len(got) != 0 {
		t.Fatalf("delivered after close: %v", got)
	}
}
