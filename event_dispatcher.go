package goAccount

import (
	"sync"
	"sync/atomic"
)

type busEvent struct {
	event Event
	args  []string
}

// eventDispatcher decouples the flows from Bus handlers. Flows emit into a
// buffered channel; a single worker goroutine delivers to the Bus, so a slow
// or re-entrant handler can never stall a network flow.
type eventDispatcher struct {
	bus Bus

	ch        chan busEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once

	dropIfFull bool
}

func newEventDispatcher(bus Bus, cfg EventsConfig) *eventDispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	d := &eventDispatcher{
		bus:        bus,
		ch:         make(chan busEvent, cfg.BufferSize),
		done:       make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *eventDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case ev := <-d.ch:
			d.bus.Trigger(ev.event.qualified(), ev.args...)
		case <-d.done:
			// Drain what was queued before Close, then stop.
			for {
				select {
				case ev := <-d.ch:
					d.bus.Trigger(ev.event.qualified(), ev.args...)
				default:
					return
				}
			}
		}
	}
}

// Emit queues an event for delivery. When the buffer is full the event is
// either dropped and counted, or the emitter blocks, depending on DropIfFull.
func (d *eventDispatcher) Emit(event Event, args ...string) {
	if d == nil || d.closed.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.ch <- busEvent{event: event, args: args}:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- busEvent{event: event, args: args}:
	case <-d.done:
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *eventDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Close stops accepting events and blocks until every queued event has been
// delivered.
func (d *eventDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}
