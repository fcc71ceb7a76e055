package event

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrProducerStopped is returned by Next once a producer has failed and every event
	// queued before the failure has been delivered.
	ErrProducerStopped = errors.New("event producer stopped")
	ErrInputClosed     = errors.New("keyboard input closed")
)

// Kind identifies the type of Event.
type Kind int

const (
	KeyPress Kind = iota
	Tick
	ExternalUpdate
)

func (k Kind) String() string {
	switch k {
	case KeyPress:
		return "key"
	case Tick:
		return "tick"
	case ExternalUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Event is an immutable value delivered from a producer to the main loop.
type Event struct {
	Kind Kind
	Key  Key
	// Lines is the complete kernel log buffer for ExternalUpdate events. It replaces the
	// previous buffer wholesale.
	Lines []string
}

func NewKeyPress(key Key) Event {
	return Event{Kind: KeyPress, Key: key}
}

func NewTick() Event {
	return Event{Kind: Tick}
}

func NewExternalUpdate(lines []string) Event {
	return Event{Kind: ExternalUpdate, Lines: lines}
}

// Aggregator merges every producer into a single FIFO stream. The queue is unbounded so a
// slow consumer never causes a producer to block or drop an event; nothing is coalesced.
type Aggregator struct {
	mu     sync.Mutex
	queue  []Event
	failed error
	// notify has a capacity of one; a pending signal means the queue may be non-empty.
	notify chan struct{}
}

func NewAggregator() *Aggregator {
	return &Aggregator{notify: make(chan struct{}, 1)}
}

// Push enqueues an event. It never blocks.
func (a *Aggregator) Push(evt Event) {
	a.mu.Lock()
	a.queue = append(a.queue, evt)
	a.mu.Unlock()

	a.signal()
}

// Fail records a producer failure. Events already queued are still delivered, after which
// Next returns the failure.
func (a *Aggregator) Fail(err error) {
	a.mu.Lock()
	if a.failed == nil {
		a.failed = errors.Join(err, ErrProducerStopped)
	}
	a.mu.Unlock()

	a.signal()
}

// Len returns the number of queued events.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.queue)
}

// Next blocks until an event is available, the context is done or a producer has failed.
func (a *Aggregator) Next(ctx context.Context) (Event, error) {
	for {
		a.mu.Lock()
		if len(a.queue) > 0 {
			evt := a.queue[0]
			a.queue[0] = Event{}
			a.queue = a.queue[1:]
			a.mu.Unlock()

			return evt, nil
		}
		failed := a.failed
		a.mu.Unlock()

		if failed != nil {
			return Event{}, failed
		}

		select {
		case <-a.notify:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

func (a *Aggregator) signal() {
	select {
	case a.notify <- struct{}{}:
	default:
	}
}
