package scatter

import (
	"sync"

	"github.com/df-mc/foliage/scatter/dither"
)

// EventKind is the type of Event recorded by an EventBuffer.
type EventKind uint8

const (
	EventStart EventKind = iota
	EventFinished
	EventError
)

// String ...
func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventFinished:
		return "finished"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is a single Handler call recorded by an EventBuffer.
type Event struct {
	Kind      EventKind
	Region    RegionID
	Positions dither.Positions
	Err       error
}

// EventBuffer is a Handler that records every event in order until it is
// drained. It may be drained from any goroutine.
type EventBuffer struct {
	mu     sync.Mutex
	events []Event
}

// Compile time check to make sure *EventBuffer implements Handler.
var _ Handler = (*EventBuffer)(nil)

// HandleStartComputation ...
func (b *EventBuffer) HandleStartComputation(id RegionID) {
	b.push(Event{Kind: EventStart, Region: id})
}

// HandleFinishedComputation ...
func (b *EventBuffer) HandleFinishedComputation(id RegionID, positions dither.Positions) {
	b.push(Event{Kind: EventFinished, Region: id, Positions: positions})
}

// HandleError ...
func (b *EventBuffer) HandleError(id RegionID, err error) {
	b.push(Event{Kind: EventError, Region: id, Err: err})
}

// Drain returns all events recorded since the last call to Drain.
func (b *EventBuffer) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.events
	b.events = nil
	return events
}

// Len returns the amount of events waiting to be drained.
func (b *EventBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func (b *EventBuffer) push(ev Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}
