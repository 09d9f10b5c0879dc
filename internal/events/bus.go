// =============================================================================
// Timesheet & Invoice Merger - Event Bus
// =============================================================================
//
// Channel transport between the run goroutine and a console.
//
// =============================================================================

package events

import "sync"

// Bus delivers events over a buffered channel. Emit blocks when the buffer is
// full, so a slow consumer slows the run rather than losing messages.
type Bus struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// NewBus returns a Bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Emit sends e. Events emitted after Close are dropped.
func (b *Bus) Emit(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.ch <- e
}

// Events is the receive side. It is closed by Close.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close ends the stream. It is safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}
