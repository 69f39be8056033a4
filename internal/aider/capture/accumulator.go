package capture

import (
	"strings"
	"sync"
)

// Accumulator holds the normalized output received since the last reset
// and a cursor into it. Invariant: 0 <= cursor <= Len().
type Accumulator struct {
	mu     sync.Mutex
	buf    strings.Builder
	cursor int
	notify chan struct{}
}

// NewAccumulator creates an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		notify: make(chan struct{}, 1),
	}
}

// Append adds text to the end of the buffer and wakes any waiter.
// Empty strings are ignored.
func (a *Accumulator) Append(s string) {
	if s == "" {
		return
	}

	a.mu.Lock()
	a.buf.WriteString(s)
	a.mu.Unlock()

	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// Unprocessed returns the text after the cursor together with the whole
// buffer, without moving the cursor.
func (a *Accumulator) Unprocessed() (delta, all string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	all = a.buf.String()
	return all[a.cursor:], all
}

// Take returns the text after the cursor together with the whole buffer
// and moves the cursor to the end.
func (a *Accumulator) Take() (delta, all string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	all = a.buf.String()
	delta = all[a.cursor:]
	a.cursor = len(all)
	return delta, all
}

// Reset empties the buffer and rewinds the cursor. A pending wakeup is
// drained so the next waiter only sees output appended after the reset.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.buf.Reset()
	a.cursor = 0
	a.mu.Unlock()

	select {
	case <-a.notify:
	default:
	}
}

// String returns the whole buffer.
func (a *Accumulator) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.String()
}

// Len returns the buffer length in bytes.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.Len()
}

// Cursor returns the processed offset.
func (a *Accumulator) Cursor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// Notify returns a channel that receives a value after Append. Wakeups
// coalesce: many appends between two receives produce one wakeup.
func (a *Accumulator) Notify() <-chan struct{} {
	return a.notify
}
