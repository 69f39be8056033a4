package session

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/aiderctl/internal/aider/detect"
	"github.com/Iron-Ham/aiderctl/internal/aider/launch"
	"github.com/Iron-Ham/aiderctl/internal/aider/state"
	"github.com/Iron-Ham/aiderctl/internal/errors"
	"github.com/Iron-Ham/aiderctl/internal/event"
)

// Turn streams one assistant reply. It holds the Session's single turn
// slot until the reply ends or Close is called.
type Turn struct {
	s      *Session
	ctx    context.Context
	handle launch.Handle
	gen    uint64
	udiff  bool

	started   atomic.Bool
	closeOnce sync.Once

	deltas   int
	boundary bool
}

// StreamTurn claims the turn slot and returns a Turn reading the reply to
// the last message. It fails with errors.ErrTurnInProgress while another
// Turn is open.
func (s *Session) StreamTurn(ctx context.Context) (*Turn, error) {
	if !s.claimTurn() {
		return nil, errors.ErrTurnInProgress
	}
	return s.newTurn(ctx), nil
}

// newTurn binds a Turn to the current process. The caller holds the slot.
func (s *Session) newTurn(ctx context.Context) *Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Turn{
		s:      s,
		ctx:    ctx,
		handle: s.handle,
		gen:    s.gen,
		udiff:  s.udiff,
	}
}

// Deltas returns the reply as a sequence of escaped text deltas (see
// detect.EscapeDelta). The sequence ends at aider's next prompt, when the
// process dies or is killed, or when the context is done. It can be
// ranged over once; later ranges yield nothing.
//
// In diff mode the prompt is trimmed from the final delta. In plain mode
// the delta containing the prompt is yielded unchanged.
func (t *Turn) Deltas() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !t.started.CompareAndSwap(false, true) {
			return
		}
		defer t.Close()
		t.run(yield)
	}
}

func (t *Turn) run(yield func(string) bool) {
	s := t.s
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var done <-chan struct{}
	if t.handle != nil {
		done = t.handle.Done()
	}

	for {
		delta, all := s.acc.Take()
		if delta != "" {
			boundary := detect.IsBoundary(all)
			if t.udiff && boundary {
				t.boundary = true
				if clean := detect.TrimBoundary(delta, true, s.goos); clean != "" {
					t.emit(yield, clean)
				}
				return
			}
			if !t.emit(yield, delta) {
				return
			}
			if boundary {
				t.boundary = true
				return
			}
			continue
		}

		if !t.alive() {
			if st := s.machine.Current(); !st.IsFailure() && st != state.Restarting && !s.hasProcess() {
				s.machine.Transition(state.Stopped)
			}
			s.debug("turn ended without a prompt", "deltas", t.deltas)
			return
		}

		select {
		case <-t.ctx.Done():
			return
		case <-s.acc.Notify():
		case <-done:
			done = nil
		case <-ticker.C:
		}
	}
}

func (t *Turn) emit(yield func(string) bool, delta string) bool {
	t.deltas++
	return yield(detect.EscapeDelta(delta))
}

// alive reports whether the process this turn reads from is still the
// Session's live process.
func (t *Turn) alive() bool {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == t.gen && s.handle != nil && !s.handle.Killed()
}

// hasProcess reports whether the Session has a live process, which may be
// a newer one than the turn was reading from.
func (s *Session) hasProcess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil && !s.handle.Killed()
}

// Close releases the turn slot and clears the output buffer. It is safe to
// call more than once and is called automatically when Deltas finishes.
func (t *Turn) Close() {
	t.closeOnce.Do(func() {
		s := t.s
		s.mu.Lock()
		current := s.gen == t.gen
		s.mu.Unlock()
		// After a reset the buffer belongs to the new process.
		if current {
			s.acc.Reset()
		}
		s.releaseTurn()
		s.publish(event.NewTurnCompletedEvent(s.id, t.deltas, t.boundary))
	})
}

// Completed reports whether the turn ended at aider's prompt.
func (t *Turn) Completed() bool {
	return t.boundary
}
