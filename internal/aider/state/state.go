package state

import (
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/aiderctl/internal/event"
)

// State is the lifecycle state of an aider session.
type State int

const (
	// Undefined is the state before the first start.
	Undefined State = iota

	// Starting means a process was spawned and its first prompt is pending.
	Starting

	// Ready means aider printed its prompt and accepts messages.
	Ready

	// Crashed means the process exited or failed unexpectedly.
	Crashed

	// Stopped means there is no process, usually after an intentional kill.
	Stopped

	// SignedOut means the relay model has no access token.
	SignedOut

	// NotGitRepo means the working directory is not inside a git repository.
	NotGitRepo

	// Restarting means an old process is being replaced.
	Restarting

	// Uninstalled means no aider executable could be found.
	Uninstalled
)

// String returns the state name reported to observers.
func (s State) String() string {
	switch s {
	case Undefined:
		return "undefined"
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Crashed:
		return "crashed"
	case Stopped:
		return "stopped"
	case SignedOut:
		return "signedOut"
	case NotGitRepo:
		return "notgitrepo"
	case Restarting:
		return "restarting"
	case Uninstalled:
		return "uninstalled"
	default:
		return "unknown"
	}
}

// IsLive reports whether a session in this state owns a process.
func (s State) IsLive() bool {
	return s == Starting || s == Ready || s == Restarting
}

// IsFailure reports whether s is a state entered because something went wrong.
func (s State) IsFailure() bool {
	switch s {
	case Crashed, SignedOut, NotGitRepo, Uninstalled:
		return true
	default:
		return false
	}
}

// Parse returns the State with the given name, or Undefined.
func Parse(name string) State {
	for s := Undefined; s <= Uninstalled; s++ {
		if s.String() == name {
			return s
		}
	}
	return Undefined
}

// Classify maps a runtime process error message to the state it puts the
// session in.
func Classify(msg string) State {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "authentication"):
		return SignedOut
	case strings.Contains(msg, "ENOENT"),
		strings.Contains(lower, "executable file not found"),
		strings.Contains(lower, "no such file"):
		return Uninstalled
	default:
		return Crashed
	}
}

// Change describes one accepted transition.
type Change struct {
	From      State
	To        State
	Timestamp time.Time
}

// ChangeFunc is called after every accepted transition.
type ChangeFunc func(Change)

// Machine is a mutex-guarded State with change notification.
type Machine struct {
	mu        sync.Mutex
	current   State
	callbacks []ChangeFunc

	bus       *event.Bus
	sessionID string

	now func() time.Time
}

// NewMachine creates a Machine in the Undefined state.
func NewMachine() *Machine {
	return &Machine{now: time.Now}
}

// SetEventBus publishes every accepted transition on bus as a
// SessionStateChangedEvent tagged with sessionID. A nil bus disables
// publishing.
func (m *Machine) SetEventBus(bus *event.Bus, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bus = bus
	m.sessionID = sessionID
}

// OnChange registers fn to be called after every accepted transition.
func (m *Machine) OnChange(fn ChangeFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Transition moves the machine to to and reports whether the state changed.
//
// Re-entering the current state is a no-op. While restarting, a crash
// report belongs to the process being replaced and is dropped, and the
// restart is not announced a second time as starting.
func (m *Machine) Transition(to State) bool {
	return m.transition(to, false)
}

// Force is Transition without the restart suppression. It is used when
// the replacement process itself fails, which must not stay hidden behind
// the restarting state.
func (m *Machine) Force(to State) bool {
	return m.transition(to, true)
}

func (m *Machine) transition(to State, force bool) bool {
	m.mu.Lock()
	from := m.current
	if from == to || (!force && suppressed(from, to)) {
		m.mu.Unlock()
		return false
	}
	m.current = to
	m.notifyLocked(Change{From: from, To: to, Timestamp: m.now()})
	return true
}

// Announce reports the current state to observers again, as a Change
// whose From and To are equal. The state itself is unchanged.
func (m *Machine) Announce() {
	m.mu.Lock()
	cur := m.current
	m.notifyLocked(Change{From: cur, To: cur, Timestamp: m.now()})
}

// notifyLocked releases m.mu and then runs the callbacks and publishes
// change. m.mu must be held on entry.
func (m *Machine) notifyLocked(change Change) {
	callbacks := append([]ChangeFunc(nil), m.callbacks...)
	bus, sessionID := m.bus, m.sessionID
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(change)
	}
	if bus != nil {
		bus.Publish(event.NewSessionStateChangedEvent(sessionID, change.From.String(), change.To.String(), change.Timestamp))
	}
}

func suppressed(from, to State) bool {
	return from == Restarting && (to == Crashed || to == Starting)
}
