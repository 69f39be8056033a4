// Package event defines event types for decoupling an aider session from
// whatever renders it. A CLI, a TUI or an editor bridge subscribes to a Bus
// instead of being called directly by the session.
package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "session.state_changed", "turn.completed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeSessionStateChanged = "session.state_changed"
	TypeProcessSpawned      = "process.spawned"
	TypeProcessExited       = "process.exited"
	TypeTurnStarted         = "turn.started"
	TypeTurnCompleted       = "turn.completed"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string, at time.Time) baseEvent {
	if at.IsZero() {
		at = time.Now()
	}
	return baseEvent{
		eventType: eventType,
		timestamp: at,
	}
}

// -----------------------------------------------------------------------------
// Session Events
// -----------------------------------------------------------------------------

// SessionStateChangedEvent is emitted on every accepted state transition.
// State and Previous hold the state names (e.g. "ready", "signedOut").
type SessionStateChangedEvent struct {
	baseEvent
	SessionID string
	Previous  string
	State     string
}

// NewSessionStateChangedEvent creates a SessionStateChangedEvent stamped
// with the time the transition happened.
func NewSessionStateChangedEvent(sessionID, previous, state string, at time.Time) SessionStateChangedEvent {
	return SessionStateChangedEvent{
		baseEvent: newBaseEvent(TypeSessionStateChanged, at),
		SessionID: sessionID,
		Previous:  previous,
		State:     state,
	}
}

// -----------------------------------------------------------------------------
// Process Events
// -----------------------------------------------------------------------------

// ProcessSpawnedEvent is emitted after the launcher returns a live process.
type ProcessSpawnedEvent struct {
	baseEvent
	SessionID string
	PID       int
	Command   string // Redacted command line
	Restart   bool   // True when spawned by a session reset
}

// NewProcessSpawnedEvent creates a ProcessSpawnedEvent.
func NewProcessSpawnedEvent(sessionID string, pid int, command string, restart bool) ProcessSpawnedEvent {
	return ProcessSpawnedEvent{
		baseEvent: newBaseEvent(TypeProcessSpawned, time.Time{}),
		SessionID: sessionID,
		PID:       pid,
		Command:   command,
		Restart:   restart,
	}
}

// ProcessExitedEvent is emitted when a process the session still owns exits.
// Exits of processes killed on purpose are not reported.
type ProcessExitedEvent struct {
	baseEvent
	SessionID string
	PID       int
	ExitCode  int
}

// NewProcessExitedEvent creates a ProcessExitedEvent.
func NewProcessExitedEvent(sessionID string, pid, exitCode int) ProcessExitedEvent {
	return ProcessExitedEvent{
		baseEvent: newBaseEvent(TypeProcessExited, time.Time{}),
		SessionID: sessionID,
		PID:       pid,
		ExitCode:  exitCode,
	}
}

// -----------------------------------------------------------------------------
// Turn Events
// -----------------------------------------------------------------------------

// TurnStartedEvent is emitted when a message has been written to aider.
type TurnStartedEvent struct {
	baseEvent
	SessionID string
	Message   string
}

// NewTurnStartedEvent creates a TurnStartedEvent.
func NewTurnStartedEvent(sessionID, message string) TurnStartedEvent {
	return TurnStartedEvent{
		baseEvent: newBaseEvent(TypeTurnStarted, time.Time{}),
		SessionID: sessionID,
		Message:   message,
	}
}

// TurnCompletedEvent is emitted when a streamed turn ends.
// Boundary is true when aider's prompt was seen; false means the turn was
// cut short (process gone, context cancelled or consumer stopped early).
type TurnCompletedEvent struct {
	baseEvent
	SessionID string
	Deltas    int
	Boundary  bool
}

// NewTurnCompletedEvent creates a TurnCompletedEvent.
func NewTurnCompletedEvent(sessionID string, deltas int, boundary bool) TurnCompletedEvent {
	return TurnCompletedEvent{
		baseEvent: newBaseEvent(TypeTurnCompleted, time.Time{}),
		SessionID: sessionID,
		Deltas:    deltas,
		Boundary:  boundary,
	}
}
