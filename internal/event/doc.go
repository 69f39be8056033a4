// Package event provides a pub-sub event bus that lets an aider session
// report what it is doing without knowing who is listening.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Session:
//   - [SessionStateChangedEvent]: every accepted state transition, with its timestamp
//
// Process:
//   - [ProcessSpawnedEvent]: a process was launched (including restarts)
//   - [ProcessExitedEvent]: an owned process exited on its own
//
// Turns:
//   - [TurnStartedEvent]: a message was written to aider
//   - [TurnCompletedEvent]: a streamed turn ended
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine and are protected against
// panics.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeSessionStateChanged, func(e event.Event) {
//	    changed := e.(event.SessionStateChangedEvent)
//	    fmt.Println(changed.State, changed.Timestamp())
//	})
//
//	sess := session.New(session.WithEventBus(bus))
package event
