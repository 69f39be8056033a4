// Package state holds the aider session state machine.
//
// A Machine records the current State, rejects the two transitions that
// would otherwise leak restart noise to observers, and notifies registered
// callbacks and an optional event bus of every accepted change. Callbacks
// run after the machine's lock is released, so a callback may read the
// machine again without deadlocking.
package state
