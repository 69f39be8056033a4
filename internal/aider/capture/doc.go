// Package capture turns aider's raw terminal output into clean text and
// accumulates it for the turn driver.
//
// aider is run without a pty, but it still emits a handful of escape
// sequences and braille spinner frames while it works. The [Normalize]
// function removes those and rewrites known noisy progress phrases into a
// stable form. It keeps no state between chunks; everything that has to
// survive a chunk boundary lives in an [Accumulator].
//
// # Main Types
//
//   - [Normalize]: stateless chunk cleaner
//   - [Accumulator]: growing text buffer plus a cursor marking what has been delivered
//
// # Thread Safety
//
// [Accumulator] is safe for concurrent use. One goroutine (the stdout
// reader) appends; the turn driver takes deltas and resets. Every Append
// signals the channel returned by [Accumulator.Notify] so waiters can wake
// without polling.
//
// # Basic Usage
//
//	acc := capture.NewAccumulator()
//	acc.Append(capture.Normalize(chunk))
//
//	delta, all := acc.Take()
//	if detect.IsBoundary(all) { ... }
package capture
