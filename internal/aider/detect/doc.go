// Package detect recognizes aider's interactive prompt at the end of its
// output.
//
// The same tail test answers two questions: during startup it means aider
// is ready for input, and during a turn it means the reply is complete.
// The test is applied to the cumulative output of a turn rather than the
// newest chunk, so a prompt split across two reads is still seen.
//
// The pattern matches any text that ends in '>' followed by at least one
// whitespace run. That includes incidental output such as a quoted line
// ending in "> ", which is a known false positive kept as-is because turn
// completion depends on this exact shape.
package detect
