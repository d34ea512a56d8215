// Package audit provides the asynchronous audit event pipeline for regulate outcomes.
//
// # Architecture
//
// [Dispatcher] accepts [Event] values via a buffered channel and forwards them to a
// [Sink] on a background goroutine. When the buffer is full, the dispatcher either
// drops the event (incrementing a counter) or blocks until space is available,
// depending on [Config.DropIfFull].
//
// # What this package must NOT do
//
//   - Block the Regulate path when DropIfFull is true.
//   - Import the root regulator package.
package audit
