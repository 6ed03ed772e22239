// Package reactor provides the asynchronous I/O runtime the engine runs on.
//
// A Loop owns one goroutine. Every completion (accepted connection, read,
// finished write, close) is delivered as a function posted to that
// goroutine, so code driven by the loop never needs locks. Blocking socket
// calls run on helper goroutines that hand their results back through the
// loop:
//
//	accept goroutine ──┐
//	reader goroutine ──┼──► Loop.events ──► loop goroutine ──► callbacks
//	writer goroutine ──┘
//
// Streams follow a completion-callback contract modelled on classic event
// loops: a read delivers bytes into a buffer obtained from the caller's
// allocator, a write completes exactly once, and a close completes exactly
// once after every pending write has completed.
package reactor
