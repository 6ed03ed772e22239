// Package engine implements the connection lifecycle engine: admission,
// framing, optional frame decryption, outbound backpressure and an
// exactly-once teardown for every connection.
//
// A Server owns a registry of live connections keyed by a per-server
// serial number. Each accepted connection moves through
//
//	ACCEPTING -> LIVE -> CLOSING -> CLOSED
//
// Admission runs a capacity check and then the Handler's OnConnect hook.
// A connection rejected by either is closed without ever being counted,
// registered or reported to OnDisconnect. Once admitted, inbound bytes are
// accumulated and split into frames by the framing package; when
// encryption is enabled each frame must open under the connection's
// expected sequence number or the connection is closed.
//
// Closing a connection is a logical step (the disconnect callback and the
// registry removal) followed by an asynchronous transport close. The
// connection's buffers are released only in the transport's close
// completion.
//
// A Client is the outbound counterpart: it dials one server, frames and
// optionally seals outbound messages, and reports OnDisconnected once per
// established connection or failed attempt. Reconnecting is left to the
// application (see package connection).
//
// # Threading
//
// Nothing in this package is safe for concurrent use. Every method and
// every callback runs on the reactor's loop goroutine; code on other
// goroutines reaches the engine through reactor.Loop.Post or Do.
package engine
