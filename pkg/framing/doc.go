// Package framing implements the length-prefixed wire frame used by ptnet.
//
// Every frame is a 4-byte big-endian payload length followed by the
// payload:
//
//	+----------------+------------------------+
//	| length (4, BE) | payload (length bytes) |
//	+----------------+------------------------+
//
// A length of zero is malformed. A length above the configured maximum is
// oversize; the receiver closes the connection without reading the payload.
//
// Framer classifies and extracts frames from a non-blocking accumulator,
// which is what the engine uses. Conn does the same over a blocking
// io.ReadWriter for peers that run without a reactor.
package framing
