package reactor

import (
	"net"
	"time"
)

// AllocFunc returns the buffer the next read fills. suggested is a size
// hint. It runs on the loop.
type AllocFunc func(suggested int) []byte

// ReadFunc receives the bytes of one read, or the error that ended the
// stream (io.EOF for an orderly end). It runs on the loop. data aliases the
// buffer returned by the matching AllocFunc call.
type ReadFunc func(data []byte, err error)

// Reactor schedules work and creates transports.
// Implemented by Loop.
type Reactor interface {
	// Post schedules fn on the loop. It reports false when the loop has
	// stopped.
	Post(fn func()) bool

	// Listen binds a listener. onConnection runs on the loop once per
	// accepted connection (err == nil) or accept failure.
	Listen(network, address string, backlog int, onConnection func(err error)) (Listener, error)

	// Dial connects asynchronously; onConnect runs on the loop.
	Dial(network, address string, onConnect func(s Stream, err error))
}

// Listener is a bound, listening endpoint.
// Implemented by *listener.
type Listener interface {
	// Accept returns the next queued connection, or ErrNoPending.
	Accept() (Stream, error)

	// Addr returns the bound address.
	Addr() net.Addr

	// Close stops listening. onClosed runs exactly once; later calls are
	// ignored.
	Close(onClosed func())
}

// Stream is a connected byte stream. All methods must be called on the
// loop.
// Implemented by *stream.
type Stream interface {
	// ReadStart begins delivering reads until the stream closes.
	ReadStart(alloc AllocFunc, onRead ReadFunc) error

	// Write queues p. onWritten runs exactly once, after which p is no
	// longer referenced.
	Write(p []byte, onWritten func(err error)) error

	// WriteQueueSize returns the number of writes not yet completed.
	WriteQueueSize() int

	// Close shuts the stream down. Pending writes complete (with an
	// error if they never reached the socket), then onClosed runs exactly
	// once. Later calls are ignored.
	Close(onClosed func())

	// SetKeepAlive configures TCP keepalive probes.
	SetKeepAlive(enable bool, delay time.Duration) error

	// SetNoDelay toggles Nagle's algorithm.
	SetNoDelay(enable bool) error

	// LocalAddr returns the local address, or "" when unknown.
	LocalAddr() string

	// RemoteAddr returns the peer address, or "" when unknown.
	RemoteAddr() string

	// Network returns the transport name ("tcp" or "unix").
	Network() string
}

// Compile-time interface satisfaction checks.
var (
	_ Reactor  = (*Loop)(nil)
	_ Listener = (*listener)(nil)
	_ Stream   = (*stream)(nil)
)
