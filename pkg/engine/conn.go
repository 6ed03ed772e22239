package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bassosimone/runtimex"
	"github.com/ptnet/ptnet-go/pkg/buffer"
	"github.com/ptnet/ptnet-go/pkg/cipher"
	"github.com/ptnet/ptnet-go/pkg/framing"
	"github.com/ptnet/ptnet-go/pkg/reactor"
)

// State is the lifecycle state of a connection.
type State uint8

const (
	// StateAccepting is a connection that has not finished admission.
	StateAccepting State = iota
	// StateLive is an admitted connection that reads and writes.
	StateLive
	// StateClosing is a connection waiting for its transport to close.
	StateClosing
	// StateClosed is a connection whose resources have been released.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAccepting:
		return "ACCEPTING"
	case StateLive:
		return "LIVE"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// endpoint is the per-connection state shared by server connections and
// the client: the transport handle, the inbound accumulator, the scratch
// read buffer and the inbound cipher.
type endpoint struct {
	framer  *framing.Framer
	stream  reactor.Stream
	state   State
	inbound *buffer.Buffer
	scratch []byte

	// opener is nil unless inbound frames are sealed.
	opener *cipher.State
	seq    uint32
}

func newEndpoint(framer *framing.Framer, stream reactor.Stream) endpoint {
	return endpoint{
		framer:  framer,
		stream:  stream,
		state:   StateAccepting,
		inbound: buffer.Get(buffer.DefaultSize),
	}
}

func (e *endpoint) live() bool {
	return e.state == StateLive
}

// alloc lends the scratch buffer to the transport for one read. The buffer
// grows when suggested exceeds its capacity and never shrinks.
func (e *endpoint) alloc(suggested int) []byte {
	if !e.live() {
		return nil
	}
	if suggested > cap(e.scratch) {
		e.scratch = make([]byte, suggested)
	}
	return e.scratch[:suggested]
}

// ingest appends data to the accumulator and hands every complete frame to
// deliver, in order. It stops as soon as the endpoint is no longer live,
// so a callback may close the connection. The returned error is a protocol
// failure the caller must close on.
func (e *endpoint) ingest(data []byte, deliver func(seq uint32, payload []byte)) error {
	e.inbound.Write(data)

	for e.live() {
		switch status := e.framer.Status(e.inbound.Bytes()); status {
		case framing.StatusIncomplete:
			return nil
		case framing.StatusMalformed:
			return ErrMalformedFrame
		case framing.StatusOversize:
			return ErrOversizeFrame
		}

		frame := e.framer.Extract(e.inbound)
		runtimex.Assert(frame != nil)

		seq := e.seq
		payload := frame.Bytes()
		if e.opener != nil {
			var ok bool
			if payload, ok = e.opener.Open(seq, payload); !ok {
				frame.Release()
				return fmt.Errorf("%w: sequence %d", ErrIntegrity, seq)
			}
			e.seq++
		}

		deliver(seq, payload)
		frame.Release()
	}
	return nil
}

// release frees the buffers. It runs once, from the transport's close
// completion.
func (e *endpoint) release() {
	if e.inbound != nil {
		e.inbound.Release()
		e.inbound = nil
	}
	e.scratch = nil
	e.opener = nil
	e.state = StateClosed
}

// Conn is one server-side connection.
type Conn struct {
	endpoint

	id       uint64
	server   *Server
	network  string
	local    string
	remote   string
	admitted bool

	// Value is free for the application to use.
	Value any
}

// ID returns the identifier assigned at accept time. Identifiers are unique
// within a Server.
func (c *Conn) ID() uint64 {
	return c.id
}

// Server returns the owning server.
func (c *Conn) Server() *Server {
	return c.server
}

// Live reports whether the connection is admitted and not closing.
func (c *Conn) Live() bool {
	return c.live()
}

// State returns the lifecycle state.
func (c *Conn) State() State {
	return c.state
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.remote
}

// LocalAddr returns the local address.
func (c *Conn) LocalAddr() string {
	return c.local
}

// Network returns "tcp" or "unix".
func (c *Conn) Network() string {
	return c.network
}

// Sequence returns the sequence number the next sealed frame must carry.
func (c *Conn) Sequence() uint32 {
	return c.seq
}

// setSocketOptions applies keepalive and no-delay to TCP streams. Other
// networks are left alone.
func setSocketOptions(st reactor.Stream, keepAlive time.Duration, noDelay bool) error {
	if !strings.HasPrefix(st.Network(), "tcp") {
		return nil
	}
	return errors.Join(
		st.SetKeepAlive(keepAlive > 0, keepAlive),
		st.SetNoDelay(noDelay),
	)
}
