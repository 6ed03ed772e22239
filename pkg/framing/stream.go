package framing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ptnet/ptnet-go/pkg/log"
)

// Conn exchanges frames over a blocking byte stream. It is the peer side
// used by tools and tests that talk to an engine without a reactor.
//
// WriteFrame may be called from several goroutines; ReadFrame must not.
type Conn struct {
	rw     io.ReadWriter
	framer *Framer

	wmu    sync.Mutex
	header [LengthPrefixSize]byte

	logger log.Logger
	connID uint64
}

// NewConn returns a Conn over rw. A maxSize of zero selects
// DefaultMaxMessageSize for both directions.
func NewConn(rw io.ReadWriter, maxSize uint32) *Conn {
	return &Conn{
		rw:     rw,
		framer: New(maxSize),
		logger: log.NoopLogger{},
	}
}

// SetLogger sends a framing event for every frame read or written, tagged
// with connID. A nil logger disables capture.
func (c *Conn) SetLogger(logger log.Logger, connID uint64) {
	c.logger = log.OrNoop(logger)
	c.connID = connID
}

// WriteFrame frames payload and writes it with a single Write call.
func (c *Conn) WriteFrame(payload []byte) error {
	frame, err := c.framer.Encode(payload)
	if err != nil {
		return err
	}
	defer frame.Release()

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if _, err := c.rw.Write(frame.Bytes()); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	c.log(log.DirectionOut, payload)
	return nil
}

// ReadFrame blocks until a whole frame has arrived and returns its payload.
// It returns io.EOF when the stream ends on a frame boundary and
// ErrFrameTruncated when it ends inside one. Malformed and oversize length
// prefixes are reported before the payload is read.
func (c *Conn) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(c.rw, c.header[:]); err != nil {
		return nil, readError(err, "length prefix")
	}

	switch c.framer.Status(c.header[:]) {
	case StatusMalformed:
		return nil, ErrMessageEmpty
	case StatusOversize:
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge,
			binary.BigEndian.Uint32(c.header[:]), c.framer.max())
	}

	payload := make([]byte, binary.BigEndian.Uint32(c.header[:]))
	if _, err := io.ReadFull(c.rw, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrFrameTruncated
		}
		return nil, readError(err, "payload")
	}
	c.log(log.DirectionIn, payload)
	return payload, nil
}

func readError(err error, what string) error {
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return ErrFrameTruncated
	case err == io.EOF:
		return io.EOF
	default:
		return fmt.Errorf("failed to read %s: %w", what, err)
	}
}

func (c *Conn) log(dir log.Direction, payload []byte) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    dir,
		Layer:        log.LayerFraming,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleClient,
		Frame:        NewFrameEvent(payload),
	})
}
