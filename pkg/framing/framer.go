package framing

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ptnet/ptnet-go/pkg/buffer"
	"github.com/ptnet/ptnet-go/pkg/log"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4

	// DefaultMaxMessageSize is the default maximum payload size (64 KB).
	DefaultMaxMessageSize = 65536

	// MinMessageSize is the minimum valid payload size.
	MinMessageSize = 1

	// MaxLogFrameDataSize is the maximum frame data size to include in logs (4 KB).
	// Larger frames are truncated in log events to avoid excessive memory usage.
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrMessageTooLarge indicates the message exceeds the maximum size.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrMessageEmpty indicates an empty message.
	ErrMessageEmpty = errors.New("message is empty")

	// ErrFrameTruncated indicates the frame was truncated.
	ErrFrameTruncated = errors.New("frame truncated")
)

// Status classifies the front of an accumulator.
type Status int

const (
	// StatusIncomplete means more bytes are needed.
	StatusIncomplete Status = iota
	// StatusComplete means one whole frame is available.
	StatusComplete
	// StatusMalformed means the header is invalid.
	StatusMalformed
	// StatusOversize means the declared length exceeds the maximum.
	StatusOversize
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIncomplete:
		return "INCOMPLETE"
	case StatusComplete:
		return "COMPLETE"
	case StatusMalformed:
		return "MALFORMED"
	case StatusOversize:
		return "OVERSIZE"
	default:
		return "UNKNOWN"
	}
}

// Framer classifies, extracts and encodes frames. The zero value uses
// DefaultMaxMessageSize. A Framer holds no per-connection state.
type Framer struct {
	MaxMessageSize uint32
}

// New creates a framer with the given maximum payload size. Zero selects
// DefaultMaxMessageSize.
func New(maxSize uint32) *Framer {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	return &Framer{MaxMessageSize: maxSize}
}

func (f *Framer) max() uint32 {
	if f.MaxMessageSize == 0 {
		return DefaultMaxMessageSize
	}
	return f.MaxMessageSize
}

// Status inspects the front of acc. It never consumes bytes.
func (f *Framer) Status(acc []byte) Status {
	if len(acc) < LengthPrefixSize {
		return StatusIncomplete
	}
	length := binary.BigEndian.Uint32(acc)
	switch {
	case length == 0:
		return StatusMalformed
	case length > f.max():
		return StatusOversize
	case uint64(len(acc)-LengthPrefixSize) < uint64(length):
		return StatusIncomplete
	default:
		return StatusComplete
	}
}

// Extract removes exactly one frame from the front of acc and returns its
// payload in a new buffer owned by the caller. It returns nil unless
// Status(acc.Bytes()) is StatusComplete.
func (f *Framer) Extract(acc *buffer.Buffer) *buffer.Buffer {
	data := acc.Bytes()
	if f.Status(data) != StatusComplete {
		return nil
	}
	end := LengthPrefixSize + int(binary.BigEndian.Uint32(data))
	frame := buffer.From(data[LengthPrefixSize:end])
	acc.Consume(end)
	return frame
}

// Encode builds the wire frame for payload.
func (f *Framer) Encode(payload []byte) (*buffer.Buffer, error) {
	if len(payload) == 0 {
		return nil, ErrMessageEmpty
	}
	if uint64(len(payload)) > uint64(f.max()) {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(payload), f.max())
	}

	out := buffer.Get(FrameSize(len(payload)))
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	out.Write(lengthBuf[:])
	out.Write(payload)
	return out, nil
}

// FrameSize returns the total frame size including the length prefix.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}

// NewFrameEvent builds the log payload for a frame carrying payload,
// truncating the captured data to MaxLogFrameDataSize.
func NewFrameEvent(payload []byte) *log.FrameEvent {
	frameData := payload
	truncated := false

	if len(payload) > MaxLogFrameDataSize {
		frameData = payload[:MaxLogFrameDataSize]
		truncated = true
	}

	return &log.FrameEvent{
		Size:      FrameSize(len(payload)),
		Data:      append([]byte(nil), frameData...),
		Truncated: truncated,
	}
}
