package engine

import (
	"github.com/ptnet/ptnet-go/pkg/buffer"
	"github.com/ptnet/ptnet-go/pkg/cipher"
	"github.com/ptnet/ptnet-go/pkg/framing"
)

// writeRequest owns a frame from submission until its write completes.
type writeRequest struct {
	buf *buffer.Buffer
}

// complete releases the frame. The transport calls it exactly once,
// whatever the outcome.
func (w *writeRequest) complete(error) {
	w.buf.Release()
	w.buf = nil
}

// sealFunc turns a payload into what goes inside the frame.
type sealFunc func(payload []byte) []byte

// send frames buf and submits it. buf is released in every case. trace,
// when set, sees the plaintext payload of a frame about to be submitted.
// An ErrSendQueueFull result means the caller must close the connection.
func (e *endpoint) send(buf *buffer.Buffer, maxQueue int, seal sealFunc, trace func(payload []byte)) error {
	defer buf.Release()

	if !e.live() {
		return ErrNotConnected
	}
	if e.stream.WriteQueueSize() >= maxQueue {
		return ErrSendQueueFull
	}

	payload := buf.Bytes()
	if len(payload) == 0 {
		return framing.ErrMessageEmpty
	}
	size := len(payload)
	if seal != nil {
		size += cipher.Overhead
	}
	if uint64(size) > uint64(e.framer.MaxMessageSize) {
		return ErrMessageTooLarge
	}

	if trace != nil {
		trace(payload)
	}
	// Nothing below may fail before Write: seal advances the keystream.
	if seal != nil {
		payload = seal(payload)
	}
	frame, err := e.framer.Encode(payload)
	if err != nil {
		return err
	}

	req := &writeRequest{buf: frame}
	if err := e.stream.Write(frame.Bytes(), req.complete); err != nil {
		req.buf.Release()
		return err
	}
	return nil
}
