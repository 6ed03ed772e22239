package log

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fxamacker/cbor/v2"
)

// fileBufferSize is the write buffer in front of the log file. One frame
// event with a truncated payload is well under 1 KiB.
const fileBufferSize = 32 * 1024

// FileLogger appends CBOR-encoded events to a file.
//
// Writes are buffered; call Flush to make events visible to a concurrent
// reader and Close before exiting. A FileLogger is safe for concurrent use.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	w       *bufio.Writer
	encoder *cbor.Encoder
	closed  bool
	dropped atomic.Uint64
}

// NewFileLogger opens path for appending, creating it with mode 0644 when
// it does not exist.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open protocol log: %w", err)
	}
	w := bufio.NewWriterSize(f, fileBufferSize)
	return &FileLogger{
		file:    f,
		w:       w,
		encoder: newEncoder(w),
	}, nil
}

// Log encodes event into the write buffer. Events that cannot be encoded or
// written are counted by Dropped; the engine never sees the failure.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.encoder.Encode(event) != nil {
		l.dropped.Add(1)
	}
}

// Dropped returns the number of events that were not written.
func (l *FileLogger) Dropped() uint64 {
	return l.dropped.Load()
}

// Flush writes buffered events to the file.
func (l *FileLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	return l.w.Flush()
}

// Close flushes, syncs and closes the file. Later calls return nil and
// later events are dropped.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return errors.Join(l.w.Flush(), l.file.Sync(), l.file.Close())
}

var _ Logger = (*FileLogger)(nil)
