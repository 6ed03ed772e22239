// Package buffer provides byte buffers with a single owner and a single
// release point.
//
// A Buffer is handed from one owner to the next (application → write
// request, reactor → connection, connection → receive callback) and
// released exactly once by whoever holds it last. Releasing twice is an
// invariant violation and panics.
package buffer

import (
	"errors"
	"sync"
)

// Size constants.
const (
	// DefaultSize is the capacity of buffers created by Get(0).
	DefaultSize = 4096

	// maxPooledSize bounds the capacity of backing arrays returned to the
	// pool, so one oversized frame does not pin memory forever.
	maxPooledSize = 1 << 20
)

// ErrDoubleRelease is the panic value raised by a second Release.
var ErrDoubleRelease = errors.New("buffer: released twice")

// backing arrays are pooled; Buffer wrappers are not, so a stale wrapper
// keeps reporting Released after its array has been reused.
var pool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, DefaultSize)
		return &b
	},
}

// Buffer is an append-only byte accumulator with prefix consumption.
type Buffer struct {
	b        []byte
	released bool
}

// Get returns an empty buffer with at least the given capacity.
func Get(capacity int) *Buffer {
	p := pool.Get().(*[]byte)
	b := (*p)[:0]
	if cap(b) < capacity {
		b = make([]byte, 0, capacity)
	}
	return &Buffer{b: b}
}

// From returns a buffer holding a copy of p.
func From(p []byte) *Buffer {
	buf := Get(len(p))
	buf.b = append(buf.b, p...)
	return buf
}

// Bytes returns the buffered bytes. The slice aliases the buffer and is
// only valid until the next mutation or Release.
func (b *Buffer) Bytes() []byte {
	return b.b
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.b)
}

// Cap returns the capacity of the backing array.
func (b *Buffer) Cap() int {
	return cap(b.b)
}

// Write appends p. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.b = append(b.b, p...)
	return len(p), nil
}

// Consume drops the first n bytes and keeps the remainder at the front.
func (b *Buffer) Consume(n int) {
	if n >= len(b.b) {
		b.b = b.b[:0]
		return
	}
	rest := copy(b.b, b.b[n:])
	b.b = b.b[:rest]
}

// Reset empties the buffer, keeping its capacity.
func (b *Buffer) Reset() {
	b.b = b.b[:0]
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b.released
}

// Release returns the buffer's storage to the pool. The buffer must not be
// used afterwards. A second Release panics with ErrDoubleRelease.
func (b *Buffer) Release() {
	if b.released {
		panic(ErrDoubleRelease)
	}
	b.released = true
	p := b.b[:0]
	b.b = nil
	if cap(p) <= maxPooledSize {
		pool.Put(&p)
	}
}
