package reactor

import (
	"net"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
)

// writeOp is one queued write.
type writeOp struct {
	p  []byte
	cb func(err error)
}

// stream adapts a net.Conn to the completion contract of Stream.
//
// A writer goroutine drains the write queue in order. A reader goroutine
// exists once ReadStart is called. Both exit when the conn is closed; the
// close completion is posted only after both have exited, so it is always
// the last completion of the stream.
type stream struct {
	loop    *Loop
	conn    net.Conn
	network string
	laddr   string
	raddr   string

	mu    sync.Mutex
	cond  *sync.Cond
	queue []writeOp
	stop  bool

	wg sync.WaitGroup

	// Loop-only state.
	reading bool
	closing bool
	pending int
}

func newStream(loop *Loop, conn net.Conn) *stream {
	s := &stream{
		loop:    loop,
		conn:    conn,
		network: safeconn.Network(conn),
		laddr:   safeconn.LocalAddr(conn),
		raddr:   safeconn.RemoteAddr(conn),
	}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(1)
	go s.writeLoop()
	return s
}

// ReadStart starts the reader goroutine.
func (s *stream) ReadStart(alloc AllocFunc, onRead ReadFunc) error {
	if s.closing {
		return ErrClosed
	}
	if s.reading {
		return ErrAlreadyReading
	}
	s.reading = true
	s.wg.Add(1)
	go s.readLoop(alloc, onRead)
	return nil
}

// readLoop alternates between the loop (alloc, deliver) and a blocking
// Read. The buffer from alloc is handed back before the next alloc call,
// so the caller may reuse one scratch buffer.
func (s *stream) readLoop(alloc AllocFunc, onRead ReadFunc) {
	defer s.wg.Done()

	for {
		var buf []byte
		if !s.loop.Do(func() {
			if !s.closing {
				buf = alloc(DefaultReadSize)
			}
		}) {
			return
		}
		if len(buf) == 0 {
			// Closing, or the allocator refused.
			s.deliver(onRead, nil, ErrNoBuffer)
			return
		}

		n, err := s.conn.Read(buf)
		if n > 0 {
			data := buf[:n]
			if !s.deliver(onRead, data, nil) {
				return
			}
		}
		if err != nil {
			s.deliver(onRead, nil, err)
			return
		}
	}
}

// deliver runs onRead on the loop unless the stream is closing. It reports
// false when the reader should exit.
func (s *stream) deliver(onRead ReadFunc, data []byte, err error) bool {
	live := false
	ok := s.loop.Do(func() {
		if s.closing {
			return
		}
		live = true
		onRead(data, err)
	})
	return ok && live
}

// Write queues p for the writer goroutine.
func (s *stream) Write(p []byte, onWritten func(err error)) error {
	if s.closing {
		return ErrClosed
	}
	s.pending++
	s.mu.Lock()
	s.queue = append(s.queue, writeOp{p: p, cb: onWritten})
	s.cond.Signal()
	s.mu.Unlock()
	return nil
}

func (s *stream) writeLoop() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stop {
			s.cond.Wait()
		}
		if s.stop {
			s.mu.Unlock()
			return
		}
		op := s.queue[0]
		s.queue[0] = writeOp{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		_, err := s.conn.Write(op.p)
		if !s.loop.Post(func() { s.complete(op, err) }) {
			return
		}
	}
}

func (s *stream) complete(op writeOp, err error) {
	s.pending--
	if op.cb != nil {
		op.cb(err)
	}
}

// WriteQueueSize returns the number of writes not yet completed.
func (s *stream) WriteQueueSize() int {
	return s.pending
}

// Close closes the conn and posts the close completion once the reader and
// writer goroutines have exited. Writes that never reached the socket
// complete with ErrClosed just before onClosed.
func (s *stream) Close(onClosed func()) {
	if s.closing {
		return
	}
	s.closing = true
	s.conn.Close()

	s.mu.Lock()
	s.stop = true
	s.cond.Broadcast()
	s.mu.Unlock()

	go func() {
		s.wg.Wait()
		s.loop.Post(func() {
			s.mu.Lock()
			rest := s.queue
			s.queue = nil
			s.mu.Unlock()

			for _, op := range rest {
				s.complete(op, ErrClosed)
			}
			if onClosed != nil {
				onClosed()
			}
		})
	}()
}

// SetKeepAlive configures TCP keepalive; delay <= 0 keeps the system
// default period.
func (s *stream) SetKeepAlive(enable bool, delay time.Duration) error {
	tc, ok := s.conn.(*net.TCPConn)
	if !ok {
		return ErrNotTCP
	}
	if err := tc.SetKeepAlive(enable); err != nil {
		return err
	}
	if enable && delay > 0 {
		return tc.SetKeepAlivePeriod(delay)
	}
	return nil
}

// SetNoDelay toggles TCP_NODELAY.
func (s *stream) SetNoDelay(enable bool) error {
	tc, ok := s.conn.(*net.TCPConn)
	if !ok {
		return ErrNotTCP
	}
	return tc.SetNoDelay(enable)
}

func (s *stream) LocalAddr() string  { return s.laddr }
func (s *stream) RemoteAddr() string { return s.raddr }
func (s *stream) Network() string    { return s.network }
