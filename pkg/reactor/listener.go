package reactor

import (
	"errors"
	"net"
	"sync"
	"time"
)

// acceptRetryDelay spaces out retries after a failed accept (e.g. EMFILE).
const acceptRetryDelay = 5 * time.Millisecond

// listener queues accepted connections for Accept and signals each one
// through onConnection.
type listener struct {
	loop         *Loop
	ln           net.Listener
	onConnection func(err error)

	pending chan net.Conn
	stop    chan struct{}
	wg      sync.WaitGroup

	// Loop-only state.
	closing bool
}

func newListener(loop *Loop, ln net.Listener, backlog int, onConnection func(err error)) *listener {
	if backlog <= 0 {
		backlog = 1
	}
	l := &listener{
		loop:         loop,
		ln:           ln,
		onConnection: onConnection,
		pending:      make(chan net.Conn, backlog),
		stop:         make(chan struct{}),
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return l
}

// acceptLoop runs on its own goroutine until the listener closes.
func (l *listener) acceptLoop() {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.stopped() || errors.Is(err, net.ErrClosed) {
				return
			}
			if !l.loop.Post(func() { l.notify(err) }) {
				return
			}
			time.Sleep(acceptRetryDelay)
			continue
		}

		select {
		case l.pending <- conn:
		case <-l.stop:
			conn.Close()
			return
		}
		if !l.loop.Post(func() { l.notify(nil) }) {
			return
		}
	}
}

func (l *listener) stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

func (l *listener) notify(err error) {
	if l.closing {
		return
	}
	l.onConnection(err)
}

// Accept returns the next queued connection without blocking.
func (l *listener) Accept() (Stream, error) {
	if l.closing {
		return nil, ErrClosed
	}
	select {
	case conn := <-l.pending:
		return newStream(l.loop, conn), nil
	default:
		return nil, ErrNoPending
	}
}

// Addr returns the bound address.
func (l *listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting. Connections still queued are closed. onClosed
// runs on the loop once the accept goroutine has exited.
func (l *listener) Close(onClosed func()) {
	if l.closing {
		return
	}
	l.closing = true
	close(l.stop)
	l.ln.Close()

	go func() {
		l.wg.Wait()
	drain:
		for {
			select {
			case conn := <-l.pending:
				conn.Close()
			default:
				break drain
			}
		}
		l.loop.Post(func() {
			if onClosed != nil {
				onClosed()
			}
		})
	}()
}
