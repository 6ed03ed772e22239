package reactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Loop defaults.
const (
	// DefaultQueueSize is the capacity of the completion queue.
	DefaultQueueSize = 1024

	// DefaultDialTimeout bounds Dial.
	DefaultDialTimeout = 10 * time.Second

	// DefaultReadSize is the size hint passed to AllocFunc.
	DefaultReadSize = 65536
)

// Reactor errors.
var (
	// ErrLoopRunning indicates Run was called on a loop that already ran.
	ErrLoopRunning = errors.New("loop already running")

	// ErrLoopStopped indicates the loop no longer accepts work.
	ErrLoopStopped = errors.New("loop stopped")

	// ErrClosed indicates an operation on a closed stream or listener.
	ErrClosed = errors.New("closed")

	// ErrNoPending indicates Accept found no queued connection.
	ErrNoPending = errors.New("no pending connection")

	// ErrAlreadyReading indicates a second ReadStart.
	ErrAlreadyReading = errors.New("already reading")

	// ErrNoBuffer indicates the allocator returned an empty buffer.
	ErrNoBuffer = errors.New("no read buffer")

	// ErrNotTCP indicates a TCP option on a non-TCP stream.
	ErrNotTCP = errors.New("not a TCP stream")

	// ErrUnsupportedNetwork indicates a network other than tcp or unix.
	ErrUnsupportedNetwork = errors.New("unsupported network")
)

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the operational logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithQueueSize sets the completion queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithDialTimeout sets the timeout applied to Dial.
func WithDialTimeout(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.dialTimeout = d
		}
	}
}

// Loop is a single-goroutine event loop.
type Loop struct {
	logger      *slog.Logger
	queueSize   int
	dialTimeout time.Duration

	events   chan func()
	quit     chan struct{}
	done     chan struct{}
	running  atomic.Bool
	stopOnce sync.Once
}

// NewLoop creates a loop. Call Run to start it.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		queueSize:   DefaultQueueSize,
		dialTimeout: DefaultDialTimeout,
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.events = make(chan func(), l.queueSize)
	return l
}

// Run executes posted functions until Stop is called or ctx is done.
// Functions still queued when the loop stops are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer close(l.done)

	for {
		select {
		case fn := <-l.events:
			fn()
		case <-l.quit:
			return nil
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		}
	}
}

// Stop makes Run return. It is safe to call from any goroutine, more than
// once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post schedules fn on the loop and reports whether it was queued. Post
// blocks while the queue is full, so the loop itself should not post in
// bulk.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Do runs fn on the loop and waits for it to return. It reports false when
// the loop stopped before fn ran. Do must not be called from the loop
// goroutine.
func (l *Loop) Do(fn func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-l.quit:
		// fn may still have run; report what we observed.
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}

// Listen binds network ("tcp" or "unix") at address and starts accepting.
// At most backlog accepted connections wait for Accept.
func (l *Loop) Listen(network, address string, backlog int, onConnection func(err error)) (Listener, error) {
	if err := checkNetwork(network); err != nil {
		return nil, err
	}
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return newListener(l, ln, backlog, onConnection), nil
}

// Dial connects to address in the background and reports the result on the
// loop. When the loop has stopped the connection is closed and onConnect
// never runs.
func (l *Loop) Dial(network, address string, onConnect func(s Stream, err error)) {
	if err := checkNetwork(network); err != nil {
		// Dial usually runs on the loop, which must not block on its own queue.
		go func() {
			if !l.Post(func() { onConnect(nil, err) }) {
				l.logger.Debug("dial result dropped", "network", network, "address", address)
			}
		}()
		return
	}
	go func() {
		d := net.Dialer{Timeout: l.dialTimeout}
		conn, err := d.Dial(network, address)
		posted := l.Post(func() {
			if err != nil {
				onConnect(nil, fmt.Errorf("failed to connect: %w", err))
				return
			}
			onConnect(newStream(l, conn), nil)
		})
		if !posted && conn != nil {
			conn.Close()
		}
	}()
}

func checkNetwork(network string) error {
	switch network {
	case "tcp", "tcp4", "tcp6", "unix":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedNetwork, network)
	}
}
