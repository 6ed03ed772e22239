package connection

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ptnet/ptnet-go/pkg/engine"
	"github.com/ptnet/ptnet-go/pkg/reactor"
)

// Reconnector errors.
var (
	ErrAlreadyStarted = errors.New("reconnector already started")
	ErrStopped        = errors.New("reconnector stopped")
)

// State is the reconnector state.
type State uint8

const (
	// StateIdle is a reconnector that was never started.
	StateIdle State = iota

	// StateConnecting indicates a connect attempt is in progress.
	StateConnecting

	// StateConnected indicates a live connection.
	StateConnected

	// StateWaiting indicates a retry is scheduled.
	StateWaiting

	// StateStopped indicates Stop was called.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateWaiting:
		return "WAITING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc starts one connect attempt, typically Client.Connect or
// Client.ConnectPipe.
type DialFunc func(c *engine.Client) error

// timer is the part of *time.Timer the reconnector uses.
type timer interface {
	Stop() bool
}

// Option configures a Reconnector.
type Option func(*Reconnector)

// WithBackoff replaces the default backoff parameters.
func WithBackoff(cfg BackoffConfig) Option {
	return func(rc *Reconnector) {
		rc.backoff = NewBackoffWithConfig(cfg)
	}
}

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rc *Reconnector) {
		if logger != nil {
			rc.logger = logger
		}
	}
}

// WithRetryCallback registers fn to run each time a retry is scheduled.
func WithRetryCallback(fn func(attempt int, delay time.Duration)) Option {
	return func(rc *Reconnector) {
		rc.onRetry = fn
	}
}

// Reconnector is an engine.ClientHandler that forwards every event to the
// wrapped handler and reconnects after each OnDisconnected.
//
// All methods must run on the reactor loop. Retry timers fire on their own
// goroutine and post the attempt back to the loop.
type Reconnector struct {
	reactor reactor.Reactor
	handler engine.ClientHandler
	dial    DialFunc
	backoff *Backoff
	logger  *slog.Logger
	onRetry func(attempt int, delay time.Duration)

	client  *engine.Client
	state   State
	pending timer

	afterFunc func(d time.Duration, f func()) timer
}

// NewReconnector wraps h. Pass the result to engine.NewClient, then call
// Start with the client.
func NewReconnector(r reactor.Reactor, h engine.ClientHandler, dial DialFunc, opts ...Option) *Reconnector {
	rc := &Reconnector{
		reactor: r,
		handler: h,
		dial:    dial,
		backoff: NewBackoff(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Start makes the first connect attempt. A failure to start the attempt
// schedules a retry like any other failure.
func (rc *Reconnector) Start(c *engine.Client) error {
	switch rc.state {
	case StateStopped:
		return ErrStopped
	case StateIdle:
	default:
		return ErrAlreadyStarted
	}
	rc.client = c
	rc.attempt()
	return nil
}

// Stop cancels any scheduled retry and stops reconnecting. It does not
// disconnect a live client.
func (rc *Reconnector) Stop() {
	if rc.pending != nil {
		rc.pending.Stop()
		rc.pending = nil
	}
	rc.state = StateStopped
}

// State returns the current state.
func (rc *Reconnector) State() State {
	return rc.state
}

// Attempts returns the number of retries since the last successful connect.
func (rc *Reconnector) Attempts() int {
	return rc.backoff.Attempts()
}

func (rc *Reconnector) attempt() {
	rc.state = StateConnecting
	if err := rc.dial(rc.client); err != nil {
		rc.logger.Warn("connect attempt failed to start", "err", err)
		rc.schedule()
	}
}

func (rc *Reconnector) schedule() {
	if rc.state == StateStopped || rc.client == nil {
		return
	}
	rc.state = StateWaiting
	delay := rc.backoff.Next()
	attempt := rc.backoff.Attempts()

	rc.logger.Info("reconnecting", "attempt", attempt, "delay", delay)
	if rc.onRetry != nil {
		rc.onRetry(attempt, delay)
	}

	rc.pending = rc.afterFunc(delay, func() {
		rc.reactor.Post(rc.retry)
	})
}

// retry runs on the loop when a scheduled delay expires.
func (rc *Reconnector) retry() {
	if rc.state != StateWaiting {
		return
	}
	rc.pending = nil
	rc.attempt()
}

// OnConnected resets the backoff and forwards the event.
func (rc *Reconnector) OnConnected(c *engine.Client) {
	if rc.state != StateStopped {
		rc.state = StateConnected
	}
	rc.backoff.Reset()
	rc.handler.OnConnected(c)
}

// OnReceive forwards the frame.
func (rc *Reconnector) OnReceive(c *engine.Client, payload []byte) {
	rc.handler.OnReceive(c, payload)
}

// OnDisconnected forwards the event and schedules a retry.
func (rc *Reconnector) OnDisconnected(c *engine.Client) {
	rc.handler.OnDisconnected(c)
	rc.schedule()
}

var _ engine.ClientHandler = (*Reconnector)(nil)
