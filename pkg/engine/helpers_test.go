package engine

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/bassosimone/slogstub"
	"github.com/ptnet/ptnet-go/pkg/framing"
	"github.com/ptnet/ptnet-go/pkg/log"
	"github.com/ptnet/ptnet-go/pkg/reactor"
	"github.com/ptnet/ptnet-go/pkg/reactor/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeStream is a reactor.Stream whose completions only happen when the
// test asks for them.
type fakeStream struct {
	network string
	remote  string

	alloc  reactor.AllocFunc
	onRead reactor.ReadFunc

	readStartErr error

	writes  [][]byte
	pending []func(error)

	closeCalls int
	onClosed   func()

	keepAlive       bool
	keepAlivePeriod time.Duration
	noDelay         bool
	optionCalls     int
}

func newFakeStream(remote string) *fakeStream {
	return &fakeStream{network: "tcp", remote: remote}
}

func (f *fakeStream) ReadStart(alloc reactor.AllocFunc, onRead reactor.ReadFunc) error {
	if f.readStartErr != nil {
		return f.readStartErr
	}
	f.alloc = alloc
	f.onRead = onRead
	return nil
}

func (f *fakeStream) Write(p []byte, onWritten func(err error)) error {
	if f.closeCalls > 0 {
		return reactor.ErrClosed
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	f.pending = append(f.pending, onWritten)
	return nil
}

func (f *fakeStream) WriteQueueSize() int {
	return len(f.pending)
}

func (f *fakeStream) Close(onClosed func()) {
	f.closeCalls++
	if f.closeCalls == 1 {
		f.onClosed = onClosed
	}
}

func (f *fakeStream) SetKeepAlive(enable bool, delay time.Duration) error {
	f.optionCalls++
	f.keepAlive = enable
	f.keepAlivePeriod = delay
	return nil
}

func (f *fakeStream) SetNoDelay(enable bool) error {
	f.optionCalls++
	f.noDelay = enable
	return nil
}

func (f *fakeStream) LocalAddr() string  { return "127.0.0.1:9000" }
func (f *fakeStream) RemoteAddr() string { return f.remote }
func (f *fakeStream) Network() string    { return f.network }

// feed delivers data as one read completion.
func (f *fakeStream) feed(data []byte) {
	buf := f.alloc(len(data))
	if buf == nil {
		return
	}
	n := copy(buf, data)
	f.onRead(buf[:n], nil)
}

// fail delivers a read error.
func (f *fakeStream) fail(err error) {
	f.onRead(nil, err)
}

// drain completes every pending write successfully.
func (f *fakeStream) drain() {
	pending := f.pending
	f.pending = nil
	for _, cb := range pending {
		cb(nil)
	}
}

// finishClose completes pending writes with ErrClosed, then the close.
func (f *fakeStream) finishClose() {
	pending := f.pending
	f.pending = nil
	for _, cb := range pending {
		cb(reactor.ErrClosed)
	}
	if f.onClosed != nil {
		f.onClosed()
		f.onClosed = nil
	}
}

var _ reactor.Stream = (*fakeStream)(nil)

// protoRecorder collects protocol events.
type protoRecorder struct {
	events []log.Event
}

func (r *protoRecorder) Log(event log.Event) {
	r.events = append(r.events, event)
}

func (r *protoRecorder) byCategory(cat log.Category) []log.Event {
	var out []log.Event
	for _, ev := range r.events {
		if ev.Category == cat {
			out = append(out, ev)
		}
	}
	return out
}

// newCapturingLogger returns a logger that captures all log records into
// the returned slice.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// serverRecorder records handler calls.
type serverRecorder struct {
	connects    []uint64
	received    []string
	disconnects []uint64

	reject    bool
	onReceive func(c *Conn, payload []byte)
}

func (r *serverRecorder) handler() Handler {
	return HandlerFuncs{
		Connect: func(c *Conn) bool {
			r.connects = append(r.connects, c.ID())
			return !r.reject
		},
		Receive: func(c *Conn, payload []byte) {
			r.received = append(r.received, string(payload))
			if r.onReceive != nil {
				r.onReceive(c, payload)
			}
		},
		Disconnect: func(c *Conn) {
			r.disconnects = append(r.disconnects, c.ID())
		},
	}
}

// serverHarness is a started server on mocked transports.
type serverHarness struct {
	t            *testing.T
	server       *Server
	reactor      *mocks.MockReactor
	listener     *mocks.MockListener
	onConnection func(err error)
	rec          *serverRecorder
	proto        *protoRecorder
}

func newServerHarness(t *testing.T, cfg ServerConfig, configure func(s *Server)) *serverHarness {
	t.Helper()

	h := &serverHarness{
		t:        t,
		server:   NewServer(),
		reactor:  mocks.NewMockReactor(t),
		listener: mocks.NewMockListener(t),
		rec:      &serverRecorder{},
		proto:    &protoRecorder{},
	}
	h.reactor.EXPECT().
		Listen("tcp", "127.0.0.1:9000", mock.Anything, mock.Anything).
		Run(func(_ string, _ string, _ int, onConnection func(err error)) {
			h.onConnection = onConnection
		}).
		Return(h.listener, nil).
		Once()

	cfg.ProtocolLogger = h.proto
	require.True(t, h.server.Init(h.reactor, cfg, h.rec.handler()))
	if configure != nil {
		configure(h.server)
	}
	require.NoError(t, h.server.Start("127.0.0.1", 9000))
	return h
}

// connect queues st on the listener and signals it to the server.
func (h *serverHarness) connect(st *fakeStream) {
	h.listener.EXPECT().Accept().Return(st, nil).Once()
	h.onConnection(nil)
}

// frame returns the wire encoding of payload.
func frame(t *testing.T, payload []byte) []byte {
	t.Helper()
	buf, err := framing.New(0).Encode(payload)
	require.NoError(t, err)
	defer buf.Release()
	return append([]byte(nil), buf.Bytes()...)
}
