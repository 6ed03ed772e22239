package ptnet_test

import (
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ptnet/ptnet-go/pkg/buffer"
	"github.com/ptnet/ptnet-go/pkg/cipher"
	"github.com/ptnet/ptnet-go/pkg/engine"
	"github.com/ptnet/ptnet-go/pkg/framing"
	"github.com/ptnet/ptnet-go/pkg/reactor"
)

const waitTimeout = 5 * time.Second

// startLoop runs a reactor loop for the duration of the test.
func startLoop(t *testing.T) *reactor.Loop {
	t.Helper()
	loop := reactor.NewLoop()
	go loop.Run(context.Background())
	t.Cleanup(func() {
		loop.Stop()
		<-loop.Done()
	})
	return loop
}

func wait[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

// pair is a server and a client on the same loop. Handler callbacks are
// forwarded to channels.
type pair struct {
	loop   *reactor.Loop
	server *engine.Server
	client *engine.Client

	mu         sync.Mutex
	serverRecv []string
	clientRecv []string

	admitted     chan *engine.Conn
	received     chan string
	dropped      chan uint64
	connected    chan struct{}
	replies      chan string
	disconnected chan struct{}
}

func newPair(t *testing.T, key *cipher.Key) *pair {
	t.Helper()
	p := &pair{
		loop:         startLoop(t),
		server:       engine.NewServer(),
		admitted:     make(chan *engine.Conn, 4),
		received:     make(chan string, 16),
		dropped:      make(chan uint64, 4),
		connected:    make(chan struct{}, 4),
		replies:      make(chan string, 16),
		disconnected: make(chan struct{}, 4),
	}

	serverHandler := engine.HandlerFuncs{
		Connect: func(c *engine.Conn) bool {
			p.admitted <- c
			return true
		},
		Receive: func(c *engine.Conn, payload []byte) {
			p.mu.Lock()
			p.serverRecv = append(p.serverRecv, string(payload))
			p.mu.Unlock()
			p.server.Send(c, buffer.From([]byte("PONG")))
			p.received <- string(payload)
		},
		Disconnect: func(c *engine.Conn) {
			p.dropped <- c.ID()
		},
	}
	clientHandler := engine.ClientHandlerFuncs{
		Connected: func(*engine.Client) {
			p.connected <- struct{}{}
		},
		Receive: func(_ *engine.Client, payload []byte) {
			p.mu.Lock()
			p.clientRecv = append(p.clientRecv, string(payload))
			p.mu.Unlock()
			p.replies <- string(payload)
		},
		Disconnected: func(*engine.Client) {
			p.disconnected <- struct{}{}
		},
	}

	p.loop.Do(func() {
		if !p.server.Init(p.loop, engine.ServerConfig{}, serverHandler) {
			t.Error("Init() = false")
		}
		if key != nil {
			p.server.SetEncrypt(*key)
		}
		p.client = engine.NewClient(p.loop, engine.ClientConfig{}, clientHandler)
		if key != nil {
			p.client.SetEncrypt(*key)
		}
	})
	t.Cleanup(func() {
		closed := make(chan struct{})
		if p.loop.Do(func() {
			p.client.Disconnect()
			p.server.Shutdown(func() { close(closed) })
		}) {
			<-closed
		}
	})
	return p
}

// send queues payload from the client.
func (p *pair) send(payload string) bool {
	var ok bool
	p.loop.Do(func() {
		ok = p.client.Send(buffer.From([]byte(payload)))
	})
	return ok
}

// exchange runs one connection through connect, three round trips and a
// server-side disconnect. It returns the client sequence seen before the
// disconnect.
func (p *pair) exchange(t *testing.T, start func() error, dial func() error) uint32 {
	t.Helper()

	var err error
	p.loop.Do(func() { err = start() })
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	p.loop.Do(func() { err = dial() })
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	wait(t, p.connected, "OnConnected")
	conn := wait(t, p.admitted, "OnConnect")

	for _, msg := range []string{"PING", "hello", "PING"} {
		if !p.send(msg) {
			t.Fatalf("Send(%q) = false", msg)
		}
	}
	for i, want := range []string{"PING", "hello", "PING"} {
		if got := wait(t, p.received, "OnReceive"); got != want {
			t.Errorf("server frame %d = %q, want %q", i, got, want)
		}
		if got := wait(t, p.replies, "reply"); got != "PONG" {
			t.Errorf("reply %d = %q, want PONG", i, got)
		}
	}

	var seq uint32
	p.loop.Do(func() { seq = p.client.Sequence() })

	var disconnected bool
	p.loop.Do(func() { disconnected = p.server.Disconnect(conn) })
	if !disconnected {
		t.Fatal("Disconnect() = false")
	}
	if got := wait(t, p.dropped, "OnDisconnect"); got != conn.ID() {
		t.Errorf("OnDisconnect id = %d, want %d", got, conn.ID())
	}
	wait(t, p.disconnected, "OnDisconnected")

	if p.send("late") {
		t.Error("Send() after disconnect = true")
	}

	// Let stray callbacks surface before counting.
	time.Sleep(50 * time.Millisecond)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.serverRecv) != 3 || len(p.clientRecv) != 3 {
		t.Errorf("frames: server %d, client %d, want 3 each", len(p.serverRecv), len(p.clientRecv))
	}
	if n := len(p.dropped) + len(p.disconnected); n != 0 {
		t.Errorf("%d extra disconnect callbacks", n)
	}
	return seq
}

func TestE2E_TCP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	p := newPair(t, nil)
	p.exchange(t,
		func() error { return p.server.Start("127.0.0.1", 0) },
		func() error {
			port := p.server.Addr().(*net.TCPAddr).Port
			return p.client.Connect("127.0.0.1", port)
		})
}

func TestE2E_Pipe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	path := filepath.Join(t.TempDir(), "ptnet.sock")
	p := newPair(t, nil)
	p.exchange(t,
		func() error { return p.server.StartPipe(path) },
		func() error { return p.client.ConnectPipe(path) })
}

func TestE2E_Encrypted(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	key := cipher.KeyFromWords([4]uint32{0x01234567, 0x89abcdef, 0xfedcba98, 0x76543210})
	p := newPair(t, &key)
	seq := p.exchange(t,
		func() error { return p.server.Start("127.0.0.1", 0) },
		func() error {
			port := p.server.Addr().(*net.TCPAddr).Port
			return p.client.Connect("127.0.0.1", port)
		})
	if seq != 3 {
		t.Errorf("Sequence() = %d, want 3", seq)
	}
}

func TestE2E_CapacityRejects(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	loop := startLoop(t)
	server := engine.NewServer()
	admitted := make(chan struct{}, 4)
	handler := engine.HandlerFuncs{
		Connect: func(*engine.Conn) bool {
			admitted <- struct{}{}
			return true
		},
	}

	var err error
	loop.Do(func() {
		server.Init(loop, engine.ServerConfig{MaxConnections: 1}, handler)
		err = server.Start("127.0.0.1", 0)
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		closed := make(chan struct{})
		if loop.Do(func() { server.Shutdown(func() { close(closed) }) }) {
			<-closed
		}
	})

	addr := server.Addr().String()
	first, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer first.Close()
	wait(t, admitted, "first admission")

	second, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer second.Close()

	// The server closes the rejected socket, so the read ends in EOF.
	second.SetReadDeadline(time.Now().Add(waitTimeout))
	if _, err := second.Read(make([]byte, 1)); err == nil {
		t.Error("rejected connection delivered data")
	}

	var live int
	loop.Do(func() { live = server.ConnectionCount() })
	if live != 1 {
		t.Errorf("ConnectionCount() = %d, want 1", live)
	}
	if len(admitted) != 0 {
		t.Error("OnConnect ran for the rejected connection")
	}
}

// startEcho runs a server that answers every frame with PONG.
func startEcho(t *testing.T) (*reactor.Loop, *engine.Server) {
	t.Helper()
	loop := startLoop(t)
	server := engine.NewServer()
	handler := engine.HandlerFuncs{
		Receive: func(c *engine.Conn, _ []byte) {
			server.Send(c, buffer.From([]byte("PONG")))
		},
	}

	var err error
	loop.Do(func() {
		server.Init(loop, engine.ServerConfig{MaxMessageSize: 1024}, handler)
		err = server.Start("127.0.0.1", 0)
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		closed := make(chan struct{})
		if loop.Do(func() { server.Shutdown(func() { close(closed) }) }) {
			<-closed
		}
	})
	return loop, server
}

func TestE2E_RawPeer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	_, server := startEcho(t)
	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(waitTimeout))

	rw := framing.NewConn(conn, 0)
	for i := 0; i < 3; i++ {
		if err := rw.WriteFrame([]byte("PING")); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
		reply, err := rw.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		if string(reply) != "PONG" {
			t.Errorf("reply = %q, want PONG", reply)
		}
	}
}

func TestE2E_OversizeFrameCloses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	loop, server := startEcho(t)
	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(waitTimeout))

	// The peer's limit is larger than the server's, so the frame goes out.
	rw := framing.NewConn(conn, 4096)
	if err := rw.WriteFrame(make([]byte, 2048)); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}
	if _, err := rw.ReadFrame(); err == nil {
		t.Fatal("server answered an oversize frame")
	}

	var live int
	loop.Do(func() { live = server.ConnectionCount() })
	if live != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", live)
	}
}
