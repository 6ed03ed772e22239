package engine

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strconv"

	"github.com/bassosimone/errclass"
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
	"github.com/ptnet/ptnet-go/pkg/buffer"
	"github.com/ptnet/ptnet-go/pkg/cipher"
	"github.com/ptnet/ptnet-go/pkg/framing"
	"github.com/ptnet/ptnet-go/pkg/log"
	"github.com/ptnet/ptnet-go/pkg/reactor"
	"github.com/ptnet/ptnet-go/pkg/registry"
)

// Server states reported in protocol logs.
const (
	serverStopped   = "STOPPED"
	serverListening = "LISTENING"
	serverClosing   = "CLOSING"
)

// Server accepts connections and runs them through admission, framing and
// teardown. The lifecycle is NewServer, Init, Start (or StartPipe),
// Shutdown, Free.
type Server struct {
	observer

	reactor reactor.Reactor
	cfg     ServerConfig
	handler Handler
	framer  *framing.Framer
	conns   *registry.Registry[*Conn]

	listener reactor.Listener
	network  string
	address  string

	serial    uint64
	connected int

	initialized bool
	active      bool
	closing     bool

	encrypt bool
	key     cipher.Key
	noDelay bool
}

// NewServer creates an uninitialized server with a fresh engine ID.
func NewServer() *Server {
	return &Server{
		observer: observer{
			logger:   discardLogger(),
			proto:    log.NoopLogger{},
			classify: errclass.New,
			engineID: runtimex.PanicOnError1(uuid.NewV7()).String(),
			role:     log.RoleServer,
		},
	}
}

// Init binds the server to a reactor, a configuration and a handler. It
// returns false, and changes nothing, when the server is already
// initialized.
func (s *Server) Init(r reactor.Reactor, cfg ServerConfig, h Handler) bool {
	if s.initialized {
		s.logger.Warn("server already initialized", "engine_id", s.engineID)
		return false
	}
	runtimex.Assert(r != nil)
	runtimex.Assert(h != nil)

	cfg.applyDefaults()
	s.reactor = r
	s.cfg = cfg
	s.handler = h
	s.framer = framing.New(cfg.MaxMessageSize)
	s.conns = registry.New[*Conn](cfg.RegistryBuckets)
	s.noDelay = cfg.NoDelay
	s.logger = cfg.Logger
	s.proto = cfg.ProtocolLogger
	s.classify = cfg.ErrClassifier
	s.initialized = true
	return true
}

// Start listens on host:port over TCP.
func (s *Server) Start(host string, port int) error {
	return s.listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

// StartPipe listens on a Unix domain socket at path. A stale socket file
// left at path is removed first.
func (s *Server) StartPipe(path string) error {
	if err := s.checkStart(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	return s.listen("unix", path)
}

func (s *Server) checkStart() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if s.active {
		return ErrAlreadyStarted
	}
	return nil
}

func (s *Server) listen(network, address string) error {
	if err := s.checkStart(); err != nil {
		return err
	}

	var ln reactor.Listener
	ln, err := s.reactor.Listen(network, address, s.cfg.Backlog, func(err error) {
		s.onConnection(ln, err)
	})
	if err != nil {
		s.logger.Error("failed to start server",
			"network", network,
			"address", address,
			"err", err,
			"err_class", s.classify(err))
		return err
	}

	s.listener = ln
	s.network = network
	s.address = address
	s.active = true
	s.stateChange(log.StateEntityServer, 0, "", serverStopped, serverListening, network+" "+address)
	s.logger.Info("server started",
		"engine_id", s.engineID,
		"network", network,
		"address", address,
		"max_connections", s.cfg.MaxConnections,
		"encrypted", s.encrypt)
	return nil
}

// onConnection runs for every connection the listener queued.
func (s *Server) onConnection(ln reactor.Listener, err error) {
	if err != nil {
		s.failure(0, "", log.LayerTransport, err, "listener error")
		return
	}

	s.serial++
	id := s.serial

	st, err := ln.Accept()
	if err != nil {
		s.failure(id, "", log.LayerTransport, err, "accept failed")
		return
	}

	c := &Conn{
		endpoint: newEndpoint(s.framer, st),
		id:       id,
		server:   s,
		network:  st.Network(),
		local:    st.LocalAddr(),
		remote:   st.RemoteAddr(),
	}
	s.admit(c)
}

// admit runs the admission checks in order and, when both pass, registers
// the connection and starts reading.
func (s *Server) admit(c *Conn) {
	c.state = StateLive

	if s.connected+1 > s.cfg.MaxConnections {
		s.admission(c.id, c.remote, false, "capacity", s.connected)
		s.closeConn(c, false, "capacity")
		return
	}
	if !s.handler.OnConnect(c) {
		s.admission(c.id, c.remote, false, "hook", s.connected)
		s.closeConn(c, false, "rejected")
		return
	}
	if !c.live() {
		// Closed from inside OnConnect.
		return
	}

	if s.encrypt {
		c.opener = cipher.New(s.key)
		c.seq = 0
	}
	if err := setSocketOptions(c.stream, s.cfg.KeepAlive, s.noDelay); err != nil {
		s.logger.Debug("failed to set socket options", "conn_id", c.id, "err", err)
	}

	s.connected++
	c.admitted = true
	s.conns.Insert(c.id, c)
	s.admission(c.id, c.remote, true, "", s.connected)
	s.connState(c.id, c.remote, StateAccepting, StateLive, "")

	err := c.stream.ReadStart(c.alloc, func(data []byte, err error) {
		s.onRead(c, data, err)
	})
	if err != nil {
		s.failure(c.id, c.remote, log.LayerTransport, err, "read start failed")
		s.closeConn(c, true, "read start failed")
	}
}

func (s *Server) onRead(c *Conn, data []byte, err error) {
	if !c.live() {
		return
	}
	if err != nil {
		reason := "peer closed"
		if !errors.Is(err, io.EOF) {
			reason = "read failed"
			s.failure(c.id, c.remote, log.LayerTransport, err, reason)
		}
		s.closeConn(c, true, reason)
		return
	}

	err = c.ingest(data, func(seq uint32, payload []byte) {
		s.frame(c.id, c.remote, log.DirectionIn, seq, payload)
		s.handler.OnReceive(c, payload)
	})
	if err != nil {
		s.protocolError(c, err)
	}
}

func (s *Server) protocolError(c *Conn, err error) {
	layer := log.LayerFraming
	if errors.Is(err, ErrIntegrity) {
		layer = log.LayerCipher
	}
	s.failure(c.id, c.remote, layer, err, "protocol error")
	s.closeConn(c, true, err.Error())
}

// closeConn is the single close path. With remove set it reports the
// disconnect and drops the connection from the registry; otherwise the
// connection was never admitted. Buffers are released in the transport's
// close completion. Closing a connection that is not live is a no-op.
func (s *Server) closeConn(c *Conn, remove bool, reason string) {
	if !c.live() {
		return
	}
	c.state = StateClosing

	if remove {
		s.handler.OnDisconnect(c)
		s.conns.Erase(c.id)
		s.connected--
		runtimex.Assert(s.connected >= 0)
	}
	s.connState(c.id, c.remote, StateLive, StateClosing, reason)

	c.stream.Close(func() {
		c.release()
		s.connState(c.id, c.remote, StateClosing, StateClosed, "")
	})
}

// Send frames buf and queues it on c. Ownership of buf passes to the
// server whatever the result. Send returns false when c is not live, when
// the payload cannot be framed, or when the transport rejects the write.
// A peer whose write queue has reached MaxSendQueue is disconnected.
func (s *Server) Send(c *Conn, buf *buffer.Buffer) bool {
	err := c.send(buf, s.cfg.MaxSendQueue, nil, func(payload []byte) {
		s.frame(c.id, c.remote, log.DirectionOut, 0, payload)
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrSendQueueFull):
		s.failure(c.id, c.remote, log.LayerEngine, err, "backpressure")
		s.closeConn(c, c.admitted, "backpressure")
	case !errors.Is(err, ErrNotConnected):
		s.failure(c.id, c.remote, log.LayerEngine, err, "send failed")
	}
	return false
}

// Broadcast sends a copy of payload to every live connection and returns
// how many accepted it.
func (s *Server) Broadcast(payload []byte) int {
	if s.conns == nil {
		return 0
	}
	sent := 0
	s.conns.Range(func(_ uint64, c *Conn) bool {
		if s.Send(c, buffer.From(payload)) {
			sent++
		}
		return true
	})
	return sent
}

// Disconnect closes c and reports whether it was live.
func (s *Server) Disconnect(c *Conn) bool {
	if !c.live() {
		return false
	}
	s.closeConn(c, c.admitted, "disconnect")
	return true
}

// Shutdown closes every connection, then the listener. onClosed runs once
// the listener has closed, at which point the server is no longer active.
// On a server that is not active onClosed runs immediately. A Shutdown
// already in progress ignores further calls.
func (s *Server) Shutdown(onClosed func()) {
	if !s.active {
		if onClosed != nil {
			onClosed()
		}
		return
	}
	if s.closing {
		return
	}
	s.closing = true
	s.stateChange(log.StateEntityServer, 0, "", serverListening, serverClosing, "shutdown")

	s.conns.Range(func(_ uint64, c *Conn) bool {
		s.closeConn(c, true, "shutdown")
		return true
	})
	s.conns.Clear()

	s.listener.Close(func() {
		s.active = false
		s.closing = false
		s.listener = nil
		s.stateChange(log.StateEntityServer, 0, "", serverClosing, serverStopped, "")
		s.logger.Info("server stopped", "engine_id", s.engineID)
		if onClosed != nil {
			onClosed()
		}
	})
}

// Free drops the server's resources. Freeing an active server is a fatal
// misuse. A freed server may be initialized again.
func (s *Server) Free() {
	runtimex.Assert(!s.active)
	if s.conns != nil {
		s.conns.Clear()
	}
	s.conns = nil
	s.reactor = nil
	s.handler = nil
	s.initialized = false
}

// SetEncrypt enables frame decryption with key for connections admitted
// from now on.
func (s *Server) SetEncrypt(key cipher.Key) {
	s.encrypt = true
	s.key = key
}

// Encrypted reports whether new connections expect sealed frames.
func (s *Server) Encrypted() bool {
	return s.encrypt
}

// SetNoDelay sets TCP_NODELAY for connections admitted from now on.
func (s *Server) SetNoDelay(enable bool) {
	s.noDelay = enable
}

// Active reports whether the server is listening.
func (s *Server) Active() bool {
	return s.active
}

// Initialized reports whether Init succeeded and Free was not called.
func (s *Server) Initialized() bool {
	return s.initialized
}

// ConnectionCount returns the number of admitted connections.
func (s *Server) ConnectionCount() int {
	return s.connected
}

// MaxConnections returns the admission limit.
func (s *Server) MaxConnections() int {
	return s.cfg.MaxConnections
}

// Lookup returns the live connection with the given ID.
func (s *Server) Lookup(id uint64) (*Conn, bool) {
	if s.conns == nil {
		return nil, false
	}
	return s.conns.Find(id)
}

// Connections returns the admitted connections in no particular order.
func (s *Server) Connections() []*Conn {
	if s.conns == nil {
		return nil
	}
	return s.conns.Values()
}

// Addr returns the listener address, or nil when not listening.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ID returns the engine instance ID.
func (s *Server) ID() string {
	return s.engineID
}
