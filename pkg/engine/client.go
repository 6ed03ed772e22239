package engine

import (
	"errors"
	"io"
	"net"
	"strconv"

	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
	"github.com/ptnet/ptnet-go/pkg/buffer"
	"github.com/ptnet/ptnet-go/pkg/cipher"
	"github.com/ptnet/ptnet-go/pkg/framing"
	"github.com/ptnet/ptnet-go/pkg/log"
	"github.com/ptnet/ptnet-go/pkg/reactor"
)

// Client states reported in protocol logs.
const (
	clientDisconnected = "DISCONNECTED"
	clientConnecting   = "CONNECTING"
	clientConnected    = "CONNECTED"
)

// session is one established client connection.
type session struct {
	endpoint

	id     uint64
	remote string

	// sealer is nil unless outbound frames are sealed.
	sealer *cipher.State
	outSeq uint32
}

// Client keeps at most one outbound connection to a server.
type Client struct {
	observer

	reactor reactor.Reactor
	cfg     ClientConfig
	handler ClientHandler
	framer  *framing.Framer

	conn       *session
	connecting bool
	attempt    uint64
	serial     uint64
	target     string

	encrypt bool
	key     cipher.Key
}

// NewClient creates a client bound to r. It does not connect.
func NewClient(r reactor.Reactor, cfg ClientConfig, h ClientHandler) *Client {
	runtimex.Assert(r != nil)
	runtimex.Assert(h != nil)
	cfg.applyDefaults()
	return &Client{
		observer: observer{
			logger:   cfg.Logger,
			proto:    cfg.ProtocolLogger,
			classify: cfg.ErrClassifier,
			engineID: runtimex.PanicOnError1(uuid.NewV7()).String(),
			role:     log.RoleClient,
		},
		reactor: r,
		cfg:     cfg,
		handler: h,
		framer:  framing.New(cfg.MaxMessageSize),
	}
}

// Connect dials host:port over TCP. The result arrives as OnConnected or
// OnDisconnected.
func (c *Client) Connect(host string, port int) error {
	return c.dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

// ConnectPipe dials the Unix domain socket at path.
func (c *Client) ConnectPipe(path string) error {
	return c.dial("unix", path)
}

func (c *Client) dial(network, address string) error {
	if c.connecting || c.Connected() {
		return ErrAlreadyConnected
	}
	c.connecting = true
	c.attempt++
	attempt := c.attempt
	c.target = address

	c.stateChange(log.StateEntityClient, 0, address, clientDisconnected, clientConnecting, network)
	c.reactor.Dial(network, address, func(st reactor.Stream, err error) {
		c.onConnect(attempt, st, err)
	})
	return nil
}

func (c *Client) onConnect(attempt uint64, st reactor.Stream, err error) {
	if attempt != c.attempt || !c.connecting {
		// Cancelled by Disconnect.
		if st != nil {
			st.Close(nil)
		}
		return
	}
	c.connecting = false

	if err != nil {
		c.failure(0, c.target, log.LayerTransport, err, "connect failed")
		c.stateChange(log.StateEntityClient, 0, c.target, clientConnecting, clientDisconnected, "connect failed")
		c.handler.OnDisconnected(c)
		return
	}

	c.serial++
	sess := &session{
		endpoint: newEndpoint(c.framer, st),
		id:       c.serial,
		remote:   st.RemoteAddr(),
	}
	sess.state = StateLive
	if c.encrypt {
		sess.sealer = cipher.New(c.key)
	}
	if err := setSocketOptions(st, c.cfg.KeepAlive, c.cfg.NoDelay); err != nil {
		c.logger.Debug("failed to set socket options", "conn_id", sess.id, "err", err)
	}
	c.conn = sess

	err = st.ReadStart(sess.alloc, func(data []byte, err error) {
		c.onRead(sess, data, err)
	})
	if err != nil {
		c.failure(sess.id, sess.remote, log.LayerTransport, err, "read start failed")
		c.closeSession(sess, "read start failed")
		return
	}

	c.connState(sess.id, sess.remote, StateAccepting, StateLive, "")
	c.stateChange(log.StateEntityClient, sess.id, sess.remote, clientConnecting, clientConnected, "")
	c.logger.Info("connected",
		"engine_id", c.engineID,
		"conn_id", sess.id,
		"remote_addr", sess.remote,
		"encrypted", sess.sealer != nil)
	c.handler.OnConnected(c)
}

func (c *Client) onRead(sess *session, data []byte, err error) {
	if !sess.live() {
		return
	}
	if err != nil {
		reason := "peer closed"
		if !errors.Is(err, io.EOF) {
			reason = "read failed"
			c.failure(sess.id, sess.remote, log.LayerTransport, err, reason)
		}
		c.closeSession(sess, reason)
		return
	}

	err = sess.ingest(data, func(seq uint32, payload []byte) {
		c.frame(sess.id, sess.remote, log.DirectionIn, seq, payload)
		c.handler.OnReceive(c, payload)
	})
	if err != nil {
		c.failure(sess.id, sess.remote, log.LayerFraming, err, "protocol error")
		c.closeSession(sess, err.Error())
	}
}

// closeSession reports OnDisconnected and closes the transport. It is a
// no-op for a session that is not live.
func (c *Client) closeSession(sess *session, reason string) {
	if !sess.live() {
		return
	}
	sess.state = StateClosing

	c.connState(sess.id, sess.remote, StateLive, StateClosing, reason)
	c.stateChange(log.StateEntityClient, sess.id, sess.remote, clientConnected, clientDisconnected, reason)
	c.handler.OnDisconnected(c)

	sess.stream.Close(func() {
		sess.release()
		sess.sealer = nil
		c.connState(sess.id, sess.remote, StateClosing, StateClosed, "")
	})
}

// Send frames buf, seals it when encryption is enabled and queues it.
// Ownership of buf passes to the client whatever the result. A server
// whose write queue has reached MaxSendQueue is disconnected.
func (c *Client) Send(buf *buffer.Buffer) bool {
	sess := c.conn
	if sess == nil {
		buf.Release()
		return false
	}

	var seal sealFunc
	if sess.sealer != nil {
		seal = func(payload []byte) []byte {
			out := sess.sealer.Seal(sess.outSeq, payload)
			sess.outSeq++
			return out
		}
	}
	err := sess.send(buf, c.cfg.MaxSendQueue, seal, func(payload []byte) {
		c.frame(sess.id, sess.remote, log.DirectionOut, sess.outSeq, payload)
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrSendQueueFull):
		c.failure(sess.id, sess.remote, log.LayerEngine, err, "backpressure")
		c.closeSession(sess, "backpressure")
	case !errors.Is(err, ErrNotConnected):
		c.failure(sess.id, sess.remote, log.LayerEngine, err, "send failed")
	}
	return false
}

// Disconnect closes the connection and reports whether it was live. A
// pending connect attempt is abandoned instead; it reports neither
// OnConnected nor OnDisconnected.
func (c *Client) Disconnect() bool {
	if c.connecting {
		c.connecting = false
		c.attempt++
		c.stateChange(log.StateEntityClient, 0, c.target, clientConnecting, clientDisconnected, "cancelled")
		return false
	}
	if c.conn == nil || !c.conn.live() {
		return false
	}
	c.closeSession(c.conn, "disconnect")
	return true
}

// SetEncrypt enables frame sealing with key from the next connection on.
func (c *Client) SetEncrypt(key cipher.Key) {
	c.encrypt = true
	c.key = key
}

// Encrypted reports whether new connections seal their frames.
func (c *Client) Encrypted() bool {
	return c.encrypt
}

// Connected reports whether a connection is live.
func (c *Client) Connected() bool {
	return c.conn != nil && c.conn.live()
}

// Connecting reports whether a connect attempt is pending.
func (c *Client) Connecting() bool {
	return c.connecting
}

// RemoteAddr returns the address of the live connection, or "".
func (c *Client) RemoteAddr() string {
	if !c.Connected() {
		return ""
	}
	return c.conn.remote
}

// Sequence returns the sequence number of the next sealed frame.
func (c *Client) Sequence() uint32 {
	if c.conn == nil {
		return 0
	}
	return c.conn.outSeq
}

// ID returns the engine instance ID.
func (c *Client) ID() string {
	return c.engineID
}
