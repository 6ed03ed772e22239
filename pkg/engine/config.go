package engine

import (
	"io"
	"log/slog"
	"time"

	"github.com/bassosimone/errclass"
	"github.com/ptnet/ptnet-go/pkg/framing"
	"github.com/ptnet/ptnet-go/pkg/log"
)

// Default configuration values.
const (
	// DefaultMaxConnections is used when MaxConnections is zero.
	DefaultMaxConnections = 1024

	// DefaultKeepAlive is the TCP keepalive period.
	DefaultKeepAlive = 30 * time.Second

	// DefaultMaxSendQueue is the number of queued writes at which a peer
	// is considered unable to keep up.
	DefaultMaxSendQueue = 1000

	// DefaultBacklog bounds accepted connections waiting for admission.
	DefaultBacklog = 128

	// DefaultRegistryBuckets is the initial registry size.
	DefaultRegistryBuckets = 64
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// MaxConnections is the admission limit. Zero selects
	// DefaultMaxConnections.
	MaxConnections int

	// KeepAlive is the TCP keepalive period. Zero selects DefaultKeepAlive;
	// a negative value disables keepalive.
	KeepAlive time.Duration

	// NoDelay sets TCP_NODELAY on admitted connections.
	NoDelay bool

	// MaxSendQueue is the backpressure threshold in queued writes.
	MaxSendQueue int

	// MaxMessageSize bounds frame payloads in both directions.
	MaxMessageSize uint32

	// RegistryBuckets is the initial number of registry buckets.
	RegistryBuckets int

	// Backlog bounds accepted connections waiting for admission.
	Backlog int

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// ProtocolLogger receives protocol events. Nil disables capture.
	ProtocolLogger log.Logger

	// ErrClassifier maps transport errors to a short class for logs.
	// Nil selects errclass.New.
	ErrClassifier func(error) string
}

// DefaultServerConfig returns a ServerConfig with every default filled in.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MaxConnections:  DefaultMaxConnections,
		KeepAlive:       DefaultKeepAlive,
		MaxSendQueue:    DefaultMaxSendQueue,
		MaxMessageSize:  framing.DefaultMaxMessageSize,
		RegistryBuckets: DefaultRegistryBuckets,
		Backlog:         DefaultBacklog,
	}
}

func (c *ServerConfig) applyDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = DefaultKeepAlive
	}
	if c.MaxSendQueue <= 0 {
		c.MaxSendQueue = DefaultMaxSendQueue
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = framing.DefaultMaxMessageSize
	}
	if c.RegistryBuckets <= 0 {
		c.RegistryBuckets = DefaultRegistryBuckets
	}
	if c.Backlog <= 0 {
		c.Backlog = DefaultBacklog
	}
	if c.Logger == nil {
		c.Logger = discardLogger()
	}
	c.ProtocolLogger = log.OrNoop(c.ProtocolLogger)
	if c.ErrClassifier == nil {
		c.ErrClassifier = errclass.New
	}
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// KeepAlive is the TCP keepalive period. Zero selects DefaultKeepAlive;
	// a negative value disables keepalive.
	KeepAlive time.Duration

	// NoDelay sets TCP_NODELAY on the connection.
	NoDelay bool

	// MaxSendQueue is the backpressure threshold in queued writes.
	MaxSendQueue int

	// MaxMessageSize bounds frame payloads in both directions.
	MaxMessageSize uint32

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// ProtocolLogger receives protocol events. Nil disables capture.
	ProtocolLogger log.Logger

	// ErrClassifier maps transport errors to a short class for logs.
	ErrClassifier func(error) string
}

// DefaultClientConfig returns a ClientConfig with every default filled in.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		KeepAlive:      DefaultKeepAlive,
		MaxSendQueue:   DefaultMaxSendQueue,
		MaxMessageSize: framing.DefaultMaxMessageSize,
	}
}

func (c *ClientConfig) applyDefaults() {
	if c.KeepAlive == 0 {
		c.KeepAlive = DefaultKeepAlive
	}
	if c.MaxSendQueue <= 0 {
		c.MaxSendQueue = DefaultMaxSendQueue
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = framing.DefaultMaxMessageSize
	}
	if c.Logger == nil {
		c.Logger = discardLogger()
	}
	c.ProtocolLogger = log.OrNoop(c.ProtocolLogger)
	if c.ErrClassifier == nil {
		c.ErrClassifier = errclass.New
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
