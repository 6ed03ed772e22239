// Package config loads the YAML configuration files of the ptnet binaries.
//
// Durations are written as Go duration strings ("30s", "500ms"). Fields
// left out of a file keep the values of DefaultServer or DefaultClient.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ptnet/ptnet-go/pkg/cipher"
	"github.com/ptnet/ptnet-go/pkg/connection"
	"github.com/ptnet/ptnet-go/pkg/engine"
	"github.com/ptnet/ptnet-go/pkg/log"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// LoadError reports a configuration file that could not be used.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return e.File + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.File + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Endpoint is a TCP host and port, or a local pipe path. Pipe takes
// precedence when set.
type Endpoint struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`
	Pipe string `yaml:"pipe,omitempty"`
}

// IsPipe reports whether the endpoint names a local pipe.
func (e Endpoint) IsPipe() bool {
	return e.Pipe != ""
}

func (e Endpoint) String() string {
	if e.IsPipe() {
		return e.Pipe
	}
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

func (e Endpoint) validate(what string) error {
	if e.IsPipe() {
		return nil
	}
	if e.Port == 0 {
		return fmt.Errorf("%w: %s: port or pipe required", ErrInvalid, what)
	}
	return nil
}

// ServerFile is the ptnet-server configuration file.
type ServerFile struct {
	Listen         Endpoint      `yaml:"listen"`
	MaxConnections int           `yaml:"max_connections"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
	NoDelay        bool          `yaml:"no_delay"`
	MaxSendQueue   int           `yaml:"max_send_queue"`
	MaxMessageSize uint32        `yaml:"max_message_size"`

	// EncryptKey is 32 hex digits. Empty disables encryption.
	EncryptKey string `yaml:"encrypt_key,omitempty"`

	// Advertise announces the server over mDNS.
	Advertise bool `yaml:"advertise"`

	// ProtocolLog is a CBOR protocol capture file. Empty disables capture.
	ProtocolLog string `yaml:"protocol_log,omitempty"`

	LogLevel string `yaml:"log_level"`
}

// DefaultServer returns the server defaults.
func DefaultServer() *ServerFile {
	d := engine.DefaultServerConfig()
	return &ServerFile{
		Listen:         Endpoint{Host: "127.0.0.1", Port: 7878},
		MaxConnections: d.MaxConnections,
		KeepAlive:      d.KeepAlive,
		MaxSendQueue:   d.MaxSendQueue,
		MaxMessageSize: d.MaxMessageSize,
		LogLevel:       "info",
	}
}

// LoadServer reads path over DefaultServer and validates the result.
func LoadServer(path string) (*ServerFile, error) {
	f := DefaultServer()
	if err := load(path, f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, &LoadError{File: path, Message: "validation failed", Cause: err}
	}
	return f, nil
}

// Validate checks the file for values the engine cannot use.
func (f *ServerFile) Validate() error {
	if err := f.Listen.validate("listen"); err != nil {
		return err
	}
	if f.MaxConnections < 0 {
		return fmt.Errorf("%w: max_connections must not be negative", ErrInvalid)
	}
	if f.MaxSendQueue < 0 {
		return fmt.Errorf("%w: max_send_queue must not be negative", ErrInvalid)
	}
	if _, _, err := parseKey(f.EncryptKey); err != nil {
		return err
	}
	if _, err := ParseLevel(f.LogLevel); err != nil {
		return err
	}
	return nil
}

// Key returns the encryption key and whether one is configured.
func (f *ServerFile) Key() (cipher.Key, bool, error) {
	return parseKey(f.EncryptKey)
}

// ToEngine converts the file to an engine configuration.
func (f *ServerFile) ToEngine(logger *slog.Logger, proto log.Logger) engine.ServerConfig {
	return engine.ServerConfig{
		MaxConnections: f.MaxConnections,
		KeepAlive:      f.KeepAlive,
		NoDelay:        f.NoDelay,
		MaxSendQueue:   f.MaxSendQueue,
		MaxMessageSize: f.MaxMessageSize,
		Logger:         logger,
		ProtocolLogger: proto,
	}
}

// ReconnectFile configures client reconnects.
type ReconnectFile struct {
	Enabled bool          `yaml:"enabled"`
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
}

// ClientFile is the ptnet-client configuration file.
type ClientFile struct {
	Connect        Endpoint      `yaml:"connect"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
	NoDelay        bool          `yaml:"no_delay"`
	MaxSendQueue   int           `yaml:"max_send_queue"`
	MaxMessageSize uint32        `yaml:"max_message_size"`
	EncryptKey     string        `yaml:"encrypt_key,omitempty"`
	Reconnect      ReconnectFile `yaml:"reconnect"`

	// Discover browses mDNS for a server instead of using Connect.
	Discover        bool          `yaml:"discover"`
	DiscoverTimeout time.Duration `yaml:"discover_timeout"`

	ProtocolLog string `yaml:"protocol_log,omitempty"`
	LogLevel    string `yaml:"log_level"`
}

// DefaultClient returns the client defaults.
func DefaultClient() *ClientFile {
	d := engine.DefaultClientConfig()
	return &ClientFile{
		Connect:        Endpoint{Host: "127.0.0.1", Port: 7878},
		KeepAlive:      d.KeepAlive,
		MaxSendQueue:   d.MaxSendQueue,
		MaxMessageSize: d.MaxMessageSize,
		Reconnect: ReconnectFile{
			Initial: connection.InitialBackoff,
			Max:     connection.MaxBackoff,
		},
		DiscoverTimeout: 5 * time.Second,
		LogLevel:        "info",
	}
}

// LoadClient reads path over DefaultClient and validates the result.
func LoadClient(path string) (*ClientFile, error) {
	f := DefaultClient()
	if err := load(path, f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, &LoadError{File: path, Message: "validation failed", Cause: err}
	}
	return f, nil
}

// Validate checks the file for values the engine cannot use.
func (f *ClientFile) Validate() error {
	if !f.Discover {
		if err := f.Connect.validate("connect"); err != nil {
			return err
		}
	}
	if f.MaxSendQueue < 0 {
		return fmt.Errorf("%w: max_send_queue must not be negative", ErrInvalid)
	}
	if f.Reconnect.Initial < 0 || f.Reconnect.Max < 0 {
		return fmt.Errorf("%w: reconnect delays must not be negative", ErrInvalid)
	}
	if _, _, err := parseKey(f.EncryptKey); err != nil {
		return err
	}
	if _, err := ParseLevel(f.LogLevel); err != nil {
		return err
	}
	return nil
}

// Key returns the encryption key and whether one is configured.
func (f *ClientFile) Key() (cipher.Key, bool, error) {
	return parseKey(f.EncryptKey)
}

// ToEngine converts the file to an engine configuration.
func (f *ClientFile) ToEngine(logger *slog.Logger, proto log.Logger) engine.ClientConfig {
	return engine.ClientConfig{
		KeepAlive:      f.KeepAlive,
		NoDelay:        f.NoDelay,
		MaxSendQueue:   f.MaxSendQueue,
		MaxMessageSize: f.MaxMessageSize,
		Logger:         logger,
		ProtocolLogger: proto,
	}
}

// Backoff returns the reconnect backoff parameters.
func (f *ClientFile) Backoff() connection.BackoffConfig {
	return connection.BackoffConfig{
		Initial: f.Reconnect.Initial,
		Max:     f.Reconnect.Max,
	}
}

// ParseLevel parses a slog level name. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, s)
	}
	return level, nil
}

func parseKey(s string) (cipher.Key, bool, error) {
	if s == "" {
		return cipher.Key{}, false, nil
	}
	k, err := cipher.ParseKey(s)
	if err != nil {
		return k, false, fmt.Errorf("%w: encrypt_key: %w", ErrInvalid, err)
	}
	return k, true, nil
}

func load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return &LoadError{File: path, Message: "failed to parse YAML", Cause: err}
	}
	return nil
}
