package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptnet/ptnet-go/pkg/engine"
	"github.com/ptnet/ptnet-go/pkg/log"
)

const testKey = "000102030405060708090a0b0c0d0e0f"

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ptnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadServer(t *testing.T) {
	path := writeFile(t, `
listen:
  host: 0.0.0.0
  port: 9000
max_connections: 8
keep_alive: 15s
no_delay: true
encrypt_key: 000102030405060708090a0b0c0d0e0f
advertise: true
protocol_log: /tmp/ptnet.cbor
log_level: debug
`)

	f, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, Endpoint{Host: "0.0.0.0", Port: 9000}, f.Listen)
	assert.Equal(t, 8, f.MaxConnections)
	assert.Equal(t, 15*time.Second, f.KeepAlive)
	assert.True(t, f.NoDelay)
	assert.True(t, f.Advertise)
	assert.Equal(t, "/tmp/ptnet.cbor", f.ProtocolLog)

	// Unset fields keep their defaults.
	assert.Equal(t, engine.DefaultMaxSendQueue, f.MaxSendQueue)

	key, ok, err := f.Key()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testKey, key.String())

	level, err := ParseLevel(f.LogLevel)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestServerToEngine(t *testing.T) {
	f := DefaultServer()
	f.MaxConnections = 3
	f.NoDelay = true

	logger := slog.Default()
	cfg := f.ToEngine(logger, log.NoopLogger{})
	assert.Equal(t, 3, cfg.MaxConnections)
	assert.True(t, cfg.NoDelay)
	assert.Equal(t, f.KeepAlive, cfg.KeepAlive)
	assert.Same(t, logger, cfg.Logger)
	assert.Equal(t, log.NoopLogger{}, cfg.ProtocolLogger)
}

func TestServerValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *ServerFile)
	}{
		{"NoPort", func(f *ServerFile) { f.Listen.Port = 0 }},
		{"NegativeMax", func(f *ServerFile) { f.MaxConnections = -1 }},
		{"NegativeQueue", func(f *ServerFile) { f.MaxSendQueue = -1 }},
		{"BadKey", func(f *ServerFile) { f.EncryptKey = "xyz" }},
		{"ShortKey", func(f *ServerFile) { f.EncryptKey = "0001" }},
		{"BadLevel", func(f *ServerFile) { f.LogLevel = "loud" }},
	}

	require.NoError(t, DefaultServer().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultServer()
			tt.mutate(f)
			if err := f.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestServerPipeNeedsNoPort(t *testing.T) {
	f := DefaultServer()
	f.Listen = Endpoint{Pipe: "/tmp/ptnet.sock"}
	require.NoError(t, f.Validate())
	assert.True(t, f.Listen.IsPipe())
	assert.Equal(t, "/tmp/ptnet.sock", f.Listen.String())
}

func TestLoadClient(t *testing.T) {
	path := writeFile(t, `
connect:
  host: 10.0.0.2
  port: 9000
reconnect:
  enabled: true
  initial: 250ms
  max: 5s
`)

	f, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2:9000", f.Connect.String())
	assert.True(t, f.Reconnect.Enabled)

	b := f.Backoff()
	assert.Equal(t, 250*time.Millisecond, b.Initial)
	assert.Equal(t, 5*time.Second, b.Max)

	_, ok, err := f.Key()
	require.NoError(t, err)
	assert.False(t, ok)

	cfg := f.ToEngine(nil, nil)
	assert.Equal(t, engine.DefaultMaxSendQueue, cfg.MaxSendQueue)
}

func TestClientValidate(t *testing.T) {
	f := DefaultClient()
	f.Connect.Port = 0
	assert.ErrorIs(t, f.Validate(), ErrInvalid)

	f.Discover = true
	assert.NoError(t, f.Validate(), "discovery needs no endpoint")

	f.Reconnect.Max = -time.Second
	assert.ErrorIs(t, f.Validate(), ErrInvalid)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadServer(filepath.Join(t.TempDir(), "missing.yaml"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadServer(writeFile(t, "listen: [1, 2"))
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "failed to parse YAML", le.Message)

	_, err = LoadClient(writeFile(t, "log_level: loud\n"))
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ParseLevel(%q)", tt.in)
	}
}
