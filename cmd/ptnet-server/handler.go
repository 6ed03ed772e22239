package main

import (
	"fmt"
	"log/slog"

	"github.com/ptnet/ptnet-go/pkg/buffer"
	"github.com/ptnet/ptnet-go/pkg/engine"
)

// echoHandler replies to every frame. In broadcast mode the frame goes to
// every live connection, the sender included.
type echoHandler struct {
	broadcast bool
	logger    *slog.Logger
	server    *engine.Server
}

func newEchoHandler(mode string, logger *slog.Logger) (*echoHandler, error) {
	switch mode {
	case "echo":
		return &echoHandler{logger: logger}, nil
	case "broadcast":
		return &echoHandler{broadcast: true, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q (use: echo, broadcast)", mode)
	}
}

func (h *echoHandler) OnConnect(c *engine.Conn) bool {
	h.logger.Info("client connected", "conn_id", c.ID(), "remote_addr", c.RemoteAddr())
	return true
}

func (h *echoHandler) OnReceive(c *engine.Conn, payload []byte) {
	if h.broadcast {
		n := h.server.Broadcast(payload)
		h.logger.Debug("broadcast", "conn_id", c.ID(), "size", len(payload), "recipients", n)
		return
	}
	h.server.Send(c, buffer.From(reply(payload)))
}

func (h *echoHandler) OnDisconnect(c *engine.Conn) {
	h.logger.Info("client disconnected", "conn_id", c.ID(), "remote_addr", c.RemoteAddr())
}

// reply answers PING with PONG and echoes anything else.
func reply(payload []byte) []byte {
	if string(payload) == "PING" {
		return []byte("PONG")
	}
	return payload
}

var _ engine.Handler = (*echoHandler)(nil)
