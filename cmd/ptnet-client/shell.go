package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ptnet/ptnet-go/pkg/buffer"
	"github.com/ptnet/ptnet-go/pkg/engine"
)

// shell runs interactive commands against a client. Engine calls go
// through do, which runs them on the reactor loop.
type shell struct {
	out    io.Writer
	do     func(fn func()) bool
	client *engine.Client
}

func newShell(out io.Writer, do func(fn func()) bool) *shell {
	return &shell{out: out, do: do}
}

// handler prints connection events and received frames.
func (s *shell) handler() engine.ClientHandler {
	return engine.ClientHandlerFuncs{
		Connected: func(c *engine.Client) {
			fmt.Fprintf(s.out, "connected to %s\n", c.RemoteAddr())
		},
		Receive: func(_ *engine.Client, payload []byte) {
			fmt.Fprintf(s.out, "< %s\n", payload)
		},
		Disconnected: func(*engine.Client) {
			fmt.Fprintln(s.out, "disconnected")
		},
	}
}

// exec runs one command line and reports whether the shell should go on.
func (s *shell) exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	cmd, rest, _ := strings.Cut(input, " ")
	switch strings.ToLower(cmd) {
	case "help", "?":
		s.printHelp()

	case "send", "s":
		s.cmdSend(strings.TrimSpace(rest))

	case "status":
		s.cmdStatus()

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
ptnet Client Commands:
    send <text>   - Send one frame
    status        - Show connection status
    help          - Show this help
    quit          - Exit`)
}

func (s *shell) cmdSend(text string) {
	if text == "" {
		fmt.Fprintln(s.out, "Usage: send <text>")
		return
	}
	var ok bool
	s.do(func() {
		ok = s.client.Send(buffer.From([]byte(text)))
	})
	if !ok {
		fmt.Fprintln(s.out, "send failed: not connected")
	}
}

func (s *shell) cmdStatus() {
	var connected, connecting, encrypted bool
	var remote string
	var seq uint32
	s.do(func() {
		connected = s.client.Connected()
		connecting = s.client.Connecting()
		encrypted = s.client.Encrypted()
		remote = s.client.RemoteAddr()
		seq = s.client.Sequence()
	})

	state := "disconnected"
	switch {
	case connected:
		state = "connected"
	case connecting:
		state = "connecting"
	}
	fmt.Fprintf(s.out, "State:     %s\n", state)
	if connected {
		fmt.Fprintf(s.out, "Remote:    %s\n", remote)
	}
	fmt.Fprintf(s.out, "Encrypted: %v\n", encrypted)
	if encrypted {
		fmt.Fprintf(s.out, "Sequence:  %d\n", seq)
	}
	fmt.Fprintf(s.out, "Engine ID: %s\n", s.client.ID())
}
