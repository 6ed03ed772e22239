// Command ptnet-server runs a framed echo server on the ptnet engine.
//
// Usage:
//
//	ptnet-server [flags]
//
// Flags:
//
//	-config string      YAML configuration file
//	-host string        Listen host (default "127.0.0.1")
//	-port int           Listen port (default 7878)
//	-pipe string        Listen on a local socket instead of TCP
//	-max-conns int      Admission limit (default 1024)
//	-key string         32 hex digit key; clients must seal their frames
//	-mode string        echo or broadcast (default "echo")
//	-advertise          Announce the server over mDNS
//	-protocol-log file  Write CBOR protocol events to file
//	-log-level string   debug, info, warn, error (default "info")
//
// Examples:
//
//	# Echo server on all interfaces, announced over mDNS
//	ptnet-server -host 0.0.0.0 -advertise
//
//	# Encrypted broadcast server with protocol capture
//	ptnet-server -mode broadcast -key 000102030405060708090a0b0c0d0e0f -protocol-log /tmp/ptnet.cbor
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ptnet/ptnet-go/pkg/config"
	"github.com/ptnet/ptnet-go/pkg/discovery"
	"github.com/ptnet/ptnet-go/pkg/engine"
	"github.com/ptnet/ptnet-go/pkg/log"
	"github.com/ptnet/ptnet-go/pkg/reactor"
)

// shutdownTimeout bounds the wait for the listener to close.
const shutdownTimeout = 5 * time.Second

var (
	configFile string
	mode       string
	file       = config.DefaultServer()
)

func init() {
	flag.StringVar(&configFile, "config", "", "YAML configuration file")
	flag.StringVar(&mode, "mode", "echo", "Reply mode: echo, broadcast")
	flag.StringVar(&file.Listen.Host, "host", file.Listen.Host, "Listen host")
	flag.Func("port", fmt.Sprintf("Listen port (default %d)", file.Listen.Port), func(s string) error {
		_, err := fmt.Sscan(s, &file.Listen.Port)
		return err
	})
	flag.StringVar(&file.Listen.Pipe, "pipe", "", "Listen on a local socket path instead of TCP")
	flag.IntVar(&file.MaxConnections, "max-conns", file.MaxConnections, "Admission limit")
	flag.StringVar(&file.EncryptKey, "key", "", "32 hex digit key; clients must seal their frames")
	flag.BoolVar(&file.Advertise, "advertise", false, "Announce the server over mDNS")
	flag.StringVar(&file.ProtocolLog, "protocol-log", "", "Write CBOR protocol events to file")
	flag.StringVar(&file.LogLevel, "log-level", file.LogLevel, "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ptnet-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if configFile != "" {
		loaded, err := config.LoadServer(configFile)
		if err != nil {
			return err
		}
		// Flags given on the command line win over the file.
		file = overlay(loaded)
	}
	if err := file.Validate(); err != nil {
		return err
	}

	level, _ := config.ParseLevel(file.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	proto, closeProto, err := protocolLogger(file.ProtocolLog, logger)
	if err != nil {
		return err
	}
	defer closeProto()

	key, encrypt, _ := file.Key()
	h, err := newEchoHandler(mode, logger)
	if err != nil {
		return err
	}

	loop := reactor.NewLoop(reactor.WithLogger(logger))
	go func() {
		_ = loop.Run(context.Background())
	}()
	defer loop.Stop()

	srv := engine.NewServer()
	var startErr error
	var addr net.Addr
	loop.Do(func() {
		srv.Init(loop, file.ToEngine(logger, proto), h)
		h.server = srv
		if encrypt {
			srv.SetEncrypt(key)
		}
		if file.Listen.IsPipe() {
			startErr = srv.StartPipe(file.Listen.Pipe)
		} else {
			startErr = srv.Start(file.Listen.Host, int(file.Listen.Port))
		}
		addr = srv.Addr()
	})
	if startErr != nil {
		return startErr
	}
	logger.Info("listening", "addr", addr, "engine_id", srv.ID(), "mode", mode, "encrypted", encrypt)

	if file.Advertise {
		adv, err := advertise(srv, addr, encrypt)
		if err != nil {
			logger.Warn("mDNS advertisement failed", "err", err)
		} else {
			defer adv.Stop()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	closed := make(chan struct{})
	loop.Do(func() {
		srv.Shutdown(func() { close(closed) })
	})
	select {
	case <-closed:
		loop.Do(srv.Free)
	case <-time.After(shutdownTimeout):
		logger.Warn("listener did not close in time")
	}
	return nil
}

// overlay applies the flags set on the command line to loaded.
func overlay(loaded *config.ServerFile) *config.ServerFile {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			loaded.Listen.Host = file.Listen.Host
		case "port":
			loaded.Listen.Port = file.Listen.Port
		case "pipe":
			loaded.Listen.Pipe = file.Listen.Pipe
		case "max-conns":
			loaded.MaxConnections = file.MaxConnections
		case "key":
			loaded.EncryptKey = file.EncryptKey
		case "advertise":
			loaded.Advertise = file.Advertise
		case "protocol-log":
			loaded.ProtocolLog = file.ProtocolLog
		case "log-level":
			loaded.LogLevel = file.LogLevel
		}
	})
	return loaded
}

// protocolLogger opens the CBOR capture file and mirrors events to the
// debug log.
func protocolLogger(path string, logger *slog.Logger) (log.Logger, func(), error) {
	debug := log.NewSlogAdapter(logger)
	if path == "" {
		return debug, func() {}, nil
	}
	fl, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, err
	}
	// Flush on a timer so ptnet-log can follow a running server.
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = fl.Flush()
			case <-stop:
				return
			}
		}
	}()
	closeFile := func() {
		close(stop)
		if err := fl.Close(); err != nil {
			logger.Warn("failed to close protocol log", "path", path, "err", err)
		}
		if n := fl.Dropped(); n > 0 {
			logger.Warn("protocol events dropped", "path", path, "count", n)
		}
	}
	return log.NewMultiLogger(fl, debug), closeFile, nil
}

func advertise(srv *engine.Server, addr net.Addr, encrypt bool) (*discovery.Advertiser, error) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return nil, errors.New("only TCP listeners can be advertised")
	}
	adv := discovery.NewAdvertiser(discovery.DefaultAdvertiserConfig())
	err := adv.Advertise(&discovery.Info{
		Port:           uint16(tcp.Port),
		EngineID:       srv.ID(),
		Encrypted:      encrypt,
		MaxConnections: srv.MaxConnections(),
	})
	if err != nil {
		return nil, err
	}
	return adv, nil
}
