// Command ptnet-client is an interactive client for ptnet servers.
//
// Usage:
//
//	ptnet-client [flags]
//
// Flags:
//
//	-config string      YAML configuration file
//	-host string        Server host (default "127.0.0.1")
//	-port int           Server port (default 7878)
//	-pipe string        Connect to a local socket instead of TCP
//	-key string         32 hex digit key used to seal outbound frames
//	-discover           Find a server over mDNS instead of -host/-port
//	-reconnect          Reconnect with exponential backoff
//	-protocol-log file  Write CBOR protocol events to file
//	-log-level string   debug, info, warn, error (default "info")
//
// Commands: send <text>, status, help, quit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/chzyer/readline"

	"github.com/ptnet/ptnet-go/pkg/config"
	"github.com/ptnet/ptnet-go/pkg/connection"
	"github.com/ptnet/ptnet-go/pkg/discovery"
	"github.com/ptnet/ptnet-go/pkg/engine"
	"github.com/ptnet/ptnet-go/pkg/log"
	"github.com/ptnet/ptnet-go/pkg/reactor"
)

var (
	configFile string
	file       = config.DefaultClient()
)

func init() {
	flag.StringVar(&configFile, "config", "", "YAML configuration file")
	flag.StringVar(&file.Connect.Host, "host", file.Connect.Host, "Server host")
	flag.Func("port", fmt.Sprintf("Server port (default %d)", file.Connect.Port), func(s string) error {
		_, err := fmt.Sscan(s, &file.Connect.Port)
		return err
	})
	flag.StringVar(&file.Connect.Pipe, "pipe", "", "Connect to a local socket path instead of TCP")
	flag.StringVar(&file.EncryptKey, "key", "", "32 hex digit key used to seal outbound frames")
	flag.BoolVar(&file.Discover, "discover", false, "Find a server over mDNS")
	flag.BoolVar(&file.Reconnect.Enabled, "reconnect", false, "Reconnect with exponential backoff")
	flag.StringVar(&file.ProtocolLog, "protocol-log", "", "Write CBOR protocol events to file")
	flag.StringVar(&file.LogLevel, "log-level", file.LogLevel, "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ptnet-client: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if configFile != "" {
		loaded, err := config.LoadClient(configFile)
		if err != nil {
			return err
		}
		file = overlay(loaded)
	}
	if err := file.Validate(); err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ptnet> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	// Log output goes through readline so it does not garble the prompt.
	level, _ := config.ParseLevel(file.LogLevel)
	logger := slog.New(slog.NewTextHandler(rl.Stderr(), &slog.HandlerOptions{Level: level}))

	var proto log.Logger = log.NoopLogger{}
	if file.ProtocolLog != "" {
		fl, err := log.NewFileLogger(file.ProtocolLog)
		if err != nil {
			return err
		}
		defer fl.Close()
		proto = fl
	}

	if file.Discover {
		if err := discover(logger); err != nil {
			return err
		}
	}

	loop := reactor.NewLoop(reactor.WithLogger(logger))
	go func() {
		_ = loop.Run(context.Background())
	}()
	defer loop.Stop()

	sh := newShell(rl.Stdout(), loop.Do)
	var handler engine.ClientHandler = sh.handler()
	var rc *connection.Reconnector
	if file.Reconnect.Enabled {
		rc = connection.NewReconnector(loop, handler, dial,
			connection.WithBackoff(file.Backoff()),
			connection.WithLogger(logger),
		)
		handler = rc
	}

	client := engine.NewClient(loop, file.ToEngine(logger, proto), handler)
	sh.client = client

	var startErr error
	loop.Do(func() {
		if key, ok, _ := file.Key(); ok {
			client.SetEncrypt(key)
		}
		if rc != nil {
			startErr = rc.Start(client)
		} else {
			startErr = dial(client)
		}
	})
	if startErr != nil {
		return startErr
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil || !sh.exec(line) {
			break
		}
	}

	loop.Do(func() {
		if rc != nil {
			rc.Stop()
		}
		client.Disconnect()
	})
	return nil
}

func dial(c *engine.Client) error {
	if file.Connect.IsPipe() {
		return c.ConnectPipe(file.Connect.Pipe)
	}
	return c.Connect(file.Connect.Host, int(file.Connect.Port))
}

// discover replaces the connect endpoint with the first server found.
func discover(logger *slog.Logger) error {
	browser := discovery.NewBrowser(discovery.BrowserConfig{BrowseTimeout: file.DiscoverTimeout})
	defer browser.Stop()

	logger.Info("browsing", "service", discovery.ServiceType, "timeout", file.DiscoverTimeout)
	found, err := browser.FindAll(context.Background())
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return discovery.ErrNotFound
	}

	svc := found[0]
	if len(svc.Addresses) == 0 {
		return fmt.Errorf("%s: no addresses", svc.Instance)
	}
	if svc.Encrypted && file.EncryptKey == "" {
		return fmt.Errorf("%s requires an encryption key (-key)", svc.Instance)
	}
	logger.Info("discovered", "instance", svc.Instance, "addr", svc.Addresses[0], "port", svc.Port,
		"engine_id", svc.EngineID, "servers", len(found))

	file.Connect = config.Endpoint{Host: svc.Addresses[0], Port: svc.Port}
	return nil
}

// overlay applies the flags set on the command line to loaded.
func overlay(loaded *config.ClientFile) *config.ClientFile {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			loaded.Connect.Host = file.Connect.Host
		case "port":
			loaded.Connect.Port = file.Connect.Port
		case "pipe":
			loaded.Connect.Pipe = file.Connect.Pipe
		case "key":
			loaded.EncryptKey = file.EncryptKey
		case "discover":
			loaded.Discover = file.Discover
		case "reconnect":
			loaded.Reconnect.Enabled = file.Reconnect.Enabled
		case "protocol-log":
			loaded.ProtocolLog = file.ProtocolLog
		case "log-level":
			loaded.LogLevel = file.LogLevel
		}
	})
	return loaded
}
