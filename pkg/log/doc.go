// Package log captures protocol events from ptnet engines.
//
// Operational messages go through log/slog. This package records what
// happened on the wire and in the connection lifecycle instead: frames in
// and out, state changes (ACCEPTING, LIVE, CLOSING, CLOSED), admission
// decisions and errors, each tagged with the engine ID, connection ID and
// local role.
//
// Engines take a Logger in their config:
//
//	fl, err := log.NewFileLogger("server.plog")
//	...
//	defer fl.Close()
//	cfg.ProtocolLogger = log.NewMultiLogger(fl, log.NewSlogAdapter(logger))
//
// Files are a plain sequence of CBOR maps with integer keys. Reader streams
// them back with an optional Filter; the ptnet-log command is built on it.
package log
