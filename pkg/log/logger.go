package log

// Logger receives protocol events from a server or client engine.
//
// Engines call Log on their reactor goroutine, so a slow Logger stalls every
// connection of that engine. Loggers shared between engines must be safe
// for concurrent use.
type Logger interface {
	Log(event Event)
}

// NoopLogger drops every event. Engines use it when no ProtocolLogger is
// configured.
type NoopLogger struct{}

// Log does nothing.
func (NoopLogger) Log(Event) {}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(event Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) {
	f(event)
}

// OrNoop returns l, or NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
)
