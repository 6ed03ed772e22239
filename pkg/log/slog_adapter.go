package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors protocol events into an operational slog.Logger.
// Error events are logged at Warn, everything else at Debug, so a server
// running at Info only pays for the level check.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes one record per event. The message names the payload kind.
func (a *SlogAdapter) Log(event Event) {
	ctx := context.Background()
	level := slog.LevelDebug
	if event.Error != nil {
		level = slog.LevelWarn
	}
	if !a.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, 12)
	attrs = append(attrs,
		slog.String("role", event.LocalRole.String()),
		slog.String("layer", event.Layer.String()),
	)
	if event.EngineID != "" {
		attrs = append(attrs, slog.String("engine_id", event.EngineID))
	}
	if event.ConnectionID != 0 {
		attrs = append(attrs, slog.Uint64("conn_id", event.ConnectionID))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote_addr", event.RemoteAddr))
	}

	msg := "protocol event"
	switch {
	case event.Frame != nil:
		msg = "frame"
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.Int("frame_size", event.Frame.Size))
		if event.Frame.Sequence != 0 {
			attrs = append(attrs, slog.Uint64("seq", uint64(event.Frame.Sequence)))
		}
	case event.StateChange != nil:
		sc := event.StateChange
		msg = "state change"
		attrs = append(attrs,
			slog.String("entity", sc.Entity.String()),
			slog.String("from", sc.OldState),
			slog.String("to", sc.NewState))
		if sc.Reason != "" {
			attrs = append(attrs, slog.String("reason", sc.Reason))
		}
	case event.Admission != nil:
		msg = "admission"
		attrs = append(attrs,
			slog.Bool("accepted", event.Admission.Accepted),
			slog.Int("live", event.Admission.Live))
		if event.Admission.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Admission.Reason))
		}
	case event.Error != nil:
		msg = event.Error.Message
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("context", event.Error.Context))
		}
		if event.Error.Class != "" {
			attrs = append(attrs, slog.String("err_class", event.Error.Class))
		}
	}

	a.logger.LogAttrs(ctx, level, msg, attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
