package engine

import (
	"log/slog"
	"time"

	"github.com/ptnet/ptnet-go/pkg/framing"
	"github.com/ptnet/ptnet-go/pkg/log"
)

// observer emits operational logs and protocol events for one engine.
type observer struct {
	logger   *slog.Logger
	proto    log.Logger
	classify func(error) string
	engineID string
	role     log.Role
}

func (o *observer) event(connID uint64, remote string, dir log.Direction, layer log.Layer, cat log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		EngineID:     o.engineID,
		ConnectionID: connID,
		Direction:    dir,
		Layer:        layer,
		Category:     cat,
		LocalRole:    o.role,
		RemoteAddr:   remote,
	}
}

func (o *observer) frame(connID uint64, remote string, dir log.Direction, seq uint32, payload []byte) {
	ev := o.event(connID, remote, dir, log.LayerFraming, log.CategoryMessage)
	ev.Frame = framing.NewFrameEvent(payload)
	ev.Frame.Sequence = seq
	o.proto.Log(ev)
}

func (o *observer) stateChange(entity log.StateEntity, connID uint64, remote string, from, to, reason string) {
	ev := o.event(connID, remote, log.DirectionIn, log.LayerEngine, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{
		Entity:   entity,
		OldState: from,
		NewState: to,
		Reason:   reason,
	}
	o.proto.Log(ev)
}

func (o *observer) connState(connID uint64, remote string, from, to State, reason string) {
	o.stateChange(log.StateEntityConnection, connID, remote, from.String(), to.String(), reason)
}

func (o *observer) admission(connID uint64, remote string, accepted bool, reason string, live int) {
	ev := o.event(connID, remote, log.DirectionIn, log.LayerEngine, log.CategoryAdmission)
	ev.Admission = &log.AdmissionEvent{
		Accepted: accepted,
		Reason:   reason,
		Live:     live,
	}
	o.proto.Log(ev)

	if accepted {
		o.logger.Debug("connection admitted", "conn_id", connID, "remote_addr", remote, "live", live)
	} else {
		o.logger.Debug("connection rejected", "conn_id", connID, "remote_addr", remote, "reason", reason)
	}
}

// failure records a connection-scoped error.
func (o *observer) failure(connID uint64, remote string, layer log.Layer, err error, context string) {
	class := o.classify(err)
	ev := o.event(connID, remote, log.DirectionIn, layer, log.CategoryError)
	ev.Error = &log.ErrorEventData{
		Layer:   layer,
		Message: err.Error(),
		Class:   class,
		Context: context,
	}
	o.proto.Log(ev)

	o.logger.Debug(context,
		"conn_id", connID,
		"remote_addr", remote,
		"layer", layer.String(),
		"err", err,
		"err_class", class)
}
