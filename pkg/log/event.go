package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// EngineID identifies the server or client instance (UUID).
	EngineID string `cbor:"2,keyasint,omitempty"`

	// ConnectionID is the engine-local connection identifier. Zero for
	// events that are not bound to a connection.
	ConnectionID uint64 `cbor:"3,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"4,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"5,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"6,keyasint"`

	// LocalRole indicates whether the local side is a server or a client.
	LocalRole Role `cbor:"7,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port or socket path).
	RemoteAddr string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Framing layer
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"` // Connection/engine state
	Admission   *AdmissionEvent   `cbor:"12,keyasint,omitempty"` // Accept/reject decisions
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the byte stream layer (sockets, listeners).
	LayerTransport Layer = 0
	// LayerFraming is the length-prefix framing layer.
	LayerFraming Layer = 1
	// LayerCipher is the payload cipher layer.
	LayerCipher Layer = 2
	// LayerEngine is the connection lifecycle layer.
	LayerEngine Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerFraming:
		return "FRAMING"
	case LayerCipher:
		return "CIPHER"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a framed message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
	// CategoryAdmission indicates an accept or reject decision.
	CategoryAdmission Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryAdmission:
		return "ADMISSION"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint is a server or a client.
type Role uint8

const (
	// RoleServer indicates the accepting side.
	RoleServer Role = 0
	// RoleClient indicates the connecting side.
	RoleClient Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleServer:
		return "SERVER"
	case RoleClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one frame at the framing layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the payload (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// Sequence is the cipher sequence number, when the frame was sealed.
	Sequence uint32 `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures connection and engine lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityServer indicates a server state change.
	StateEntityServer StateEntity = 1
	// StateEntityClient indicates a client state change.
	StateEntityClient StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityServer:
		return "SERVER"
	case StateEntityClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// AdmissionEvent captures the decision taken for an incoming connection.
type AdmissionEvent struct {
	// Accepted is true when the connection went live.
	Accepted bool `cbor:"1,keyasint"`

	// Reason explains a rejection ("capacity", "hook", "accept").
	Reason string `cbor:"2,keyasint,omitempty"`

	// Live is the number of live connections after the decision.
	Live int `cbor:"3,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Class is a stable classification of the error (e.g. ECONNRESET).
	Class string `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
