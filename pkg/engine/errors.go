package engine

import "errors"

// Engine errors.
var (
	// ErrNotInitialized indicates Start on a server that was never initialized.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrAlreadyStarted indicates Start on a server that is already listening.
	ErrAlreadyStarted = errors.New("engine already started")

	// ErrNotConnected indicates an operation that needs a live connection.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected indicates Connect while connecting or connected.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrSendQueueFull indicates the peer stopped draining its write queue.
	ErrSendQueueFull = errors.New("send queue full")

	// ErrMessageTooLarge indicates an outbound payload that cannot be framed.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrMalformedFrame indicates an inbound frame with an invalid header.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrOversizeFrame indicates an inbound frame above the size limit.
	ErrOversizeFrame = errors.New("oversize frame")

	// ErrIntegrity indicates an inbound frame that failed to open.
	ErrIntegrity = errors.New("frame integrity check failed")
)
