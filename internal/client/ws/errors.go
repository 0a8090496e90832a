package ws

import "errors"

// Common sync channel errors
var (
	// ErrNotAuthor indicates that a viewer tried to emit a mutating operation
	ErrNotAuthor = errors.New("mutating operations require the author role")

	// ErrChannelClosed indicates that the channel was intentionally closed
	ErrChannelClosed = errors.New("sync channel is closed")

	// ErrSendBufferFull indicates that the outgoing queue is full
	ErrSendBufferFull = errors.New("send buffer is full")
)
