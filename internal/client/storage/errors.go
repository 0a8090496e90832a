package storage

import "errors"

// Common client storage errors
var (
	// ErrBoardNotFound indicates that no board state exists for the session
	ErrBoardNotFound = errors.New("board state not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
