package storage

import "errors"

// Common storage errors
var (
	// ErrSessionNotFound indicates that session was not found in storage
	ErrSessionNotFound = errors.New("session not found")

	// ErrSnapshotNotFound indicates that no snapshot is archived for the session
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
