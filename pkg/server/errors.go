package server

import "errors"

// Sentinel errors for session and server conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("server: session not found")

	// ErrSessionAttached is returned when a second connection claims a session.
	ErrSessionAttached = errors.New("server: session already attached")

	// ErrEventQueueFull is returned when the event queue is full and an event is dropped.
	ErrEventQueueFull = errors.New("server: event queue full")

	// ErrNoConnection is returned when writing to a session no client is attached to.
	ErrNoConnection = errors.New("server: no connection")

	// ErrMaxSessionsReached is returned when the maximum number of sessions is reached.
	ErrMaxSessionsReached = errors.New("server: max sessions reached")
)
