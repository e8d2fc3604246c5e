package session

import "errors"

// Sentinel errors for the session package.
var (
	// ErrSpawn is returned when the child executable cannot be resolved or
	// started. Fatal to the session, not to the host.
	ErrSpawn = errors.New("spawn failed")

	// ErrSessionClosed is returned when operations are attempted on a closed
	// or terminated session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrInvalidSize is returned when a grid size is invalid.
	ErrInvalidSize = errors.New("invalid grid size")

	// ErrFileBusy is returned when the shared file is accessed while the
	// child process owns it.
	ErrFileBusy = errors.New("shared file is owned by the child process")

	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("session already started")
)
