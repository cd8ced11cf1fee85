package shell

import "errors"

// Sentinel errors returned by the core. The API layer maps these onto HTTP
// status codes with errors.Is.
var (
	// ErrEmptyCommand is returned when a request carries a blank command.
	ErrEmptyCommand = errors.New("command cannot be empty")

	// ErrBusy is returned when execute is called while a command is already
	// running. The call produces no side effects.
	ErrBusy = errors.New("command already running")

	// ErrInvalidPath is returned when a working directory or cd target does
	// not exist or is not a directory.
	ErrInvalidPath = errors.New("invalid path")

	// ErrSpawn is returned when the child process could not be created.
	ErrSpawn = errors.New("failed to spawn process")

	// ErrWait is returned when waiting on the child process fails. The busy
	// flag is still cleared.
	ErrWait = errors.New("failed to wait for process")

	// ErrNotRunning is returned by cancel when no command is active.
	ErrNotRunning = errors.New("no command currently running")

	// ErrSessionStopped is returned when the session has been shut down.
	ErrSessionStopped = errors.New("shell session stopped")
)
