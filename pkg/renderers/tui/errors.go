package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrUnresolved is returned when the user stops editing while validation
	// errors remain.
	ErrUnresolved = errors.New("tui: validation errors remain")
)
