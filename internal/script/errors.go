package script

import "errors"

var (
	// ErrRunnerClosed is returned when using a closed runner.
	ErrRunnerClosed = errors.New("script runner is closed")

	// ErrNoForm is returned when the session has no form to act on.
	ErrNoForm = errors.New("no form to act on")
)
