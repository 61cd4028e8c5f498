package process

import "errors"

var (
	// ErrSpawn wraps failures to create the unit's process.
	ErrSpawn = errors.New("spawn failed")
	// ErrNotRunning is returned by Stop when no pidfile exists for the unit.
	ErrNotRunning = errors.New("not running")
)
