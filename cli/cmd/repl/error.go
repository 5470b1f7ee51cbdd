package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
	ErrNoScope      = errors.New("no scope to evaluate")
	ErrReservedName = errors.New("reserved name")
)
