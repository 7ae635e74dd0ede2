package tensor

import "errors"

// Buffer contract violations and transfer failures are reported through
// these sentinels so callers can match with errors.Is. Programmer errors
// (reinterpreting a buffer as the wrong element type) panic instead.
var (
	// ErrCreation indicates a buffer could not be constructed.
	ErrCreation = errors.New("buffer creation failed")

	// ErrInvalidShape indicates a shape that is malformed or disagrees
	// with the supplied host data.
	ErrInvalidShape = errors.New("invalid shape")

	// ErrInvalidData indicates host data that cannot back the requested buffer.
	ErrInvalidData = errors.New("invalid data")

	// ErrRuntime indicates a device/host transfer failure.
	ErrRuntime = errors.New("runtime error")
)
