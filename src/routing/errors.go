package routing

import "errors"

var (
	// ErrCannotRoute is returned when no known section covers the
	// destination of a message.
	ErrCannotRoute = errors.New("cannot route: no section matches the destination")

	// ErrInvalidSrcLocation is returned when the source location of a
	// message is structurally invalid.
	ErrInvalidSrcLocation = errors.New("invalid source location")

	// ErrInvalidDstLocation is returned when the destination location of a
	// message is structurally invalid.
	ErrInvalidDstLocation = errors.New("invalid destination location")

	// ErrInvalidMessage is returned when a wire payload cannot be decoded
	// or fails its signature check.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidState is returned when an operation requires a role the
	// node does not currently hold.
	ErrInvalidState = errors.New("operation not permitted in current state")
)
