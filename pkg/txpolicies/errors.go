package txpolicies

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidAddress is returned when the zero address is used as a table key
	ErrInvalidAddress = errors.New("invalid station address")

	// ErrNotFound is returned when removing a station that has no entry
	ErrNotFound = errors.New("no policy for station")

	// ErrUnknownPolicy is returned when a policy reference can't be resolved
	ErrUnknownPolicy = errors.New("unknown policy reference")

	// ErrInvalidPolicy is returned when a mutation carries out-of-range policy fields
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrMalformedCommand is returned when an admin write payload can't be parsed
	ErrMalformedCommand = errors.New("malformed command")

	// ErrPersistFailed is returned when the persistence backend rejects a mutation
	ErrPersistFailed = errors.New("persisting policy failed")
)
