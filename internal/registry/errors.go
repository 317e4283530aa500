package registry

import "errors"

var (
	// ErrDuplicateAddress is returned when adding an address already monitored
	ErrDuplicateAddress = errors.New("duplicate address")
	// ErrNotFound is returned when removing an address that is not monitored
	ErrNotFound = errors.New("address not found")
	// ErrInvalidAddress is returned for an empty address
	ErrInvalidAddress = errors.New("invalid address")
	// ErrConcurrentRemoval is returned when a status update targets an
	// address removed since the probing round started
	ErrConcurrentRemoval = errors.New("address removed during round")
)
