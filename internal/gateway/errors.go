package gateway

import "errors"

// Gateway errors.
var (
	// ErrWaitTimeout is returned by WaitFor when no matching event arrived in time.
	ErrWaitTimeout = errors.New("timed out waiting for event")

	// ErrBusClosed is returned when waiting on a closed bus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrRoleNotFound is returned when a role lookup has no match.
	ErrRoleNotFound = errors.New("role not found")

	// ErrChannelNotFound is returned when a channel lookup has no match.
	ErrChannelNotFound = errors.New("channel not found")
)
