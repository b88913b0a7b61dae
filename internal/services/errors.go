package services

import "errors"

// Error kinds surfaced to the originating connection. Best-effort side
// effects (count recompute, cleanup scheduling, webhook relay) log and
// swallow their failures instead of returning these.
var (
	ErrNotFound       = errors.New("not found")
	ErrDriverNotFound = errors.New("driver not found")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrNoActiveTrip   = errors.New("no active trip for driver")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrChatExpired    = errors.New("chat expired")
	ErrPartyNotFound  = errors.New("sender or receiver not found")
)
