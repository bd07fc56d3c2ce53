package session

import "errors"

var (
	// ErrPermissionDenied: the device reported denied or restricted
	// location access.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrPermissionPending: permission is still undetermined; the caller
	// should retry once the device reports the user's decision.
	ErrPermissionPending = errors.New("location permission pending")

	// ErrSessionAlreadyActive: at most one session may be active per user.
	ErrSessionAlreadyActive = errors.New("safety session already active")
)
