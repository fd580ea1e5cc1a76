package domain

import "errors"

// Sentinel errors shared across the repository and service layers. Callers
// match with errors.Is; wrapped variants carry the driver detail.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyResolved = errors.New("invitation already resolved")
	ErrDuplicateActive = errors.New("active invitation already exists")
	// ErrAuthorizationDenied surfaces a row-policy rejection. The invitation
	// store treats it as the signal to fall back to deleting the row.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrTransient marks connection-class failures where a retry is safe.
	ErrTransient = errors.New("transient storage error")
)
