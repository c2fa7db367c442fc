package seats

import "errors"

// Sentinel errors for the seat booking flow. Controllers map these onto
// HTTP status codes; everything else is a 500.
var (
	// ErrStorageUnavailable means the backing store could not be reached
	ErrStorageUnavailable = errors.New("seat storage unavailable")

	// ErrValidationFailed means the request payload failed validation
	ErrValidationFailed = errors.New("validation failed")

	// ErrConflictLost means another session holds at least one requested seat
	ErrConflictLost = errors.New("seat already held by another session")

	// ErrExpiredLock means the caller's hold lapsed before the operation
	ErrExpiredLock = errors.New("seat hold has expired")

	// ErrNotHolder means the caller does not own the hold it tried to act on
	ErrNotHolder = errors.New("seat is held by a different session")

	// ErrSeatNotFound means the seat id does not exist in the hall layout
	ErrSeatNotFound = errors.New("seat not found")
)
