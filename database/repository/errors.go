package repository

import "errors"

var (
	// ErrNotFound is returned when a keyed document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a write would break slot exclusivity.
	ErrConflict = errors.New("slot already approved for another booking")
	// ErrStatusChanged is returned when a guarded status update finds the
	// document in a status other than the expected ones.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)
