package store

import "errors"

var (
	// ErrNotFound is returned for operations on a missing id or config key
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned when an operator tries to mutate a
	// record it did not create
	ErrPermissionDenied = errors.New("permission denied")
)
