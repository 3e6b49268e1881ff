package db

import "errors"

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested analysis does not exist.
	ErrNotFound = errors.New("analysis not found")
)
