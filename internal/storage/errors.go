package storage

import "errors"

// Record store errors.
var (
	// ErrNotFound is returned for an unknown run_id or when no run matches.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned for an existing run_id, or a second open
	// leg for the same (run_id, symbol).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when a record violates the store contract
	// (missing keys, half-populated exit fields, exit before entry, bad limit).
	ErrInvalidInput = errors.New("invalid input")
)
