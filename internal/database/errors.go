package database

import "errors"

var (
	// ErrNotFound is returned when no booking has the requested id.
	ErrNotFound = errors.New("booking not found")
	// ErrCorruptStore is returned when the backing store exists but cannot be decoded.
	ErrCorruptStore = errors.New("booking store is corrupt")
)
