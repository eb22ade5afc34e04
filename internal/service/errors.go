package service

import (
	"errors"

	"buddyboard/internal/database"
)

var (
	// ErrNotFound is returned when no booking has the requested id.
	ErrNotFound = database.ErrNotFound
	// ErrMissingParameter is returned by Delete when the id is empty.
	ErrMissingParameter = errors.New("id is required")
	// ErrValidation wraps invalid input such as an unknown status.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned for bad credentials or tokens.
	ErrUnauthorized = errors.New("unauthorized")
)
