package entities

import "errors"

// Catalog errors. Callers match them with errors.Is; every layer above wraps them.
var (
	// ErrNotFound is returned when a lookup by name yields no match
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned when a required argument is absent or empty
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidVersion is returned when a requested version is outside [1, current]
	ErrInvalidVersion = errors.New("invalid version")

	// ErrUnsupportedFormat is returned when a catalog document has an unknown format version
	ErrUnsupportedFormat = errors.New("unsupported catalog format")

	// ErrInvalidDocument is returned when a catalog document violates a catalog invariant
	ErrInvalidDocument = errors.New("invalid catalog document")
)
