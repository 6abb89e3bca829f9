package vbo

import "errors"

// Errors returned by New and the configuration loaders. GL errors raised by
// entry points are not Go errors; they are recorded on the context and
// read back with GetError.
var (
	// ErrNoBackend is returned by New when no backend, allocator or drawer
	// is configured.
	ErrNoBackend = errors.New("vbo: no backend configured")

	// ErrInvalidConfig wraps configuration parse and validation failures.
	ErrInvalidConfig = errors.New("vbo: invalid config")

	// ErrListNesting is logged when CallList exceeds MaxListNesting.
	ErrListNesting = errors.New("vbo: display list nesting too deep")
)
