package native

import "errors"

// Errors reported by the native backend.
var (
	// ErrNilDevice is returned when the backend is created without a device
	// or queue.
	ErrNilDevice = errors.New("native: nil HAL device or queue")

	// ErrNoHALProvider is returned by NewFromProvider when the provider does
	// not expose HAL types.
	ErrNoHALProvider = errors.New("native: provider does not expose HAL device")

	// ErrUnknownBuffer is returned for buffer IDs the backend does not own.
	ErrUnknownBuffer = errors.New("native: unknown buffer")

	// ErrOutOfRange is returned for map ranges outside the buffer.
	ErrOutOfRange = errors.New("native: range outside buffer")

	// ErrUnsupportedMode is returned for primitive modes without a topology.
	ErrUnsupportedMode = errors.New("native: primitive mode has no topology")

	// ErrNoPosition is returned when a vertex array has no position.
	ErrNoPosition = errors.New("native: vertex array has no position")
)
