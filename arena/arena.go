// Package arena provides the shared, append-only buffer that compiled
// display lists pack their vertices and indices into.
package arena

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/vbo/gpucore"
)

// Errors returned by Arena.
var (
	// ErrNoRoom is returned when an append does not fit.
	ErrNoRoom = errors.New("arena: not enough room")

	// ErrOverlap is returned when a write would land below the high-water mark.
	ErrOverlap = errors.New("arena: write below high-water mark")

	// ErrReleased is returned when the arena has no references left.
	ErrReleased = errors.New("arena: released")
)

// DefaultSize is the default arena capacity (1 MiB).
const DefaultSize = 1 << 20

// Arena is a reference-counted buffer that only grows by appending. Ranges
// below the high-water mark are immutable, so every node referencing the
// arena can draw from it while later nodes append.
//
// A CPU shadow of the contents is kept for loopback replay, which reads
// vertices back without touching the GPU buffer.
type Arena struct {
	alloc  gpucore.BufferAllocator
	id     gpucore.BufferID
	size   int
	used   int
	shadow []byte
	refs   atomic.Int32
}

// New allocates an arena of size bytes holding one reference.
func New(alloc gpucore.BufferAllocator, size int) (*Arena, error) {
	id, err := alloc.CreateBuffer(size, gpucore.StreamUsage)
	if err != nil {
		return nil, fmt.Errorf("arena: create buffer of %d bytes: %w", size, err)
	}
	a := &Arena{
		alloc:  alloc,
		id:     id,
		size:   size,
		shadow: make([]byte, size),
	}
	a.refs.Store(1)
	slogger().Debug("arena: allocated", "buffer", uint64(id), "size", size)
	return a, nil
}

// Buffer returns the backing buffer.
func (a *Arena) Buffer() gpucore.BufferID { return a.id }

// Size returns the capacity in bytes.
func (a *Arena) Size() int { return a.size }

// Used returns the high-water mark.
func (a *Arena) Used() int { return a.used }

// Remaining returns the bytes left past the high-water mark.
func (a *Arena) Remaining() int { return a.size - a.used }

// AlignedOffset returns the first offset at or above the high-water mark
// that is a multiple of align.
func (a *Arena) AlignedOffset(align int) int {
	if align <= 1 {
		return a.used
	}
	return (a.used + align - 1) / align * align
}

// Append writes data at the next offset aligned to align and returns the
// buffer and the offset.
func (a *Arena) Append(data []byte, align int) (gpucore.BufferID, int, error) {
	off := a.AlignedOffset(align)
	if err := a.WriteAt(off, data); err != nil {
		return gpucore.InvalidID, 0, err
	}
	return a.id, off, nil
}

// WriteAt writes data at off, which must not be below the high-water mark.
func (a *Arena) WriteAt(off int, data []byte) error {
	if a.refs.Load() <= 0 {
		return ErrReleased
	}
	if off < a.used {
		return ErrOverlap
	}
	if off+len(data) > a.size {
		return ErrNoRoom
	}
	if len(data) > 0 {
		m, err := a.alloc.MapBuffer(a.id, off, len(data))
		if err != nil {
			return fmt.Errorf("arena: map [%d,%d): %w", off, off+len(data), err)
		}
		copy(m, data)
		if err := a.alloc.UnmapBuffer(a.id); err != nil {
			return fmt.Errorf("arena: unmap: %w", err)
		}
		copy(a.shadow[off:], data)
	}
	a.used = off + len(data)
	return nil
}

// Bytes returns the shadow copy of [off, off+n).
func (a *Arena) Bytes(off, n int) []byte { return a.shadow[off : off+n] }

// Retain adds a reference.
func (a *Arena) Retain() { a.refs.Add(1) }

// Release drops a reference and destroys the buffer with the last one.
func (a *Arena) Release() {
	switch n := a.refs.Add(-1); {
	case n == 0:
		a.alloc.DestroyBuffer(a.id)
		a.shadow = nil
		slogger().Debug("arena: released", "buffer", uint64(a.id))
	case n < 0:
		panic("arena: Release without reference")
	}
}

// Refs returns the reference count.
func (a *Arena) Refs() int { return int(a.refs.Load()) }
