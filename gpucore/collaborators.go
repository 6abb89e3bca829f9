package gpucore

import (
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
)

// BufferAllocator creates and fills buffers that hold vertices and indices.
//
// A range obtained from MapBuffer may be written until UnmapBuffer is
// called for the same buffer. Allocators with persistent mapping accept
// draws that reference a buffer while it is mapped.
type BufferAllocator interface {
	// CreateBuffer allocates a buffer of size bytes.
	CreateBuffer(size int, usage BufferUsage) (BufferID, error)

	// MapBuffer returns a writable view of [offset, offset+size).
	MapBuffer(id BufferID, offset, size int) ([]byte, error)

	// UnmapBuffer publishes every range written since the last map.
	UnmapBuffer(id BufferID) error

	// ResizeBuffer grows or reallocates a buffer, keeping its contents.
	ResizeBuffer(id BufferID, size int) error

	// DestroyBuffer releases a buffer. Unknown IDs are ignored.
	DestroyBuffer(id BufferID)
}

// Drawer submits draws. Submission is fire-and-forget: the engine never
// waits for completion and never reads back.
type Drawer interface {
	// Draw draws each range with the vertices of va. When ib is non-nil the
	// ranges address 32-bit indices, otherwise vertices. Modes may differ
	// between ranges.
	Draw(va *VertexArray, ib *IndexBuffer, draws []Draw) error
}

// VertexAttrib describes one enabled vertex-array location.
type VertexAttrib struct {
	// Location is the vertex-array attribute location.
	Location int

	// Offset is the byte offset within one vertex.
	Offset int

	// Size is the component count (1..4).
	Size int

	Type gl.Type
}

// VertexArray is a vertex-array descriptor: a buffer, a stride and the
// attributes read from it. It is not a hardware object.
type VertexArray struct {
	Buffer  BufferID
	Offset  int
	Stride  int
	Attribs []VertexAttrib
}

// Attrib returns the attribute bound to location, if any.
func (va *VertexArray) Attrib(location int) (VertexAttrib, bool) {
	for _, a := range va.Attribs {
		if a.Location == location {
			return a, true
		}
	}
	return VertexAttrib{}, false
}

// NewVertexArray describes vertices laid out by l starting at byte offset
// of buf, seen through view.
func NewVertexArray(buf BufferID, offset int, l *attrib.Layout, view attrib.View) *VertexArray {
	va := &VertexArray{Buffer: buf, Offset: offset, Stride: l.ByteStride()}
	for loc := 0; loc < attrib.NumVertAttribs; loc++ {
		s, ok := attrib.Source(view, loc)
		if !ok || !l.Has(s) {
			continue
		}
		va.Attribs = append(va.Attribs, VertexAttrib{
			Location: loc,
			Offset:   int(l.Offset[s]) * 4,
			Size:     l.Components(s),
			Type:     l.Type[s],
		})
	}
	return va
}

// IndexBuffer locates 32-bit indices.
type IndexBuffer struct {
	Buffer BufferID
	Offset int
}

// Draw is one draw range. Start and Count address indices for indexed
// draws and vertices otherwise.
type Draw struct {
	Mode       gl.Mode
	Start      int
	Count      int
	BaseVertex int
}

// Caps describes what a backend draws natively.
type Caps struct {
	// SupportedModes lists the modes drawn without index lowering.
	SupportedModes gl.ModeMask

	// PersistentMapping allows draws from a buffer that is still mapped.
	PersistentMapping bool
}

// DefaultCaps matches a WebGPU-class device.
func DefaultCaps() Caps {
	return Caps{SupportedModes: gl.DefaultModes}
}

// NativeLineLoop reports whether LINE_LOOP is drawn without conversion.
func (c Caps) NativeLineLoop() bool { return c.SupportedModes.Has(gl.LineLoop) }

// Backend is a complete collaborator set.
type Backend interface {
	BufferAllocator
	Drawer
	Caps() Caps
}
