// Package capture provides a system-memory backend that records every draw
// as the sequence of vertices it would feed to the rasterizer.
//
// The capture backend serves multiple purposes:
//   - Reference collaborator for exec, save and vbo tests
//   - Allocation-failure injection for out-of-memory paths
//   - Trace output for cmd/vbotrace
//
// # Example
//
//	import _ "github.com/gogpu/vbo/backend/capture"
//
//	b, _ := backend.NewBackend("capture")
//
// or construct it directly with [New] to set caps.
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/backend"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/gpucore"
	"github.com/gogpu/vbo/internal/indices"
)

// Errors reported by the capture backend.
var (
	ErrAllocationFailed = errors.New("capture: injected allocation failure")
	ErrUnknownBuffer    = errors.New("capture: unknown buffer")
	ErrBufferMapped     = errors.New("capture: draw from mapped buffer")
	ErrUnsupportedMode  = errors.New("capture: unsupported primitive mode")
	ErrOutOfRange       = errors.New("capture: range outside buffer")
)

func init() {
	backend.Register("capture", func() gpucore.Backend { return New() })
}

// Vertex is one fetched vertex: the value of every enabled location.
type Vertex struct {
	Values  [attrib.NumVertAttribs]attrib.Value
	Enabled uint32
}

// Attr returns location loc as floats, or the default vector when the
// location is disabled.
func (v Vertex) Attr(loc int) f32.Vec4 {
	if v.Enabled&(1<<loc) == 0 {
		return f32.Vec4{0, 0, 0, 1}
	}
	return v.Values[loc].Vec4()
}

// Pos returns the position.
func (v Vertex) Pos() f32.Vec4 { return v.Attr(int(attrib.Pos)) }

// DrawCall is one recorded draw range.
type DrawCall struct {
	Mode     gl.Mode
	Indexed  bool
	Vertices []Vertex
}

// Primitive is one assembled point, line or triangle.
type Primitive struct {
	Mode     gl.Mode
	Vertices []Vertex
}

type buffer struct {
	data   []byte
	mapped bool
	usage  gpucore.BufferUsage
}

// Option configures a Backend.
type Option func(*Backend)

// WithCaps sets the caps reported to the engine.
func WithCaps(c gpucore.Caps) Option {
	return func(b *Backend) { b.caps = c }
}

// Backend is the capture collaborator. It is safe for concurrent use.
type Backend struct {
	mu      sync.Mutex
	caps    gpucore.Caps
	next    gpucore.BufferID
	buffers map[gpucore.BufferID]*buffer
	draws   []DrawCall
	fail    int
	created int
	batches int
}

// New returns an empty capture backend with default caps.
func New(opts ...Option) *Backend {
	b := &Backend{
		caps:    gpucore.DefaultCaps(),
		buffers: make(map[gpucore.BufferID]*buffer),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Caps returns the configured caps.
func (b *Backend) Caps() gpucore.Caps { return b.caps }

// FailAllocations makes the next n CreateBuffer and ResizeBuffer calls fail.
func (b *Backend) FailAllocations(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = n
}

func (b *Backend) injectFailure() bool {
	if b.fail > 0 {
		b.fail--
		return true
	}
	return false
}

// CreateBuffer allocates a zeroed buffer.
func (b *Backend) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.injectFailure() {
		return gpucore.InvalidID, ErrAllocationFailed
	}
	b.next++
	b.buffers[b.next] = &buffer{data: make([]byte, size), usage: usage}
	b.created++
	return b.next, nil
}

// MapBuffer returns a view of the buffer's memory.
func (b *Backend) MapBuffer(id gpucore.BufferID, offset, size int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownBuffer, id)
	}
	if offset < 0 || offset+size > len(buf.data) {
		return nil, fmt.Errorf("%w: [%d,%d) of %d", ErrOutOfRange, offset, offset+size, len(buf.data))
	}
	buf.mapped = true
	return buf.data[offset : offset+size], nil
}

// UnmapBuffer ends the mapping.
func (b *Backend) UnmapBuffer(id gpucore.BufferID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownBuffer, id)
	}
	buf.mapped = false
	return nil
}

// ResizeBuffer reallocates a buffer keeping its contents.
func (b *Backend) ResizeBuffer(id gpucore.BufferID, size int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownBuffer, id)
	}
	if b.injectFailure() {
		return ErrAllocationFailed
	}
	data := make([]byte, size)
	copy(data, buf.data)
	buf.data = data
	return nil
}

// DestroyBuffer frees a buffer.
func (b *Backend) DestroyBuffer(id gpucore.BufferID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buffers, id)
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (b *Backend) LiveBuffers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffers)
}

// CreatedBuffers returns the number of successful CreateBuffer calls.
func (b *Backend) CreatedBuffers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created
}

// Draw fetches the vertices of every range and records them.
func (b *Backend) Draw(va *gpucore.VertexArray, ib *gpucore.IndexBuffer, draws []gpucore.Draw) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	vb, ok := b.buffers[va.Buffer]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownBuffer, va.Buffer)
	}
	if vb.mapped && !b.caps.PersistentMapping {
		return ErrBufferMapped
	}
	var idx *buffer
	if ib != nil {
		if idx, ok = b.buffers[ib.Buffer]; !ok {
			return fmt.Errorf("%w %d", ErrUnknownBuffer, ib.Buffer)
		}
		if idx.mapped && !b.caps.PersistentMapping {
			return ErrBufferMapped
		}
	}

	b.batches++
	for _, d := range draws {
		if !b.caps.SupportedModes.Has(d.Mode) {
			return fmt.Errorf("%w: %v", ErrUnsupportedMode, d.Mode)
		}
		call := DrawCall{Mode: d.Mode, Indexed: ib != nil, Vertices: make([]Vertex, 0, d.Count)}
		for i := 0; i < d.Count; i++ {
			vi := d.Start + i
			if idx != nil {
				off := ib.Offset + 4*(d.Start+i)
				if off+4 > len(idx.data) {
					return fmt.Errorf("%w: index %d", ErrOutOfRange, d.Start+i)
				}
				vi = int(binary.LittleEndian.Uint32(idx.data[off:]))
			}
			v, err := fetch(vb.data, va, vi+d.BaseVertex)
			if err != nil {
				return err
			}
			call.Vertices = append(call.Vertices, v)
		}
		b.draws = append(b.draws, call)
	}
	return nil
}

func fetch(data []byte, va *gpucore.VertexArray, i int) (Vertex, error) {
	var v Vertex
	base := va.Offset + i*va.Stride
	for _, a := range va.Attribs {
		words := a.Size * a.Type.Words()
		off := base + a.Offset
		if off < 0 || off+4*words > len(data) {
			return v, fmt.Errorf("%w: vertex %d", ErrOutOfRange, i)
		}
		val := attrib.Value{Size: a.Size, Type: a.Type, Words: attrib.Default(a.Type)}
		for w := 0; w < words; w++ {
			val.Words[w] = binary.LittleEndian.Uint32(data[off+4*w:])
		}
		v.Values[a.Location] = val
		v.Enabled |= 1 << a.Location
	}
	return v, nil
}

// Draws returns the recorded draw ranges.
func (b *Backend) Draws() []DrawCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DrawCall(nil), b.draws...)
}

// Batches returns the number of Draw calls received.
func (b *Backend) Batches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batches
}

// Reset forgets recorded draws.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draws = nil
	b.batches = 0
}

// Primitives assembles every recorded draw into independent primitives.
func (b *Backend) Primitives() []Primitive {
	var out []Primitive
	for _, d := range b.Draws() {
		mode, prims := indices.Assemble(d.Mode, len(d.Vertices))
		for _, p := range prims {
			vs := make([]Vertex, len(p))
			for i, j := range p {
				vs[i] = d.Vertices[j]
			}
			out = append(out, Primitive{Mode: mode, Vertices: vs})
		}
	}
	return out
}

// VertexCount returns the number of vertices fetched by all draws.
func (b *Backend) VertexCount() int {
	n := 0
	for _, d := range b.Draws() {
		n += len(d.Vertices)
	}
	return n
}
