// Package exec implements immediate-mode vertex accumulation: Begin, the
// per-vertex attribute calls and End are collected into a strided vertex
// store and a primitive list, and handed to the draw collaborator when the
// store fills up or the caller flushes.
package exec

import (
	"errors"

	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/glstate"
	"github.com/gogpu/vbo/gpucore"
	"github.com/gogpu/vbo/prim"
	"github.com/gogpu/vbo/store"
)

// ErrNoAllocator is returned by New when the config has no allocator.
var ErrNoAllocator = errors.New("exec: allocator is required")

// Defaults.
const (
	// DefaultBufferSize is the size of one vertex batch in bytes.
	DefaultBufferSize = 64 << 10

	// DefaultMaxPrims is the number of primitives that forces a flush.
	DefaultMaxPrims = 64

	// minWrapVertices keeps wraps making progress for very wide vertices.
	minWrapVertices = 4

	maxVertexWords = int(attrib.NumSlots) * attrib.MaxWords
)

// FlushFlags selects what FlushVertices does.
type FlushFlags uint8

const (
	// FlushStoredVertices draws stored vertices, updates current and
	// resets the vertex layout.
	FlushStoredVertices FlushFlags = 1 << iota

	// FlushUpdateCurrent copies the scratch vertex into current.
	FlushUpdateCurrent
)

// Config configures an Accumulator.
type Config struct {
	Allocator gpucore.BufferAllocator
	Drawer    gpucore.Drawer
	Caps      gpucore.Caps

	// BufferSize is the batch size in bytes. Zero means DefaultBufferSize.
	BufferSize int

	// MaxPrims is the primitive cap. Zero means DefaultMaxPrims.
	MaxPrims int
}

// Stats counts accumulator events.
type Stats struct {
	Flushes  int
	Draws    int
	Wraps    int
	Upgrades int
	Orphans  int
	Vertices int
}

// Accumulator is the immediate-mode vertex accumulator. It is owned by one
// context and is not safe for concurrent use.
type Accumulator struct {
	cfg Config

	table *attrib.Table
	vtx   *store.VertexStore
	prims *store.PrimitiveStore

	copied  []uint32
	ncopied int

	inside  bool
	mode    gl.Mode
	maxVert int
	growing bool
	oom     bool

	stream streamBuffer
	stats  Stats

	remap []uint32
	index []uint32
	bytes []byte
}

// New returns an accumulator drawing through cfg.
func New(cfg Config) (*Accumulator, error) {
	if cfg.Allocator == nil {
		return nil, ErrNoAllocator
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.MaxPrims <= 0 {
		cfg.MaxPrims = DefaultMaxPrims
	}
	if cfg.Caps.SupportedModes == 0 {
		cfg.Caps = gpucore.DefaultCaps()
	}
	a := &Accumulator{
		cfg:    cfg,
		table:  attrib.NewTable(),
		vtx:    store.NewVertexStore(cfg.BufferSize/4, nil),
		prims:  store.NewPrimitiveStore(cfg.MaxPrims),
		copied: make([]uint32, prim.MaxCopied*maxVertexWords),
		remap:  make([]uint32, maxVertexWords),
	}
	a.updateMaxVert()
	return a, nil
}

// Inside reports whether a Begin is open.
func (a *Accumulator) Inside() bool { return a.inside }

// Mode returns the mode of the open primitive.
func (a *Accumulator) Mode() gl.Mode { return a.mode }

// OutOfMemory reports whether vertex calls are being discarded.
func (a *Accumulator) OutOfMemory() bool { return a.oom }

// VertexCount returns the number of stored vertices.
func (a *Accumulator) VertexCount() int { return a.vtx.Count() }

// Used returns the number of stored words.
func (a *Accumulator) Used() int { return a.vtx.Used() }

// Vertex returns stored vertex i.
func (a *Accumulator) Vertex(i int) []uint32 { return a.vtx.Vertex(i) }

// Prims returns the stored primitives.
func (a *Accumulator) Prims() []prim.Prim { return a.prims.Prims() }

// Layout returns the current vertex layout.
func (a *Accumulator) Layout() *attrib.Layout { return a.table.Layout() }

// MaxVertices returns the number of vertices that triggers a wrap.
func (a *Accumulator) MaxVertices() int { return a.maxVert }

// Stats returns event counters.
func (a *Accumulator) Stats() Stats { return a.stats }

func (a *Accumulator) updateMaxVert() {
	vs := a.table.VertexSize()
	if vs == 0 {
		vs = 1
	}
	a.maxVert = max(a.cfg.BufferSize/(4*vs), minWrapVertices)
}

// Begin opens a primitive.
func (a *Accumulator) Begin(st *glstate.State, mode gl.Mode) {
	if a.inside {
		st.Error(gl.InvalidOperation, "Begin")
		return
	}
	if !mode.Valid() {
		st.Error(gl.InvalidEnum, "Begin")
		return
	}
	if a.oom && !a.recover() {
		a.inside, a.mode = true, mode
		return
	}
	if err := a.stream.ensure(a); err != nil {
		a.outOfMemory(st, err)
		a.inside, a.mode = true, mode
		return
	}

	// Isolate attributes set before Begin without a position.
	if a.table.VertexSize() > 0 && a.table.Slot(attrib.Pos).Size == 0 {
		a.flushInternal(st, FlushStoredVertices)
	}
	if a.prims.Full() || (mode == gl.TriangleStripAdjacency && a.vtx.Count() > 0) {
		a.flushDraw(st)
	}

	a.prims.Begin(mode, a.vtx.Count())
	a.inside, a.mode = true, mode
	a.growing = mode == gl.TriangleStripAdjacency
}

// End closes the open primitive.
func (a *Accumulator) End(st *glstate.State) {
	if !a.inside {
		st.Error(gl.InvalidOperation, "End")
		return
	}
	a.inside = false
	a.growing = false
	if a.oom {
		a.recover()
		return
	}

	last := a.prims.End(a.vtx.Count())
	if last.Count == 0 {
		a.prims.DropLast()
		return
	}

	if last.Mode == gl.LineLoop && (!last.Begin || (!a.cfg.Caps.NativeLineLoop() && last.Count >= 2)) {
		// Close the loop by repeating its first vertex and draw it as a strip.
		if err := a.vtx.Append(a.vtx.Vertex(last.Start)); err != nil {
			a.outOfMemory(st, err)
			return
		}
		if last.Begin {
			last.Count++
		} else {
			last.Start++
		}
		last.Mode = gl.LineStrip
	}

	a.tryMerge(st)

	if a.prims.Full() {
		a.flushDraw(st)
	}
}

func (a *Accumulator) tryMerge(st *glstate.State) {
	prims := a.prims.Prims()
	cur := &prims[len(prims)-1]
	prim.Convert(cur)
	if len(prims) < 2 {
		return
	}
	mp := prim.MergeParams{LineStipple: st.LineStipple, PatchVertices: st.PatchVertices}
	if prim.TryMerge(&prims[len(prims)-2], cur, mp) {
		a.prims.DropLast()
	}
}

// PrimitiveRestart ends the open primitive and begins another of the same
// mode.
func (a *Accumulator) PrimitiveRestart(st *glstate.State) {
	if !a.inside {
		st.Error(gl.InvalidOperation, "PrimitiveRestart")
		return
	}
	mode := a.mode
	a.End(st)
	a.Begin(st, mode)
}

// Attr sets slot s to the first n components of v. Setting the position
// emits a vertex.
func (a *Accumulator) Attr(st *glstate.State, s attrib.Slot, n int, typ gl.Type, v attrib.Components) {
	if a.oom {
		return
	}
	sz := n * typ.Words()

	if s != attrib.Pos {
		ss := a.table.Slot(s)
		if ss.ActiveSize != sz || ss.Type != typ {
			a.fixupVertex(st, s, sz, typ)
			if a.oom {
				return
			}
		}
		copy(a.table.Attr(s), v[:sz])
		return
	}

	if !a.inside {
		return
	}
	if ss := a.table.Slot(attrib.Pos); ss.Size < sz || ss.Type != typ {
		a.wrapUpgradeVertex(st, attrib.Pos, sz, typ)
		if a.oom {
			return
		}
	}
	pos := a.table.Attr(attrib.Pos)
	copy(pos, v[:len(pos)])

	if err := a.vtx.Append(a.table.Scratch()); err != nil {
		a.outOfMemory(st, err)
		return
	}
	if !a.growing && a.vtx.Count() >= a.maxVert {
		a.wrap(st)
	}
}

func (a *Accumulator) fixupVertex(st *glstate.State, s attrib.Slot, sz int, typ gl.Type) {
	ss := a.table.Slot(s)
	switch {
	case sz > ss.Size || typ != ss.Type:
		a.wrapUpgradeVertex(st, s, sz, typ)
	case sz < ss.ActiveSize:
		attrib.FillDefaults(a.table.Attr(s), sz, ss.Type)
	}
	a.table.SetActiveSize(s, sz)
}

// FlushVertices drains stored vertices and/or updates current. It does
// nothing while a primitive is open.
func (a *Accumulator) FlushVertices(st *glstate.State, flags FlushFlags) {
	if a.inside {
		return
	}
	a.flushInternal(st, flags)
}

func (a *Accumulator) flushInternal(st *glstate.State, flags FlushFlags) {
	if flags&FlushStoredVertices != 0 {
		if a.vtx.Count() > 0 {
			a.flushDraw(st)
		}
		if a.table.VertexSize() > 0 {
			a.copyToCurrent(st)
			a.resetAllAttr()
		}
		return
	}
	if flags&FlushUpdateCurrent != 0 {
		a.copyToCurrent(st)
	}
}

func (a *Accumulator) copyToCurrent(st *glstate.State) {
	st.CopyFromVertex(a.table.Layout(), a.table.Scratch())
}

func (a *Accumulator) resetAllAttr() {
	a.table.Reset()
	a.vtx.SetVertexSize(0)
	a.updateMaxVert()
}

// Destroy discards unflushed data and releases the stream buffer.
func (a *Accumulator) Destroy() {
	a.vtx.Reset()
	a.prims.Reset()
	a.inside = false
	a.stream.release(a)
}

func (a *Accumulator) outOfMemory(st *glstate.State, err error) {
	if !a.oom {
		slogger().Warn("exec: out of memory", "err", err)
	}
	a.oom = true
	st.Error(gl.OutOfMemory, "vertex buffer")
}

// recover retries the stream allocation after an out-of-memory failure.
func (a *Accumulator) recover() bool {
	if err := a.stream.ensure(a); err != nil {
		return false
	}
	a.oom = false
	a.vtx.Recover()
	a.prims.Reset()
	a.ncopied = 0
	slogger().Debug("exec: recovered from out of memory")
	return true
}
