// Package save compiles the vertex-producing part of a display list into
// immutable nodes and replays them.
//
// The Compiler mirrors the immediate-mode accumulator: Begin, attribute
// calls and End collect vertices and primitives. Instead of drawing, a full
// store is baked into a Node: primitives are merged, lowered to indices,
// deduplicated and packed into a shared arena. Replay draws a node directly
// from the arena or, when that cannot reproduce immediate-mode semantics,
// loops its vertices back through a Dispatcher.
package save

import (
	"errors"

	"github.com/gogpu/vbo/arena"
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/glstate"
	"github.com/gogpu/vbo/gpucore"
	"github.com/gogpu/vbo/internal/cache"
	"github.com/gogpu/vbo/prim"
	"github.com/gogpu/vbo/store"
)

// ErrNoAllocator is returned by New when the config has no allocator.
var ErrNoAllocator = errors.New("save: allocator is required")

// Defaults.
const (
	// DefaultStoreSize is the vertex store size of one node in bytes.
	DefaultStoreSize = 256 << 10

	// DefaultMaxPrims is the number of primitives per node.
	DefaultMaxPrims = 256

	minNodeVertices = 4
	vaoCacheSize    = 64
)

// Config configures a Compiler.
type Config struct {
	Allocator gpucore.BufferAllocator
	Caps      gpucore.Caps

	// ArenaSize is the size of each shared arena. Zero means arena.DefaultSize.
	ArenaSize int

	// StoreSize bounds the vertex bytes of one node. Zero means DefaultStoreSize.
	StoreSize int

	// MaxPrims bounds the primitives of one node. Zero means DefaultMaxPrims.
	MaxPrims int

	// Dedup collapses identical vertices of a node.
	Dedup bool

	// OnNode receives every compiled node in order.
	OnNode func(*Node)
}

// Stats counts compiler events.
type Stats struct {
	Nodes         int
	LoopbackNodes int
	Wraps         int
	Upgrades      int
	Vertices      int
	DedupHits     int
	Arenas        int
}

type vaoKey struct {
	arena  *arena.Arena
	layout attrib.Layout
	view   attrib.View
}

// Compiler records Begin/End blocks of the display list being built. It is
// owned by one context and is not safe for concurrent use.
type Compiler struct {
	cfg Config

	table *attrib.Table
	vtx   *store.VertexStore
	prims *store.PrimitiveStore

	copied    []uint32
	ncopied   int
	wrapCount int

	inside   bool
	mode     gl.Mode
	maxVert  int
	oom      bool
	dangling bool

	// Values the list itself has established, known at compile time.
	known   attrib.Mask
	current [attrib.NumSlots]attrib.Value

	nodes []*Node
	arena *arena.Arena
	vaos  *cache.Cache[vaoKey, *gpucore.VertexArray]
	stats Stats
	remap []uint32
}

// New returns a compiler packing into arenas from cfg.Allocator.
func New(cfg Config) (*Compiler, error) {
	if cfg.Allocator == nil {
		return nil, ErrNoAllocator
	}
	if cfg.ArenaSize <= 0 {
		cfg.ArenaSize = arena.DefaultSize
	}
	if cfg.StoreSize <= 0 {
		cfg.StoreSize = DefaultStoreSize
	}
	if cfg.MaxPrims <= 0 {
		cfg.MaxPrims = DefaultMaxPrims
	}
	if cfg.Caps.SupportedModes == 0 {
		cfg.Caps = gpucore.DefaultCaps()
	}
	c := &Compiler{
		cfg:    cfg,
		table:  attrib.NewTable(),
		vtx:    store.NewVertexStore(cfg.StoreSize/4, nil),
		prims:  store.NewPrimitiveStore(cfg.MaxPrims),
		copied: make([]uint32, prim.MaxCopied*int(attrib.NumSlots)*attrib.MaxWords),
		remap:  make([]uint32, int(attrib.NumSlots)*attrib.MaxWords),
		vaos:   cache.New[vaoKey, *gpucore.VertexArray](vaoCacheSize),
	}
	c.updateMaxVert()
	return c, nil
}

// Inside reports whether a compiled Begin is open.
func (c *Compiler) Inside() bool { return c.inside }

// Mode returns the mode of the open compiled primitive.
func (c *Compiler) Mode() gl.Mode { return c.mode }

// OutOfMemory reports whether compilation has been abandoned for the
// current list.
func (c *Compiler) OutOfMemory() bool { return c.oom }

// VertexCount returns the number of vertices pending in the store.
func (c *Compiler) VertexCount() int { return c.vtx.Count() }

// Layout returns the pending vertex layout.
func (c *Compiler) Layout() *attrib.Layout { return c.table.Layout() }

// Stats returns event counters.
func (c *Compiler) Stats() Stats { return c.stats }

// Nodes returns the nodes compiled for the current list.
func (c *Compiler) Nodes() []*Node { return c.nodes }

func (c *Compiler) updateMaxVert() {
	vs := max(c.table.VertexSize(), 1)
	c.maxVert = max(c.cfg.StoreSize/(4*vs), minNodeVertices)
}

// NewList starts a list. Pending state from a previous list is dropped and
// an out-of-memory condition is cleared.
func (c *Compiler) NewList() {
	c.table.Reset()
	c.vtx.Reset()
	c.vtx.SetVertexSize(0)
	c.vtx.Recover()
	c.prims.Reset()
	c.updateMaxVert()
	c.ncopied, c.wrapCount = 0, 0
	c.inside, c.oom, c.dangling = false, false, false
	c.known = 0
	c.nodes = nil
}

// SetCurrent records a value the list sets outside Begin/End, so later
// vertices can rely on it at compile time.
func (c *Compiler) SetCurrent(s attrib.Slot, v attrib.Value) {
	c.known = c.known.With(s)
	c.current[s] = v
}

// Begin opens a compiled primitive.
func (c *Compiler) Begin(st *glstate.State, mode gl.Mode) {
	if c.inside {
		st.Error(gl.InvalidOperation, "Begin")
		return
	}
	if !mode.Valid() {
		st.Error(gl.InvalidEnum, "Begin")
		return
	}
	c.inside, c.mode = true, mode
	if c.oom {
		return
	}
	if c.prims.Full() {
		c.compile(st)
	}
	c.prims.Begin(mode, c.vtx.Count())
}

// End closes the compiled primitive.
func (c *Compiler) End(st *glstate.State) {
	if !c.inside {
		st.Error(gl.InvalidOperation, "End")
		return
	}
	c.inside = false
	if c.oom {
		return
	}
	last := c.prims.End(c.vtx.Count())
	if last.Count == 0 {
		if last.Begin {
			c.prims.DropLast()
		}
		// An empty continuation still closes the primitive on replay.
		return
	}
	prims := c.prims.Prims()
	prim.Convert(&prims[len(prims)-1])
	if len(prims) >= 2 && prim.TryMerge(&prims[len(prims)-2], &prims[len(prims)-1], c.mergeParams()) {
		c.prims.DropLast()
	}
	if c.prims.Full() {
		c.compile(st)
	}
}

func (c *Compiler) mergeParams() prim.MergeParams {
	return prim.MergeParams{InList: true}
}

// PrimitiveRestart ends the open primitive and begins another of the same
// mode.
func (c *Compiler) PrimitiveRestart(st *glstate.State) {
	if !c.inside {
		st.Error(gl.InvalidOperation, "PrimitiveRestart")
		return
	}
	mode := c.mode
	c.End(st)
	c.Begin(st, mode)
}

// Attr records slot s inside a compiled Begin/End. Setting the position
// stores a vertex.
func (c *Compiler) Attr(st *glstate.State, s attrib.Slot, n int, typ gl.Type, v attrib.Components) {
	if c.oom || !c.inside {
		return
	}
	sz := n * typ.Words()

	if s != attrib.Pos {
		ss := c.table.Slot(s)
		if ss.ActiveSize != sz || ss.Type != typ {
			switch {
			case sz > ss.Size || typ != ss.Type:
				c.upgrade(st, s, sz, typ)
				if c.oom {
					return
				}
			case sz < ss.ActiveSize:
				attrib.FillDefaults(c.table.Attr(s), sz, ss.Type)
			}
			c.table.SetActiveSize(s, sz)
		}
		copy(c.table.Attr(s), v[:sz])
		return
	}

	if ss := c.table.Slot(attrib.Pos); ss.Size < sz || ss.Type != typ {
		c.upgrade(st, attrib.Pos, sz, typ)
		if c.oom {
			return
		}
	}
	// Wrap only when another vertex is coming, so a primitive that fills
	// the store exactly still ends in its own node.
	if c.vtx.Count() >= c.maxVert {
		c.stats.Wraps++
		c.wrap(st)
		c.reinsertCopied(st)
		if c.oom {
			return
		}
	}
	pos := c.table.Attr(attrib.Pos)
	copy(pos, v[:len(pos)])
	if err := c.vtx.Append(c.table.Scratch()); err != nil {
		c.outOfMemory(st, err)
	}
}

// wrap compiles the store into a node while a primitive is open and opens
// its continuation. A primitive whose vertices are all carried over is left
// out of the node and restarted by the continuation.
func (c *Compiler) wrap(st *glstate.State) {
	last := c.prims.Last()
	if last == nil {
		c.compile(st)
		return
	}
	last.Count = c.vtx.Count() - last.Start
	last.End = false
	mode, lastBegin, lastCount := last.Mode, last.Begin, last.Count
	c.compile(st)
	if c.oom {
		return
	}
	p := c.prims.Begin(mode, 0)
	p.Begin = lastBegin && c.ncopied == lastCount
}

func (c *Compiler) reinsertCopied(st *glstate.State) {
	sz := c.table.VertexSize()
	for i := 0; i < c.ncopied; i++ {
		if err := c.vtx.Append(c.copied[i*sz : (i+1)*sz]); err != nil {
			c.outOfMemory(st, err)
			return
		}
	}
	c.wrapCount = c.ncopied
	c.ncopied = 0
}

// upgrade grows slot s. Stored vertices are compiled first and the
// continuation vertices are converted to the new layout. A slot the list
// has never set gives those vertices a value only known at replay time,
// which forces loopback replay of the node holding them.
func (c *Compiler) upgrade(st *glstate.State, s attrib.Slot, size int, typ gl.Type) {
	oldSize := c.table.Slot(s).Size
	if c.vtx.Count() > 0 {
		c.wrap(st)
		if c.oom {
			return
		}
	}
	c.copyToCurrent()

	old := c.table.Resize(s, size, typ)
	c.table.SetActiveSize(s, size)
	c.vtx.SetVertexSize(c.table.VertexSize())
	c.updateMaxVert()
	c.stats.Upgrades++

	if c.ncopied == 0 {
		return
	}
	if s != attrib.Pos && oldSize == 0 && !c.known.Has(s) {
		c.markDangling()
	}
	fill := func(fs attrib.Slot, dst []uint32) {
		if c.known.Has(fs) {
			copy(dst, c.current[fs].Words[:len(dst)])
			return
		}
		attrib.FillDefaults(dst, 0, c.table.Slot(fs).Type)
	}
	osz := old.VertexSize
	dst := c.remap[:c.table.VertexSize()]
	for i := 0; i < c.ncopied; i++ {
		attrib.Remap(dst, c.table.Layout(), c.copied[i*osz:(i+1)*osz], &old, fill)
		if err := c.vtx.Append(dst); err != nil {
			c.outOfMemory(st, err)
			return
		}
	}
	c.wrapCount = c.ncopied
	c.ncopied = 0
}

// markDangling flags the pending node for loopback, together with the
// already compiled nodes its open primitive continues, so the primitive is
// replayed through immediate mode from its Begin.
func (c *Compiler) markDangling() {
	c.dangling = true
	for i := len(c.nodes) - 1; i >= 0; i-- {
		n := c.nodes[i]
		if len(n.prims) == 0 || n.prims[len(n.prims)-1].End {
			break
		}
		if !n.loopback {
			n.loopback = true
			c.stats.LoopbackNodes++
		}
		if n.prims[0].Begin {
			break
		}
	}
}

func (c *Compiler) copyToCurrent() {
	l := c.table.Layout()
	for s := attrib.Slot(1); s < attrib.NumSlots; s++ {
		if l.Has(s) {
			c.SetCurrent(s, l.Value(c.table.Scratch(), s))
		}
	}
}

// Flush compiles pending vertices into a node. It is called before any
// opcode that is not part of a Begin/End block is recorded.
func (c *Compiler) Flush(st *glstate.State) {
	if c.inside || c.oom {
		return
	}
	if c.vtx.Count() > 0 || c.prims.Len() > 0 {
		c.compile(st)
	}
	if c.table.VertexSize() > 0 {
		c.copyToCurrent()
		c.table.Reset()
		c.vtx.SetVertexSize(0)
		c.updateMaxVert()
	}
}

// Suspend closes the open primitive without an End and compiles it for
// loopback replay. The caller records the rest of the Begin/End block as
// individual calls. Suspend reports false when the primitive had no
// vertices yet and was dropped, in which case the caller records its Begin.
func (c *Compiler) Suspend(st *glstate.State) bool {
	if !c.inside {
		return false
	}
	c.inside = false
	kept := false
	if last := c.prims.Last(); last != nil && !c.oom {
		last.Count = c.vtx.Count() - last.Start
		last.End = false
		if last.Count == 0 && last.Begin {
			c.prims.DropLast()
		} else {
			c.markDangling()
			kept = true
		}
	}
	c.Flush(st)
	return kept
}

// EndList finishes the list. A primitive still open is suspended.
func (c *Compiler) EndList(st *glstate.State) []*Node {
	c.Suspend(st)
	c.Flush(st)
	nodes := c.nodes
	c.nodes = nil
	return nodes
}

func (c *Compiler) outOfMemory(st *glstate.State, err error) {
	if !c.oom {
		slogger().Warn("save: out of memory", "err", err)
	}
	c.oom = true
	c.vtx.Reset()
	c.prims.Reset()
	c.ncopied, c.wrapCount = 0, 0
	st.Error(gl.OutOfMemory, "display list")
}

// Destroy releases the compiler's arena reference.
func (c *Compiler) Destroy() {
	if c.arena != nil {
		c.arena.Release()
		c.arena = nil
	}
	c.vaos.Clear()
}
