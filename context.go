package vbo

import (
	"fmt"

	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/backend"
	"github.com/gogpu/vbo/exec"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/glstate"
	"github.com/gogpu/vbo/gpucore"
	"github.com/gogpu/vbo/save"
)

// Dispatch is where vertex entry points are routed.
type Dispatch uint8

const (
	// DispatchImmediate feeds the immediate-mode accumulator.
	DispatchImmediate Dispatch = iota

	// DispatchRecording feeds the display-list compiler.
	DispatchRecording

	// DispatchNoOp drops vertex data after an allocation failure. Begin and
	// End are still tracked so the context recovers at the next primitive.
	DispatchNoOp
)

func (d Dispatch) String() string {
	switch d {
	case DispatchImmediate:
		return "immediate"
	case DispatchRecording:
		return "recording"
	case DispatchNoOp:
		return "noop"
	}
	return fmt.Sprintf("Dispatch(%d)", uint8(d))
}

// Evaluator produces vertices for the EvalCoord and EvalPoint entry points
// by calling back into the context.
type Evaluator interface {
	EvalCoord(ctx *Context, dims int, u, v float32)
	EvalPoint(ctx *Context, dims int, i, j int)
}

type nopEvaluator struct{}

func (nopEvaluator) EvalCoord(*Context, int, float32, float32) {}
func (nopEvaluator) EvalPoint(*Context, int, int, int)         {}

// Stats aggregates the counters of a context.
type Stats struct {
	Exec   exec.Stats
	Save   save.Stats
	Replay save.ReplayStats
	Lists  int
}

// Context is one rendering context: current state, the immediate-mode
// accumulator, the display-list compiler and the list table. A Context
// is not safe for concurrent use.
type Context struct {
	st     *glstate.State
	caps   gpucore.Caps
	alloc  gpucore.BufferAllocator
	drawer gpucore.Drawer
	eval   Evaluator

	exec     *exec.Accumulator
	comp     *save.Compiler
	replayer *save.Replayer

	lists    map[uint32]*displayList
	building *displayList
	name     uint32
	listMode gl.ListMode
	listBase uint32

	// suspended is set while the rest of a compiled Begin/End block is
	// recorded as individual calls.
	suspended bool

	depth     int
	executing int
}

// New creates a context. A backend, or an allocator and a drawer, must be
// configured.
func New(opts ...Option) (*Context, error) {
	o := options{dedup: true}
	for _, opt := range opts {
		opt(&o)
	}

	caps := gpucore.DefaultCaps()
	if o.backend != "" {
		b, err := backend.NewBackend(o.backend)
		if err != nil {
			return nil, err
		}
		if o.allocator == nil {
			o.allocator = b
		}
		if o.drawer == nil {
			o.drawer = b
		}
		caps = b.Caps()
		propagateLogger(b, Logger())
		Logger().Info("vbo: backend selected", "backend", o.backend)
	}
	if o.allocator == nil || o.drawer == nil {
		return nil, ErrNoBackend
	}
	if o.caps != nil {
		caps = *o.caps
	}
	if o.evaluator == nil {
		o.evaluator = nopEvaluator{}
	}

	ctx := &Context{
		st:       glstate.New(),
		caps:     caps,
		alloc:    o.allocator,
		drawer:   o.drawer,
		eval:     o.evaluator,
		replayer: &save.Replayer{Drawer: o.drawer},
		lists:    make(map[uint32]*displayList),
	}
	ctx.st.OnError = func(code gl.ErrorCode, where string) {
		Logger().Debug("vbo: gl error", "code", code, "where", where)
		if o.onError != nil {
			o.onError(code, where)
		}
	}

	var err error
	ctx.exec, err = exec.New(exec.Config{
		Allocator:  o.allocator,
		Drawer:     o.drawer,
		Caps:       caps,
		BufferSize: o.execBufferSize,
		MaxPrims:   o.maxPrims,
	})
	if err != nil {
		return nil, fmt.Errorf("vbo: %w", err)
	}
	ctx.comp, err = save.New(save.Config{
		Allocator: o.allocator,
		Caps:      caps,
		ArenaSize: o.arenaSize,
		StoreSize: o.storeSize,
		MaxPrims:  o.maxPrims,
		Dedup:     o.dedup,
		OnNode:    ctx.onNode,
	})
	if err != nil {
		return nil, fmt.Errorf("vbo: %w", err)
	}
	return ctx, nil
}

// Close releases every list and the device buffers the context owns.
func (c *Context) Close() {
	for name, l := range c.lists {
		l.release()
		delete(c.lists, name)
	}
	if c.building != nil {
		c.building.release()
		c.building = nil
	}
	c.comp.Destroy()
	c.exec.Destroy()
}

// State returns the context state.
func (c *Context) State() *glstate.State { return c.st }

// Caps returns the capabilities the context draws with.
func (c *Context) Caps() gpucore.Caps { return c.caps }

// Dispatch returns where vertex entry points are currently routed.
func (c *Context) Dispatch() Dispatch {
	switch {
	case c.building != nil && c.executing == 0:
		return DispatchRecording
	case c.exec.OutOfMemory():
		return DispatchNoOp
	}
	return DispatchImmediate
}

// Stats returns the context counters.
func (c *Context) Stats() Stats {
	return Stats{
		Exec:   c.exec.Stats(),
		Save:   c.comp.Stats(),
		Replay: c.replayer.Stats(),
		Lists:  len(c.lists),
	}
}

// GetError returns and clears the pending GL error.
func (c *Context) GetError() gl.ErrorCode { return c.st.GetError() }

// Flush draws buffered immediate-mode vertices and updates current values.
// It does nothing inside Begin/End.
func (c *Context) Flush() {
	c.exec.FlushVertices(c.st, exec.FlushStoredVertices|exec.FlushUpdateCurrent)
}

// Current returns the current value of slot s.
func (c *Context) Current(s attrib.Slot) attrib.Value {
	c.exec.FlushVertices(c.st, exec.FlushUpdateCurrent)
	return c.st.Current(s)
}

// flushState flushes immediate-mode vertices ahead of a state change that
// affects how they are drawn.
func (c *Context) flushState(where string) bool {
	if c.exec.Inside() {
		c.st.Error(gl.InvalidOperation, where)
		return false
	}
	c.Flush()
	return true
}

// SetShaderActive selects the shader vertex-array view.
func (c *Context) SetShaderActive(on bool) {
	if c.flushState("SetShaderActive") {
		c.st.ShaderActive = on
	}
}

// SetLineStipple sets the line stipple enable.
func (c *Context) SetLineStipple(on bool) {
	if c.flushState("SetLineStipple") {
		c.st.LineStipple = on
	}
}

// SetPatchVertices sets the patch size for PATCHES.
func (c *Context) SetPatchVertices(n int) {
	if n <= 0 {
		c.st.Error(gl.InvalidValue, "SetPatchVertices")
		return
	}
	if c.flushState("SetPatchVertices") {
		c.st.PatchVertices = n
	}
}

// immediate routes loopback replay into the accumulator.
type immediate struct{ c *Context }

func (d immediate) Begin(mode gl.Mode) { d.c.exec.Begin(d.c.st, mode) }
func (d immediate) End()               { d.c.exec.End(d.c.st) }
func (d immediate) Inside() bool       { return d.c.exec.Inside() }
func (d immediate) FlushVertices()     { d.c.exec.FlushVertices(d.c.st, exec.FlushStoredVertices) }

func (d immediate) Attr(s attrib.Slot, n int, typ gl.Type, v attrib.Components) {
	d.c.exec.Attr(d.c.st, s, n, typ, v)
}
