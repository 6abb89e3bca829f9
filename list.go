package vbo

import (
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/save"
)

// MaxListNesting bounds CallList recursion. Deeper calls are ignored.
const MaxListNesting = 64

type opKind uint8

const (
	opNode opKind = iota
	opBegin
	opEnd
	opAttr
	opPrimitiveRestart
	opEvalCoord
	opEvalPoint
	opCallList
)

// op is one recorded display-list command. Vertex data inside Begin/End
// is carried by compiled nodes; everything else is an individual call.
type op struct {
	kind opKind
	node *save.Node
	mode gl.Mode

	slot attrib.Slot
	size int
	typ  gl.Type
	v    attrib.Components

	dims int
	u, w float32
	i, j int
	list uint32
}

type displayList struct {
	ops []op
}

func (l *displayList) release() {
	for _, o := range l.ops {
		if o.node != nil {
			o.node.Release()
		}
	}
	l.ops = nil
}

// nodes returns the compiled nodes of the list in order.
func (l *displayList) nodes() []*save.Node {
	var out []*save.Node
	for _, o := range l.ops {
		if o.kind == opNode {
			out = append(out, o.node)
		}
	}
	return out
}

// GenLists reserves n consecutive unused list names and returns the first.
func (c *Context) GenLists(n int) uint32 {
	if n < 0 {
		c.st.Error(gl.InvalidValue, "GenLists")
		return 0
	}
	if n == 0 {
		return 0
	}
	used := func(name uint32) bool {
		_, ok := c.lists[name]
		return ok || (c.building != nil && c.name == name)
	}
	base := uint32(1)
search:
	for {
		for k := uint32(0); k < uint32(n); k++ {
			if used(base + k) {
				base += k + 1
				continue search
			}
		}
		break
	}
	for k := uint32(0); k < uint32(n); k++ {
		c.lists[base+k] = &displayList{}
	}
	return base
}

// IsList reports whether name is a list.
func (c *Context) IsList(name uint32) bool {
	_, ok := c.lists[name]
	return ok
}

// NewList starts compiling list name.
func (c *Context) NewList(name uint32, mode gl.ListMode) {
	switch {
	case name == 0:
		c.st.Error(gl.InvalidValue, "NewList")
		return
	case mode != gl.Compile && mode != gl.CompileAndExecute:
		c.st.Error(gl.InvalidEnum, "NewList")
		return
	case c.building != nil || c.exec.Inside():
		c.st.Error(gl.InvalidOperation, "NewList")
		return
	}
	c.Flush()
	c.building = &displayList{}
	c.name = name
	c.listMode = mode
	c.suspended = false
	c.comp.NewList()
}

// EndList finishes the list being compiled and stores it, replacing any
// list of the same name.
func (c *Context) EndList() {
	if c.building == nil {
		c.st.Error(gl.InvalidOperation, "EndList")
		return
	}
	c.comp.EndList(c.st)
	if old, ok := c.lists[c.name]; ok {
		old.release()
	}
	l := c.building
	c.lists[c.name] = l
	c.building = nil
	c.suspended = false
	Logger().Debug("vbo: list compiled", "list", c.name, "ops", len(l.ops), "nodes", len(l.nodes()))
}

// DeleteLists deletes n lists starting at first.
func (c *Context) DeleteLists(first uint32, n int) {
	if n < 0 {
		c.st.Error(gl.InvalidValue, "DeleteLists")
		return
	}
	for k := uint32(0); k < uint32(n); k++ {
		if l, ok := c.lists[first+k]; ok {
			l.release()
			delete(c.lists, first+k)
		}
	}
}

// SetListBase sets the offset CallLists adds to each name.
func (c *Context) SetListBase(base uint32) { c.listBase = base }

// CallList executes list name. While compiling it is recorded instead, and
// executed too in CompileAndExecute mode.
func (c *Context) CallList(name uint32) {
	if c.Dispatch() == DispatchRecording {
		c.suspend()
		c.record(op{kind: opCallList, list: name})
		return
	}
	c.callList(name)
}

// CallLists executes the lists named by names offset by the list base.
func (c *Context) CallLists(names ...uint32) {
	for _, n := range names {
		c.CallList(c.listBase + n)
	}
}

func (c *Context) callList(name uint32) {
	l, ok := c.lists[name]
	if !ok {
		return
	}
	if c.depth >= MaxListNesting {
		Logger().Warn("vbo: CallList ignored", "list", name, "err", ErrListNesting)
		return
	}
	c.depth++
	c.executing++
	for _, o := range l.ops {
		c.execute(o)
	}
	c.executing--
	c.depth--
}

// execute runs one recorded command against the immediate path.
func (c *Context) execute(o op) {
	switch o.kind {
	case opNode:
		c.replayer.Replay(c.st, immediate{c}, o.node)
	case opBegin:
		c.exec.Begin(c.st, o.mode)
	case opEnd:
		c.exec.End(c.st)
	case opAttr:
		c.exec.Attr(c.st, o.slot, o.size, o.typ, o.v)
	case opPrimitiveRestart:
		c.exec.PrimitiveRestart(c.st)
	case opEvalCoord:
		c.eval.EvalCoord(c, o.dims, o.u, o.w)
	case opEvalPoint:
		c.eval.EvalPoint(c, o.dims, o.i, o.j)
	case opCallList:
		c.callList(o.list)
	}
}

// record appends a command to the list being compiled after compiling any
// pending vertices, and executes it in CompileAndExecute mode.
func (c *Context) record(o op) {
	c.comp.Flush(c.st)
	c.building.ops = append(c.building.ops, o)
	if c.listMode == gl.CompileAndExecute {
		c.executing++
		c.execute(o)
		c.executing--
	}
}

// onNode receives nodes from the compiler in order. CompileAndExecute
// loops them back so partial primitives execute exactly as recorded.
func (c *Context) onNode(n *save.Node) {
	if c.building == nil {
		n.Release()
		return
	}
	c.building.ops = append(c.building.ops, op{kind: opNode, node: n})
	if c.listMode == gl.CompileAndExecute {
		c.executing++
		c.replayer.Loopback(immediate{c}, n)
		c.executing--
	}
}

// suspend ends vertex compilation of an open Begin/End block. The rest of
// the block up to End is recorded as individual calls.
func (c *Context) suspend() {
	if !c.comp.Inside() {
		return
	}
	mode := c.comp.Mode()
	if !c.comp.Suspend(c.st) {
		c.record(op{kind: opBegin, mode: mode})
	}
	c.suspended = true
}
