package save

import (
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/glstate"
	"github.com/gogpu/vbo/gpucore"
)

// Dispatcher is the immediate-mode entry the loopback path replays through.
type Dispatcher interface {
	Begin(mode gl.Mode)
	End()
	Attr(s attrib.Slot, n int, typ gl.Type, v attrib.Components)
	Inside() bool
	FlushVertices()
}

// ReplayStats counts replayed nodes.
type ReplayStats struct {
	Direct   int
	Loopback int
	Draws    int
}

// Replayer executes compiled nodes.
type Replayer struct {
	Drawer gpucore.Drawer

	stats ReplayStats
}

// Stats returns replay counters.
func (r *Replayer) Stats() ReplayStats { return r.stats }

// Replay executes n. Inside an immediate Begin/End only nodes continuing a
// primitive are legal; they are looped back through d.
func (r *Replayer) Replay(st *glstate.State, d Dispatcher, n *Node) {
	if n == nil || len(n.prims) == 0 || n.arena == nil {
		return
	}
	if d.Inside() {
		if n.prims[0].Begin {
			st.Error(gl.InvalidOperation, "CallList")
			return
		}
		r.Loopback(d, n)
		return
	}
	if n.loopback {
		r.Loopback(d, n)
		return
	}
	r.direct(st, d, n)
}

func (r *Replayer) direct(st *glstate.State, d Dispatcher, n *Node) {
	d.FlushVertices()
	r.stats.Direct++

	view := attrib.ViewFixedFunction
	if st.ShaderActive {
		view = attrib.ViewShader
	}
	va, base := n.View(view)

	if r.Drawer != nil && len(n.draws) > 0 {
		draws := make([]gpucore.Draw, len(n.draws))
		for i, dr := range n.draws {
			dr.BaseVertex = base
			draws[i] = dr
		}
		prev := st.VertexArray
		st.VertexArray = va
		ib := &gpucore.IndexBuffer{Buffer: n.arena.Buffer(), Offset: n.indexOffset}
		if err := r.Drawer.Draw(va, ib, draws); err != nil {
			slogger().Warn("save: replay draw failed", "err", err)
		}
		st.VertexArray = prev
		r.stats.Draws += len(draws)
	}

	if !st.SuppressCurrentUpdate {
		for _, cv := range n.current {
			st.SetCurrent(cv.slot, cv.value)
		}
	}
}

// Loopback re-issues the node's vertices as immediate-mode calls. A
// primitive without Begin continues the open one and skips the vertices
// carried over from the previous node.
func (r *Replayer) Loopback(d Dispatcher, n *Node) {
	if n == nil || n.arena == nil {
		return
	}
	r.stats.Loopback++
	vs := n.layout.VertexSize
	data := decodeWords(nil, n.arena.Bytes(n.vertexOffset, 4*vs*n.vertexCount))
	vertex := func(i int) []uint32 {
		if n.remap != nil {
			i = int(n.remap[i])
		}
		return data[i*vs : (i+1)*vs]
	}

	for _, p := range n.prims {
		start := p.Start
		switch {
		case p.Begin:
			d.Begin(p.Mode)
		case d.Inside():
			start += n.wrapCount
		default:
			d.Begin(p.Mode)
		}
		for i := start; i < p.Start+p.Count && i < n.emitted; i++ {
			v := vertex(i)
			for _, la := range n.loop {
				var c attrib.Components
				w := la.size * la.typ.Words()
				copy(c[:], v[la.offset:la.offset+w])
				d.Attr(la.slot, la.size, la.typ, c)
			}
		}
		if p.End {
			d.End()
		}
	}
}
