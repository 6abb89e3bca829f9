package exec

import (
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/glstate"
	"github.com/gogpu/vbo/gpucore"
	"github.com/gogpu/vbo/internal/indices"
	"github.com/gogpu/vbo/prim"
)

// wrap draws the full store and restarts it with the vertices the open
// primitive still needs.
func (a *Accumulator) wrap(st *glstate.State) {
	a.stats.Wraps++
	a.wrapBuffers(st)
	if a.oom {
		return
	}
	sz := a.table.VertexSize()
	for i := 0; i < a.ncopied; i++ {
		if err := a.vtx.Append(a.copied[i*sz : (i+1)*sz]); err != nil {
			a.outOfMemory(st, err)
			return
		}
	}
	a.ncopied = 0
}

// wrapBuffers closes the open primitive at the current vertex, draws the
// store and opens a continuation primitive. The vertices to carry over are
// left in a.copied.
//
// When every vertex of the open primitive is carried over, nothing of it
// is drawn and the continuation restarts it with Begin set.
func (a *Accumulator) wrapBuffers(st *glstate.State) {
	last := a.prims.Last()
	if last == nil {
		a.vtx.Reset()
		a.ncopied = 0
		return
	}

	a.ncopied = 0
	if !a.inside {
		a.flushDraw(st)
		return
	}

	last.Count = a.vtx.Count() - last.Start
	last.End = false
	lastBegin, lastCount := last.Begin, last.Count
	a.copyVertices(st, last)

	restart := lastBegin && a.ncopied == lastCount
	switch {
	case restart:
		a.prims.DropLast()
	case last.Mode == gl.LineLoop:
		// Drawn as a strip and closed at End. A continuation skips the
		// loop's first vertex, which it only carries.
		last.Mode = gl.LineStrip
		if !last.Begin {
			last.Start++
			last.Count--
		}
	}

	if a.prims.Len() > 0 && a.vtx.Count() > 0 {
		a.draw(st)
	}
	a.prims.Reset()
	a.vtx.Reset()

	p := a.prims.Begin(a.mode, 0)
	p.Begin = restart
}

// copyVertices saves the trailing vertices the open primitive p needs in
// the next segment to a.copied.
func (a *Accumulator) copyVertices(st *glstate.State, p *prim.Prim) {
	cp := prim.CopyParams{VertexSize: a.table.VertexSize(), PatchVertices: st.PatchVertices}
	if need := prim.MaxCopied * cp.VertexSize; len(a.copied) < need {
		a.copied = make([]uint32, need)
	}
	a.ncopied = prim.CopyVertices(p, a.mode, cp, a.vtx.Words(), a.copied)
}

// wrapUpgradeVertex grows slot s to size words of typ. Stored vertices are
// drawn first and the ones the open primitive still needs are converted to
// the new layout.
func (a *Accumulator) wrapUpgradeVertex(st *glstate.State, s attrib.Slot, size int, typ gl.Type) {
	lastCount := a.vtx.Count()
	oldSize := a.table.Slot(s).Size

	if a.growing {
		a.holdAll()
	} else {
		a.wrapBuffers(st)
		if a.oom {
			return
		}
	}

	// Keep attributes set outside Begin/End out of the vertex.
	if !a.inside && oldSize == 0 && lastCount > 8 && a.table.VertexSize() > 0 {
		a.copyToCurrent(st)
		a.resetAllAttr()
	}

	old := a.table.Resize(s, size, typ)
	a.table.SetActiveSize(s, size)
	a.vtx.SetVertexSize(a.table.VertexSize())
	a.updateMaxVert()
	a.stats.Upgrades++

	if a.ncopied == 0 {
		return
	}
	fill := func(s attrib.Slot, dst []uint32) {
		cur := st.Current(s)
		copy(dst, cur.Words[:len(dst)])
	}
	osz := old.VertexSize
	dst := a.remap[:a.table.VertexSize()]
	for i := 0; i < a.ncopied; i++ {
		attrib.Remap(dst, a.table.Layout(), a.copied[i*osz:(i+1)*osz], &old, fill)
		if err := a.vtx.Append(dst); err != nil {
			a.outOfMemory(st, err)
			return
		}
	}
	a.ncopied = 0
}

// holdAll moves every stored vertex to the copy buffer without drawing.
// Used for modes that grow rather than wrap.
func (a *Accumulator) holdAll() {
	a.copied = append(a.copied[:0], a.vtx.Words()...)
	a.copied = a.copied[:cap(a.copied)]
	a.ncopied = a.vtx.Count()
	a.vtx.Reset()
}

// flushDraw submits the stored primitives and empties the store.
func (a *Accumulator) flushDraw(st *glstate.State) {
	if a.prims.Len() > 0 && a.vtx.Count() > 0 {
		a.draw(st)
	}
	a.prims.Reset()
	a.vtx.Reset()
}

// draw uploads the store and hands the primitives to the drawer. Modes the
// drawer lacks are lowered to indexed draws.
func (a *Accumulator) draw(st *glstate.State) {
	if a.cfg.Drawer == nil {
		return
	}
	supported := a.cfg.Caps.SupportedModes
	prims := a.prims.Prims()

	indexed := false
	for _, p := range prims {
		if p.Count > 0 && !supported.Has(p.Mode) {
			indexed = true
			break
		}
	}

	var draws []gpucore.Draw
	a.index = a.index[:0]
	for _, p := range prims {
		if p.Count <= 0 {
			continue
		}
		if !indexed {
			draws = append(draws, gpucore.Draw{Mode: p.Mode, Start: p.Start, Count: p.Count})
			continue
		}
		start := len(a.index)
		mode, idx, ok := indices.Generate(a.index, supported, p.Mode, p.Start, p.Count)
		if !ok {
			slogger().Warn("exec: primitive mode cannot be drawn", "mode", p.Mode)
			continue
		}
		a.index = idx
		if n := len(a.index) - start; n > 0 {
			draws = append(draws, gpucore.Draw{Mode: mode, Start: start, Count: n})
		}
	}
	if len(draws) == 0 {
		return
	}

	a.bytes = appendWords(a.bytes[:0], a.vtx.Words())
	vertexBytes := len(a.bytes)
	a.bytes = appendWords(a.bytes, a.index)
	off, err := a.stream.upload(a, a.bytes)
	if err != nil {
		a.outOfMemory(st, err)
		return
	}

	view := attrib.ViewFixedFunction
	if st.ShaderActive {
		view = attrib.ViewShader
	}
	va := gpucore.NewVertexArray(a.stream.id, off, a.table.Layout(), view)
	var ib *gpucore.IndexBuffer
	if indexed {
		ib = &gpucore.IndexBuffer{Buffer: a.stream.id, Offset: off + vertexBytes}
	}

	a.stats.Flushes++
	a.stats.Draws += len(draws)
	a.stats.Vertices += a.vtx.Count()
	if err := a.cfg.Drawer.Draw(va, ib, draws); err != nil {
		slogger().Warn("exec: draw failed", "err", err)
	}
}
