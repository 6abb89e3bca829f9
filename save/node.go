package save

import (
	"encoding/binary"
	"slices"

	"github.com/gogpu/vbo/arena"
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/glstate"
	"github.com/gogpu/vbo/gpucore"
	"github.com/gogpu/vbo/internal/dedup"
	"github.com/gogpu/vbo/internal/indices"
	"github.com/gogpu/vbo/prim"
)

// slotValue is one entry of a node's current-value snapshot.
type slotValue struct {
	slot  attrib.Slot
	value attrib.Value
}

// loopAttr locates one attribute of a stored vertex for loopback replay.
type loopAttr struct {
	slot   attrib.Slot
	offset int
	size   int
	typ    gl.Type
}

// Node is one compiled block of a display list. It is immutable once
// compiled and holds a reference on the arena its data lives in.
type Node struct {
	prims     []prim.Prim
	draws     []gpucore.Draw
	layout    attrib.Layout
	current   []slotValue
	loop      []loopAttr
	loopback  bool
	wrapCount int
	// remap maps recorded vertices to stored ones in a deduplicated node.
	remap []uint32

	emitted      int
	vertexCount  int
	indexCount   int
	arena        *arena.Arena
	vertexOffset int
	indexOffset  int
	views        [attrib.NumViews]*gpucore.VertexArray
	base         [attrib.NumViews]int
}

// Prims returns the primitives as recorded, in vertex order.
func (n *Node) Prims() []prim.Prim { return n.prims }

// Draws returns the indexed draws of direct replay.
func (n *Node) Draws() []gpucore.Draw { return n.draws }

// Loopback reports whether the node replays through immediate mode.
func (n *Node) Loopback() bool { return n.loopback }

// WrapCount returns how many leading vertices continue the previous node.
func (n *Node) WrapCount() int { return n.wrapCount }

// Emitted returns the number of vertices recorded into the node.
func (n *Node) Emitted() int { return n.emitted }

// VertexCount returns the number of vertices stored in the arena.
func (n *Node) VertexCount() int { return n.vertexCount }

// IndexCount returns the number of indices stored in the arena.
func (n *Node) IndexCount() int { return n.indexCount }

// Layout returns the vertex layout.
func (n *Node) Layout() *attrib.Layout { return &n.layout }

// View returns the vertex array of view v and its base vertex.
func (n *Node) View(v attrib.View) (*gpucore.VertexArray, int) { return n.views[v], n.base[v] }

// Arena returns the arena holding the node's data.
func (n *Node) Arena() *arena.Arena { return n.arena }

// Indices returns a copy of the node's index data.
func (n *Node) Indices() []uint32 {
	if n.arena == nil || n.indexCount == 0 {
		return nil
	}
	return decodeWords(nil, n.arena.Bytes(n.indexOffset, 4*n.indexCount))
}

// Release drops the node's arena reference.
func (n *Node) Release() {
	if n.arena != nil {
		n.arena.Release()
		n.arena = nil
	}
}

// compile bakes the store into a node. While a primitive is open its
// continuation vertices are left in c.copied.
func (c *Compiler) compile(st *glstate.State) {
	defer func() {
		c.vtx.Reset()
		c.prims.Reset()
		c.dangling = false
		c.wrapCount = 0
	}()

	prims := c.prims.Prims()
	words := c.vtx.Words()
	sz := c.table.VertexSize()
	raw := slices.Clone(prims)

	c.ncopied = 0
	if c.inside && len(prims) > 0 && !prims[len(prims)-1].End {
		if need := prim.MaxCopied * sz; len(c.copied) < need {
			c.copied = make([]uint32, need)
		}
		last := &prims[len(prims)-1]
		lastCount := last.Count
		c.ncopied = prim.CopyVertices(last, c.mode, prim.CopyParams{VertexSize: sz, InList: true}, words, c.copied)
		if last.Begin && c.ncopied == lastCount {
			// The continuation restarts it.
			prims = prims[:len(prims)-1]
			raw = raw[:len(raw)-1]
		}
	}
	// A node without vertices is kept when it closes a continued primitive.
	if len(prims) == 0 || sz == 0 || (c.vtx.Count() == 0 && !prims[len(prims)-1].End) {
		return
	}

	n := &Node{
		prims:     raw,
		layout:    *c.table.Layout(),
		loopback:  c.dangling,
		wrapCount: c.wrapCount,
		emitted:   c.vtx.Count(),
	}
	n.current = c.snapshot()
	n.loop = loopAttrs(&n.layout)

	var verts, idx []uint32
	if n.loopback {
		verts = words
		n.vertexCount = n.emitted
	} else {
		draw := slices.Clone(prims)
		words = c.closeTrailingLoop(draw, words, sz)
		for i := range draw {
			prim.Convert(&draw[i])
		}
		draw = prim.MergeAll(draw, c.mergeParams())

		b := indexBuilder{supported: c.cfg.Caps.SupportedModes}
		verts = words
		n.vertexCount = len(words) / sz
		if c.cfg.Dedup {
			// remap keeps the recorded order for a later loopback replay.
			dd := dedup.New(sz)
			b.remap = make([]uint32, n.vertexCount)
			for i := range b.remap {
				b.remap[i] = dd.Add(words[i*sz : (i+1)*sz])
			}
			n.remap = b.remap
			verts = dd.Words()
			n.vertexCount = dd.Len()
			c.stats.DedupHits += dd.Hits()
		}
		b.build(draw)
		idx = b.out
		n.indexCount = len(idx)
		for _, m := range b.merged {
			n.draws = append(n.draws, gpucore.Draw{Mode: m.Mode, Start: m.Start, Count: m.Count})
		}
	}

	if err := c.pack(n, verts, idx); err != nil {
		c.outOfMemory(st, err)
		return
	}
	c.copyToCurrent()

	c.nodes = append(c.nodes, n)
	c.stats.Nodes++
	c.stats.Vertices += n.emitted
	if n.loopback {
		c.stats.LoopbackNodes++
	}
	slogger().Debug("save: node compiled",
		"prims", len(n.prims), "vertices", n.emitted, "stored", n.vertexCount,
		"indices", n.indexCount, "loopback", n.loopback)
	if c.cfg.OnNode != nil {
		c.cfg.OnNode(n)
	}
}

// closeTrailingLoop draws a LINE_LOOP ending the node as a strip: the loop's
// first vertex is repeated after its last, and a continuation skips the
// first vertex it carries. A complete loop is kept when the drawer has
// native loops.
func (c *Compiler) closeTrailingLoop(draw []prim.Prim, words []uint32, sz int) []uint32 {
	last := &draw[len(draw)-1]
	if last.Mode != gl.LineLoop {
		return words
	}
	if last.Begin && (last.Count < 2 || last.End && c.cfg.Caps.NativeLineLoop()) {
		return words
	}
	if last.End {
		first := words[last.Start*sz : (last.Start+1)*sz]
		words = append(slices.Clip(words), first...)
		last.Count++
	}
	if !last.Begin {
		last.Start++
		last.Count--
	}
	last.Mode = gl.LineStrip
	return words
}

func (c *Compiler) snapshot() []slotValue {
	l := c.table.Layout()
	var out []slotValue
	for s := attrib.Slot(1); s < attrib.NumSlots; s++ {
		if l.Has(s) {
			out = append(out, slotValue{slot: s, value: l.Value(c.table.Scratch(), s)})
		}
	}
	return out
}

// loopAttrs orders the attributes of l for loopback: materials first, the
// position last since it emits the vertex.
func loopAttrs(l *attrib.Layout) []loopAttr {
	var out []loopAttr
	add := func(s attrib.Slot) {
		out = append(out, loopAttr{slot: s, offset: int(l.Offset[s]), size: l.Components(s), typ: l.Type[s]})
	}
	for s := attrib.Slot(0); s < attrib.NumSlots; s++ {
		if l.Has(s) && s.IsMaterial() {
			add(s)
		}
	}
	for s := attrib.Slot(1); s < attrib.NumSlots; s++ {
		if l.Has(s) && !s.IsMaterial() {
			add(s)
		}
	}
	if l.Has(attrib.Pos) {
		add(attrib.Pos)
	}
	return out
}

// pack writes the node's vertices and indices into the current arena,
// starting a new arena when they do not fit. Vertices start at a multiple
// of the stride so nodes with the same layout share a vertex array and
// differ only in base vertex.
func (c *Compiler) pack(n *Node, verts, idx []uint32) error {
	stride := n.layout.ByteStride()
	vb := appendWords(nil, verts)
	ib := appendWords(nil, idx)
	need := stride + len(vb) + len(ib)

	if c.arena == nil || c.arena.Remaining() < need {
		if c.arena != nil {
			c.arena.Release()
			c.arena = nil
		}
		a, err := arena.New(c.cfg.Allocator, max(c.cfg.ArenaSize, need))
		if err != nil {
			return err
		}
		c.arena = a
		c.stats.Arenas++
	}
	a := c.arena

	voff := a.AlignedOffset(stride)
	if err := a.WriteAt(voff, vb); err != nil {
		return err
	}
	ioff := voff + len(vb)
	if len(ib) > 0 {
		var err error
		if _, ioff, err = a.Append(ib, 4); err != nil {
			return err
		}
	}

	a.Retain()
	n.arena = a
	n.vertexOffset = voff
	n.indexOffset = ioff

	for v := attrib.View(0); v < attrib.View(attrib.NumViews); v++ {
		key := vaoKey{arena: a, layout: n.layout, view: v}
		va, ok := c.vaos.Get(key)
		if !ok || voff < va.Offset || (voff-va.Offset)%stride != 0 {
			va = gpucore.NewVertexArray(a.Buffer(), voff, &n.layout, v)
			c.vaos.Set(key, va)
		}
		n.views[v] = va
		n.base[v] = (voff - va.Offset) / stride
	}
	return nil
}

// indexBuilder turns merged primitives into one index list. Modes the
// drawer lacks are lowered, line strips next to lines become lines and
// consecutive triangle strips are joined with degenerate triangles.
// Primitives too short to draw anything are dropped.
type indexBuilder struct {
	supported gl.ModeMask
	remap     []uint32

	out    []uint32
	merged []prim.Prim
}

func (b *indexBuilder) add(v uint32) uint32 {
	if b.remap == nil {
		return v
	}
	return b.remap[v]
}

func joinable(m gl.Mode) bool {
	switch m {
	case gl.LineLoop, gl.TriangleFan, gl.QuadStrip, gl.Polygon, gl.Patches,
		gl.LineStripAdjacency, gl.TriangleStripAdjacency:
		return false
	}
	return true
}

func isLineMode(m gl.Mode) bool { return m == gl.Lines || m == gl.LineStrip }

func (b *indexBuilder) build(prims []prim.Prim) {
	for i, p := range prims {
		if p.Count <= 0 {
			continue
		}
		mode := p.Mode
		src := indices.Identity(nil, p.Start, p.Count)
		if mode == gl.LineLoop && !p.Begin {
			// A split loop continuing from an earlier node: its first vertex
			// is carried at p.Start and closes the loop.
			src = append(indices.Identity(nil, p.Start+1, p.Count-1), uint32(p.Start))
			mode = gl.LineStrip
		}
		n := len(src)
		if n < prim.MinVertices(mode) {
			// Padding with the last vertex would only add degenerate
			// primitives, so nothing is drawn for it.
			continue
		}

		target := mode
		if mode == gl.LineStrip {
			target = gl.Lines
		}
		var seq []uint32
		converted := false
		if !b.supported.Has(target) && !(mode == gl.LineStrip && b.supported.Has(mode)) {
			out, ok := indices.Target(b.supported, mode)
			if !ok {
				slogger().Warn("save: primitive mode cannot be drawn", "mode", mode)
				continue
			}
			seq = indices.Lower(nil, mode, 0, n)
			if len(seq) == 0 {
				continue
			}
			target, converted = out, true
		}

		last := len(b.merged) - 1
		merge := last >= 0 && target == b.merged[last].Mode && joinable(target)

		if merge && target == gl.TriangleStrip {
			tris := b.merged[last].Count - 2
			first := b.add(src[0])
			b.out = append(b.out, b.out[len(b.out)-1], first)
			b.merged[last].Count += 2
			if tris%2 != 0 {
				b.out = append(b.out, first)
				b.merged[last].Count++
			}
		}

		start := len(b.out)
		asLines := mode == gl.LineStrip && !converted && b.supported.Has(gl.Lines) &&
			(merge || !b.supported.Has(gl.LineStrip) ||
				(i+1 < len(prims) && isLineMode(prims[i+1].Mode)))
		switch {
		case converted:
			for _, k := range seq {
				b.out = append(b.out, b.add(src[k]))
			}
		case asLines:
			for j := 0; j < n; j++ {
				v := b.add(src[j])
				b.out = append(b.out, v)
				if j != 0 && j != n-1 {
					b.out = append(b.out, v)
				}
			}
			target = gl.Lines
		default:
			target = mode
			merge = merge && target == b.merged[last].Mode
			for j := 0; j < n; j++ {
				b.out = append(b.out, b.add(src[j]))
			}
		}

		k := len(b.out) - start
		if per := prim.Independent(target, 0); per > 1 && k > per && k%per != 0 {
			b.out = b.out[:len(b.out)-k%per]
			k -= k % per
		}

		if merge {
			b.merged[last].Count += k
			b.merged[last].End = p.End
			continue
		}
		b.merged = append(b.merged, prim.Prim{Mode: target, Start: start, Count: k, Begin: p.Begin, End: p.End})
	}
}

func appendWords(dst []byte, words []uint32) []byte {
	for _, w := range words {
		dst = binary.LittleEndian.AppendUint32(dst, w)
	}
	return dst
}

func decodeWords(dst []uint32, b []byte) []uint32 {
	for i := 0; i+4 <= len(b); i += 4 {
		dst = append(dst, binary.LittleEndian.Uint32(b[i:]))
	}
	return dst
}
