package prim

import "github.com/gogpu/vbo/gl"

// MaxCopied is the largest number of vertices CopyVertices returns.
const MaxCopied = 3

// CopyParams describes the store being wrapped.
type CopyParams struct {
	VertexSize    int
	PatchVertices int
	InList        bool
}

// CopyVertices copies into dst the trailing vertices of p that the next
// buffer segment needs to continue the open primitive of the given mode,
// and returns how many were copied. src holds the whole store.
//
// For TRIANGLE_STRIP the drawn count is reduced to an even number so both
// segments keep the same facing. p must still cover every vertex recorded
// for the segment: a LINE_LOOP continuation starts with the loop's first
// vertex, which is carried along until End closes the loop.
func CopyVertices(p *Prim, mode gl.Mode, cp CopyParams, src, dst []uint32) int {
	count := p.Count
	sz := cp.VertexSize
	vertex := func(i int) []uint32 { return src[i*sz : (i+1)*sz] }

	var n int
	switch mode {
	case gl.Points:
		return 0
	case gl.Lines:
		n = count % 2
	case gl.Triangles:
		n = count % 3
	case gl.Quads, gl.LinesAdjacency:
		n = count % 4
	case gl.TrianglesAdjacency:
		n = count % 6
	case gl.LineStrip:
		n = min(1, count)
	case gl.LineStripAdjacency:
		n = min(3, count)
	case gl.Patches:
		pv := cp.PatchVertices
		if cp.InList || pv <= 0 {
			pv = 3
		}
		n = count % pv
	case gl.LineLoop, gl.TriangleFan, gl.Polygon:
		switch count {
		case 0:
			return 0
		case 1:
			copy(dst, vertex(p.Start))
			return 1
		}
		copy(dst, vertex(p.Start))
		copy(dst[sz:], vertex(p.Start+count-1))
		return 2
	case gl.TriangleStrip, gl.QuadStrip:
		if mode == gl.TriangleStrip {
			p.Count -= count % 2
		}
		if count <= 1 {
			n = count
		} else {
			n = 2 + count%2
		}
	default:
		// TRIANGLE_STRIP_ADJACENCY is never split.
		return 0
	}

	from := (p.Start + count - n) * sz
	copy(dst, src[from:from+n*sz])
	return n
}
