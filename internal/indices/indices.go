// Package indices generates 32-bit index lists that express a primitive in
// a set of modes the draw collaborator supports.
//
// Generated triangles and lines keep the provoking vertex of the source
// primitive in last position and preserve winding.
package indices

import "github.com/gogpu/vbo/gl"

// Target returns the mode that mode lowers to under supported, and whether
// lowering is possible. Supported modes map to themselves.
func Target(supported gl.ModeMask, mode gl.Mode) (gl.Mode, bool) {
	if supported.Has(mode) {
		return mode, true
	}
	switch mode {
	case gl.LineLoop, gl.LineStrip, gl.LinesAdjacency, gl.LineStripAdjacency:
		return gl.Lines, supported.Has(gl.Lines)
	case gl.TriangleStrip, gl.TriangleFan, gl.Quads, gl.QuadStrip, gl.Polygon,
		gl.TrianglesAdjacency, gl.TriangleStripAdjacency:
		return gl.Triangles, supported.Has(gl.Triangles)
	}
	return mode, false
}

// Generate appends to dst the indices drawing count vertices from start in
// mode, lowered to a supported mode. It returns the output mode and the
// extended slice. Incomplete trailing primitives are dropped.
func Generate(dst []uint32, supported gl.ModeMask, mode gl.Mode, start, count int) (gl.Mode, []uint32, bool) {
	out, ok := Target(supported, mode)
	if !ok {
		return mode, dst, false
	}
	if out == mode {
		return mode, Identity(dst, start, count), true
	}
	return out, Lower(dst, mode, start, count), true
}

// Identity appends start..start+count-1.
func Identity(dst []uint32, start, count int) []uint32 {
	for i := 0; i < count; i++ {
		dst = append(dst, uint32(start+i))
	}
	return dst
}

// Lower appends the LINES or TRIANGLES decomposition of mode.
func Lower(dst []uint32, mode gl.Mode, start, count int) []uint32 {
	v := func(i int) uint32 { return uint32(start + i) }
	switch mode {
	case gl.Lines:
		return Identity(dst, start, count-count%2)
	case gl.Triangles:
		return Identity(dst, start, count-count%3)
	case gl.LineStrip:
		for i := 0; i+1 < count; i++ {
			dst = append(dst, v(i), v(i+1))
		}
	case gl.LineLoop:
		if count < 2 {
			return dst
		}
		for i := 0; i+1 < count; i++ {
			dst = append(dst, v(i), v(i+1))
		}
		dst = append(dst, v(count-1), v(0))
	case gl.LinesAdjacency:
		for i := 0; i+3 < count; i += 4 {
			dst = append(dst, v(i+1), v(i+2))
		}
	case gl.LineStripAdjacency:
		for i := 0; i+3 < count; i++ {
			dst = append(dst, v(i+1), v(i+2))
		}
	case gl.TriangleStrip:
		for i := 0; i+2 < count; i++ {
			if i%2 == 0 {
				dst = append(dst, v(i), v(i+1), v(i+2))
			} else {
				dst = append(dst, v(i+1), v(i), v(i+2))
			}
		}
	case gl.TriangleFan:
		for i := 0; i+2 < count; i++ {
			dst = append(dst, v(0), v(i+1), v(i+2))
		}
	case gl.Polygon:
		for i := 0; i+2 < count; i++ {
			dst = append(dst, v(i+1), v(i+2), v(0))
		}
	case gl.Quads:
		for i := 0; i+3 < count; i += 4 {
			dst = append(dst, v(i), v(i+1), v(i+3), v(i+1), v(i+2), v(i+3))
		}
	case gl.QuadStrip:
		for i := 0; i+3 < count; i += 2 {
			dst = append(dst, v(i+2), v(i), v(i+3), v(i), v(i+1), v(i+3))
		}
	case gl.TrianglesAdjacency:
		for i := 0; i+5 < count; i += 6 {
			dst = append(dst, v(i), v(i+2), v(i+4))
		}
	case gl.TriangleStripAdjacency:
		for i := 0; 2*i+4 < count; i++ {
			if i%2 == 0 {
				dst = append(dst, v(2*i), v(2*i+2), v(2*i+4))
			} else {
				dst = append(dst, v(2*i+2), v(2*i), v(2*i+4))
			}
		}
	default:
		return Identity(dst, start, count)
	}
	return dst
}

// Assemble expands a draw of n vertices in mode into independent points,
// lines or triangles, each returned as positions within the draw.
func Assemble(mode gl.Mode, n int) (gl.Mode, [][]int) {
	var flat []uint32
	out := mode
	switch mode {
	case gl.Points:
		flat = Identity(nil, 0, n)
	case gl.Lines, gl.LineStrip, gl.LineLoop, gl.LinesAdjacency, gl.LineStripAdjacency:
		out = gl.Lines
		flat = Lower(nil, mode, 0, n)
	case gl.Patches:
		flat = Identity(nil, 0, n)
	default:
		out = gl.Triangles
		flat = Lower(nil, mode, 0, n)
	}
	per := 1
	switch out {
	case gl.Lines:
		per = 2
	case gl.Triangles:
		per = 3
	}
	prims := make([][]int, 0, len(flat)/per)
	for i := 0; i+per <= len(flat); i += per {
		p := make([]int, per)
		for j := range p {
			p[j] = int(flat[i+j])
		}
		prims = append(prims, p)
	}
	return out, prims
}
