// Package prim describes recorded primitives and the rules shared by the
// immediate accumulator and the display-list compiler: how many vertices
// survive a buffer wrap, when two primitives can be merged and which short
// primitives can be rewritten as independent ones.
package prim

import (
	"fmt"

	"github.com/gogpu/vbo/gl"
)

// Prim is one recorded primitive. Start and Count are vertex indices into
// the store that recorded it. Begin is false when the primitive continues
// one split by a buffer wrap; End is false when it is continued by the next
// segment.
type Prim struct {
	Mode       gl.Mode
	Start      int
	Count      int
	Begin      bool
	End        bool
	BaseVertex int
}

func (p Prim) String() string {
	return fmt.Sprintf("{%v start=%d count=%d begin=%t end=%t}", p.Mode, p.Start, p.Count, p.Begin, p.End)
}

// MinVertices returns the smallest vertex count that draws anything.
func MinVertices(mode gl.Mode) int {
	switch mode {
	case gl.Points:
		return 1
	case gl.Lines, gl.LineLoop, gl.LineStrip:
		return 2
	case gl.Triangles, gl.TriangleStrip, gl.TriangleFan, gl.Polygon:
		return 3
	case gl.Quads, gl.QuadStrip, gl.LinesAdjacency, gl.LineStripAdjacency:
		return 4
	case gl.TrianglesAdjacency, gl.TriangleStripAdjacency:
		return 6
	}
	return 0
}

// Independent returns the vertex count of one primitive for modes whose
// primitives share no vertices, or 0 for connected modes.
func Independent(mode gl.Mode, patchVertices int) int {
	switch mode {
	case gl.Points:
		return 1
	case gl.Lines:
		return 2
	case gl.Triangles:
		return 3
	case gl.Quads, gl.LinesAdjacency:
		return 4
	case gl.TrianglesAdjacency:
		return 6
	case gl.Patches:
		return patchVertices
	}
	return 0
}

// IsLine reports whether mode rasterizes lines.
func IsLine(mode gl.Mode) bool {
	switch mode {
	case gl.Lines, gl.LineLoop, gl.LineStrip, gl.LinesAdjacency, gl.LineStripAdjacency:
		return true
	}
	return false
}

// Convert rewrites short connected primitives as independent ones so they
// can merge with neighbours: a 2-vertex line strip becomes LINES, a
// 3-vertex strip, fan or polygon becomes TRIANGLES and an unsplit 4-vertex
// polygon becomes QUADS.
func Convert(p *Prim) {
	switch {
	case p.Mode == gl.LineStrip && p.Count == 2:
		p.Mode = gl.Lines
	case (p.Mode == gl.TriangleStrip || p.Mode == gl.TriangleFan || p.Mode == gl.Polygon) && p.Count == 3:
		p.Mode = gl.Triangles
	case p.Mode == gl.Polygon && p.Count == 4 && p.Begin && p.End:
		p.Mode = gl.Quads
	}
}

// MergeParams carries the state that decides whether primitives merge.
type MergeParams struct {
	// LineStipple is the current line stipple enable.
	LineStipple bool

	// InList is set while compiling a display list, where the stipple
	// state at replay time is unknown.
	InList bool

	// PatchVertices is the current patch size. Unknown inside lists.
	PatchVertices int
}

// CanMerge reports whether b can be appended to a.
func CanMerge(a, b *Prim, mp MergeParams) bool {
	if a.Mode != b.Mode {
		return false
	}
	if a.Start+a.Count != b.Start {
		return false
	}
	if IsLine(a.Mode) && (mp.InList || mp.LineStipple) && (a.End || b.Begin) {
		// Separate primitives restart the stipple pattern.
		return false
	}
	if a.BaseVertex != b.BaseVertex {
		return false
	}
	if a.Mode == gl.Points {
		return true
	}
	if a.Mode == gl.Patches && mp.InList {
		return false
	}
	n := Independent(a.Mode, mp.PatchVertices)
	if n == 0 {
		return false
	}
	return a.Count%n == 0 && b.Count%n == 0
}

// TryMerge appends b to a when CanMerge allows it.
func TryMerge(a *Prim, b *Prim, mp MergeParams) bool {
	if !CanMerge(a, b, mp) {
		return false
	}
	a.Count += b.Count
	a.End = b.End
	return true
}

// MergeAll merges every run of mergeable primitives in place and returns
// the shortened slice.
func MergeAll(prims []Prim, mp MergeParams) []Prim {
	if len(prims) == 0 {
		return prims
	}
	out := prims[:1]
	for i := 1; i < len(prims); i++ {
		p := prims[i]
		if TryMerge(&out[len(out)-1], &p, mp) {
			continue
		}
		out = append(out, p)
	}
	return out
}
