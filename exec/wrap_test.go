package exec

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/backend/capture"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/gpucore"
)

type callKind int

const (
	callBegin callKind = iota
	callEnd
	callColor
	callVertex
)

// call is one accumulator call of a Begin/End block.
type call struct {
	kind callKind
	mode gl.Mode
	v    [3]float32
}

func beginCall(mode gl.Mode) call    { return call{kind: callBegin, mode: mode} }
func endCall() call                  { return call{kind: callEnd} }
func colorCall(r, g, b float32) call { return call{kind: callColor, v: [3]float32{r, g, b}} }
func vertexCall(x, y float32) call   { return call{kind: callVertex, v: [3]float32{x, y, 0}} }

// loop is Begin(mode), a vertex (x, x*x) per x, End.
func loop(mode gl.Mode, xs ...float32) []call {
	out := []call{beginCall(mode)}
	for _, x := range xs {
		out = append(out, vertexCall(x, x*x))
	}
	return append(out, endCall())
}

func (h *harness) run(calls []call) []string {
	for _, c := range calls {
		switch c.kind {
		case callBegin:
			h.acc.Begin(h.st, c.mode)
		case callEnd:
			h.acc.End(h.st)
		case callColor:
			h.acc.Attr(h.st, attrib.Color0, 3, gl.Float, attrib.Floats(c.v[0], c.v[1], c.v[2]))
		case callVertex:
			h.vertex(c.v[0], c.v[1], c.v[2])
		}
	}
	h.flush()
	return visible(h.b.Primitives())
}

// visible renders the primitives that cover pixels.
func visible(prims []capture.Primitive) []string {
	var kept []capture.Primitive
	for _, p := range prims {
		degenerate := false
		for i := range p.Vertices {
			for j := i + 1; j < len(p.Vertices); j++ {
				degenerate = degenerate || p.Vertices[i].Pos() == p.Vertices[j].Pos()
			}
		}
		if !degenerate {
			kept = append(kept, p)
		}
	}
	return positions(kept)
}

func TestLineLoopSplit(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		calls []call
	}{
		{"after strip with two carried", 60, append(loop(gl.LineStrip, 1, 2, 3), loop(gl.LineLoop, 4, 5, 6)...)},
		{"after strip with one carried", 60, append(loop(gl.LineStrip, 1, 2, 3, 4), loop(gl.LineLoop, 5, 6, 7)...)},
		{"split twice", 48, loop(gl.LineLoop, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)},
		{"color mid loop", 60, []call{
			beginCall(gl.LineLoop), vertexCall(1, 1), vertexCall(2, 4), vertexCall(3, 9), vertexCall(4, 16), vertexCall(5, 25),
			colorCall(2, 0, 1), vertexCall(6, 36), vertexCall(7, 49), vertexCall(8, 64), vertexCall(9, 81), endCall(),
		}},
		{"color at loop start", 60, append(loop(gl.Lines, 1, 2, 3), []call{
			beginCall(gl.LineLoop), colorCall(1, 0, 0), vertexCall(4, 16), vertexCall(5, 25), vertexCall(6, 36), endCall(),
		}...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := newHarness(t, 0, gpucore.DefaultCaps()).run(tt.calls)
			h := newHarness(t, tt.size, gpucore.DefaultCaps())
			got := h.run(tt.calls)
			if h.acc.Stats().Wraps+h.acc.Stats().Upgrades == 0 {
				t.Fatalf("no wrap at %d vertices", h.acc.MaxVertices())
			}
			if fmt.Sprint(got) != fmt.Sprint(want) {
				t.Errorf("drew\n got %v\nwant %v", got, want)
			}
		})
	}
}

// randomCalls builds a reproducible sequence of Begin/End blocks with
// colors changing between vertices. Vertex x coordinates are unique.
func randomCalls(seed int64) []call {
	modes := []gl.Mode{
		gl.Points, gl.Lines, gl.LineStrip, gl.LineLoop, gl.Triangles,
		gl.TriangleStrip, gl.TriangleFan, gl.Quads, gl.QuadStrip, gl.Polygon,
	}
	rng := rand.New(rand.NewSource(seed))
	var out []call
	x := 0
	for b := 0; b < 8; b++ {
		mode := modes[rng.Intn(len(modes))]
		n := rng.Intn(12)
		if mode == gl.Polygon && n == 4 {
			// Unsplit 4-vertex polygons are drawn as quads, which pick
			// the other diagonal.
			n = 5
		}
		out = append(out, beginCall(mode))
		for i := 0; i < n; i++ {
			if rng.Intn(4) == 0 {
				out = append(out, colorCall(float32(rng.Intn(3)), float32(rng.Intn(3)), 1))
			}
			out = append(out, vertexCall(float32(x), float32(x*x%11)))
			x++
		}
		out = append(out, endCall())
	}
	return out
}

func TestRandomWrapsMatchUnbounded(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		calls := randomCalls(seed)
		want := newHarness(t, 0, gpucore.DefaultCaps()).run(calls)
		for _, size := range []int{48, 60, 84, 120} {
			t.Run(fmt.Sprintf("seed=%d/size=%d", seed, size), func(t *testing.T) {
				got := newHarness(t, size, gpucore.DefaultCaps()).run(calls)
				if fmt.Sprint(got) != fmt.Sprint(want) {
					t.Errorf("drew\n got %v\nwant %v", got, want)
				}
			})
		}
	}
}
