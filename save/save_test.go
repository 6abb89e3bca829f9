package save

import (
	"fmt"
	"testing"

	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/backend/capture"
	"github.com/gogpu/vbo/exec"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/glstate"
	"github.com/gogpu/vbo/gpucore"
)

// execDispatcher loops nodes back into an immediate-mode accumulator.
type execDispatcher struct {
	acc *exec.Accumulator
	st  *glstate.State
}

func (d execDispatcher) Begin(mode gl.Mode) { d.acc.Begin(d.st, mode) }
func (d execDispatcher) End()               { d.acc.End(d.st) }
func (d execDispatcher) Inside() bool       { return d.acc.Inside() }
func (d execDispatcher) FlushVertices()     { d.acc.FlushVertices(d.st, exec.FlushStoredVertices) }

func (d execDispatcher) Attr(s attrib.Slot, n int, typ gl.Type, v attrib.Components) {
	d.acc.Attr(d.st, s, n, typ, v)
}

type harness struct {
	c  *Compiler
	b  *capture.Backend
	st *glstate.State
	d  execDispatcher
	r  *Replayer
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	if cfg.Caps.SupportedModes == 0 {
		cfg.Caps = gpucore.DefaultCaps()
	}
	b := capture.New(capture.WithCaps(cfg.Caps))
	cfg.Allocator = b
	c, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	st := glstate.New()
	acc, err := exec.New(exec.Config{Allocator: b, Drawer: b, Caps: cfg.Caps})
	if err != nil {
		t.Fatal(err)
	}
	return &harness{c: c, b: b, st: st, d: execDispatcher{acc: acc, st: st}, r: &Replayer{Drawer: b}}
}

func (h *harness) vertex(x, y float32) {
	h.c.Attr(h.st, attrib.Pos, 3, gl.Float, attrib.Floats(x, y, 0))
}

func (h *harness) color(r, g, b float32) {
	h.c.Attr(h.st, attrib.Color0, 3, gl.Float, attrib.Floats(r, g, b))
}

func (h *harness) replay(nodes []*Node) {
	for _, n := range nodes {
		h.r.Replay(h.st, h.d, n)
	}
	h.d.FlushVertices()
}

// positions renders primitives for comparison. Triangles are rotated to
// start at their lowest x.
func positions(prims []capture.Primitive) []string {
	out := make([]string, len(prims))
	for i, p := range prims {
		first := 0
		if p.Mode == gl.Triangles {
			for j, v := range p.Vertices {
				if v.Pos()[0] < p.Vertices[first].Pos()[0] {
					first = j
				}
			}
		}
		s := p.Mode.String()
		for j := range p.Vertices {
			pos := p.Vertices[(first+j)%len(p.Vertices)].Pos()
			s += fmt.Sprintf(" (%g,%g)", pos[0], pos[1])
		}
		out[i] = s
	}
	return out
}

func TestNewRequiresAllocator(t *testing.T) {
	if _, err := New(Config{}); err != ErrNoAllocator {
		t.Errorf("New() error = %v, want ErrNoAllocator", err)
	}
}

func TestDedupIsTransparent(t *testing.T) {
	quad := [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 0}, {1, 1}, {0, 1}}
	record := func(h *harness) []*Node {
		h.c.NewList()
		h.c.Begin(h.st, gl.Triangles)
		for _, v := range quad {
			h.vertex(v[0], v[1])
		}
		h.c.End(h.st)
		return h.c.EndList(h.st)
	}

	plain := newHarness(t, Config{})
	plainNodes := record(plain)
	plain.replay(plainNodes)

	h := newHarness(t, Config{Dedup: true})
	nodes := record(h)
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	n := nodes[0]
	if n.IndexCount() != 6 {
		t.Errorf("IndexCount() = %d, want 6", n.IndexCount())
	}
	if n.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4", n.VertexCount())
	}
	if hits := h.c.Stats().DedupHits; hits != 2 {
		t.Errorf("DedupHits = %d, want 2", hits)
	}
	h.replay(nodes)

	got, want := positions(h.b.Primitives()), positions(plain.b.Primitives())
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("deduplicated replay = %v, want %v", got, want)
	}
}

func TestLineLoopClosedInList(t *testing.T) {
	h := newHarness(t, Config{})
	h.c.NewList()
	h.c.Begin(h.st, gl.LineLoop)
	for _, v := range [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		h.vertex(v[0], v[1])
	}
	h.c.End(h.st)
	h.replay(h.c.EndList(h.st))

	got := positions(h.b.Primitives())
	want := []string{
		"LINES (0,0) (1,0)",
		"LINES (1,0) (1,1)",
		"LINES (1,1) (0,1)",
		"LINES (0,1) (0,0)",
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("loop = %v, want %v", got, want)
	}
}

func TestSplitPrimitivesMatchImmediate(t *testing.T) {
	modes := []gl.Mode{
		gl.Lines, gl.LineStrip, gl.LineLoop, gl.Triangles, gl.TriangleStrip,
		gl.TriangleFan, gl.Quads, gl.QuadStrip, gl.Polygon, gl.Points,
	}
	const n = 13
	for _, mode := range modes {
		ref := newHarness(t, Config{})
		ref.d.Begin(mode)
		for i := 0; i < n; i++ {
			ref.d.Attr(attrib.Pos, 3, gl.Float, attrib.Floats(float32(i), float32(i*i%7), 0))
		}
		ref.d.End()
		ref.d.FlushVertices()
		want := positions(ref.b.Primitives())

		for _, k := range []int{4, 5, 7} {
			t.Run(fmt.Sprintf("%v/%d", mode, k), func(t *testing.T) {
				h := newHarness(t, Config{StoreSize: k * 12})
				h.c.NewList()
				h.c.Begin(h.st, mode)
				for i := 0; i < n; i++ {
					h.vertex(float32(i), float32(i*i%7))
				}
				h.c.End(h.st)
				nodes := h.c.EndList(h.st)
				if len(nodes) < 2 {
					t.Fatalf("got %d nodes, want a split", len(nodes))
				}
				for i, nd := range nodes {
					if nd.Loopback() {
						t.Errorf("node %d is loopback", i)
					}
				}
				h.replay(nodes)
				got := positions(h.b.Primitives())
				if fmt.Sprint(got) != fmt.Sprint(want) {
					t.Errorf("replay\n got %v\nwant %v", got, want)
				}
			})
		}
	}
}

func TestDanglingAttributeLoopsBack(t *testing.T) {
	h := newHarness(t, Config{})
	h.c.NewList()
	h.c.Begin(h.st, gl.Triangles)
	for i := 0; i < 4; i++ {
		h.vertex(float32(i), 0)
	}
	h.color(1, 0, 0)
	h.vertex(4, 0)
	h.vertex(5, 0)
	h.c.End(h.st)
	nodes := h.c.EndList(h.st)

	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
	for i, n := range nodes {
		if !n.Loopback() {
			t.Errorf("node %d not loopback", i)
		}
	}
	if nodes[1].WrapCount() != 1 {
		t.Errorf("WrapCount() = %d, want 1", nodes[1].WrapCount())
	}

	green := attrib.Value{Size: 3, Type: gl.Float, Words: attrib.Floats(0, 1, 0, 1)}
	h.st.SetCurrent(attrib.Color0, green)
	h.replay(nodes)

	prims := h.b.Primitives()
	if len(prims) != 2 {
		t.Fatalf("got %d primitives, want 2", len(prims))
	}
	tri := prims[1].Vertices
	if c := tri[0].Attr(int(attrib.Color0)); [4]float32(c) != [4]float32{0, 1, 0, 1} {
		t.Errorf("carried vertex color = %v, want current green", c)
	}
	if c := tri[1].Attr(int(attrib.Color0)); [4]float32(c) != [4]float32{1, 0, 0, 1} {
		t.Errorf("recorded vertex color = %v, want red", c)
	}
}

func TestKnownAttributeStaysDirect(t *testing.T) {
	h := newHarness(t, Config{})
	h.c.NewList()
	h.c.SetCurrent(attrib.Color0, attrib.Value{Size: 3, Type: gl.Float, Words: attrib.Floats(0, 0, 1, 1)})
	h.c.Begin(h.st, gl.Triangles)
	for i := 0; i < 4; i++ {
		h.vertex(float32(i), 0)
	}
	h.color(1, 0, 0)
	h.vertex(4, 0)
	h.vertex(5, 0)
	h.c.End(h.st)
	for i, n := range h.c.EndList(h.st) {
		if n.Loopback() {
			t.Errorf("node %d is loopback", i)
		}
	}
}

func TestEndListInsideBegin(t *testing.T) {
	h := newHarness(t, Config{})
	h.c.NewList()
	h.c.Begin(h.st, gl.Lines)
	h.vertex(0, 0)
	h.vertex(1, 0)
	nodes := h.c.EndList(h.st)
	if len(nodes) != 1 || !nodes[0].Loopback() {
		t.Fatalf("nodes = %d, want one loopback node", len(nodes))
	}
	if p := nodes[0].Prims()[0]; !p.Begin || p.End {
		t.Errorf("prim = %v, want begin without end", p)
	}

	h.r.Replay(h.st, h.d, nodes[0])
	if !h.d.Inside() {
		t.Fatal("replay did not leave Begin open")
	}
	h.d.Attr(attrib.Pos, 3, gl.Float, attrib.Floats(2, 0, 0))
	h.d.Attr(attrib.Pos, 3, gl.Float, attrib.Floats(3, 0, 0))
	h.d.End()
	h.d.FlushVertices()
	if got := len(h.b.Primitives()); got != 2 {
		t.Errorf("got %d lines, want 2", got)
	}
}

func TestReplayInsideBegin(t *testing.T) {
	h := newHarness(t, Config{})
	h.c.NewList()
	h.c.Begin(h.st, gl.Points)
	h.vertex(0, 0)
	h.c.End(h.st)
	nodes := h.c.EndList(h.st)

	h.d.Begin(gl.Points)
	h.r.Replay(h.st, h.d, nodes[0])
	if code := h.st.GetError(); code != gl.InvalidOperation {
		t.Errorf("GetError() = %v, want INVALID_OPERATION", code)
	}
}

func TestArenaSharing(t *testing.T) {
	h := newHarness(t, Config{})
	var lists [][]*Node
	for l := 0; l < 2; l++ {
		h.c.NewList()
		h.c.Begin(h.st, gl.Triangles)
		for i := 0; i < 3; i++ {
			h.vertex(float32(10*l+i), 0)
		}
		h.c.End(h.st)
		lists = append(lists, h.c.EndList(h.st))
	}
	a, b := lists[0][0], lists[1][0]
	if a.Arena() != b.Arena() {
		t.Fatal("lists use different arenas")
	}
	vaA, baseA := a.View(attrib.ViewFixedFunction)
	vaB, baseB := b.View(attrib.ViewFixedFunction)
	if vaA != vaB {
		t.Error("vertex array not shared")
	}
	stride := a.Layout().ByteStride()
	if baseA != 0 || baseB != (b.vertexOffset-vaA.Offset)/stride || baseB == 0 {
		t.Errorf("base vertices = %d, %d", baseA, baseB)
	}
	if h.c.Stats().Arenas != 1 {
		t.Errorf("Arenas = %d, want 1", h.c.Stats().Arenas)
	}

	h.replay(lists[1])
	got := positions(h.b.Primitives())
	if want := "TRIANGLES (10,0) (11,0) (12,0)"; len(got) != 1 || got[0] != want {
		t.Errorf("replay = %v, want [%s]", got, want)
	}

	for _, l := range lists {
		for _, n := range l {
			n.Release()
		}
	}
	h.c.Destroy()
	if live := h.b.LiveBuffers(); live != 0 {
		t.Errorf("LiveBuffers() = %d after release, want 0", live)
	}
}

func TestIndexLowering(t *testing.T) {
	tests := []struct {
		name    string
		caps    gpucore.Caps
		mode    gl.Mode
		verts   int
		prims   int
		want    gl.Mode
		indices int
	}{
		{"quads", gpucore.DefaultCaps(), gl.Quads, 8, 1, gl.Triangles, 12},
		{"line strips join as lines", gpucore.DefaultCaps(), gl.LineStrip, 3, 2, gl.Lines, 8},
		{"triangle strips join", gpucore.DefaultCaps(), gl.TriangleStrip, 4, 2, gl.TriangleStrip, 10},
		{"short strip dropped", gpucore.DefaultCaps(), gl.LineStrip, 1, 2, gl.Lines, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Config{Caps: tt.caps})
			h.c.NewList()
			for p := 0; p < tt.prims; p++ {
				h.c.Begin(h.st, tt.mode)
				for i := 0; i < tt.verts; i++ {
					h.vertex(float32(p*100+i), float32(i%2))
				}
				h.c.End(h.st)
			}
			nodes := h.c.EndList(h.st)
			if len(nodes) != 1 {
				t.Fatalf("got %d nodes, want 1", len(nodes))
			}
			draws := nodes[0].Draws()
			if tt.indices == 0 {
				if len(draws) != 0 {
					t.Errorf("got draws %v, want none", draws)
				}
				return
			}
			if len(draws) != 1 {
				t.Fatalf("got %d draws, want 1: %v", len(draws), draws)
			}
			if draws[0].Mode != tt.want || draws[0].Count != tt.indices {
				t.Errorf("draw = %v %d, want %v %d", draws[0].Mode, draws[0].Count, tt.want, tt.indices)
			}
			if got := len(nodes[0].Indices()); got != tt.indices {
				t.Errorf("len(Indices()) = %d, want %d", got, tt.indices)
			}
		})
	}
}

func TestOutOfMemory(t *testing.T) {
	h := newHarness(t, Config{})
	h.b.FailAllocations(1)
	h.c.NewList()
	h.c.Begin(h.st, gl.Points)
	h.vertex(0, 0)
	h.c.End(h.st)
	if nodes := h.c.EndList(h.st); len(nodes) != 0 {
		t.Errorf("got %d nodes, want none", len(nodes))
	}
	if !h.c.OutOfMemory() {
		t.Error("OutOfMemory() = false")
	}
	if code := h.st.GetError(); code != gl.OutOfMemory {
		t.Errorf("GetError() = %v, want OUT_OF_MEMORY", code)
	}

	h.c.NewList()
	if h.c.OutOfMemory() {
		t.Error("NewList did not clear out of memory")
	}
	h.c.Begin(h.st, gl.Points)
	h.vertex(0, 0)
	h.c.End(h.st)
	if nodes := h.c.EndList(h.st); len(nodes) != 1 {
		t.Errorf("got %d nodes after recovery, want 1", len(nodes))
	}
}

func TestBeginEndErrors(t *testing.T) {
	h := newHarness(t, Config{})
	h.c.NewList()
	h.c.End(h.st)
	if code := h.st.GetError(); code != gl.InvalidOperation {
		t.Errorf("End without Begin: GetError() = %v, want INVALID_OPERATION", code)
	}
	h.c.Begin(h.st, gl.Mode(99))
	if code := h.st.GetError(); code != gl.InvalidEnum {
		t.Errorf("Begin(99): GetError() = %v, want INVALID_ENUM", code)
	}
	h.c.Begin(h.st, gl.Points)
	h.c.Begin(h.st, gl.Points)
	if code := h.st.GetError(); code != gl.InvalidOperation {
		t.Errorf("nested Begin: GetError() = %v, want INVALID_OPERATION", code)
	}
}
