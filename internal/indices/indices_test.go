package indices

import (
	"slices"
	"testing"

	"github.com/gogpu/vbo/gl"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		mode     gl.Mode
		start    int
		count    int
		wantMode gl.Mode
		want     []uint32
	}{
		{"supported", gl.Triangles, 2, 3, gl.Triangles, []uint32{2, 3, 4}},
		{"quads", gl.Quads, 0, 4, gl.Triangles, []uint32{0, 1, 3, 1, 2, 3}},
		{"quads incomplete", gl.Quads, 0, 6, gl.Triangles, []uint32{0, 1, 3, 1, 2, 3}},
		{"quad strip", gl.QuadStrip, 0, 6, gl.Triangles, []uint32{2, 0, 3, 0, 1, 3, 4, 2, 5, 2, 3, 5}},
		{"polygon", gl.Polygon, 10, 5, gl.Triangles, []uint32{11, 12, 10, 12, 13, 10, 13, 14, 10}},
		{"fan", gl.TriangleFan, 0, 4, gl.Triangles, []uint32{0, 1, 2, 0, 2, 3}},
		{"loop", gl.LineLoop, 0, 3, gl.Lines, []uint32{0, 1, 1, 2, 2, 0}},
		{"strip native", gl.TriangleStrip, 0, 4, gl.TriangleStrip, []uint32{0, 1, 2, 3}},
		{"line strip native", gl.LineStrip, 1, 3, gl.LineStrip, []uint32{1, 2, 3}},
		{"tris adjacency", gl.TrianglesAdjacency, 0, 6, gl.Triangles, []uint32{0, 2, 4}},
		{"line strip adjacency", gl.LineStripAdjacency, 0, 5, gl.Lines, []uint32{1, 2, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, got, ok := Generate(nil, gl.DefaultModes, tt.mode, tt.start, tt.count)
			if !ok {
				t.Fatal("Generate reported unsupported")
			}
			if mode != tt.wantMode {
				t.Errorf("mode = %v, want %v", mode, tt.wantMode)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("indices = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateUnsupported(t *testing.T) {
	if _, _, ok := Generate(nil, gl.MaskOf(gl.Points), gl.Quads, 0, 4); ok {
		t.Error("quads lowered without triangle support")
	}
	if _, _, ok := Generate(nil, gl.DefaultModes, gl.Patches, 0, 3); ok {
		t.Error("patches lowered")
	}
}

func TestTriangleStripWinding(t *testing.T) {
	got := Lower(nil, gl.TriangleStrip, 0, 5)
	want := []uint32{0, 1, 2, 2, 1, 3, 2, 3, 4}
	if !slices.Equal(got, want) {
		t.Errorf("strip = %v, want %v", got, want)
	}
}

func TestAssemble(t *testing.T) {
	mode, prims := Assemble(gl.LineLoop, 4)
	if mode != gl.Lines || len(prims) != 4 {
		t.Fatalf("Assemble(LINE_LOOP, 4) = %v, %d prims", mode, len(prims))
	}
	if last := prims[3]; last[0] != 3 || last[1] != 0 {
		t.Errorf("closing edge = %v, want [3 0]", last)
	}
	mode, prims = Assemble(gl.Points, 3)
	if mode != gl.Points || len(prims) != 3 {
		t.Errorf("Assemble(POINTS, 3) = %v, %d prims", mode, len(prims))
	}
}
