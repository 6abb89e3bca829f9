package attrib

import (
	"testing"

	"github.com/gogpu/vbo/gl"
)

func TestLayoutStride(t *testing.T) {
	tests := []struct {
		name  string
		sizes map[Slot]int
		want  int
	}{
		{"empty", nil, 0},
		{"pos only", map[Slot]int{Pos: 3}, 3},
		{"pos color tex", map[Slot]int{Pos: 4, Color0: 4, Tex0: 2}, 10},
		{"material", map[Slot]int{Pos: 2, MatFrontShininess: 1, MatBackIndexes: 3}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := NewTable()
			for s, n := range tt.sizes {
				tab.Resize(s, n, gl.Float)
			}
			if got := tab.VertexSize(); got != tt.want {
				t.Errorf("VertexSize() = %d, want %d", got, tt.want)
			}
			if got := len(tab.Scratch()); got != tt.want {
				t.Errorf("len(Scratch()) = %d, want %d", got, tt.want)
			}
			l := tab.Layout()
			if l.Has(Pos) && int(l.Offset[Pos]) != l.VertexSizeNoPos {
				t.Errorf("position offset = %d, want %d", l.Offset[Pos], l.VertexSizeNoPos)
			}
		})
	}
}

func TestResizeKeepsScratch(t *testing.T) {
	tab := NewTable()
	tab.Resize(Tex0, 2, gl.Float)
	c := Floats(1, 2)
	copy(tab.Attr(Tex0), c[:2])

	tab.Resize(Color0, 4, gl.Float)
	tab.Resize(Tex0, 4, gl.Float)

	got := tab.Attr(Tex0)
	want := Floats(1, 2, 0, 1)
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("tex0 word %d = %#x, want %#x", i, got[i], want[i])
		}
	}
	if tab.VertexSize() != 8 {
		t.Errorf("VertexSize() = %d, want 8", tab.VertexSize())
	}
}

func TestResizeTypeChangeResetsValue(t *testing.T) {
	tab := NewTable()
	tab.Resize(Generic1, 4, gl.Float)
	c := Floats(5, 6, 7, 8)
	copy(tab.Attr(Generic1), c[:4])

	tab.Resize(Generic1, 4, gl.Int)
	got := tab.Attr(Generic1)
	want := Ints()
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("word %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestRemapFill(t *testing.T) {
	var from, to Layout
	for i := range from.Type {
		from.Type[i], to.Type[i] = gl.Float, gl.Float
	}
	from.Size[Pos] = 2
	from.compute()
	to.Size[Pos] = 2
	to.Size[Normal] = 3
	to.compute()

	src := []uint32{Floats(7)[0], Floats(0, 8)[1]}
	dst := make([]uint32, to.VertexSize)
	Remap(dst, &to, src, &from, func(s Slot, d []uint32) {
		if s != Normal {
			t.Errorf("fill called for %v", s)
		}
		n := Floats(0, 0, 1)
		copy(d, n[:])
	})
	if v := to.Value(dst, Pos).Vec4(); v[0] != 7 || v[1] != 8 {
		t.Errorf("pos = %v, want (7, 8)", v)
	}
	if v := to.Value(dst, Normal).Vec4(); v[2] != 1 {
		t.Errorf("normal = %v, want z=1", v)
	}
}

func TestDefaults(t *testing.T) {
	if v := (Value{Size: 4, Type: gl.Double, Words: Default(gl.Double)}).Vec4(); v[3] != 1 || v[0] != 0 {
		t.Errorf("double default = %v", v)
	}
	if v := (Value{Size: 2, Type: gl.Int, Words: Ints(-3, 4)}).Vec4(); v[0] != -3 || v[1] != 4 || v[3] != 1 {
		t.Errorf("ints = %v", v)
	}
	d := Doubles(2.5)
	if d.Double(0) != 2.5 || d.Double(3) != 1 {
		t.Errorf("Doubles(2.5) = %v, %v", d.Double(0), d.Double(3))
	}
}

func TestSource(t *testing.T) {
	tests := []struct {
		view View
		loc  int
		want Slot
		ok   bool
	}{
		{ViewShader, int(Generic3), Generic3, true},
		{ViewFixedFunction, int(Generic3), MatBackDiffuse, true},
		{ViewFixedFunction, int(Generic12), 0, false},
		{ViewFixedFunction, int(Color0), Color0, true},
		{ViewShader, NumVertAttribs, 0, false},
	}
	for _, tt := range tests {
		got, ok := Source(tt.view, tt.loc)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Source(%d, %d) = %v, %v, want %v, %v", tt.view, tt.loc, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSlotString(t *testing.T) {
	for s, want := range map[Slot]string{
		Pos: "pos", Tex3: "tex3", Generic15: "generic15",
		MatBackShininess: "mat_back_shininess", SelectResult: "select_result",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
