package attrib

import "github.com/gogpu/vbo/gl"

// SlotState is the bookkeeping of one slot. Sizes are in 32-bit words.
type SlotState struct {
	// Size is the number of words the slot occupies in the vertex layout.
	// Zero means disabled.
	Size int

	// ActiveSize is the number of words currently being written. It never
	// exceeds Size; words past it hold type defaults.
	ActiveSize int

	Type gl.Type
}

// Components returns the component count of the slot.
func (s SlotState) Components() int { return s.Size / s.Type.Words() }

// Layout is the in-memory arrangement of one vertex. Position is always
// stored last. Layout is comparable and can be used as a map key.
type Layout struct {
	Size   [NumSlots]uint8
	Type   [NumSlots]gl.Type
	Offset [NumSlots]uint16

	VertexSize      int
	VertexSizeNoPos int
	Enabled         Mask
}

// Has reports whether s contributes to the layout.
func (l *Layout) Has(s Slot) bool { return l.Enabled.Has(s) }

// Attr returns the words of slot s within vertex v.
func (l *Layout) Attr(v []uint32, s Slot) []uint32 {
	off := int(l.Offset[s])
	return v[off : off+int(l.Size[s])]
}

// Components returns the component count of slot s.
func (l *Layout) Components(s Slot) int {
	if l.Size[s] == 0 {
		return 0
	}
	return int(l.Size[s]) / l.Type[s].Words()
}

// Value returns slot s of vertex v as a value with defaults filled.
func (l *Layout) Value(v []uint32, s Slot) Value {
	out := Value{Size: l.Components(s), Type: l.Type[s], Words: Default(l.Type[s])}
	copy(out.Words[:], l.Attr(v, s))
	return out
}

// Slots returns the enabled slots in memory order.
func (l *Layout) Slots() []Slot {
	out := make([]Slot, 0, NumSlots)
	for s := Slot(1); s < NumSlots; s++ {
		if l.Has(s) {
			out = append(out, s)
		}
	}
	if l.Has(Pos) {
		out = append(out, Pos)
	}
	return out
}

// ByteStride returns the vertex size in bytes.
func (l *Layout) ByteStride() int { return l.VertexSize * 4 }

func (l *Layout) compute() {
	l.Enabled = 0
	off := 0
	for s := Slot(1); s < NumSlots; s++ {
		if l.Size[s] == 0 {
			l.Offset[s] = 0
			continue
		}
		l.Enabled = l.Enabled.With(s)
		l.Offset[s] = uint16(off)
		off += int(l.Size[s])
	}
	l.VertexSizeNoPos = off
	l.Offset[Pos] = uint16(off)
	if l.Size[Pos] != 0 {
		l.Enabled = l.Enabled.With(Pos)
		off += int(l.Size[Pos])
	}
	l.VertexSize = off
}

// Remap converts vertex src laid out by from into dst laid out by to.
// Words a slot gains are filled with type defaults. Slots missing from
// from are produced by fill, or defaults when fill is nil.
func Remap(dst []uint32, to *Layout, src []uint32, from *Layout, fill func(s Slot, dst []uint32)) {
	for s := Slot(0); s < NumSlots; s++ {
		if !to.Has(s) {
			continue
		}
		d := to.Attr(dst, s)
		if from.Has(s) {
			n := copy(d, from.Attr(src, s))
			if from.Type[s] != to.Type[s] {
				n = 0
			}
			FillDefaults(d, n, to.Type[s])
			continue
		}
		if fill != nil {
			fill(s, d)
		} else {
			FillDefaults(d, 0, to.Type[s])
		}
	}
}

// Table tracks the slots of one accumulator together with its scratch
// vertex: the values that will be copied into the next emitted vertex.
type Table struct {
	slots   [NumSlots]SlotState
	layout  Layout
	scratch []uint32
}

// NewTable returns a table with every slot disabled.
func NewTable() *Table {
	t := &Table{scratch: make([]uint32, 0, int(NumSlots)*MaxWords)}
	t.Reset()
	return t
}

// Reset disables every slot.
func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i] = SlotState{Type: gl.Float}
	}
	t.layout = Layout{}
	for i := range t.layout.Type {
		t.layout.Type[i] = gl.Float
	}
	t.layout.compute()
	t.scratch = t.scratch[:0]
}

// Slot returns the state of s.
func (t *Table) Slot(s Slot) SlotState { return t.slots[s] }

// SetActiveSize records the number of words being written for s.
func (t *Table) SetActiveSize(s Slot, n int) { t.slots[s].ActiveSize = n }

// Layout returns the current layout.
func (t *Table) Layout() *Layout { return &t.layout }

// VertexSize returns the current vertex size in words.
func (t *Table) VertexSize() int { return t.layout.VertexSize }

// Enabled returns the enabled slots.
func (t *Table) Enabled() Mask { return t.layout.Enabled }

// Scratch returns the scratch vertex.
func (t *Table) Scratch() []uint32 { return t.scratch }

// Attr returns the scratch words of s.
func (t *Table) Attr(s Slot) []uint32 { return t.layout.Attr(t.scratch, s) }

// Resize changes the size and type of s, recomputes the layout and carries
// the scratch vertex over. The previous layout is returned so callers can
// convert stored vertices.
func (t *Table) Resize(s Slot, size int, typ gl.Type) Layout {
	old := t.layout
	oldScratch := append([]uint32(nil), t.scratch...)

	t.slots[s].Size = size
	t.slots[s].Type = typ
	if t.slots[s].ActiveSize > size {
		t.slots[s].ActiveSize = size
	}
	t.layout.Size[s] = uint8(size)
	t.layout.Type[s] = typ
	t.layout.compute()

	t.scratch = t.scratch[:t.layout.VertexSize]
	Remap(t.scratch, &t.layout, oldScratch, &old, nil)
	return old
}
