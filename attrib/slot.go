// Package attrib is the vocabulary of per-vertex attribute slots: their
// current sizes and types, the scratch vertex and the derived vertex layout.
package attrib

import "fmt"

// Slot identifies one per-vertex value stream.
type Slot uint8

// Attribute slots. Pos through EdgeFlag line up with the vertex-array
// attribute locations of the same name.
const (
	Pos Slot = iota
	Normal
	Color0
	Color1
	Fog
	ColorIndex
	Tex0
	Tex1
	Tex2
	Tex3
	Tex4
	Tex5
	Tex6
	Tex7
	PointSize
	Generic0
	Generic1
	Generic2
	Generic3
	Generic4
	Generic5
	Generic6
	Generic7
	Generic8
	Generic9
	Generic10
	Generic11
	Generic12
	Generic13
	Generic14
	Generic15
	EdgeFlag

	MatFrontAmbient
	MatBackAmbient
	MatFrontDiffuse
	MatBackDiffuse
	MatFrontSpecular
	MatBackSpecular
	MatFrontEmission
	MatBackEmission
	MatFrontShininess
	MatBackShininess
	MatFrontIndexes
	MatBackIndexes

	SelectResult

	NumSlots
)

// NumMaterials is the number of material component slots.
const NumMaterials = int(MatBackIndexes-MatFrontAmbient) + 1

// NumTexUnits is the number of texture coordinate slots.
const NumTexUnits = 8

// NumGenerics is the number of generic attribute slots.
const NumGenerics = 16

// NumVertAttribs is the number of vertex-array attribute locations.
const NumVertAttribs = int(EdgeFlag) + 1

// MaxWords is the largest size of one slot in 32-bit words.
const MaxWords = 8

// Tex returns the texture coordinate slot of a unit.
func Tex(unit int) Slot { return Tex0 + Slot(unit) }

// Generic returns the generic slot of an index.
func Generic(i int) Slot { return Generic0 + Slot(i) }

// Material returns the material slot at index i (0..11).
func Material(i int) Slot { return MatFrontAmbient + Slot(i) }

// IsMaterial reports whether s is a material component.
func (s Slot) IsMaterial() bool { return s >= MatFrontAmbient && s <= MatBackIndexes }

// IsGeneric reports whether s is a generic attribute.
func (s Slot) IsGeneric() bool { return s >= Generic0 && s <= Generic15 }

// IsTex reports whether s is a texture coordinate.
func (s Slot) IsTex() bool { return s >= Tex0 && s <= Tex7 }

// Valid reports whether s names a slot.
func (s Slot) Valid() bool { return s < NumSlots }

// MaterialSize returns the component count of a material slot.
func MaterialSize(s Slot) int {
	switch s {
	case MatFrontShininess, MatBackShininess:
		return 1
	case MatFrontIndexes, MatBackIndexes:
		return 3
	}
	return 4
}

var fixedNames = [...]string{
	Pos: "pos", Normal: "normal", Color0: "color0", Color1: "color1",
	Fog: "fog", ColorIndex: "color_index", PointSize: "point_size",
	EdgeFlag: "edge_flag", SelectResult: "select_result",
}

var materialNames = [NumMaterials]string{
	"front_ambient", "back_ambient", "front_diffuse", "back_diffuse",
	"front_specular", "back_specular", "front_emission", "back_emission",
	"front_shininess", "back_shininess", "front_indexes", "back_indexes",
}

func (s Slot) String() string {
	switch {
	case s.IsTex():
		return fmt.Sprintf("tex%d", s-Tex0)
	case s.IsGeneric():
		return fmt.Sprintf("generic%d", s-Generic0)
	case s.IsMaterial():
		return "mat_" + materialNames[s-MatFrontAmbient]
	case int(s) < len(fixedNames) && fixedNames[s] != "":
		return fixedNames[s]
	}
	return fmt.Sprintf("Slot(%d)", uint8(s))
}

// Mask is a set of slots.
type Mask uint64

// Has reports whether s is in the mask.
func (m Mask) Has(s Slot) bool { return m&(1<<s) != 0 }

// With returns m with s added.
func (m Mask) With(s Slot) Mask { return m | 1<<s }

// View selects how vertex-array locations are fed from slots.
type View uint8

const (
	// ViewFixedFunction aliases material slots onto generic locations 0..11.
	ViewFixedFunction View = iota
	// ViewShader feeds every location from the slot of the same index.
	ViewShader
	numViews
)

// NumViews is the number of vertex-array views built per compiled list.
const NumViews = int(numViews)

// Source returns the slot feeding vertex-array location loc under view v.
// In the fixed-function view generic locations carry material components
// and generics 12..15 are unused.
func Source(v View, loc int) (Slot, bool) {
	if loc < 0 || loc >= NumVertAttribs {
		return 0, false
	}
	s := Slot(loc)
	if v == ViewFixedFunction && s.IsGeneric() {
		i := int(s - Generic0)
		if i >= NumMaterials {
			return 0, false
		}
		return Material(i), true
	}
	return s, true
}
