// Package gl defines the enumerants shared by the vertex accumulation engine:
// primitive modes, scalar attribute types and error codes.
//
// Values match their OpenGL counterparts so that traces and test fixtures
// can be compared against a reference implementation.
package gl

import "fmt"

// Mode is a primitive mode as passed to Begin.
type Mode uint8

// Primitive modes.
const (
	Points                 Mode = 0x0
	Lines                  Mode = 0x1
	LineLoop               Mode = 0x2
	LineStrip              Mode = 0x3
	Triangles              Mode = 0x4
	TriangleStrip          Mode = 0x5
	TriangleFan            Mode = 0x6
	Quads                  Mode = 0x7
	QuadStrip              Mode = 0x8
	Polygon                Mode = 0x9
	LinesAdjacency         Mode = 0xA
	LineStripAdjacency     Mode = 0xB
	TrianglesAdjacency     Mode = 0xC
	TriangleStripAdjacency Mode = 0xD
	Patches                Mode = 0xE
)

// NumModes is the number of valid primitive modes.
const NumModes = 15

var modeNames = [NumModes]string{
	"POINTS", "LINES", "LINE_LOOP", "LINE_STRIP", "TRIANGLES",
	"TRIANGLE_STRIP", "TRIANGLE_FAN", "QUADS", "QUAD_STRIP", "POLYGON",
	"LINES_ADJACENCY", "LINE_STRIP_ADJACENCY", "TRIANGLES_ADJACENCY",
	"TRIANGLE_STRIP_ADJACENCY", "PATCHES",
}

// Valid reports whether m is a known primitive mode.
func (m Mode) Valid() bool { return m < NumModes }

// String returns the GL name of the mode.
func (m Mode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%#x)", uint8(m))
}

// ParseMode returns the mode whose GL name (without the GL_ prefix,
// case-insensitive) is name.
func ParseMode(name string) (Mode, bool) {
	for i, n := range modeNames {
		if equalFold(n, name) {
			return Mode(i), true
		}
	}
	return 0, false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// ModeMask is a set of primitive modes.
type ModeMask uint16

// MaskOf builds a mask from modes.
func MaskOf(modes ...Mode) ModeMask {
	var m ModeMask
	for _, mode := range modes {
		m |= 1 << mode
	}
	return m
}

// Has reports whether mode is in the mask.
func (m ModeMask) Has(mode Mode) bool { return mode.Valid() && m&(1<<mode) != 0 }

// AllModes contains every primitive mode.
const AllModes ModeMask = 1<<NumModes - 1

// DefaultModes is the set of modes a WebGPU-class device draws natively.
var DefaultModes = MaskOf(Points, Lines, LineStrip, Triangles, TriangleStrip)

// Type is a scalar attribute type.
type Type uint16

// Scalar types.
const (
	Int           Type = 0x1404
	UnsignedInt   Type = 0x1405
	Float         Type = 0x1406
	Double        Type = 0x140A
	UnsignedInt64 Type = 0x140F
)

// Valid reports whether t is one of the attribute scalar types.
func (t Type) Valid() bool {
	switch t {
	case Int, UnsignedInt, Float, Double, UnsignedInt64:
		return true
	}
	return false
}

// Words returns the number of 32-bit words per component of t.
func (t Type) Words() int {
	if t == Double || t == UnsignedInt64 {
		return 2
	}
	return 1
}

// Is64 reports whether t is a 64-bit type.
func (t Type) Is64() bool { return t.Words() == 2 }

func (t Type) String() string {
	switch t {
	case Int:
		return "INT"
	case UnsignedInt:
		return "UNSIGNED_INT"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case UnsignedInt64:
		return "UNSIGNED_INT64"
	}
	return fmt.Sprintf("Type(%#x)", uint16(t))
}

// ErrorCode is a GL error reported to the error collaborator.
type ErrorCode uint16

// Error codes.
const (
	NoError          ErrorCode = 0
	InvalidEnum      ErrorCode = 0x0500
	InvalidValue     ErrorCode = 0x0501
	InvalidOperation ErrorCode = 0x0502
	OutOfMemory      ErrorCode = 0x0505
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case InvalidEnum:
		return "INVALID_ENUM"
	case InvalidValue:
		return "INVALID_VALUE"
	case InvalidOperation:
		return "INVALID_OPERATION"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	}
	return fmt.Sprintf("ErrorCode(%#x)", uint16(e))
}

// Face selects front and/or back material.
type Face uint16

// Faces.
const (
	Front        Face = 0x0404
	Back         Face = 0x0405
	FrontAndBack Face = 0x0408
)

// MaterialParam names a material property.
type MaterialParam uint16

// Material parameters.
const (
	Ambient           MaterialParam = 0x1200
	Diffuse           MaterialParam = 0x1201
	Specular          MaterialParam = 0x1202
	Emission          MaterialParam = 0x1600
	Shininess         MaterialParam = 0x1601
	AmbientAndDiffuse MaterialParam = 0x1602
	ColorIndexes      MaterialParam = 0x1603
)

// ListMode is the compile mode passed to NewList.
type ListMode uint16

// Display list compile modes.
const (
	Compile           ListMode = 0x1300
	CompileAndExecute ListMode = 0x1301
)
