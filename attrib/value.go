package attrib

import (
	"math"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/vbo/gl"
)

// Components holds the raw words of up to four components. 32-bit types use
// words 0..3; 64-bit types use pairs (low word first).
type Components [MaxWords]uint32

var (
	defaultFloat  = Components{0, 0, 0, math.Float32bits(1)}
	defaultInt    = Components{0, 0, 0, 1}
	defaultDouble = func() Components {
		one := math.Float64bits(1)
		return Components{6: uint32(one), 7: uint32(one >> 32)}
	}()
	defaultUint64 = Components{6: 1}
)

// Default returns the (0, 0, 0, 1) vector of type t.
func Default(t gl.Type) Components {
	switch t {
	case gl.Int, gl.UnsignedInt:
		return defaultInt
	case gl.Double:
		return defaultDouble
	case gl.UnsignedInt64:
		return defaultUint64
	}
	return defaultFloat
}

// FillDefaults overwrites words [from, len(dst)) with the defaults of t.
func FillDefaults(dst []uint32, from int, t gl.Type) {
	def := Default(t)
	for i := from; i < len(dst) && i < MaxWords; i++ {
		dst[i] = def[i]
	}
}

// Floats packs up to four float32 values; missing components take defaults.
func Floats(v ...float32) Components {
	c := defaultFloat
	for i := 0; i < len(v) && i < 4; i++ {
		c[i] = math.Float32bits(v[i])
	}
	return c
}

// Ints packs up to four int32 values.
func Ints(v ...int32) Components {
	c := defaultInt
	for i := 0; i < len(v) && i < 4; i++ {
		c[i] = uint32(v[i])
	}
	return c
}

// Uints packs up to four uint32 values.
func Uints(v ...uint32) Components {
	c := defaultInt
	for i := 0; i < len(v) && i < 4; i++ {
		c[i] = v[i]
	}
	return c
}

// Doubles packs up to four float64 values.
func Doubles(v ...float64) Components {
	c := defaultDouble
	for i := 0; i < len(v) && i < 4; i++ {
		b := math.Float64bits(v[i])
		c[2*i], c[2*i+1] = uint32(b), uint32(b>>32)
	}
	return c
}

// Uint64s packs up to four uint64 values.
func Uint64s(v ...uint64) Components {
	c := defaultUint64
	for i := 0; i < len(v) && i < 4; i++ {
		c[2*i], c[2*i+1] = uint32(v[i]), uint32(v[i]>>32)
	}
	return c
}

// FromVec4 packs a float vector.
func FromVec4(v f32.Vec4) Components { return Floats(v[0], v[1], v[2], v[3]) }

// Float returns component i interpreted as float32.
func (c Components) Float(i int) float32 { return math.Float32frombits(c[i]) }

// Double returns component i interpreted as float64.
func (c Components) Double(i int) float64 {
	return math.Float64frombits(uint64(c[2*i]) | uint64(c[2*i+1])<<32)
}

// Vec4 returns the first four words as a float vector.
func (c Components) Vec4() f32.Vec4 {
	return f32.Vec4{c.Float(0), c.Float(1), c.Float(2), c.Float(3)}
}

// Value is a current attribute value: its size in components, type and words.
type Value struct {
	Size  int
	Type  gl.Type
	Words Components
}

// Vec4 returns the value as floats, converting integer and double types.
func (v Value) Vec4() f32.Vec4 {
	var out f32.Vec4
	for i := 0; i < 4; i++ {
		switch v.Type {
		case gl.Int:
			out[i] = float32(int32(v.Words[i]))
		case gl.UnsignedInt:
			out[i] = float32(v.Words[i])
		case gl.Double:
			out[i] = float32(v.Words.Double(i))
		case gl.UnsignedInt64:
			out[i] = float32(uint64(v.Words[2*i]) | uint64(v.Words[2*i+1])<<32)
		default:
			out[i] = v.Words.Float(i)
		}
	}
	return out
}
