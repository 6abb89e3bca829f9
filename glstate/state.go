// Package glstate holds the graphics context state shared by the immediate
// accumulator, the display-list compiler and the replayer: current
// attribute values, the few enables that affect vertex batching and the
// sticky error flag.
package glstate

import (
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/gpucore"
)

// ErrorHandler receives every GL error as it is raised.
type ErrorHandler func(code gl.ErrorCode, where string)

// ColorMaterial is the glColorMaterial state.
type ColorMaterial struct {
	Enabled bool
	Face    gl.Face
	Param   gl.MaterialParam
}

// Slots returns the material slots tracking color0.
func (cm ColorMaterial) Slots() []attrib.Slot {
	if !cm.Enabled {
		return nil
	}
	return MaterialSlots(cm.Face, cm.Param)
}

// MaterialSlots returns the slots written by a material call, or nil when
// face or param is invalid.
func MaterialSlots(face gl.Face, param gl.MaterialParam) []attrib.Slot {
	var front, back bool
	switch face {
	case gl.Front:
		front = true
	case gl.Back:
		back = true
	case gl.FrontAndBack:
		front, back = true, true
	default:
		return nil
	}
	var bases []attrib.Slot
	switch param {
	case gl.Ambient:
		bases = []attrib.Slot{attrib.MatFrontAmbient}
	case gl.Diffuse:
		bases = []attrib.Slot{attrib.MatFrontDiffuse}
	case gl.Specular:
		bases = []attrib.Slot{attrib.MatFrontSpecular}
	case gl.Emission:
		bases = []attrib.Slot{attrib.MatFrontEmission}
	case gl.Shininess:
		bases = []attrib.Slot{attrib.MatFrontShininess}
	case gl.ColorIndexes:
		bases = []attrib.Slot{attrib.MatFrontIndexes}
	case gl.AmbientAndDiffuse:
		bases = []attrib.Slot{attrib.MatFrontAmbient, attrib.MatFrontDiffuse}
	default:
		return nil
	}
	var out []attrib.Slot
	for _, b := range bases {
		if front {
			out = append(out, b)
		}
		if back {
			out = append(out, b+1)
		}
	}
	return out
}

// State is the graphics context state. It is created with the rendering
// context and passed into every accumulator and compiler call.
type State struct {
	current [attrib.NumSlots]attrib.Value

	// ColorMaterial makes color0 drive material slots.
	ColorMaterial ColorMaterial

	// LineStipple is the line stipple enable.
	LineStipple bool

	// PatchVertices is the patch size for PATCHES.
	PatchVertices int

	// ShaderActive selects the shader vertex-array view over the
	// fixed-function one.
	ShaderActive bool

	// SuppressCurrentUpdate stops direct list replay from writing the
	// list's final attribute values into current.
	SuppressCurrentUpdate bool

	// VertexArray is the bound vertex-array descriptor.
	VertexArray *gpucore.VertexArray

	// OnError, if set, observes every raised error.
	OnError ErrorHandler

	err gl.ErrorCode

	// Generation counts changes to current values.
	Generation uint64
}

// New returns state with GL initial current values.
func New() *State {
	s := &State{PatchVertices: 3}
	for i := range s.current {
		s.current[i] = attrib.Value{Size: 4, Type: gl.Float, Words: attrib.Default(gl.Float)}
	}
	s.current[attrib.Normal].Words = attrib.Floats(0, 0, 1)
	s.current[attrib.Color0].Words = attrib.Floats(1, 1, 1, 1)
	s.current[attrib.ColorIndex].Words = attrib.Floats(1)
	s.current[attrib.EdgeFlag].Words = attrib.Floats(1)
	s.current[attrib.MatFrontAmbient].Words = attrib.Floats(0.2, 0.2, 0.2, 1)
	s.current[attrib.MatBackAmbient].Words = attrib.Floats(0.2, 0.2, 0.2, 1)
	s.current[attrib.MatFrontDiffuse].Words = attrib.Floats(0.8, 0.8, 0.8, 1)
	s.current[attrib.MatBackDiffuse].Words = attrib.Floats(0.8, 0.8, 0.8, 1)
	s.current[attrib.MatFrontShininess].Words = attrib.Floats(0)
	s.current[attrib.MatBackShininess].Words = attrib.Floats(0)
	s.current[attrib.MatFrontIndexes].Words = attrib.Floats(0, 1, 1)
	s.current[attrib.MatBackIndexes].Words = attrib.Floats(0, 1, 1)
	s.ColorMaterial = ColorMaterial{Face: gl.FrontAndBack, Param: gl.AmbientAndDiffuse}
	return s
}

// Current returns the current value of s.
func (st *State) Current(s attrib.Slot) attrib.Value { return st.current[s] }

// SetCurrent stores v as the current value of s and derives the material
// values tracking color0.
func (st *State) SetCurrent(s attrib.Slot, v attrib.Value) {
	if st.current[s] == v {
		return
	}
	st.current[s] = v
	st.Generation++
	if s == attrib.Color0 {
		for _, m := range st.ColorMaterial.Slots() {
			st.current[m] = attrib.Value{Size: 4, Type: v.Type, Words: v.Words}
		}
	}
}

// ApplyColorMaterial copies color0 into the material slots tracking it.
func (st *State) ApplyColorMaterial() {
	c := st.current[attrib.Color0]
	for _, m := range st.ColorMaterial.Slots() {
		if v := (attrib.Value{Size: 4, Type: c.Type, Words: c.Words}); st.current[m] != v {
			st.current[m] = v
			st.Generation++
		}
	}
}

// CopyFromVertex stores every enabled non-position slot of vertex v,
// laid out by l, as current.
func (st *State) CopyFromVertex(l *attrib.Layout, v []uint32) {
	for s := attrib.Slot(1); s < attrib.NumSlots; s++ {
		if l.Has(s) {
			st.SetCurrent(s, l.Value(v, s))
		}
	}
}

// Error records code unless an earlier error is pending.
func (st *State) Error(code gl.ErrorCode, where string) {
	if st.err == gl.NoError {
		st.err = code
	}
	if st.OnError != nil {
		st.OnError(code, where)
	}
}

// GetError returns and clears the pending error.
func (st *State) GetError() gl.ErrorCode {
	e := st.err
	st.err = gl.NoError
	return e
}
