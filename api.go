package vbo

import (
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/glstate"
)

// attr routes one attribute call by dispatch mode.
func (c *Context) attr(s attrib.Slot, n int, typ gl.Type, v attrib.Components) {
	switch c.Dispatch() {
	case DispatchRecording:
		if c.comp.Inside() {
			c.comp.Attr(c.st, s, n, typ, v)
			return
		}
		if s != attrib.Pos {
			c.comp.SetCurrent(s, attrib.Value{Size: n, Type: typ, Words: v})
		}
		c.record(op{kind: opAttr, slot: s, size: n, typ: typ, v: v})
	case DispatchImmediate:
		c.exec.Attr(c.st, s, n, typ, v)
	}
}

func (c *Context) inside() bool {
	if c.Dispatch() == DispatchRecording {
		return c.comp.Inside() || c.suspended
	}
	return c.exec.Inside()
}

// Begin opens a primitive of mode.
func (c *Context) Begin(mode gl.Mode) {
	if c.Dispatch() == DispatchRecording {
		if c.suspended {
			c.st.Error(gl.InvalidOperation, "Begin")
			return
		}
		c.comp.Begin(c.st, mode)
		return
	}
	c.exec.Begin(c.st, mode)
}

// End closes the open primitive. While compiling, an End with no compiled
// Begin is recorded so the list can close a primitive opened by its caller.
func (c *Context) End() {
	if c.Dispatch() == DispatchRecording {
		switch {
		case c.comp.Inside():
			c.comp.End(c.st)
		default:
			c.record(op{kind: opEnd})
			c.suspended = false
		}
		return
	}
	c.exec.End(c.st)
}

// PrimitiveRestart ends the open primitive and begins another of the same
// mode.
func (c *Context) PrimitiveRestart() {
	if c.Dispatch() == DispatchRecording {
		switch {
		case c.comp.Inside():
			c.comp.PrimitiveRestart(c.st)
		case c.suspended:
			c.record(op{kind: opPrimitiveRestart})
		default:
			c.st.Error(gl.InvalidOperation, "PrimitiveRestart")
		}
		return
	}
	c.exec.PrimitiveRestart(c.st)
}

// Vertex2f emits a vertex at (x, y, 0, 1).
func (c *Context) Vertex2f(x, y float32) { c.attr(attrib.Pos, 2, gl.Float, attrib.Floats(x, y)) }

// Vertex3f emits a vertex at (x, y, z, 1).
func (c *Context) Vertex3f(x, y, z float32) {
	c.attr(attrib.Pos, 3, gl.Float, attrib.Floats(x, y, z))
}

// Vertex4f emits a vertex at (x, y, z, w).
func (c *Context) Vertex4f(x, y, z, w float32) {
	c.attr(attrib.Pos, 4, gl.Float, attrib.Floats(x, y, z, w))
}

// Vertex3d emits a vertex from doubles, stored as floats.
func (c *Context) Vertex3d(x, y, z float64) {
	c.Vertex3f(float32(x), float32(y), float32(z))
}

// Vertex3fv emits a vertex from a slice of three floats.
func (c *Context) Vertex3fv(v []float32) {
	if len(v) < 3 {
		c.st.Error(gl.InvalidValue, "Vertex3fv")
		return
	}
	c.Vertex3f(v[0], v[1], v[2])
}

// Normal3f sets the normal.
func (c *Context) Normal3f(x, y, z float32) {
	c.attr(attrib.Normal, 3, gl.Float, attrib.Floats(x, y, z))
}

// Color3f sets the primary color with alpha 1.
func (c *Context) Color3f(r, g, b float32) {
	c.attr(attrib.Color0, 3, gl.Float, attrib.Floats(r, g, b))
}

// Color4f sets the primary color.
func (c *Context) Color4f(r, g, b, a float32) {
	c.attr(attrib.Color0, 4, gl.Float, attrib.Floats(r, g, b, a))
}

// Color4ub sets the color from normalized bytes.
func (c *Context) Color4ub(r, g, b, a uint8) {
	c.Color4f(float32(r)/255, float32(g)/255, float32(b)/255, float32(a)/255)
}

// SecondaryColor3f sets the secondary color.
func (c *Context) SecondaryColor3f(r, g, b float32) {
	c.attr(attrib.Color1, 3, gl.Float, attrib.Floats(r, g, b))
}

// FogCoordf sets the fog coordinate.
func (c *Context) FogCoordf(f float32) { c.attr(attrib.Fog, 1, gl.Float, attrib.Floats(f)) }

// Indexf sets the color index.
func (c *Context) Indexf(i float32) { c.attr(attrib.ColorIndex, 1, gl.Float, attrib.Floats(i)) }

// EdgeFlag marks whether following vertices start boundary edges.
func (c *Context) EdgeFlag(on bool) {
	f := float32(0)
	if on {
		f = 1
	}
	c.attr(attrib.EdgeFlag, 1, gl.Float, attrib.Floats(f))
}

// TexCoord1f sets the coordinates of texture unit 0.
func (c *Context) TexCoord1f(s float32) { c.attr(attrib.Tex0, 1, gl.Float, attrib.Floats(s)) }

// TexCoord2f sets the coordinates of texture unit 0.
func (c *Context) TexCoord2f(s, t float32) {
	c.attr(attrib.Tex0, 2, gl.Float, attrib.Floats(s, t))
}

// TexCoord3f sets the coordinates of texture unit 0.
func (c *Context) TexCoord3f(s, t, r float32) {
	c.attr(attrib.Tex0, 3, gl.Float, attrib.Floats(s, t, r))
}

// TexCoord4f sets the coordinates of texture unit 0.
func (c *Context) TexCoord4f(s, t, r, q float32) {
	c.attr(attrib.Tex0, 4, gl.Float, attrib.Floats(s, t, r, q))
}

// MultiTexCoord2f sets the coordinates of texture unit.
func (c *Context) MultiTexCoord2f(unit int, s, t float32) {
	if unit < 0 || unit >= attrib.NumTexUnits {
		c.st.Error(gl.InvalidEnum, "MultiTexCoord2f")
		return
	}
	c.attr(attrib.Tex(unit), 2, gl.Float, attrib.Floats(s, t))
}

// MultiTexCoord4f sets the coordinates of texture unit.
func (c *Context) MultiTexCoord4f(unit int, s, t, r, q float32) {
	if unit < 0 || unit >= attrib.NumTexUnits {
		c.st.Error(gl.InvalidEnum, "MultiTexCoord4f")
		return
	}
	c.attr(attrib.Tex(unit), 4, gl.Float, attrib.Floats(s, t, r, q))
}

// genericSlot maps a vertex attribute index to its slot. Index 0 aliases
// the position inside Begin/End.
func (c *Context) genericSlot(index int, where string) (attrib.Slot, bool) {
	if index < 0 || index >= attrib.NumGenerics {
		c.st.Error(gl.InvalidValue, where)
		return 0, false
	}
	if index == 0 && c.inside() {
		return attrib.Pos, true
	}
	return attrib.Generic(index), true
}

func (c *Context) vertexAttrib(index, n int, typ gl.Type, v attrib.Components, where string) {
	if s, ok := c.genericSlot(index, where); ok {
		c.attr(s, n, typ, v)
	}
}

// VertexAttrib1f sets generic attribute index. Index 0 emits a vertex
// inside Begin/End.
func (c *Context) VertexAttrib1f(index int, x float32) {
	c.vertexAttrib(index, 1, gl.Float, attrib.Floats(x), "VertexAttrib1f")
}

// VertexAttrib2f sets generic attribute index.
func (c *Context) VertexAttrib2f(index int, x, y float32) {
	c.vertexAttrib(index, 2, gl.Float, attrib.Floats(x, y), "VertexAttrib2f")
}

// VertexAttrib3f sets generic attribute index.
func (c *Context) VertexAttrib3f(index int, x, y, z float32) {
	c.vertexAttrib(index, 3, gl.Float, attrib.Floats(x, y, z), "VertexAttrib3f")
}

// VertexAttrib4f sets generic attribute index.
func (c *Context) VertexAttrib4f(index int, x, y, z, w float32) {
	c.vertexAttrib(index, 4, gl.Float, attrib.Floats(x, y, z, w), "VertexAttrib4f")
}

// VertexAttribI4i sets a pure integer attribute.
func (c *Context) VertexAttribI4i(index int, x, y, z, w int32) {
	c.vertexAttrib(index, 4, gl.Int, attrib.Ints(x, y, z, w), "VertexAttribI4i")
}

// VertexAttribI4ui sets a pure unsigned integer attribute.
func (c *Context) VertexAttribI4ui(index int, x, y, z, w uint32) {
	c.vertexAttrib(index, 4, gl.UnsignedInt, attrib.Uints(x, y, z, w), "VertexAttribI4ui")
}

// VertexAttribL1d sets a double-precision attribute.
func (c *Context) VertexAttribL1d(index int, x float64) {
	c.vertexAttrib(index, 1, gl.Double, attrib.Doubles(x), "VertexAttribL1d")
}

// VertexAttribL2d sets a double-precision attribute.
func (c *Context) VertexAttribL2d(index int, x, y float64) {
	c.vertexAttrib(index, 2, gl.Double, attrib.Doubles(x, y), "VertexAttribL2d")
}

// VertexAttribL3d sets a double-precision attribute.
func (c *Context) VertexAttribL3d(index int, x, y, z float64) {
	c.vertexAttrib(index, 3, gl.Double, attrib.Doubles(x, y, z), "VertexAttribL3d")
}

// VertexAttribL4d sets a double-precision attribute.
func (c *Context) VertexAttribL4d(index int, x, y, z, w float64) {
	c.vertexAttrib(index, 4, gl.Double, attrib.Doubles(x, y, z, w), "VertexAttribL4d")
}

// VertexAttribL1ui64 sets a 64-bit handle attribute.
func (c *Context) VertexAttribL1ui64(index int, x uint64) {
	c.vertexAttrib(index, 1, gl.UnsignedInt64, attrib.Uint64s(x), "VertexAttribL1ui64")
}

// Materialfv sets material parameter pname of face. Inside Begin/End the
// material is a per-vertex attribute.
func (c *Context) Materialfv(face gl.Face, pname gl.MaterialParam, params []float32) {
	slots := glstate.MaterialSlots(face, pname)
	if slots == nil {
		c.st.Error(gl.InvalidEnum, "Materialfv")
		return
	}
	n := 4
	switch pname {
	case gl.Shininess:
		n = 1
	case gl.ColorIndexes:
		n = 3
	}
	if len(params) < n {
		c.st.Error(gl.InvalidValue, "Materialfv")
		return
	}
	v := attrib.Floats(params[:n]...)
	for _, s := range slots {
		c.attr(s, n, gl.Float, v)
	}
}

// SetColorMaterial makes color0 drive the pname material of face. Enabling
// copies the current color into the material at once.
func (c *Context) SetColorMaterial(enabled bool, face gl.Face, pname gl.MaterialParam) {
	if glstate.MaterialSlots(face, pname) == nil || pname == gl.Shininess || pname == gl.ColorIndexes {
		c.st.Error(gl.InvalidEnum, "ColorMaterial")
		return
	}
	if !c.flushState("ColorMaterial") {
		return
	}
	c.st.ColorMaterial = glstate.ColorMaterial{Enabled: enabled, Face: face, Param: pname}
	if enabled {
		c.st.ApplyColorMaterial()
	}
}

// EvalCoord1f evaluates the enabled one-dimensional maps at u.
func (c *Context) EvalCoord1f(u float32) { c.evalCoord(1, u, 0) }

// EvalCoord2f evaluates the enabled two-dimensional maps at (u, v).
func (c *Context) EvalCoord2f(u, v float32) { c.evalCoord(2, u, v) }

// EvalPoint1 evaluates grid point i.
func (c *Context) EvalPoint1(i int) { c.evalPoint(1, i, 0) }

// EvalPoint2 evaluates grid point (i, j).
func (c *Context) EvalPoint2(i, j int) { c.evalPoint(2, i, j) }

// Evaluators run at replay time against the state then current, so a
// compiled Begin/End block that uses them is recorded call by call from
// that point.
func (c *Context) evalCoord(dims int, u, v float32) {
	if c.Dispatch() == DispatchRecording {
		c.suspend()
		c.record(op{kind: opEvalCoord, dims: dims, u: u, w: v})
		return
	}
	c.eval.EvalCoord(c, dims, u, v)
}

func (c *Context) evalPoint(dims, i, j int) {
	if c.Dispatch() == DispatchRecording {
		c.suspend()
		c.record(op{kind: opEvalPoint, dims: dims, i: i, j: j})
		return
	}
	c.eval.EvalPoint(c, dims, i, j)
}
