package main

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/gogpu/vbo"
	"github.com/gogpu/vbo/gl"
)

var faces = map[string]gl.Face{
	"front":          gl.Front,
	"back":           gl.Back,
	"front_and_back": gl.FrontAndBack,
}

var materialParams = map[string]gl.MaterialParam{
	"ambient":             gl.Ambient,
	"diffuse":             gl.Diffuse,
	"specular":            gl.Specular,
	"emission":            gl.Emission,
	"shininess":           gl.Shininess,
	"ambient_and_diffuse": gl.AmbientAndDiffuse,
	"color_indexes":       gl.ColorIndexes,
}

var listModes = map[string]gl.ListMode{
	"compile":             gl.Compile,
	"compile_and_execute": gl.CompileAndExecute,
}

// runScript executes src with the gl table bound to ctx.
func runScript(ctx *vbo.Context, src string) error {
	L := lua.NewState()
	defer L.Close()

	s := &bindings{ctx: ctx}
	mod := L.NewTable()
	L.SetFuncs(mod, s.funcs())
	L.SetGlobal("gl", mod)

	if err := L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

type bindings struct {
	ctx *vbo.Context
}

func (s *bindings) funcs() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"Begin":            s.begin,
		"End":              s.nullary(s.ctx.End),
		"PrimitiveRestart": s.nullary(s.ctx.PrimitiveRestart),
		"Flush":            s.nullary(s.ctx.Flush),
		"Vertex":           s.vertex,
		"Color":            s.color,
		"SecondaryColor":   s.secondaryColor,
		"Normal":           s.normal,
		"TexCoord":         s.texCoord,
		"FogCoord":         s.fogCoord,
		"EdgeFlag":         s.edgeFlag,
		"VertexAttrib":     s.vertexAttrib,
		"Material":         s.material,
		"ColorMaterial":    s.colorMaterial,
		"GenLists":         s.genLists,
		"IsList":           s.isList,
		"NewList":          s.newList,
		"EndList":          s.nullary(s.ctx.EndList),
		"CallList":         s.callList,
		"CallLists":        s.callLists,
		"DeleteLists":      s.deleteLists,
		"ListBase":         s.listBase,
		"GetError":         s.getError,
	}
}

func (s *bindings) nullary(fn func()) lua.LGFunction {
	return func(L *lua.LState) int {
		fn()
		return 0
	}
}

// floats returns the numeric arguments from index first on. It raises an
// argument error when their count is outside [lo, hi].
func floats(L *lua.LState, first, lo, hi int) []float32 {
	n := L.GetTop() - first + 1
	if n < lo || n > hi {
		L.RaiseError("expected %d to %d numbers, got %d", lo, hi, max(n, 0))
	}
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(L.CheckNumber(first + i))
	}
	return v
}

func lookup[T any](L *lua.LState, n int, table map[string]T, what string) T {
	name := L.CheckString(n)
	v, ok := table[strings.ToLower(name)]
	if !ok {
		L.ArgError(n, fmt.Sprintf("unknown %s %q", what, name))
	}
	return v
}

func (s *bindings) begin(L *lua.LState) int {
	name := L.CheckString(1)
	mode, ok := gl.ParseMode(name)
	if !ok {
		L.ArgError(1, fmt.Sprintf("unknown primitive mode %q", name))
	}
	s.ctx.Begin(mode)
	return 0
}

func (s *bindings) vertex(L *lua.LState) int {
	v := floats(L, 1, 2, 4)
	switch len(v) {
	case 2:
		s.ctx.Vertex2f(v[0], v[1])
	case 3:
		s.ctx.Vertex3f(v[0], v[1], v[2])
	default:
		s.ctx.Vertex4f(v[0], v[1], v[2], v[3])
	}
	return 0
}

func (s *bindings) color(L *lua.LState) int {
	v := floats(L, 1, 3, 4)
	if len(v) == 3 {
		s.ctx.Color3f(v[0], v[1], v[2])
	} else {
		s.ctx.Color4f(v[0], v[1], v[2], v[3])
	}
	return 0
}

func (s *bindings) secondaryColor(L *lua.LState) int {
	v := floats(L, 1, 3, 3)
	s.ctx.SecondaryColor3f(v[0], v[1], v[2])
	return 0
}

func (s *bindings) normal(L *lua.LState) int {
	v := floats(L, 1, 3, 3)
	s.ctx.Normal3f(v[0], v[1], v[2])
	return 0
}

func (s *bindings) texCoord(L *lua.LState) int {
	v := floats(L, 1, 1, 4)
	switch len(v) {
	case 1:
		s.ctx.TexCoord1f(v[0])
	case 2:
		s.ctx.TexCoord2f(v[0], v[1])
	case 3:
		s.ctx.TexCoord3f(v[0], v[1], v[2])
	default:
		s.ctx.TexCoord4f(v[0], v[1], v[2], v[3])
	}
	return 0
}

func (s *bindings) fogCoord(L *lua.LState) int {
	s.ctx.FogCoordf(float32(L.CheckNumber(1)))
	return 0
}

func (s *bindings) edgeFlag(L *lua.LState) int {
	s.ctx.EdgeFlag(L.CheckBool(1))
	return 0
}

func (s *bindings) vertexAttrib(L *lua.LState) int {
	index := L.CheckInt(1)
	v := floats(L, 2, 1, 4)
	switch len(v) {
	case 1:
		s.ctx.VertexAttrib1f(index, v[0])
	case 2:
		s.ctx.VertexAttrib2f(index, v[0], v[1])
	case 3:
		s.ctx.VertexAttrib3f(index, v[0], v[1], v[2])
	default:
		s.ctx.VertexAttrib4f(index, v[0], v[1], v[2], v[3])
	}
	return 0
}

func (s *bindings) material(L *lua.LState) int {
	face := lookup(L, 1, faces, "face")
	pname := lookup(L, 2, materialParams, "material parameter")
	s.ctx.Materialfv(face, pname, floats(L, 3, 1, 4))
	return 0
}

func (s *bindings) colorMaterial(L *lua.LState) int {
	enabled := L.CheckBool(1)
	face, pname := gl.FrontAndBack, gl.AmbientAndDiffuse
	if L.GetTop() >= 2 {
		face = lookup(L, 2, faces, "face")
	}
	if L.GetTop() >= 3 {
		pname = lookup(L, 3, materialParams, "material parameter")
	}
	s.ctx.SetColorMaterial(enabled, face, pname)
	return 0
}

func (s *bindings) genLists(L *lua.LState) int {
	L.Push(lua.LNumber(s.ctx.GenLists(L.CheckInt(1))))
	return 1
}

func (s *bindings) isList(L *lua.LState) int {
	L.Push(lua.LBool(s.ctx.IsList(uint32(L.CheckInt(1)))))
	return 1
}

func (s *bindings) newList(L *lua.LState) int {
	name := uint32(L.CheckInt(1))
	mode := gl.Compile
	if L.GetTop() >= 2 {
		mode = lookup(L, 2, listModes, "list mode")
	}
	s.ctx.NewList(name, mode)
	return 0
}

func (s *bindings) callList(L *lua.LState) int {
	s.ctx.CallList(uint32(L.CheckInt(1)))
	return 0
}

func (s *bindings) callLists(L *lua.LState) int {
	names := make([]uint32, L.GetTop())
	for i := range names {
		names[i] = uint32(L.CheckInt(i + 1))
	}
	s.ctx.CallLists(names...)
	return 0
}

func (s *bindings) deleteLists(L *lua.LState) int {
	s.ctx.DeleteLists(uint32(L.CheckInt(1)), L.OptInt(2, 1))
	return 0
}

func (s *bindings) listBase(L *lua.LState) int {
	s.ctx.SetListBase(uint32(L.CheckInt(1)))
	return 0
}

func (s *bindings) getError(L *lua.LState) int {
	L.Push(lua.LString(s.ctx.GetError().String()))
	return 1
}
