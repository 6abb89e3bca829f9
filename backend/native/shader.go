package native

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/gpucore"
)

// GenerateShader returns the WGSL source drawing vertices with attribs.
// Location 0 is the position and the color location, when present as
// floats, is the fragment color.
func GenerateShader(attribs []gpucore.VertexAttrib) (string, error) {
	var pos, color *gpucore.VertexAttrib
	var b strings.Builder

	b.WriteString("struct VertexInput {\n")
	for i := range attribs {
		a := &attribs[i]
		fmt.Fprintf(&b, "    @location(%d) a%d: %s,\n", a.Location, a.Location, wgslType(a))
		switch {
		case a.Location == int(attrib.Pos) && a.Type == gl.Float:
			pos = a
		case a.Location == int(attrib.Color0) && a.Type == gl.Float:
			color = a
		}
	}
	b.WriteString("};\n\n")
	if pos == nil {
		return "", ErrNoPosition
	}

	b.WriteString(`struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
`)
	fmt.Fprintf(&b, "    out.position = %s;\n", expand(pos, "0.0, 0.0, 0.0, 1.0"))
	if color != nil {
		fmt.Fprintf(&b, "    out.color = %s;\n", expand(color, "0.0, 0.0, 0.0, 1.0"))
	} else {
		b.WriteString("    out.color = vec4<f32>(1.0, 1.0, 1.0, 1.0);\n")
	}
	b.WriteString(`    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`)
	return b.String(), nil
}

func wgslType(a *gpucore.VertexAttrib) string {
	scalar := "f32"
	switch a.Type {
	case gl.Int:
		scalar = "i32"
	case gl.UnsignedInt:
		scalar = "u32"
	}
	if a.Size == 1 {
		return scalar
	}
	return fmt.Sprintf("vec%d<%s>", a.Size, scalar)
}

// expand widens a float input to vec4 with the missing components taken
// from defaults.
func expand(a *gpucore.VertexAttrib, defaults string) string {
	if a.Size == 4 {
		return fmt.Sprintf("in.a%d", a.Location)
	}
	fill := strings.Split(defaults, ", ")[a.Size:]
	return fmt.Sprintf("vec4<f32>(in.a%d, %s)", a.Location, strings.Join(fill, ", "))
}

// CompileShader compiles WGSL to SPIR-V words.
func CompileShader(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("native: compile shader: %w", err)
	}
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}
