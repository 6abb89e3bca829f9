package native

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/gpucore"
)

// SupportedModes are the modes with a WebGPU primitive topology.
var SupportedModes = gl.MaskOf(gl.Points) | gl.MaskOf(gl.Lines) | gl.MaskOf(gl.LineStrip) |
	gl.MaskOf(gl.Triangles) | gl.MaskOf(gl.TriangleStrip)

// convertBufferUsage converts gpucore.BufferUsage to gputypes.BufferUsage.
// Map usages are dropped: writes go through the queue, so every buffer is a
// copy destination.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	result := gputypes.BufferUsageCopyDst
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageIndex != 0 {
		result |= gputypes.BufferUsageIndex
	}
	if usage&gpucore.BufferUsageVertex != 0 {
		result |= gputypes.BufferUsageVertex
	}
	return result
}

// topology returns the primitive topology drawing mode.
func topology(mode gl.Mode) (gputypes.PrimitiveTopology, bool) {
	switch mode {
	case gl.Points:
		return gputypes.PrimitiveTopologyPointList, true
	case gl.Lines:
		return gputypes.PrimitiveTopologyLineList, true
	case gl.LineStrip:
		return gputypes.PrimitiveTopologyLineStrip, true
	case gl.Triangles:
		return gputypes.PrimitiveTopologyTriangleList, true
	case gl.TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, true
	}
	return 0, false
}

// vertexFormat returns the vertex format of an attribute. Doubles and
// 64-bit integers have no vertex format.
func vertexFormat(a gpucore.VertexAttrib) (gputypes.VertexFormat, bool) {
	var formats [4]gputypes.VertexFormat
	switch a.Type {
	case gl.Float:
		formats = [4]gputypes.VertexFormat{
			gputypes.VertexFormatFloat32, gputypes.VertexFormatFloat32x2,
			gputypes.VertexFormatFloat32x3, gputypes.VertexFormatFloat32x4,
		}
	case gl.Int:
		formats = [4]gputypes.VertexFormat{
			gputypes.VertexFormatSint32, gputypes.VertexFormatSint32x2,
			gputypes.VertexFormatSint32x3, gputypes.VertexFormatSint32x4,
		}
	case gl.UnsignedInt:
		formats = [4]gputypes.VertexFormat{
			gputypes.VertexFormatUint32, gputypes.VertexFormatUint32x2,
			gputypes.VertexFormatUint32x3, gputypes.VertexFormatUint32x4,
		}
	default:
		return 0, false
	}
	if a.Size < 1 || a.Size > 4 {
		return 0, false
	}
	return formats[a.Size-1], true
}

// vertexLayout returns the buffer layout of va and the attributes it
// carries. Attributes without a vertex format are left out.
func vertexLayout(va *gpucore.VertexArray) (gputypes.VertexBufferLayout, []gpucore.VertexAttrib) {
	layout := gputypes.VertexBufferLayout{
		ArrayStride: uint64(va.Stride),
		StepMode:    gputypes.VertexStepModeVertex,
	}
	var used []gpucore.VertexAttrib
	for _, a := range va.Attribs {
		f, ok := vertexFormat(a)
		if !ok {
			slogger().Debug("native: attribute has no vertex format", "location", a.Location, "type", a.Type)
			continue
		}
		layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
			Format:         f,
			Offset:         uint64(a.Offset),
			ShaderLocation: uint32(a.Location),
		})
		used = append(used, a)
	}
	return layout, used
}
