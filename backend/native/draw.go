package native

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vbo/gpucore"
)

type pipelineKey struct {
	layout   string
	topology gputypes.PrimitiveTopology
}

// layoutKey identifies a vertex buffer layout.
func layoutKey(l gputypes.VertexBufferLayout) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d", l.ArrayStride)
	for _, a := range l.Attributes {
		fmt.Fprintf(&sb, ";%d:%d@%d", a.ShaderLocation, a.Format, a.Offset)
	}
	return sb.String()
}

type pipeline struct {
	shader hal.ShaderModule
	layout hal.PipelineLayout
	pipe   hal.RenderPipeline
}

func (p *pipeline) destroy(device hal.Device) {
	if p.pipe != nil {
		device.DestroyRenderPipeline(p.pipe)
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
	}
}

// pipelineFor returns the cached pipeline for key, creating it on a miss.
func (b *Backend) pipelineFor(key pipelineKey, vl gputypes.VertexBufferLayout, used []gpucore.VertexAttrib) (*pipeline, error) {
	if p, ok := b.pipelines.Get(key); ok {
		return p, nil
	}
	p, err := b.createPipeline(key.topology, vl, used)
	if err != nil {
		return nil, err
	}
	b.pipelines.Set(key, p)
	slogger().Debug("native: pipeline created", "layout", key.layout, "topology", key.topology)
	return p, nil
}

func (b *Backend) createPipeline(topo gputypes.PrimitiveTopology, vl gputypes.VertexBufferLayout, used []gpucore.VertexAttrib) (*pipeline, error) {
	wgsl, err := GenerateShader(used)
	if err != nil {
		return nil, err
	}
	code, err := CompileShader(wgsl)
	if err != nil {
		return nil, err
	}

	p := &pipeline{}
	p.shader, err = b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "vbo_shader",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module: %w", err)
	}
	p.layout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "vbo_pipe_layout",
	})
	if err != nil {
		p.destroy(b.device)
		return nil, fmt.Errorf("native: create pipeline layout: %w", err)
	}
	p.pipe, err = b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "vbo_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    []gputypes.VertexBufferLayout{vl},
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: b.format, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topo,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.destroy(b.device)
		return nil, fmt.Errorf("native: create render pipeline: %w", err)
	}
	return p, nil
}

func (b *Backend) ensureTarget() error {
	if b.targetView != nil {
		return nil
	}
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "vbo_target",
		Size:          hal.Extent3D{Width: b.width, Height: b.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        b.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("native: create target: %w", err)
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "vbo_target_view"})
	if err != nil {
		b.device.DestroyTexture(tex)
		return fmt.Errorf("native: create target view: %w", err)
	}
	b.target, b.targetView = tex, view
	return nil
}

// Draw encodes one render pass over the offscreen target with a draw per
// range and submits it without waiting.
func (b *Backend) Draw(va *gpucore.VertexArray, ib *gpucore.IndexBuffer, draws []gpucore.Draw) error {
	if len(draws) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	vb, ok := b.buffers[va.Buffer]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownBuffer, va.Buffer)
	}
	var idx *buffer
	if ib != nil {
		if idx, ok = b.buffers[ib.Buffer]; !ok {
			return fmt.Errorf("%w %d", ErrUnknownBuffer, ib.Buffer)
		}
	}
	if err := b.ensureTarget(); err != nil {
		return err
	}

	vl, used := vertexLayout(va)
	key := layoutKey(vl)
	pipes := make([]*pipeline, len(draws))
	for i, d := range draws {
		topo, ok := topology(d.Mode)
		if !ok {
			return fmt.Errorf("%w: %v", ErrUnsupportedMode, d.Mode)
		}
		p, err := b.pipelineFor(pipelineKey{layout: key, topology: topo}, vl, used)
		if err != nil {
			return err
		}
		pipes[i] = p
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "vbo_encoder"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("vbo_draw"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "vbo_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    b.targetView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetVertexBuffer(0, vb.hal, uint64(va.Offset))
	if idx != nil {
		rp.SetIndexBuffer(idx.hal, gputypes.IndexFormatUint32, uint64(ib.Offset))
	}
	for i, d := range draws {
		rp.SetPipeline(pipes[i].pipe)
		if idx != nil {
			rp.DrawIndexed(uint32(d.Count), 1, uint32(d.Start), int32(d.BaseVertex), 0)
		} else {
			rp.Draw(uint32(d.Count), 1, uint32(d.Start+d.BaseVertex), 0)
		}
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)
	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, nil, 0); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	b.stats.Draws += len(draws)
	b.stats.Submits++
	return nil
}
