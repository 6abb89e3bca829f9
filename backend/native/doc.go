// Package native provides a GPU collaborator for the vertex engine on top of
// gogpu/wgpu/hal.
//
// The backend owns device buffers, a lazily created offscreen color target
// and a cache of render pipelines keyed by vertex layout and topology.
// Buffers keep a CPU shadow: MapBuffer hands out the shadow and UnmapBuffer
// uploads the written range with hal.Queue.WriteBuffer, so the engine's
// map/write/unmap protocol works on devices without mappable vertex memory.
//
// Pipelines use a vertex shader generated from the vertex-array layout,
// written in WGSL and compiled to SPIR-V with naga.
//
// # Usage
//
//	b, err := native.New(device, queue)
//	if err != nil {
//	    return err
//	}
//	defer b.Destroy()
//
//	ctx, err := vbo.New(vbo.WithAllocator(b), vbo.WithDrawer(b), vbo.WithCaps(b.Caps()))
//
// or share the device of a gogpu application:
//
//	b, err := native.NewFromProvider(app.DeviceProvider())
package native
