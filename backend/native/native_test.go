package native

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/vbo"
	"github.com/gogpu/vbo/attrib"
	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/gpucore"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newTestBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	device, queue := createNoopDevice(t)
	b, err := New(device, queue, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Destroy)
	return b
}

func TestNewNilDevice(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil, nil) error = %v, want ErrNilDevice", err)
	}
}

func TestBufferUpload(t *testing.T) {
	b := newTestBackend(t)
	id, err := b.CreateBuffer(30, gpucore.StreamUsage)
	if err != nil {
		t.Fatal(err)
	}

	m, err := b.MapBuffer(id, 5, 6)
	if err != nil {
		t.Fatal(err)
	}
	copy(m, "vertex")
	if err := b.UnmapBuffer(id); err != nil {
		t.Fatal(err)
	}
	st := b.Stats()
	if st.Uploads != 1 || st.UploadBytes != 8 {
		t.Errorf("Uploads = %d, UploadBytes = %d, want 1, 8", st.Uploads, st.UploadBytes)
	}

	if err := b.UnmapBuffer(id); err != nil {
		t.Fatal(err)
	}
	if got := b.Stats().Uploads; got != 1 {
		t.Errorf("Uploads after clean unmap = %d, want 1", got)
	}

	if _, err := b.MapBuffer(id, 28, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("MapBuffer past end error = %v, want ErrOutOfRange", err)
	}
	if _, err := b.MapBuffer(id+100, 0, 4); !errors.Is(err, ErrUnknownBuffer) {
		t.Errorf("MapBuffer unknown error = %v, want ErrUnknownBuffer", err)
	}
	if _, err := b.CreateBuffer(0, gpucore.StreamUsage); err == nil {
		t.Error("CreateBuffer(0) succeeded")
	}
}

func TestResizeKeepsContents(t *testing.T) {
	b := newTestBackend(t)
	id, err := b.CreateBuffer(8, gpucore.StreamUsage)
	if err != nil {
		t.Fatal(err)
	}
	m, _ := b.MapBuffer(id, 0, 8)
	copy(m, "abcdefgh")
	_ = b.UnmapBuffer(id)

	if err := b.ResizeBuffer(id, 64); err != nil {
		t.Fatal(err)
	}
	m, err = b.MapBuffer(id, 0, 64)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(m[:8]); got != "abcdefgh" {
		t.Errorf("contents after resize = %q, want abcdefgh", got)
	}

	b.DestroyBuffer(id)
	b.DestroyBuffer(id)
	if got := b.Stats().Buffers; got != 0 {
		t.Errorf("Buffers = %d, want 0", got)
	}
}

func TestVertexFormat(t *testing.T) {
	tests := []struct {
		size int
		typ  gl.Type
		want gputypes.VertexFormat
		ok   bool
	}{
		{2, gl.Float, gputypes.VertexFormatFloat32x2, true},
		{4, gl.Float, gputypes.VertexFormatFloat32x4, true},
		{1, gl.Int, gputypes.VertexFormatSint32, true},
		{3, gl.UnsignedInt, gputypes.VertexFormatUint32x3, true},
		{2, gl.Double, 0, false},
		{1, gl.UnsignedInt64, 0, false},
	}
	for _, tt := range tests {
		got, ok := vertexFormat(gpucore.VertexAttrib{Size: tt.size, Type: tt.typ})
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("vertexFormat(%d %v) = %v, %t, want %v, %t", tt.size, tt.typ, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTopology(t *testing.T) {
	for _, m := range []gl.Mode{gl.Points, gl.Lines, gl.LineStrip, gl.Triangles, gl.TriangleStrip} {
		if _, ok := topology(m); !ok {
			t.Errorf("topology(%v) missing", m)
		}
		if !SupportedModes.Has(m) {
			t.Errorf("SupportedModes lacks %v", m)
		}
	}
	for _, m := range []gl.Mode{gl.LineLoop, gl.TriangleFan, gl.Quads, gl.Polygon, gl.Patches} {
		if _, ok := topology(m); ok {
			t.Errorf("topology(%v) present", m)
		}
	}
}

func TestGenerateShader(t *testing.T) {
	attribs := []gpucore.VertexAttrib{
		{Location: int(attrib.Pos), Size: 2, Type: gl.Float},
		{Location: int(attrib.Color0), Offset: 8, Size: 3, Type: gl.Float},
		{Location: int(attrib.Generic(3)), Offset: 20, Size: 4, Type: gl.Int},
	}
	src, err := GenerateShader(attribs)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"@location(0) a0: vec2<f32>",
		"@location(2) a2: vec3<f32>",
		"@location(18) a18: vec4<i32>",
		"out.position = vec4<f32>(in.a0, 0.0, 1.0);",
		"out.color = vec4<f32>(in.a2, 1.0);",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("shader missing %q:\n%s", want, src)
		}
	}

	code, err := CompileShader(src)
	if err != nil {
		t.Fatalf("CompileShader: %v", err)
	}
	if len(code) == 0 || code[0] != 0x07230203 {
		t.Errorf("SPIR-V header = %#x, want magic", code)
	}

	if _, err := GenerateShader(attribs[1:]); !errors.Is(err, ErrNoPosition) {
		t.Errorf("GenerateShader without position error = %v, want ErrNoPosition", err)
	}
}

func TestDrawCachesPipelines(t *testing.T) {
	b := newTestBackend(t, WithTargetSize(64, 64))
	l := attrib.NewTable()
	l.Resize(attrib.Pos, 3, gl.Float)
	va := gpucore.NewVertexArray(0, 0, l.Layout(), attrib.ViewShader)

	id, err := b.CreateBuffer(3*va.Stride, gpucore.StreamUsage)
	if err != nil {
		t.Fatal(err)
	}
	va.Buffer = id

	draws := []gpucore.Draw{{Mode: gl.Triangles, Count: 3}, {Mode: gl.Points, Count: 3}}
	for i := 0; i < 2; i++ {
		if err := b.Draw(va, nil, draws); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
	st := b.Stats()
	if st.Pipelines != 2 || st.Draws != 4 || st.Submits != 2 {
		t.Errorf("Stats = %+v, want 2 pipelines, 4 draws, 2 submits", st)
	}

	if err := b.Draw(va, nil, []gpucore.Draw{{Mode: gl.Quads, Count: 4}}); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("Draw(QUADS) error = %v, want ErrUnsupportedMode", err)
	}
	if err := b.Draw(va, &gpucore.IndexBuffer{Buffer: id + 9}, draws); !errors.Is(err, ErrUnknownBuffer) {
		t.Errorf("Draw with unknown index buffer error = %v, want ErrUnknownBuffer", err)
	}
}

func TestPipelineEviction(t *testing.T) {
	b := newTestBackend(t, WithPipelineCacheSize(1))
	l := attrib.NewTable()
	l.Resize(attrib.Pos, 2, gl.Float)
	va := gpucore.NewVertexArray(0, 0, l.Layout(), attrib.ViewShader)
	id, _ := b.CreateBuffer(64, gpucore.StreamUsage)
	va.Buffer = id

	for _, m := range []gl.Mode{gl.Points, gl.Lines, gl.Triangles} {
		if err := b.Draw(va, nil, []gpucore.Draw{{Mode: m, Count: 2}}); err != nil {
			t.Fatal(err)
		}
	}
	if got := b.Stats().Pipelines; got != 1 {
		t.Errorf("Pipelines = %d, want 1", got)
	}
}

// halProvider is a gpucontext.DeviceProvider exposing HAL types.
type halProvider struct {
	gpucontext.DeviceProvider
	device hal.Device
	queue  hal.Queue
}

func (p *halProvider) HalDevice() any                         { return p.device }
func (p *halProvider) HalQueue() any                          { return p.queue }
func (p *halProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

type plainProvider struct{ gpucontext.DeviceProvider }

func TestNewFromProvider(t *testing.T) {
	device, queue := createNoopDevice(t)
	b, err := NewFromProvider(&halProvider{device: device, queue: queue})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Destroy()
	if b.format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("target format = %v, want provider surface format", b.format)
	}

	if _, err := NewFromProvider(plainProvider{}); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("NewFromProvider(plain) error = %v, want ErrNoHALProvider", err)
	}
	if _, err := NewFromProvider(&halProvider{}); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("NewFromProvider(nil device) error = %v, want ErrNoHALProvider", err)
	}
}

func TestEngineOnNoopDevice(t *testing.T) {
	b := newTestBackend(t)
	ctx, err := vbo.New(vbo.WithAllocator(b), vbo.WithDrawer(b), vbo.WithCaps(b.Caps()))
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	ctx.NewList(1, gl.Compile)
	ctx.Begin(gl.Quads)
	ctx.Color3f(1, 0, 0)
	for _, v := range [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		ctx.Vertex2f(v[0], v[1])
	}
	ctx.End()
	ctx.EndList()

	ctx.CallList(1)
	ctx.Begin(gl.LineLoop)
	ctx.Vertex2f(0, 0)
	ctx.Vertex2f(1, 0)
	ctx.Vertex2f(1, 1)
	ctx.End()
	ctx.Flush()

	if code := ctx.GetError(); code != gl.NoError {
		t.Errorf("GetError() = %v, want NO_ERROR", code)
	}
	if st := b.Stats(); st.Submits < 2 || st.Uploads == 0 {
		t.Errorf("Stats = %+v, want at least 2 submits and an upload", st)
	}
	if got := ctx.Stats().Replay.Direct; got != 1 {
		t.Errorf("direct replays = %d, want 1", got)
	}
}
