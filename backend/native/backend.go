package native

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vbo/gpucore"
	"github.com/gogpu/vbo/internal/cache"
)

// Defaults for the offscreen target and the pipeline cache.
const (
	DefaultTargetSize    = 256
	DefaultPipelineCache = 32
)

// Stats counts backend activity.
type Stats struct {
	Buffers     int
	Uploads     int
	UploadBytes int
	Draws       int
	Submits     int
	Pipelines   int
}

// Option configures a Backend.
type Option func(*Backend)

// WithTargetSize sets the size of the offscreen color target.
func WithTargetSize(width, height uint32) Option {
	return func(b *Backend) {
		if width > 0 && height > 0 {
			b.width, b.height = width, height
		}
	}
}

// WithTargetFormat sets the format of the offscreen color target.
func WithTargetFormat(f gputypes.TextureFormat) Option {
	return func(b *Backend) { b.format = f }
}

// WithPipelineCacheSize bounds the number of cached render pipelines.
func WithPipelineCacheSize(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.cacheSize = n
		}
	}
}

type buffer struct {
	hal    hal.Buffer
	size   int
	shadow []byte
	usage  gputypes.BufferUsage

	// dirty is the byte range written since the last upload.
	dirtyLo, dirtyHi int
}

// Backend is a gpucore.Backend drawing with a HAL device. It is safe for
// concurrent use.
type Backend struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue

	nextID  gpucore.BufferID
	buffers map[gpucore.BufferID]*buffer

	cacheSize int
	pipelines *cache.Cache[pipelineKey, *pipeline]

	width, height uint32
	format        gputypes.TextureFormat
	target        hal.Texture
	targetView    hal.TextureView

	stats Stats
}

// New returns a backend drawing with device and queue.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Backend, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	b := &Backend{
		device:    device,
		queue:     queue,
		buffers:   make(map[gpucore.BufferID]*buffer),
		cacheSize: DefaultPipelineCache,
		width:     DefaultTargetSize,
		height:    DefaultTargetSize,
		format:    gputypes.TextureFormatBGRA8Unorm,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pipelines = cache.New[pipelineKey, *pipeline](b.cacheSize)
	b.pipelines.OnEvict(func(_ pipelineKey, p *pipeline) { p.destroy(b.device) })
	return b, nil
}

// NewFromProvider returns a backend sharing the device of provider, which
// must expose HalDevice() and HalQueue(). The target uses the provider's
// surface format unless an option overrides it.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}
	opts = append([]Option{WithTargetFormat(provider.SurfaceFormat())}, opts...)
	return New(device, queue, opts...)
}

// Caps reports the modes with a native topology. Buffers are never drawn
// while mapped.
func (b *Backend) Caps() gpucore.Caps {
	return gpucore.Caps{SupportedModes: SupportedModes}
}

// SetLogger sets the package logger.
func (b *Backend) SetLogger(l *slog.Logger) { SetLogger(l) }

// Stats returns activity counters.
func (b *Backend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.stats
	s.Buffers = len(b.buffers)
	s.Pipelines = b.pipelines.Len()
	return s
}

// CreateBuffer allocates a device buffer with a zeroed shadow.
func (b *Backend) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("native: buffer size %d must be positive", size)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	buf, err := b.createBuffer(id, size, convertBufferUsage(usage))
	if err != nil {
		return gpucore.InvalidID, err
	}
	b.buffers[id] = buf
	slogger().Debug("native: buffer created", "buffer", uint64(id), "size", size)
	return id, nil
}

func (b *Backend) createBuffer(id gpucore.BufferID, size int, usage gputypes.BufferUsage) (*buffer, error) {
	aligned := align4(size)
	hb, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("vbo_buffer_%d", id),
		Size:  uint64(aligned),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create buffer: %w", err)
	}
	return &buffer{hal: hb, size: size, shadow: make([]byte, aligned), usage: usage}, nil
}

// MapBuffer returns the shadow of [offset, offset+size). The range is
// uploaded by UnmapBuffer.
func (b *Backend) MapBuffer(id gpucore.BufferID, offset, size int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownBuffer, id)
	}
	if offset < 0 || size < 0 || offset+size > buf.size {
		return nil, fmt.Errorf("%w: [%d,%d) of %d", ErrOutOfRange, offset, offset+size, buf.size)
	}
	if buf.dirtyHi == buf.dirtyLo {
		buf.dirtyLo, buf.dirtyHi = offset, offset+size
	} else {
		buf.dirtyLo = min(buf.dirtyLo, offset)
		buf.dirtyHi = max(buf.dirtyHi, offset+size)
	}
	return buf.shadow[offset : offset+size], nil
}

// UnmapBuffer uploads the ranges written since the last unmap.
func (b *Backend) UnmapBuffer(id gpucore.BufferID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownBuffer, id)
	}
	b.upload(buf)
	return nil
}

// upload writes the dirty range widened to 4-byte alignment.
func (b *Backend) upload(buf *buffer) {
	if buf.dirtyHi <= buf.dirtyLo {
		return
	}
	lo, hi := buf.dirtyLo&^3, align4(buf.dirtyHi)
	b.queue.WriteBuffer(buf.hal, uint64(lo), buf.shadow[lo:hi])
	b.stats.Uploads++
	b.stats.UploadBytes += hi - lo
	buf.dirtyLo, buf.dirtyHi = 0, 0
}

// ResizeBuffer replaces the device buffer with one of size bytes holding
// the same contents.
func (b *Backend) ResizeBuffer(id gpucore.BufferID, size int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	old, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownBuffer, id)
	}
	buf, err := b.createBuffer(id, size, old.usage)
	if err != nil {
		return err
	}
	n := copy(buf.shadow, old.shadow[:min(old.size, size)])
	buf.dirtyLo, buf.dirtyHi = 0, n
	b.upload(buf)
	b.device.DestroyBuffer(old.hal)
	b.buffers[id] = buf
	return nil
}

// DestroyBuffer releases a buffer. Unknown IDs are ignored.
func (b *Backend) DestroyBuffer(id gpucore.BufferID) {
	b.mu.Lock()
	buf, ok := b.buffers[id]
	if ok {
		delete(b.buffers, id)
	}
	b.mu.Unlock()

	if ok {
		b.device.DestroyBuffer(buf.hal)
	}
}

// Destroy releases every buffer, pipeline and the target. The device and
// queue are not destroyed.
func (b *Backend) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, buf := range b.buffers {
		b.device.DestroyBuffer(buf.hal)
		delete(b.buffers, id)
	}
	b.pipelines.Clear()
	if b.targetView != nil {
		b.device.DestroyTextureView(b.targetView)
		b.targetView = nil
	}
	if b.target != nil {
		b.device.DestroyTexture(b.target)
		b.target = nil
	}
}

func align4(n int) int { return (n + 3) &^ 3 }
