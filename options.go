package vbo

import (
	"github.com/gogpu/vbo/glstate"
	"github.com/gogpu/vbo/gpucore"
)

// Option configures a Context during creation.
//
// Example:
//
//	import _ "github.com/gogpu/vbo/backend/capture"
//
//	ctx, err := vbo.New(vbo.WithBackend("capture"), vbo.WithMaxPrims(32))
type Option func(*options)

// options holds optional configuration for Context creation.
type options struct {
	backend   string
	allocator gpucore.BufferAllocator
	drawer    gpucore.Drawer
	caps      *gpucore.Caps

	execBufferSize int
	arenaSize      int
	storeSize      int
	maxPrims       int
	dedup          bool

	onError   glstate.ErrorHandler
	evaluator Evaluator
}

// WithBackend selects a registered backend by name. The backend supplies the
// allocator, the drawer and the caps unless they are set explicitly.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithAllocator sets the buffer allocator.
func WithAllocator(a gpucore.BufferAllocator) Option {
	return func(o *options) {
		o.allocator = a
	}
}

// WithDrawer sets the draw collaborator.
func WithDrawer(d gpucore.Drawer) Option {
	return func(o *options) {
		o.drawer = d
	}
}

// WithCaps overrides the capabilities reported by the backend.
func WithCaps(c gpucore.Caps) Option {
	return func(o *options) {
		o.caps = &c
	}
}

// WithExecBufferSize sets the immediate-mode vertex buffer size in bytes.
func WithExecBufferSize(n int) Option {
	return func(o *options) {
		o.execBufferSize = n
	}
}

// WithSaveBufferSize sets the size in bytes of each arena display lists are
// packed into.
func WithSaveBufferSize(n int) Option {
	return func(o *options) {
		o.arenaSize = n
	}
}

// WithNodeSize bounds the vertex bytes of one compiled list node.
func WithNodeSize(n int) Option {
	return func(o *options) {
		o.storeSize = n
	}
}

// WithMaxPrims sets the primitive capacity of both the immediate batch and
// a compiled node.
func WithMaxPrims(n int) Option {
	return func(o *options) {
		o.maxPrims = n
	}
}

// WithDedup controls collapsing identical vertices in compiled lists. It is
// on by default.
func WithDedup(on bool) Option {
	return func(o *options) {
		o.dedup = on
	}
}

// WithErrorHandler observes every GL error as it is raised.
func WithErrorHandler(h glstate.ErrorHandler) Option {
	return func(o *options) {
		o.onError = h
	}
}

// WithEvaluator sets the collaborator behind the EvalCoord and EvalPoint
// entry points.
func WithEvaluator(e Evaluator) Option {
	return func(o *options) {
		o.evaluator = e
	}
}

// WithConfig applies a loaded Config. Options after it override its values.
func WithConfig(c *Config) Option {
	return func(o *options) {
		if c == nil {
			return
		}
		if c.Backend != "" {
			o.backend = c.Backend
		}
		if c.ExecBufferSize > 0 {
			o.execBufferSize = c.ExecBufferSize
		}
		if c.SaveBufferSize > 0 {
			o.arenaSize = c.SaveBufferSize
		}
		if c.NodeSize > 0 {
			o.storeSize = c.NodeSize
		}
		if c.MaxPrims > 0 {
			o.maxPrims = c.MaxPrims
		}
		if c.Dedup != nil {
			o.dedup = *c.Dedup
		}
		if caps, ok := c.Caps(); ok {
			o.caps = &caps
		}
	}
}
