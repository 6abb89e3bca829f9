// Package gpucore defines the collaborators the vertex engine drives: a
// buffer allocator, a draw submitter and the descriptors passed between
// them.
//
// # Architecture
//
// The accumulators in exec and save never touch a GPU API. They produce
// vertex-array descriptors (buffer + stride + per-attribute offset, size
// and type) and draw ranges, and hand them to a [Drawer]. Buffers are
// obtained from a [BufferAllocator]. Backends implement both:
//
//	               +-----------------+
//	               |   exec / save   |
//	               +--------+--------+
//	                        |
//	        BufferAllocator | Drawer
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/capture |          | backend/native  |
//	|  (system RAM)   |          |  (hal.Device)   |
//	+-----------------+          +-----------------+
//
// # Resource Management
//
// Buffers are referenced by opaque [BufferID] values. Allocators track the
// mapping between IDs and their storage. A mapped range stays valid until
// the matching [BufferAllocator.UnmapBuffer] call.
//
// # WebGPU Conversion
//
// [VertexArray.BufferLayout] and [Topology] translate descriptors into
// gputypes values for backends that build render pipelines.
package gpucore
