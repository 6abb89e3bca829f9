// Package vbo is an immediate-mode vertex engine with display-list
// compilation, in the style of the OpenGL compatibility profile.
//
// # Overview
//
// Vertices are specified one attribute call at a time between Begin and
// End. The immediate path packs them into interleaved vertex batches and
// draws each batch when its buffer fills, when state changes or on Flush.
// Between NewList and EndList the same calls are compiled into immutable
// nodes instead, packed into shared device buffers and replayed by
// CallList.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/vbo"
//	    "github.com/gogpu/vbo/gl"
//	    _ "github.com/gogpu/vbo/backend/capture"
//	)
//
//	ctx, err := vbo.New(vbo.WithBackend("capture"))
//	if err != nil {
//	    return err
//	}
//	defer ctx.Close()
//
//	ctx.Begin(gl.Triangles)
//	ctx.Color3f(1, 0, 0)
//	ctx.Vertex2f(0, 0)
//	ctx.Vertex2f(1, 0)
//	ctx.Vertex2f(0, 1)
//	ctx.End()
//	ctx.Flush()
//
// # Architecture
//
// The context routes every entry point by its dispatch mode (immediate,
// recording or no-op) to one of:
//   - exec: the immediate-mode accumulator
//   - save: the display-list compiler and replayer
//
// Both share the attribute slot table (attrib), the vertex and primitive
// stores (store) and the primitive rules (prim). Device buffers and draws
// go through the gpucore collaborator interfaces, implemented by the
// backends under backend/.
//
// # Errors
//
// GL errors are recorded on the context, the first one sticking until
// GetError. Allocation failures raise OUT_OF_MEMORY and switch vertex
// calls to the no-op dispatch until the next primitive can allocate.
package vbo

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
