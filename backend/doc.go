// Package backend registers the collaborator sets the vertex engine can
// draw with.
//
// Backends register themselves from init, following the database/sql
// driver pattern, and are created by name:
//
//	import _ "github.com/gogpu/vbo/backend/capture"
//
//	b, err := backend.NewBackend("capture")
//
// Backends that need an external device, such as backend/native, are
// constructed directly instead.
package backend
