// Package cache provides a small generic LRU cache.
//
// The display-list compiler keeps the vertex-array descriptors it has built
// in a Cache keyed by buffer, layout and view, so lists packed into the same
// arena with the same layout share one descriptor:
//
//	c := cache.New[key, *gpucore.VertexArray](64)
//	va, ok := c.Get(k)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
