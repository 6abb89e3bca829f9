// Package store holds the flat vertex and primitive arrays filled by the
// accumulators between flushes.
package store

import (
	"errors"

	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/prim"
)

// ErrOutOfMemory is returned when a store cannot grow.
var ErrOutOfMemory = errors.New("store: out of memory")

// AllocFunc allocates a word slice of at least n words. A nil AllocFunc
// uses make.
type AllocFunc func(n int) ([]uint32, error)

// VertexStore is a growable array of vertex words.
//
// Used is always a multiple of the vertex size while the vertex size is
// non-zero. Once an allocation fails the store is out of memory and every
// mutating call is ignored until Recover.
type VertexStore struct {
	words      []uint32
	used       int
	vertexSize int
	alloc      AllocFunc
	oom        bool
}

// NewVertexStore returns a store with room for capacity words.
func NewVertexStore(capacity int, alloc AllocFunc) *VertexStore {
	s := &VertexStore{alloc: alloc}
	if capacity > 0 {
		if err := s.grow(capacity); err != nil {
			s.oom = true
		}
	}
	return s
}

func (s *VertexStore) grow(n int) error {
	if n <= len(s.words) {
		return nil
	}
	newCap := 2 * len(s.words)
	if newCap < n {
		newCap = n
	}
	var buf []uint32
	if s.alloc != nil {
		b, err := s.alloc(newCap)
		if err != nil {
			return err
		}
		buf = b[:newCap]
	} else {
		buf = make([]uint32, newCap)
	}
	copy(buf, s.words[:s.used])
	s.words = buf
	return nil
}

// Reserve grows the store so that n more words fit.
func (s *VertexStore) Reserve(n int) error {
	if s.oom {
		return ErrOutOfMemory
	}
	if err := s.grow(s.used + n); err != nil {
		s.oom = true
		return errors.Join(ErrOutOfMemory, err)
	}
	return nil
}

// Append copies one vertex into the store.
func (s *VertexStore) Append(v []uint32) error {
	if err := s.Reserve(len(v)); err != nil {
		return err
	}
	copy(s.words[s.used:], v)
	s.used += len(v)
	return nil
}

// Reset empties the store without releasing memory.
func (s *VertexStore) Reset() { s.used = 0 }

// SetVertexSize changes the vertex size. The store must be empty.
func (s *VertexStore) SetVertexSize(n int) {
	if s.used != 0 && n != s.vertexSize {
		panic("store: vertex size changed with vertices stored")
	}
	s.vertexSize = n
}

// VertexSize returns the vertex size in words.
func (s *VertexStore) VertexSize() int { return s.vertexSize }

// Used returns the number of words stored.
func (s *VertexStore) Used() int { return s.used }

// Cap returns the allocated capacity in words.
func (s *VertexStore) Cap() int { return len(s.words) }

// Count returns the number of vertices stored.
func (s *VertexStore) Count() int {
	if s.vertexSize == 0 {
		return 0
	}
	return s.used / s.vertexSize
}

// Words returns the stored words.
func (s *VertexStore) Words() []uint32 { return s.words[:s.used] }

// Vertex returns vertex i.
func (s *VertexStore) Vertex(i int) []uint32 {
	return s.words[i*s.vertexSize : (i+1)*s.vertexSize]
}

// OutOfMemory reports whether an allocation has failed.
func (s *VertexStore) OutOfMemory() bool { return s.oom }

// Recover clears the out-of-memory state and empties the store.
func (s *VertexStore) Recover() {
	s.oom = false
	s.used = 0
}

// PrimitiveStore is an append-only list of primitive descriptors.
type PrimitiveStore struct {
	prims []prim.Prim
	max   int
}

// NewPrimitiveStore returns a store that holds at most max primitives.
// A max of zero means unbounded.
func NewPrimitiveStore(max int) *PrimitiveStore {
	n := max
	if n == 0 {
		n = 16
	}
	return &PrimitiveStore{prims: make([]prim.Prim, 0, n), max: max}
}

// Begin opens a primitive at vertex start.
func (p *PrimitiveStore) Begin(mode gl.Mode, start int) *prim.Prim {
	p.prims = append(p.prims, prim.Prim{Mode: mode, Start: start, Begin: true})
	return &p.prims[len(p.prims)-1]
}

// End closes the last primitive given the current vertex count.
func (p *PrimitiveStore) End(vertexCount int) *prim.Prim {
	last := p.Last()
	last.Count = vertexCount - last.Start
	last.End = true
	return last
}

// Last returns the most recent primitive or nil.
func (p *PrimitiveStore) Last() *prim.Prim {
	if len(p.prims) == 0 {
		return nil
	}
	return &p.prims[len(p.prims)-1]
}

// DropLast removes the most recent primitive.
func (p *PrimitiveStore) DropLast() { p.prims = p.prims[:len(p.prims)-1] }

// Len returns the number of primitives.
func (p *PrimitiveStore) Len() int { return len(p.prims) }

// Full reports whether the store reached its cap.
func (p *PrimitiveStore) Full() bool { return p.max > 0 && len(p.prims) >= p.max }

// Prims returns the stored primitives.
func (p *PrimitiveStore) Prims() []prim.Prim { return p.prims }

// Reset empties the store without releasing memory.
func (p *PrimitiveStore) Reset() { p.prims = p.prims[:0] }
