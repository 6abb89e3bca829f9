// Package dedup collapses byte-identical vertices onto one canonical index.
package dedup

import (
	"encoding/binary"
	"hash/fnv"
	"slices"
)

// Table maps vertices to canonical output indices. Vertices are compared
// word for word after a hash match, so hash collisions never merge
// distinct vertices.
type Table struct {
	vertexSize int
	buckets    map[uint64][]uint32
	out        []uint32
	count      int
	hits       int
	buf        [4]byte
}

// New returns a table for vertices of vertexSize words.
func New(vertexSize int) *Table {
	return &Table{
		vertexSize: vertexSize,
		buckets:    make(map[uint64][]uint32),
	}
}

func (t *Table) hash(v []uint32) uint64 {
	h := fnv.New64a()
	for _, w := range v {
		binary.LittleEndian.PutUint32(t.buf[:], w)
		h.Write(t.buf[:])
	}
	return h.Sum64()
}

// Add returns the canonical index of v, storing v when it is new.
func (t *Table) Add(v []uint32) uint32 {
	key := t.hash(v)
	for _, idx := range t.buckets[key] {
		if slices.Equal(t.Vertex(int(idx)), v) {
			t.hits++
			return idx
		}
	}
	idx := uint32(t.count)
	t.out = append(t.out, v...)
	t.count++
	t.buckets[key] = append(t.buckets[key], idx)
	return idx
}

// Vertex returns canonical vertex i.
func (t *Table) Vertex(i int) []uint32 {
	return t.out[i*t.vertexSize : (i+1)*t.vertexSize]
}

// Len returns the number of distinct vertices.
func (t *Table) Len() int { return t.count }

// Hits returns how many Add calls found an existing vertex.
func (t *Table) Hits() int { return t.hits }

// Words returns the canonical vertices.
func (t *Table) Words() []uint32 { return t.out }
