package store

import (
	"errors"
	"testing"

	"github.com/gogpu/vbo/gl"
)

func TestVertexStoreAppend(t *testing.T) {
	s := NewVertexStore(4, nil)
	s.SetVertexSize(2)
	for i := 0; i < 5; i++ {
		if err := s.Append([]uint32{uint32(i), uint32(i * 10)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if s.Count() != 5 || s.Used() != 10 {
		t.Errorf("Count() = %d, Used() = %d, want 5, 10", s.Count(), s.Used())
	}
	if v := s.Vertex(3); v[0] != 3 || v[1] != 30 {
		t.Errorf("Vertex(3) = %v", v)
	}
	c := s.Cap()
	s.Reset()
	if s.Used() != 0 || s.Cap() != c {
		t.Errorf("after Reset: used %d cap %d, want 0 %d", s.Used(), s.Cap(), c)
	}
}

func TestVertexStoreOutOfMemory(t *testing.T) {
	fail := false
	s := NewVertexStore(2, func(n int) ([]uint32, error) {
		if fail {
			return nil, errors.New("no memory")
		}
		return make([]uint32, n), nil
	})
	s.SetVertexSize(2)
	if err := s.Append([]uint32{1, 2}); err != nil {
		t.Fatal(err)
	}
	fail = true
	if err := s.Append([]uint32{3, 4}); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Append error = %v, want ErrOutOfMemory", err)
	}
	fail = false
	if err := s.Append([]uint32{3, 4}); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("sticky OOM lost: %v", err)
	}
	if s.Used() != 2 {
		t.Errorf("Used() = %d after failed appends, want 2", s.Used())
	}
	s.Recover()
	if s.OutOfMemory() {
		t.Error("still out of memory after Recover")
	}
	if err := s.Append([]uint32{3, 4}); err != nil {
		t.Errorf("Append after Recover: %v", err)
	}
}

func TestVertexStoreSizeChangePanics(t *testing.T) {
	s := NewVertexStore(8, nil)
	s.SetVertexSize(2)
	_ = s.Append([]uint32{1, 2})
	defer func() {
		if recover() == nil {
			t.Error("SetVertexSize with stored vertices did not panic")
		}
	}()
	s.SetVertexSize(3)
}

func TestPrimitiveStore(t *testing.T) {
	p := NewPrimitiveStore(2)
	p.Begin(gl.Triangles, 0)
	last := p.End(6)
	if last.Count != 6 || !last.Begin || !last.End {
		t.Errorf("End() = %v", *last)
	}
	p.Begin(gl.Lines, 6)
	if !p.Full() {
		t.Error("Full() = false at cap")
	}
	p.Reset()
	if p.Len() != 0 || p.Last() != nil {
		t.Errorf("Reset left %d prims", p.Len())
	}
}
