package cache

import (
	"strconv"
	"testing"
)

func TestLRUEviction(t *testing.T) {
	c := New[string, int](2)
	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a missing")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction, want least recently used evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestGetOrCreate(t *testing.T) {
	c := New[int, string](0)
	calls := 0
	create := func() string { calls++; return "v" }
	for i := 0; i < 3; i++ {
		if got := c.GetOrCreate(7, create); got != "v" {
			t.Fatalf("GetOrCreate = %q", got)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want 2 hits 1 miss", s)
	}
}

func TestDeleteFunc(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < 10; i++ {
		c.Set(i, i)
	}
	if n := c.DeleteFunc(func(_, v int) bool { return v%2 == 0 }); n != 5 {
		t.Errorf("DeleteFunc removed %d, want 5", n)
	}
	if c.Delete(3) != true || c.Delete(3) != false {
		t.Error("Delete(3) twice should report true then false")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New[string, int](1000)
	for i := 0; i < 100; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("50")
	}
}
