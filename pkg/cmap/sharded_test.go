package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultShardCount},
		{-4, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{32, 32},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			if got := NewWithShards[int](tt.in).ShardCount(); got != tt.want {
				t.Errorf("ShardCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMap_Basic(t *testing.T) {
	m := New[int]()

	if _, ok := m.Get("a"); ok {
		t.Error("Get on empty map found a value")
	}

	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)

	if v, ok := m.Get("a"); !ok || v != 3 {
		t.Errorf("Get(a) = %d, %v; want 3, true", v, ok)
	}
	if !m.Has("b") || m.Len() != 2 {
		t.Errorf("Has(b) = %v, Len() = %d", m.Has("b"), m.Len())
	}

	m.Delete("b")
	if m.Has("b") || m.Len() != 1 {
		t.Errorf("after Delete: Has(b) = %v, Len() = %d", m.Has("b"), m.Len())
	}
}

func TestMap_SetIfAbsent(t *testing.T) {
	m := New[string]()

	if !m.SetIfAbsent("k", "first") {
		t.Error("SetIfAbsent on a new key returned false")
	}
	if m.SetIfAbsent("k", "second") {
		t.Error("SetIfAbsent on an existing key returned true")
	}
	if v, _ := m.Get("k"); v != "first" {
		t.Errorf("Get(k) = %q, want first", v)
	}
}

func TestMap_RangeStops(t *testing.T) {
	m := New[int]()
	for i := range 100 {
		m.Set(fmt.Sprint(i), i)
	}

	calls := 0
	m.Range(func(string, int) bool {
		calls++
		return calls < 5
	})
	if calls != 5 {
		t.Errorf("Range made %d calls, want 5", calls)
	}
}

func TestMap_Clone(t *testing.T) {
	m := NewWithShards[int](4)
	for i := range 50 {
		m.Set(fmt.Sprintf("/data/%d", i), i)
	}

	c := m.Clone()
	if len(c) != 50 {
		t.Fatalf("len(Clone()) = %d, want 50", len(c))
	}
	c["/data/0"] = -1
	if v, _ := m.Get("/data/0"); v != 0 {
		t.Error("Clone shares storage with the map")
	}
}

func TestMap_Concurrent(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := fmt.Sprintf("w%d/%d", w, i)
				m.Set(key, i)
				m.Get(key)
			}
		}()
	}
	wg.Wait()

	if m.Len() != 8*200 {
		t.Errorf("Len() = %d, want %d", m.Len(), 8*200)
	}
}

func BenchmarkMap_Set(b *testing.B) {
	m := New[int]()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Set(fmt.Sprint(i), i)
			i++
		}
	})
}
